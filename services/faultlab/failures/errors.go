// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package failures

import "errors"

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrGeneric is the cause of every GenericFailure.
	ErrGeneric = errors.New("generic failure: something unexpected went wrong")

	// ErrInvalidArgument is returned by the internal validator for negative input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrForbidden is the cause of the 403-tagged forbidden access error.
	ErrForbidden = errors.New("forbidden")

	// ErrSimulatedIO marks I/O errors produced without touching the filesystem.
	ErrSimulatedIO = errors.New("simulated I/O failure")

	// ErrParse marks a value that is not a valid integer literal.
	ErrParse = errors.New("not a valid integer literal")

	// ErrDatabaseSimulation is the cause of the simulated database error.
	ErrDatabaseSimulation = errors.New("simulated database failure")
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// StatusCoder is implemented by errors that carry their own HTTP status.
//
// The error middleware looks for it with errors.As; anything that does not
// implement it is rendered as 500.
type StatusCoder interface {
	StatusCode() int
}

// Error is a tagged failure carrying its Kind and an optional explicit status.
type Error struct {
	// Kind categorizes the failure.
	Kind Kind

	// Status overrides Kind.Status() when non-zero.
	Status int

	// Message is the human-readable summary shown on the error page.
	Message string

	// Err is the underlying cause. Usually one of the sentinels above.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode implements StatusCoder.
func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.Status()
}

var _ StatusCoder = (*Error)(nil)
