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

import (
	"fmt"
	"io/fs"
	"strconv"
)

// Literals ParamVariant branches on. Compared with ==, nothing else.
const (
	ParamTrigger         = "trigger"
	ParamSimulateDBIssue = "simulateDbIssue"
)

// invalidInput is the fixed value InvalidArgument feeds the validator.
const invalidInput = -5

// simulatedPath is reported by SimulatedIO. It is never opened.
const simulatedPath = "data/simulated/records.dat"

// probeIndex is a variable so the bounds check happens at run time.
var probeIndex = 5

// GenericFailure always fails.
func GenericFailure() error {
	return &Error{
		Kind:    KindGeneric,
		Message: "generic failure triggered",
		Err:     ErrGeneric,
	}
}

// NullAccess dereferences a nil pointer. It always panics with a
// runtime.Error and never returns.
func NullAccess() int {
	var data *string
	return len(*data)
}

// InvalidArgument calls the internal validator with a fixed negative value.
func InvalidArgument() error {
	return validateInput(invalidInput)
}

func validateInput(value int) error {
	if value < 0 {
		return &Error{
			Kind:    KindInvalidArgument,
			Message: fmt.Sprintf("input value %d cannot be negative", value),
			Err:     ErrInvalidArgument,
		}
	}
	return nil
}

// BoundsViolation reads past the end of a three element sequence. It always
// panics with a runtime.Error and never returns.
func BoundsViolation() int {
	numbers := []int{1, 2, 3}
	return numbers[probeIndex]
}

// ForbiddenAccess fails with the error tagged to map to HTTP 403.
func ForbiddenAccess() error {
	return &Error{
		Kind:    KindForbiddenAccess,
		Status:  KindForbiddenAccess.Status(),
		Message: "you do not have permission to access this resource",
		Err:     ErrForbidden,
	}
}

// SimulatedIO fails with an I/O error from a helper that never does I/O.
//
// The returned error matches ErrSimulatedIO, fs.ErrPermission and
// *fs.PathError.
func SimulatedIO() error {
	if err := simulateFileRead(); err != nil {
		return &Error{
			Kind:    KindSimulatedIO,
			Message: "failed to read data from simulated file",
			Err:     fmt.Errorf("%w: %w", ErrSimulatedIO, err),
		}
	}
	return nil
}

func simulateFileRead() error {
	return &fs.PathError{Op: "read", Path: simulatedPath, Err: fs.ErrPermission}
}

// ParseFailure parses value as a base-10 32-bit integer without any prior
// validation. Valid literals, signed or not, return the parsed value.
func ParseFailure(value string) (int, error) {
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, &Error{
			Kind:    KindParseFailure,
			Message: fmt.Sprintf("cannot parse %q as an integer", value),
			Err:     fmt.Errorf("%w: %w", ErrParse, err),
		}
	}
	return int(n), nil
}

// ParamVariant branches on exact string equality.
//
//   - ParamTrigger: nil dereference, panics.
//   - ParamSimulateDBIssue: returns the simulated database error.
//   - anything else: returns param unchanged.
func ParamVariant(param string) (string, error) {
	switch param {
	case ParamTrigger:
		NullAccess()
	case ParamSimulateDBIssue:
		return "", &Error{
			Kind:    KindDatabaseSimulation,
			Message: "simulated database issue while loading records",
			Err:     ErrDatabaseSimulation,
		}
	}
	return param, nil
}
