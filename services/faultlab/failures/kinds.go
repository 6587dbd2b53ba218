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

import "net/http"

// =============================================================================
// Failure Kinds
// =============================================================================

// Kind names a category of unrecovered failure.
//
// Kinds are used as metric labels, span attributes and log fields, so the
// values are stable snake_case strings.
type Kind string

const (
	// KindGeneric is a plain unexpected error.
	KindGeneric Kind = "generic_failure"

	// KindNullAccess is a nil pointer dereference.
	KindNullAccess Kind = "null_access"

	// KindInvalidArgument is a rejected argument from an internal validator.
	KindInvalidArgument Kind = "invalid_argument"

	// KindBoundsViolation is an out-of-range index into a fixed sequence.
	KindBoundsViolation Kind = "bounds_violation"

	// KindForbiddenAccess is the custom error tagged to map to HTTP 403.
	KindForbiddenAccess Kind = "forbidden_access"

	// KindSimulatedIO is an I/O error that never touched real I/O.
	KindSimulatedIO Kind = "simulated_io"

	// KindParseFailure is a rejected integer literal.
	KindParseFailure Kind = "parse_failure"

	// KindDatabaseSimulation is the custom simulated database error.
	KindDatabaseSimulation Kind = "database_simulation"

	// KindStackExhaustion is fatal recursion past the goroutine stack limit.
	KindStackExhaustion Kind = "stack_exhaustion"

	// KindDeadlock is a permanent block on the lock pair. It is not an error.
	KindDeadlock Kind = "deadlock"
)

// Status returns the HTTP status a failure of this kind maps to.
//
// KindForbiddenAccess maps to 403. KindDeadlock and KindStackExhaustion never
// produce a response and return 0. Every other kind maps to 500.
func (k Kind) Status() int {
	switch k {
	case KindForbiddenAccess:
		return http.StatusForbidden
	case KindDeadlock, KindStackExhaustion:
		return 0
	default:
		return http.StatusInternalServerError
	}
}

// AllKinds returns every failure kind in declaration order.
func AllKinds() []Kind {
	return []Kind{
		KindGeneric,
		KindNullAccess,
		KindInvalidArgument,
		KindBoundsViolation,
		KindForbiddenAccess,
		KindSimulatedIO,
		KindParseFailure,
		KindDatabaseSimulation,
		KindStackExhaustion,
		KindDeadlock,
	}
}

// =============================================================================
// Operations
// =============================================================================

// Operation names one trigger in the endpoint set.
type Operation string

const (
	OpGenericFailure  Operation = "GenericFailure"
	OpNullAccess      Operation = "NullAccess"
	OpInvalidArgument Operation = "InvalidArgument"
	OpBoundsViolation Operation = "BoundsViolation"
	OpForbiddenAccess Operation = "ForbiddenAccess"
	OpSimulatedIO     Operation = "SimulatedIO"
	OpParseFailure    Operation = "ParseFailure"
	OpStackExhaustion Operation = "StackExhaustion"
	OpDeadlockOne     Operation = "DeadlockOne"
	OpDeadlockTwo     Operation = "DeadlockTwo"
	OpParamVariant    Operation = "ParamVariant"
)
