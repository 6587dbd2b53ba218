// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package failures implements the canned failure triggers served by FaultLab.
//
// Each trigger produces exactly one failure outcome so that error pages,
// status mapping, tracing, metrics and crash tooling can be exercised
// against a known input. Triggers never recover their own failures: errors
// are returned to the caller, runtime panics escape, and the stack
// exhaustion trigger aborts the process.
//
// # Failure Kinds
//
//	Kind                  Produced by                 HTTP status
//	generic_failure       GenericFailure              500
//	null_access           NullAccess, ParamVariant    500 (runtime panic)
//	invalid_argument      InvalidArgument             500
//	bounds_violation      BoundsViolation             500 (runtime panic)
//	forbidden_access      ForbiddenAccess             403
//	simulated_io          SimulatedIO                 500
//	parse_failure         ParseFailure                500
//	database_simulation   ParamVariant                500
//	stack_exhaustion      StackExhaustion             fatal, process exits
//	deadlock              DeadlockOne + DeadlockTwo   none, requests block
//
// # Deadlock Pair
//
// Deadlocker owns LockA and LockB. DeadlockOne takes A then B, DeadlockTwo
// takes B then A, each holding its first lock for the configured delay.
// Called together inside that window both block forever:
//
//	DeadlockOne: unlocked ─► holding A ─► waiting on B ─┐
//	                                                     ├─► blocked forever
//	DeadlockTwo: unlocked ─► holding B ─► waiting on A ─┘
//
// There is no timeout, no cancellation and no recovery.
//
// # Thread Safety
//
// All triggers are safe for concurrent use. The route table is immutable.
package failures
