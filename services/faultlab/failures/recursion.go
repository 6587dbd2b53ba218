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

// frameWords sizes the array copied into every recursive frame.
const frameWords = 32

// StackExhaustion recurses with no base case until the goroutine stack
// exceeds the runtime limit (see runtime/debug.SetMaxStack). The runtime then
// aborts the whole process with "fatal error: stack overflow". This is not a
// panic: deferred functions do not run and recover cannot intercept it.
//
// StackExhaustion never returns.
func StackExhaustion() int {
	return recurse(0, [frameWords]uint64{})
}

// recurse uses its own result after the call, so every level keeps a live
// frame.
func recurse(depth int, frame [frameWords]uint64) int {
	frame[depth%frameWords] = uint64(depth)
	return recurse(depth+1, frame) + int(frame[0])
}
