// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package failures

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTable_EveryOperationHasAPrimaryRoute(t *testing.T) {
	ops := []Operation{
		OpGenericFailure, OpNullAccess, OpInvalidArgument, OpBoundsViolation,
		OpForbiddenAccess, OpSimulatedIO, OpParseFailure, OpStackExhaustion,
		OpDeadlockOne, OpDeadlockTwo, OpParamVariant,
	}
	for _, op := range ops {
		r, ok := Lookup(op)
		require.True(t, ok, "no primary route for %s", op)
		assert.False(t, r.Alias)
		assert.True(t, strings.HasPrefix(r.Path, "/"), r.Path)
	}
}

func TestRouteTable_PathsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range RouteTable() {
		assert.False(t, seen[r.Path], "duplicate path %s", r.Path)
		seen[r.Path] = true
	}
}

func TestRouteTable_ParamsMatchPaths(t *testing.T) {
	for _, r := range RouteTable() {
		if r.Param == "" {
			assert.NotContains(t, r.Path, ":", r.Path)
			continue
		}
		assert.True(t, strings.HasSuffix(r.Path, "/:"+r.Param), r.Path)
	}
}

func TestRouteTable_ReturnsCopy(t *testing.T) {
	first := RouteTable()
	first[0].Path = "/mutated"
	first[0].Kind = KindDeadlock

	second := RouteTable()
	assert.Equal(t, "/generic-failure", second[0].Path)
	assert.Equal(t, KindGeneric, second[0].Kind)
}

func TestRouteTable_StablePaths(t *testing.T) {
	want := map[Operation]string{
		OpGenericFailure:  "/generic-failure",
		OpNullAccess:      "/null-access",
		OpInvalidArgument: "/invalid-arg",
		OpBoundsViolation: "/out-of-bounds",
		OpForbiddenAccess: "/forbidden-access",
		OpSimulatedIO:     "/io-error",
		OpParseFailure:    "/parse-error/:value",
		OpStackExhaustion: "/stack-overflow",
		OpDeadlockOne:     "/deadlock/one",
		OpDeadlockTwo:     "/deadlock/two",
		OpParamVariant:    "/param-variant/:param",
	}
	for op, path := range want {
		r, ok := Lookup(op)
		require.True(t, ok)
		assert.Equal(t, path, r.Path, op)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup(Operation("Nope"))
	assert.False(t, ok)
}
