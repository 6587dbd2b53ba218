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

// Route is one entry of the route table: a GET path bound to an operation.
type Route struct {
	// Path uses gin syntax; parameterized routes end in ":<Param>".
	Path string `json:"path"`

	// Operation is the trigger the path invokes.
	Operation Operation `json:"operation"`

	// Kind is the failure the trigger produces on its failing branch.
	Kind Kind `json:"kind"`

	// Param is the path parameter name, empty for input-free triggers.
	Param string `json:"param,omitempty"`

	// Alias marks a legacy path kept for existing dashboards and scripts.
	Alias bool `json:"alias,omitempty"`

	// Summary is a one-line description shown by /faults and the CLI.
	Summary string `json:"summary"`
}

// routeTable is built once and never mutated. Callers get copies.
var routeTable = []Route{
	{Path: "/generic-failure", Operation: OpGenericFailure, Kind: KindGeneric,
		Summary: "always fails with a generic error"},
	{Path: "/oups", Operation: OpGenericFailure, Kind: KindGeneric, Alias: true,
		Summary: "always fails with a generic error"},
	{Path: "/null-access", Operation: OpNullAccess, Kind: KindNullAccess,
		Summary: "dereferences a nil pointer"},
	{Path: "/null-pointer", Operation: OpNullAccess, Kind: KindNullAccess, Alias: true,
		Summary: "dereferences a nil pointer"},
	{Path: "/invalid-arg", Operation: OpInvalidArgument, Kind: KindInvalidArgument,
		Summary: "validates a fixed negative value"},
	{Path: "/out-of-bounds", Operation: OpBoundsViolation, Kind: KindBoundsViolation,
		Summary: "indexes past the end of a three element sequence"},
	{Path: "/forbidden-access", Operation: OpForbiddenAccess, Kind: KindForbiddenAccess,
		Summary: "fails with an error tagged as 403 Forbidden"},
	{Path: "/io-error", Operation: OpSimulatedIO, Kind: KindSimulatedIO,
		Summary: "fails with a permission denied read error without doing I/O"},
	{Path: "/parse-error/:value", Operation: OpParseFailure, Kind: KindParseFailure, Param: "value",
		Summary: "parses value as a 32-bit integer, succeeds for valid literals"},
	{Path: "/stack-overflow", Operation: OpStackExhaustion, Kind: KindStackExhaustion,
		Summary: "recurses without a base case, aborting the process"},
	{Path: "/deadlock/one", Operation: OpDeadlockOne, Kind: KindDeadlock,
		Summary: "takes lock A, waits, then lock B"},
	{Path: "/deadlock/two", Operation: OpDeadlockTwo, Kind: KindDeadlock,
		Summary: "takes lock B, waits, then lock A"},
	{Path: "/param-variant/:param", Operation: OpParamVariant, Kind: KindNullAccess, Param: "param",
		Summary: `"trigger" dereferences nil, "simulateDbIssue" fails with a database error`},
}

// RouteTable returns a copy of the route table in registration order.
func RouteTable() []Route {
	out := make([]Route, len(routeTable))
	copy(out, routeTable)
	return out
}

// Lookup returns the primary (non-alias) route for an operation.
func Lookup(op Operation) (Route, bool) {
	for _, r := range routeTable {
		if r.Operation == op && !r.Alias {
			return r, true
		}
	}
	return Route{}, false
}
