// Package harness checks that the runtime and structured representations of
// host values agree.
//
// # Properties
//
// A Property is checked over generated cases. Each case runs in a fresh env:
//
//   - vec_unequal_lengths: two vecs of u32 of independent lengths
//   - map_unequal_lengths: two u32 to u32 maps of independent sizes
//   - different_objects_cmp: two arbitrary values of different tags
//   - metering_parity: two arbitrary values and a random budget limit
//
// For every case that converts, the env comparer, the metered comparer and
// ir.Compare must return the same ordering, ir.PartialCompare must agree with
// ir.Compare, ir.EqualValues must hold exactly when the ordering is Equal, and both
// values must survive a round trip through the structured form.
//
// Cases are skipped, not failed, when a value cannot be converted because it
// contains a status, or when a comparison exhausts its budget. Anything else is
// a Defect, and a run stops at the first one.
//
// # Scenario Format
//
// Scenarios pin concrete pairs in YAML, using the canonical value syntax of
// package ir:
//
//	name: prefix_rules
//	description: "Shorter prefixes order first"
//	budget: 1000
//	cases:
//	  - name: longer_vec_is_greater
//	    left:  {vec: [{u32: 1}, {u32: 2}, {u32: 3}]}
//	    right: {vec: [{u32: 1}, {u32: 2}]}
//	    expect: greater
//	  - name: starved
//	    left:  {vec: [{u32: 1}]}
//	    right: {vec: [{u32: 1}]}
//	    budget: 1
//	    expect_error: budget_exceeded
//
// String literals are NFC-normalized when loaded, so canonically
// equivalent spellings compare equal. Set raw_strings: true on a scenario to
// keep its literals byte for byte.
//
// # Deterministic Testing
//
// Generated cases are derived from the run seed and the case index only, so
// a run can be reproduced case by case regardless of worker count. Scenario
// results render to a stable text trace for golden file comparison.
package harness
