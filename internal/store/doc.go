// Package store provides SQLite-backed durable storage for equivalence runs.
//
// The store is an append-only log with:
//   - Runs: one summary row per harness.Report
//   - Defects: the first contract violation of a run, if any
//   - Vals: structured operands of defects, content-addressed by ir.Digest
//
// # Critical Patterns
//
// Idempotency: every insert uses ON CONFLICT DO NOTHING. Writing the same
// report twice leaves the store unchanged.
//
// Deterministic query results: every list query has a total ORDER BY,
// ending in a BINARY-collated id.
//
// Content addressing: a stored value is verified against its digest when
// read back, so a corrupted row is an error and not a silently wrong value.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
