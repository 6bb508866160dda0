// Package host models the parts of a contract host that the value contract
// depends on: the compact runtime value, the object store that owns
// composite values, the budget, and the environment comparer.
//
// # Runtime values
//
// A Val is a 64-bit word. The low 8 bits are a Tag; the upper 56 bits are the
// body. Small scalars live in the body; everything else lives in the env's
// object table and the body carries a handle:
//
//	 63            32 31         8 7      0
//	+----------------+------------+--------+
//	|     major      |   minor    |  tag   |
//	+----------------+------------+--------+
//
// Payload placement by tag:
//   - U32, I32: payload in major
//   - U64Small, I64Small: 56-bit payload in major|minor
//   - SymbolSmall: up to 9 chars at 6 bits each in major|minor
//   - Status: code in major, status type in minor
//   - objects: handle in major, owning env id in minor
//
// # Handles
//
// A handle is only meaningful in the env that issued it. Each env stamps its
// id into the handles it issues, so a handle presented to another env fails
// with ErrCodeForeignHandle instead of resolving to an unrelated object.
//
// # Threading
//
// An Env is single-goroutine: no suspension points, no concurrent mutation of
// the object table during a call. Independent work uses independent envs.
package host
