// Package ir provides the structured value representation shared by every
// hostval package.
//
// This package contains the value tree, the kind vocabulary, and the
// unmetered total order over values. All other internal packages import ir;
// ir imports nothing internal. This keeps the structured form the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is sealed: only the variant types in value.go implement it
//   - Values own their children; there are no handles or external references
//   - Map entry order is not significant, every comparison sorts by key
//   - Kind declaration order IS the cross-type order (see kind.go)
package ir
