// Package ir provides the foundational value and type-identity model shared
// by the metadata resolver, the expression AST and the SQL compiler.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal. This keeps ir the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Type identity is a plain TypeID string; no runtime reflection is needed
//     to compare the declaring type of a member reference.
//   - Value is a sealed interface. Exhaustive type switches over the kinds
//     listed in Kind are safe in every consumer.
//   - Canonical JSON (RFC 8785 key ordering, NFC strings) is the only
//     serialization used for fingerprints.
package ir
