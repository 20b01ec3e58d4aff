// Package expr defines the predicate abstract syntax tree compiled into SQL
// by package sqlexpr.
//
// The tree is supplied by application code (directly through the builders in
// this package, or by parsing text with package exprparse) and is never
// mutated by consumers.
//
// SEALED INTERFACE:
//
// Node is a sealed interface using the marker method pattern. Only types in
// this package implement it, which makes exhaustive type switches in the
// compiler safe:
//
//	switch n := node.(type) {
//	case BinaryOp:      // left <op> right
//	case UnaryOp:       // !x, -x, convert(x)
//	case MemberRef:     // owner.member
//	case Constant:      // literal value
//	case MethodCall:    // receiver.method(args)
//	case Constructed:   // time(2020, 1, 2), uuid("...")
//	case Lambda:        // x => body
//	case Param:         // the bare parameter placeholder of a chain
//	}
//
// Nodes are values; pointer forms (*BinaryOp etc.) are accepted by Unwrap
// for callers that prefer to build trees of pointers.
//
// HOST EVALUATION:
//
// Sub-trees that reference neither the entity nor the parameter object are
// evaluated on the host by Env.Eval: captured variables, arithmetic over
// constants, pure method calls on constant receivers and value construction.
// Foldable decides whether a sub-tree qualifies.
package expr
