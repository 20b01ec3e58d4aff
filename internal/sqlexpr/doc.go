// Package sqlexpr compiles expression trees into SQL fragments.
//
// The compiler is a pure recursive walk over expr.Node. Every MemberRef leaf
// is classified against the compilation Context:
//
//   - owned by the entity type: rendered as its mapped column name
//   - owned by the parameter type: rendered as a bind marker via Context.Marker
//   - anything else: evaluated on the host and rendered as a literal
//
// Three entry points cover the clause positions: CompilePredicate (WHERE),
// CompileOrder (ORDER BY) and CompileScalar (aggregate projections). Each
// returns the empty string for a nil node. The *Fragment variants also report
// the bind parameters in order of appearance.
//
// Compilation never produces a partial fragment: a node shape without a rule
// fails with UnsupportedExpressionError.
package sqlexpr
