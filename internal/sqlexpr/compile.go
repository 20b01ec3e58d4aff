package sqlexpr

import (
	"strings"

	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

// Marker renders the bind marker for a named parameter.
type Marker func(name string) string

// AtMarker renders @name. It is the marker used when Context.Marker is nil.
func AtMarker(name string) string { return "@" + name }

// Context drives leaf classification for one compile call.
type Context struct {
	// Metadata describes the entity whose members render as columns.
	Metadata *meta.EntityMetadata

	// ParamType is the parameter object type whose members render as bind
	// markers. Zero means no parameter object.
	ParamType ir.TypeID

	// Marker is the dialect's parameter marker hook.
	Marker Marker

	// Env evaluates constant-foldable sub-trees. May be nil.
	Env *expr.Env
}

// Fragment is a compiled clause plus the bind parameters it references, one
// entry per occurrence in order of appearance.
type Fragment struct {
	SQL    string
	Params []string
}

// CompilePredicate compiles a boolean expression into a WHERE fragment.
// A top-level lambda over the entity type is unwrapped.
func CompilePredicate(ctx Context, n expr.Node) (string, error) {
	f, err := CompilePredicateFragment(ctx, n)
	return f.SQL, err
}

// CompileOrder compiles an OrderBy/OrderByDescending chain into a
// comma-separated ORDER BY list, first-applied key first.
func CompileOrder(ctx Context, n expr.Node) (string, error) {
	f, err := CompileOrderFragment(ctx, n)
	return f.SQL, err
}

// CompileScalar compiles an aggregate projection (Count, Average, Sum).
func CompileScalar(ctx Context, n expr.Node) (string, error) {
	f, err := CompileScalarFragment(ctx, n)
	return f.SQL, err
}

// CompilePredicateFragment is CompilePredicate with parameter tracking.
func CompilePredicateFragment(ctx Context, n expr.Node) (Fragment, error) {
	return run(ctx, n, (*compiler).predicate)
}

// CompileOrderFragment is CompileOrder with parameter tracking.
func CompileOrderFragment(ctx Context, n expr.Node) (Fragment, error) {
	return run(ctx, n, (*compiler).order)
}

// CompileScalarFragment is CompileScalar with parameter tracking.
func CompileScalarFragment(ctx Context, n expr.Node) (Fragment, error) {
	return run(ctx, n, (*compiler).scalar)
}

func run(ctx Context, n expr.Node, fn func(*compiler, expr.Node) (string, error)) (Fragment, error) {
	if expr.Unwrap(n) == nil {
		return Fragment{}, nil
	}
	if ctx.Metadata == nil {
		return Fragment{}, &meta.ConfigurationError{Message: "compilation context has no entity metadata"}
	}
	c := &compiler{ctx: ctx}
	if c.ctx.Marker == nil {
		c.ctx.Marker = AtMarker
	}
	sql, err := fn(c, n)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: sql, Params: c.params}, nil
}

// compiler holds the state of a single compile call.
type compiler struct {
	ctx    Context
	params []string
}

func (c *compiler) entity() ir.TypeID { return c.ctx.Metadata.SourceType() }

// body unwraps a lambda over the entity or query root.
func (c *compiler) body(n expr.Node) expr.Node {
	if l, ok := expr.Unwrap(n).(expr.Lambda); ok {
		return l.Body
	}
	return n
}

func (c *compiler) predicate(n expr.Node) (string, error) {
	return c.node(c.body(n))
}

// node compiles n in boolean or value position.
func (c *compiler) node(n expr.Node) (string, error) {
	n = expr.Unwrap(n)
	if n == nil {
		return "", unsupported(n, "missing operand")
	}
	if _, isConst := n.(expr.Constant); !isConst && c.foldable(n) {
		return c.literal(n)
	}

	switch v := n.(type) {
	case expr.BinaryOp:
		return c.binary(v)
	case expr.UnaryOp:
		return c.unary(v)
	case expr.MemberRef:
		return c.member(v)
	case expr.Constant:
		return c.constant(v)
	case expr.MethodCall:
		return c.method(v)
	case expr.Constructed:
		return "", unsupported(v, "construction depends on the entity or parameters")
	case expr.Lambda:
		return "", unsupported(v, "lambda outside an order or aggregate selector")
	case expr.Param:
		return "", unsupported(v, "bare placeholder in value position")
	default:
		return "", unsupported(n, "unknown node %T", n)
	}
}

func (c *compiler) foldable(n expr.Node) bool {
	return expr.Foldable(n, c.entity(), c.ctx.ParamType)
}

// eval folds n on the host.
func (c *compiler) eval(n expr.Node) (ir.IRValue, error) {
	v, err := c.ctx.Env.Eval(n)
	if err != nil {
		e := unsupported(n, "cannot evaluate on the host")
		e.Err = err
		return nil, e
	}
	return v, nil
}

func (c *compiler) literal(n expr.Node) (string, error) {
	v, err := c.eval(n)
	if err != nil {
		return "", err
	}
	return c.valueLiteral(n, v)
}

func (c *compiler) constant(k expr.Constant) (string, error) {
	v, err := c.eval(k)
	if err != nil {
		return "", err
	}
	return c.valueLiteral(k, v)
}

func (c *compiler) valueLiteral(n expr.Node, v ir.IRValue) (string, error) {
	switch ir.KindOf(v) {
	case ir.KindNull:
		return "", unsupported(n, "null outside an equality comparison")
	case ir.KindArray, ir.KindObject:
		return "", unsupported(n, "%s value has no literal form", ir.KindOf(v))
	}
	return FormatLiteral(v), nil
}

func (c *compiler) member(m expr.MemberRef) (string, error) {
	switch {
	case m.Owner == c.entity():
		f, ok := c.ctx.Metadata.Field(m.Member)
		if !ok {
			return "", &UnknownFieldError{Type: m.Owner, Member: m.Member}
		}
		return f.ColumnName, nil
	case !c.ctx.ParamType.IsZero() && m.Owner == c.ctx.ParamType:
		c.params = append(c.params, m.Member)
		return c.ctx.Marker(m.Member), nil
	default:
		return c.literal(m)
	}
}

// isParam reports whether n is a bind parameter reference.
func (c *compiler) isParam(n expr.Node) bool {
	m, ok := expr.Unwrap(n).(expr.MemberRef)
	return ok && !c.ctx.ParamType.IsZero() && m.Owner == c.ctx.ParamType
}

var sqlOperators = map[expr.Operator]string{
	expr.OpAnd: "AND",
	expr.OpOr:  "OR",
	expr.OpEq:  "=",
	expr.OpNe:  "<>",
	expr.OpLt:  "<",
	expr.OpLe:  "<=",
	expr.OpGt:  ">",
	expr.OpGe:  ">=",
}

func (c *compiler) binary(b expr.BinaryOp) (string, error) {
	switch {
	case b.Op.IsLogical():
		return c.logical(b)
	case b.Op.IsComparison():
		return c.comparison(b)
	case b.Op.IsArithmetic():
		return "", unsupported(b, "arithmetic over entity members or parameters")
	default:
		return "", unsupported(b, "operator %q", b.Op)
	}
}

// logical renders a chain of AND/OR. A logical child is parenthesized iff
// its operator differs from b.Op.
func (c *compiler) logical(b expr.BinaryOp) (string, error) {
	left, err := c.operand(b.Left, b.Op)
	if err != nil {
		return "", err
	}
	right, err := c.operand(b.Right, b.Op)
	if err != nil {
		return "", err
	}
	return left + " " + sqlOperators[b.Op] + " " + right, nil
}

// operand compiles a child of a node with operator parent.
func (c *compiler) operand(n expr.Node, parent expr.Operator) (string, error) {
	s, err := c.node(n)
	if err != nil {
		return "", err
	}
	if child, ok := expr.Unwrap(n).(expr.BinaryOp); ok && !c.foldable(child) {
		if parent.IsComparison() || (child.Op.IsLogical() && child.Op != parent) {
			return "(" + s + ")", nil
		}
	}
	return s, nil
}

func (c *compiler) comparison(b expr.BinaryOp) (string, error) {
	if s, ok, err := c.nullComparison(b); ok || err != nil {
		return s, err
	}
	if s, ok, err := c.charComparison(b); ok || err != nil {
		return s, err
	}

	left, err := c.operand(b.Left, b.Op)
	if err != nil {
		return "", err
	}
	right, err := c.operand(b.Right, b.Op)
	if err != nil {
		return "", err
	}
	return left + " " + sqlOperators[b.Op] + " " + right, nil
}

// nullComparison renders x == null as IS NULL and x != null as IS NOT NULL.
func (c *compiler) nullComparison(b expr.BinaryOp) (string, bool, error) {
	subject := b.Left
	switch {
	case c.isNull(b.Right):
	case c.isNull(b.Left):
		subject = b.Right
	default:
		return "", false, nil
	}

	var suffix string
	switch b.Op {
	case expr.OpEq:
		suffix = " IS NULL"
	case expr.OpNe:
		suffix = " IS NOT NULL"
	default:
		return "", true, unsupported(b, "null in %s comparison", b.Op)
	}
	if c.isNull(subject) {
		return "", true, unsupported(b, "comparison of null with null")
	}

	s, err := c.operand(subject, b.Op)
	if err != nil {
		return "", true, err
	}
	return s + suffix, true, nil
}

func (c *compiler) isNull(n expr.Node) bool {
	if !c.foldable(n) {
		return false
	}
	v, err := c.ctx.Env.Eval(n)
	return err == nil && ir.KindOf(v) == ir.KindNull
}

// charComparison quotes the constant side of a comparison against a
// char-typed column, on whichever side the conversion appears.
func (c *compiler) charComparison(b expr.BinaryOp) (string, bool, error) {
	if col, ok := c.charColumn(b.Left); ok && c.foldable(b.Right) {
		lit, err := c.charLiteral(b.Right)
		if err != nil {
			return "", true, err
		}
		col, err := c.member(col)
		if err != nil {
			return "", true, err
		}
		return col + " " + sqlOperators[b.Op] + " " + lit, true, nil
	}
	if col, ok := c.charColumn(b.Right); ok && c.foldable(b.Left) {
		lit, err := c.charLiteral(b.Left)
		if err != nil {
			return "", true, err
		}
		col, err := c.member(col)
		if err != nil {
			return "", true, err
		}
		return lit + " " + sqlOperators[b.Op] + " " + col, true, nil
	}
	return "", false, nil
}

// charColumn matches a conversion of a char-typed entity member.
func (c *compiler) charColumn(n expr.Node) (expr.MemberRef, bool) {
	u, ok := expr.Unwrap(n).(expr.UnaryOp)
	if !ok || u.Op != expr.OpConvert {
		return expr.MemberRef{}, false
	}
	m, ok := expr.Unwrap(u.Operand).(expr.MemberRef)
	if !ok || m.Owner != c.entity() {
		return expr.MemberRef{}, false
	}
	if m.Kind == ir.KindChar {
		return m, true
	}
	if f, ok := c.ctx.Metadata.Field(m.Member); ok && f.Kind == ir.KindChar {
		return m, true
	}
	return expr.MemberRef{}, false
}

func (c *compiler) charLiteral(n expr.Node) (string, error) {
	v, err := c.eval(n)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case ir.IRInt:
		return FormatLiteral(ir.IRChar(rune(x))), nil
	case ir.IRChar, ir.IRString:
		return FormatLiteral(x), nil
	default:
		return "", unsupported(n, "%s compared with a char column", ir.KindOf(v))
	}
}

func (c *compiler) unary(u expr.UnaryOp) (string, error) {
	switch u.Op {
	case expr.OpNot:
		s, err := c.node(u.Operand)
		if err != nil {
			return "", err
		}
		if b, ok := expr.Unwrap(u.Operand).(expr.BinaryOp); ok && !c.foldable(b) {
			return "NOT (" + s + ")", nil
		}
		return "NOT " + s, nil
	case expr.OpConvert:
		return c.node(u.Operand)
	case expr.OpNegate:
		s, err := c.node(u.Operand)
		if err != nil {
			return "", err
		}
		if _, ok := expr.Unwrap(u.Operand).(expr.BinaryOp); ok {
			return "-(" + s + ")", nil
		}
		return "-" + s, nil
	default:
		return "", unsupported(u, "unary operator %q", u.Op)
	}
}

// order renders an ordering chain rooted at the bare placeholder.
func (c *compiler) order(n expr.Node) (string, error) {
	keys, err := c.orderKeys(c.body(n))
	if err != nil {
		return "", err
	}
	return strings.Join(keys, ", "), nil
}

var orderMethods = map[string]bool{
	"OrderBy":           false,
	"ThenBy":            false,
	"OrderByDescending": true,
	"ThenByDescending":  true,
}

func (c *compiler) orderKeys(n expr.Node) ([]string, error) {
	switch v := expr.Unwrap(n).(type) {
	case expr.Param:
		if !c.isRoot(v) {
			return nil, unsupported(v, "order chain rooted at %s", v.Type)
		}
		return nil, nil
	case expr.MethodCall:
		desc, ok := orderMethods[v.Method]
		if !ok || v.Receiver == nil || len(v.Args) != 1 {
			return nil, unsupported(v, "malformed order chain")
		}
		keys, err := c.orderKeys(v.Receiver)
		if err != nil {
			return nil, err
		}
		key, err := c.selector(v, v.Args[0])
		if err != nil {
			return nil, err
		}
		if desc {
			key += " DESC"
		}
		return append(keys, key), nil
	default:
		return nil, unsupported(n, "malformed order chain")
	}
}

// isRoot reports whether p is the query root placeholder.
func (c *compiler) isRoot(p expr.Param) bool {
	return p.Type.IsZero() || p.Type == c.entity()
}

// selector compiles the body of a lambda argument x => x.Member.
func (c *compiler) selector(call expr.MethodCall, arg expr.Node) (string, error) {
	l, ok := expr.Unwrap(arg).(expr.Lambda)
	if !ok {
		return "", unsupported(call, "%s expects a selector lambda", call.Method)
	}
	return c.node(l.Body)
}

// scalar renders an aggregate projection over the query root.
func (c *compiler) scalar(n expr.Node) (string, error) {
	call, ok := expr.Unwrap(c.body(n)).(expr.MethodCall)
	if !ok {
		return "", unsupported(n, "scalar projection must be an aggregate call")
	}
	if call.Receiver != nil {
		root, ok := expr.Unwrap(call.Receiver).(expr.Param)
		if !ok || !c.isRoot(root) {
			return "", unsupported(call, "aggregate receiver must be the query root")
		}
	}

	switch call.Method {
	case "Count":
		if len(call.Args) != 0 {
			return "", unsupported(call, "Count takes no arguments")
		}
		return "COUNT(1)", nil
	case "Average", "Sum":
		if len(call.Args) != 1 {
			return "", unsupported(call, "%s expects one selector", call.Method)
		}
		sel, err := c.selector(call, call.Args[0])
		if err != nil {
			return "", err
		}
		fn := "AVG"
		if call.Method == "Sum" {
			fn = "SUM"
		}
		return fn + "(" + sel + ")", nil
	default:
		return "", unsupported(call, "aggregate %s", call.Method)
	}
}
