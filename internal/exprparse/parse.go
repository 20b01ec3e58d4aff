package exprparse

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"

	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

// LocalsType is the default owner of $name captured variables.
const LocalsType ir.TypeID = "locals"

// Options describe the types the text refers to.
type Options struct {
	// Metadata is the entity the lambda parameters bind to. Required.
	Metadata *meta.EntityMetadata

	// ParamType owns @Name references. Defaults to "params".
	ParamType ir.TypeID

	// Locals owns $name references. Defaults to LocalsType.
	Locals ir.TypeID
}

// DefaultParamType owns @Name references when Options.ParamType is empty.
const DefaultParamType ir.TypeID = "params"

// ErrCodeParse categorizes malformed expression text.
const ErrCodeParse = "PARSE_ERROR"

// ParseError reports a syntax or binding problem with its source position.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// rootMethods are chain methods accepted without a receiver; the receiver is
// the bare entity parameter.
var rootMethods = map[string]bool{
	"OrderBy":           true,
	"OrderByDescending": true,
	"ThenBy":            true,
	"ThenByDescending":  true,
	"Count":             true,
	"Average":           true,
	"Sum":               true,
}

// constructors build values of a kind from their arguments.
var constructors = map[string]ir.Kind{
	"time":    ir.KindTime,
	"date":    ir.KindTime,
	"uuid":    ir.KindUUID,
	"decimal": ir.KindDecimal,
}

// conversions take one argument and convert it to a kind.
var conversions = map[string]ir.Kind{
	"int":    ir.KindInt,
	"float":  ir.KindFloat,
	"char":   ir.KindChar,
	"string": ir.KindString,
	"bool":   ir.KindBool,
}

// Parse parses src into an expression tree.
//
// The top-level lambda parameter (and every nested lambda parameter) binds
// to the entity: x.Member is a column reference, and x.Method(...) is a
// chain call on the bare parameter. @Name references a member of the
// parameter type, $name a captured variable.
//
//	e => e.Cource == 1 && e.FirstName.StartsWith("Iv")
//	e => e.OrderBy(x => x.Birthday).ThenByDescending(x => x.SecondName)
//	Average(x => x.Cource)
func Parse(src string, opts Options) (expr.Node, error) {
	if opts.Metadata == nil {
		return nil, errors.New("exprparse: metadata is required")
	}
	if opts.ParamType == "" {
		opts.ParamType = DefaultParamType
	}
	if opts.Locals == "" {
		opts.Locals = LocalsType
	}

	ast, err := parser.ParseString("", src)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			pos := perr.Position()
			return nil, &ParseError{Line: pos.Line, Column: pos.Column, Message: perr.Message()}
		}
		return nil, &ParseError{Message: err.Error()}
	}

	c := &converter{opts: opts, scope: map[string]bool{}}
	node, err := c.expression(ast)
	if err != nil {
		return nil, err
	}
	// A top-level lambda is a predicate or chain: the body is the result.
	if l, ok := node.(expr.Lambda); ok {
		return l.Body, nil
	}
	return node, nil
}

type converter struct {
	opts  Options
	scope map[string]bool
}

func (c *converter) entity() ir.TypeID { return c.opts.Metadata.SourceType() }

func (c *converter) errorf(line, col int, format string, args ...any) error {
	return &ParseError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

func (c *converter) expression(e *Expression) (expr.Node, error) {
	if e.Lambda != nil {
		return c.lambda(e.Lambda)
	}
	return c.or(e.Or)
}

func (c *converter) lambda(l *LambdaExpr) (expr.Node, error) {
	shadowed := c.scope[l.Param]
	c.scope[l.Param] = true
	body, err := c.expression(l.Body)
	if !shadowed {
		delete(c.scope, l.Param)
	}
	if err != nil {
		return nil, err
	}
	return expr.Lambda1(c.entity(), body), nil
}

func (c *converter) or(o *OrExpr) (expr.Node, error) {
	nodes := make([]expr.Node, 0, 1+len(o.Right))
	left, err := c.and(o.Left)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, left)
	for _, r := range o.Right {
		n, err := c.and(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return expr.Or(nodes...), nil
}

func (c *converter) and(a *AndExpr) (expr.Node, error) {
	nodes := make([]expr.Node, 0, 1+len(a.Right))
	left, err := c.comparison(a.Left)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, left)
	for _, r := range a.Right {
		n, err := c.comparison(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return expr.And(nodes...), nil
}

func (c *converter) comparison(cmp *Comparison) (expr.Node, error) {
	left, err := c.addition(cmp.Left)
	if err != nil {
		return nil, err
	}
	if cmp.Op == "" {
		return left, nil
	}
	right, err := c.addition(cmp.Right)
	if err != nil {
		return nil, err
	}
	return expr.Binary(left, expr.Operator(cmp.Op), right), nil
}

func (c *converter) addition(a *Addition) (expr.Node, error) {
	left, err := c.multiplication(a.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range a.Rest {
		right, err := c.multiplication(r.Right)
		if err != nil {
			return nil, err
		}
		left = expr.Binary(left, expr.Operator(r.Op), right)
	}
	return left, nil
}

func (c *converter) multiplication(m *Multiplication) (expr.Node, error) {
	left, err := c.unary(m.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range m.Rest {
		right, err := c.unary(r.Right)
		if err != nil {
			return nil, err
		}
		left = expr.Binary(left, expr.Operator(r.Op), right)
	}
	return left, nil
}

func (c *converter) unary(u *Unary) (expr.Node, error) {
	if u.Postfix != nil {
		return c.postfix(u.Postfix)
	}
	operand, err := c.unary(u.Operand)
	if err != nil {
		return nil, err
	}
	if u.Op == "!" {
		return expr.Not(operand), nil
	}
	return expr.UnaryOp{Op: expr.OpNegate, Operand: operand}, nil
}

func (c *converter) postfix(p *Postfix) (expr.Node, error) {
	selectors := p.Selectors

	var (
		node expr.Node
		err  error
	)
	if p.Primary.Ident != nil && c.scope[*p.Primary.Ident] {
		// x.Member is a column; x alone or x.Method() is the bare parameter.
		if len(selectors) > 0 && !selectors[0].Call {
			node = c.member(selectors[0].Name)
			selectors = selectors[1:]
		} else {
			node = expr.Root(c.entity())
		}
	} else {
		node, err = c.primary(p.Primary)
		if err != nil {
			return nil, err
		}
	}

	for _, s := range selectors {
		if !s.Call {
			return nil, c.errorf(s.Pos.Line, s.Pos.Column, "member access .%s is only supported on a lambda parameter", s.Name)
		}
		args, err := c.arguments(s.Args)
		if err != nil {
			return nil, err
		}
		node = expr.Call(node, s.Name, args...)
	}
	return node, nil
}

func (c *converter) member(name string) expr.MemberRef {
	kind := ir.KindUnknown
	if f, ok := c.opts.Metadata.Field(name); ok {
		kind = f.Kind
	}
	return expr.MemberOf(c.entity(), name, kind)
}

func (c *converter) arguments(in []*Expression) ([]expr.Node, error) {
	args := make([]expr.Node, 0, len(in))
	for _, a := range in {
		n, err := c.expression(a)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return args, nil
}

func (c *converter) primary(p *Primary) (expr.Node, error) {
	switch {
	case p.Float != nil:
		return expr.Const(*p.Float), nil
	case p.Int != nil:
		return expr.Const(*p.Int), nil
	case p.String != nil:
		return expr.Const(*p.String), nil
	case p.Char != nil:
		r, _ := utf8.DecodeRuneInString(*p.Char)
		return expr.Char(r), nil
	case p.Bool != nil:
		return expr.Const(*p.Bool == "true"), nil
	case p.Null:
		return expr.Null(), nil
	case p.Param != nil:
		return expr.Member(c.opts.ParamType, *p.Param), nil
	case p.Var != nil:
		return expr.Member(c.opts.Locals, *p.Var), nil
	case p.Func != nil:
		return c.call(p.Func)
	case p.Ident != nil:
		return nil, c.errorf(p.Pos.Line, p.Pos.Column, "unknown identifier %q", *p.Ident)
	case p.Sub != nil:
		return c.expression(p.Sub)
	}
	return nil, c.errorf(p.Pos.Line, p.Pos.Column, "empty expression")
}

func (c *converter) call(f *FuncCall) (expr.Node, error) {
	args, err := c.arguments(f.Args)
	if err != nil {
		return nil, err
	}
	if kind, ok := constructors[f.Name]; ok {
		return expr.New(kind, args...), nil
	}
	if kind, ok := conversions[f.Name]; ok {
		if len(args) != 1 {
			return nil, c.errorf(f.Pos.Line, f.Pos.Column, "%s() takes exactly one argument", f.Name)
		}
		return expr.Convert(args[0], kind), nil
	}
	if rootMethods[f.Name] {
		return expr.Call(expr.Root(c.entity()), f.Name, args...), nil
	}
	return expr.MethodCall{Method: f.Name, Args: args}, nil
}
