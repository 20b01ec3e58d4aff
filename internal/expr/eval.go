package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/exprsql/internal/ir"
)

// Func is a pure host function. Receiver is nil for static calls.
type Func func(receiver ir.IRValue, args []ir.IRValue) (ir.IRValue, error)

// Env is the host evaluation facility for constant-foldable sub-trees.
//
// Vars holds captured values by owner type and member name, so a closure
// variable `limit` captured from scope "locals" is MemberRef{Owner: "locals",
// Member: "limit"}. Funcs extends or overrides the builtin methods.
//
// A nil *Env is valid and evaluates constants and builtins only.
type Env struct {
	Vars  map[ir.TypeID]map[string]any
	Funcs map[string]Func
}

// Bind records a captured value and returns the env for chaining.
func (e *Env) Bind(owner ir.TypeID, member string, value any) *Env {
	if e.Vars == nil {
		e.Vars = make(map[ir.TypeID]map[string]any)
	}
	if e.Vars[owner] == nil {
		e.Vars[owner] = make(map[string]any)
	}
	e.Vars[owner][member] = value
	return e
}

// ErrNotEvaluable is wrapped by every evaluation failure.
var ErrNotEvaluable = errors.New("expression cannot be evaluated on the host")

func notEvaluable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotEvaluable, fmt.Sprintf(format, args...))
}

// Eval evaluates n to a constant value.
func (e *Env) Eval(n Node) (ir.IRValue, error) {
	switch v := Unwrap(n).(type) {
	case nil:
		return nil, notEvaluable("nil node")
	case Constant:
		if v.Value == nil {
			return ir.IRNull{}, nil
		}
		if v.Kind == ir.KindChar {
			if i, ok := v.Value.(ir.IRInt); ok {
				return ir.IRChar(rune(i)), nil
			}
		}
		return v.Value, nil
	case MemberRef:
		return e.lookup(v)
	case UnaryOp:
		return e.evalUnary(v)
	case BinaryOp:
		return e.evalBinary(v)
	case MethodCall:
		return e.evalCall(v)
	case Constructed:
		return e.evalConstructed(v)
	case Lambda:
		return nil, notEvaluable("lambda %s", Format(v))
	case Param:
		return nil, notEvaluable("placeholder %s", v.Type)
	default:
		return nil, notEvaluable("unknown node %T", n)
	}
}

func (e *Env) lookup(m MemberRef) (ir.IRValue, error) {
	if e != nil {
		if scope, ok := e.Vars[m.Owner]; ok {
			if raw, ok := scope[m.Member]; ok {
				val, err := ir.FromGo(raw)
				if err != nil {
					return nil, notEvaluable("%s.%s: %v", m.Owner, m.Member, err)
				}
				return val, nil
			}
		}
	}
	return nil, notEvaluable("no value captured for %s.%s", m.Owner, m.Member)
}

func (e *Env) evalUnary(u UnaryOp) (ir.IRValue, error) {
	val, err := e.Eval(u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case OpNot:
		b, ok := val.(ir.IRBool)
		if !ok {
			return nil, notEvaluable("! applied to %s", ir.KindOf(val))
		}
		return !b, nil
	case OpNegate:
		switch x := val.(type) {
		case ir.IRInt:
			if x == math.MinInt64 {
				return nil, notEvaluable("integer overflow")
			}
			return -x, nil
		case ir.IRFloat:
			return -x, nil
		}
		return nil, notEvaluable("negation of %s", ir.KindOf(val))
	case OpConvert:
		return convertValue(val, u.Type)
	default:
		return nil, notEvaluable("unary operator %q", u.Op)
	}
}

// convertValue performs the numeric and char conversions a host compiler
// inserts implicitly.
func convertValue(val ir.IRValue, to ir.Kind) (ir.IRValue, error) {
	switch to {
	case ir.KindUnknown:
		return val, nil
	case ir.KindInt:
		switch x := val.(type) {
		case ir.IRInt:
			return x, nil
		case ir.IRChar:
			return ir.IRInt(x), nil
		case ir.IRFloat:
			return ir.IRInt(int64(x)), nil
		}
	case ir.KindFloat:
		switch x := val.(type) {
		case ir.IRInt:
			return ir.IRFloat(x), nil
		case ir.IRFloat:
			return x, nil
		}
	case ir.KindChar:
		switch x := val.(type) {
		case ir.IRInt:
			return ir.IRChar(rune(x)), nil
		case ir.IRChar:
			return x, nil
		}
	case ir.KindString:
		return ir.IRString(valueText(val)), nil
	}
	if ir.KindOf(val) == to {
		return val, nil
	}
	return nil, notEvaluable("conversion of %s to %s", ir.KindOf(val), to)
}

func (e *Env) evalBinary(b BinaryOp) (ir.IRValue, error) {
	left, err := e.Eval(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(b.Right)
	if err != nil {
		return nil, err
	}

	switch {
	case b.Op.IsLogical():
		lb, lok := left.(ir.IRBool)
		rb, rok := right.(ir.IRBool)
		if !lok || !rok {
			return nil, notEvaluable("%s over non-boolean operands", b.Op)
		}
		if b.Op == OpAnd {
			return lb && rb, nil
		}
		return lb || rb, nil
	case b.Op.IsComparison():
		return compareValues(b.Op, left, right)
	case b.Op.IsArithmetic():
		return arithmetic(b.Op, left, right)
	default:
		return nil, notEvaluable("binary operator %q", b.Op)
	}
}

func arithmetic(op Operator, left, right ir.IRValue) (ir.IRValue, error) {
	if op == OpAdd {
		if ls, ok := left.(ir.IRString); ok {
			return ls + ir.IRString(valueText(right)), nil
		}
	}

	li, lInt := left.(ir.IRInt)
	ri, rInt := right.(ir.IRInt)
	if lInt && rInt {
		return intArithmetic(op, int64(li), int64(ri))
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, notEvaluable("%s over %s and %s", op, ir.KindOf(left), ir.KindOf(right))
	}
	switch op {
	case OpAdd:
		return ir.IRFloat(lf + rf), nil
	case OpSub:
		return ir.IRFloat(lf - rf), nil
	case OpMul:
		return ir.IRFloat(lf * rf), nil
	case OpDiv:
		return ir.IRFloat(lf / rf), nil
	default:
		return ir.IRFloat(math.Mod(lf, rf)), nil
	}
}

// intArithmetic folds integer operators, failing instead of wrapping.
func intArithmetic(op Operator, l, r int64) (ir.IRValue, error) {
	var (
		v        int64
		overflow bool
	)
	switch op {
	case OpAdd:
		v = l + r
		overflow = (r > 0 && v < l) || (r < 0 && v > l)
	case OpSub:
		v = l - r
		overflow = (r > 0 && v > l) || (r < 0 && v < l)
	case OpMul:
		v = l * r
		overflow = l != 0 && (v/l != r || (l == -1 && r == math.MinInt64))
	case OpDiv, OpMod:
		if r == 0 {
			return nil, notEvaluable("integer division by zero")
		}
		if r == -1 && l == math.MinInt64 {
			if op == OpMod {
				return ir.IRInt(0), nil
			}
			return nil, notEvaluable("integer overflow")
		}
		if op == OpDiv {
			return ir.IRInt(l / r), nil
		}
		return ir.IRInt(l % r), nil
	default:
		return nil, notEvaluable("binary operator %q", op)
	}
	if overflow {
		return nil, notEvaluable("integer overflow")
	}
	return ir.IRInt(v), nil
}

func compareValues(op Operator, left, right ir.IRValue) (ir.IRValue, error) {
	var c int
	switch {
	case isNull(left) || isNull(right):
		if op != OpEq && op != OpNe {
			return nil, notEvaluable("ordering comparison with null")
		}
		eq := isNull(left) && isNull(right)
		return ir.IRBool(eq == (op == OpEq)), nil
	default:
		var err error
		c, err = compareOrdered(left, right)
		if err != nil {
			return nil, err
		}
	}

	switch op {
	case OpEq:
		return ir.IRBool(c == 0), nil
	case OpNe:
		return ir.IRBool(c != 0), nil
	case OpLt:
		return ir.IRBool(c < 0), nil
	case OpLe:
		return ir.IRBool(c <= 0), nil
	case OpGt:
		return ir.IRBool(c > 0), nil
	default:
		return ir.IRBool(c >= 0), nil
	}
}

func compareOrdered(left, right ir.IRValue) (int, error) {
	// Chars compare by code point, and numerically against numbers.
	if l, ok := left.(ir.IRChar); ok {
		left = ir.IRInt(l)
	}
	if r, ok := right.(ir.IRChar); ok {
		right = ir.IRInt(r)
	}
	if lf, ok := toFloat(left); ok {
		if rf, ok := toFloat(right); ok {
			switch {
			case lf < rf:
				return -1, nil
			case lf > rf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	switch l := left.(type) {
	case ir.IRString:
		if r, ok := right.(ir.IRString); ok {
			return strings.Compare(string(l), string(r)), nil
		}
	case ir.IRBool:
		if r, ok := right.(ir.IRBool); ok && l == r {
			return 0, nil
		} else if ok {
			return 1, nil
		}
	case ir.IRTime:
		if r, ok := right.(ir.IRTime); ok {
			return time.Time(l).Compare(time.Time(r)), nil
		}
	case ir.IRUUID:
		if r, ok := right.(ir.IRUUID); ok {
			return strings.Compare(uuid.UUID(l).String(), uuid.UUID(r).String()), nil
		}
	}
	return 0, notEvaluable("comparison of %s and %s", ir.KindOf(left), ir.KindOf(right))
}

func (e *Env) evalCall(m MethodCall) (ir.IRValue, error) {
	var recv ir.IRValue
	if m.Receiver != nil {
		var err error
		recv, err = e.Eval(m.Receiver)
		if err != nil {
			return nil, err
		}
	}
	args := make([]ir.IRValue, len(m.Args))
	for i, a := range m.Args {
		val, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	if e != nil {
		if fn, ok := e.Funcs[m.Method]; ok {
			return fn(recv, args)
		}
	}
	if fn, ok := builtins[m.Method]; ok {
		return fn(recv, args)
	}
	return nil, notEvaluable("unknown method %s", m.Method)
}

func (e *Env) evalConstructed(c Constructed) (ir.IRValue, error) {
	args := make([]ir.IRValue, len(c.Args))
	for i, a := range c.Args {
		val, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return construct(c.Type, args)
}

// construct implements value construction for the supported kinds:
//
//	time(year, month, day[, hour, minute, second])  UTC
//	time("2006-01-02T15:04:05Z")                     RFC 3339 or yyyy-MM-dd
//	uuid("...")
//	decimal("12.50")
//	char(65)
func construct(kind ir.Kind, args []ir.IRValue) (ir.IRValue, error) {
	switch kind {
	case ir.KindTime:
		if len(args) == 1 {
			s, ok := args[0].(ir.IRString)
			if !ok {
				return nil, notEvaluable("time() expects a string or integer parts")
			}
			return parseTime(string(s))
		}
		if len(args) != 3 && len(args) != 6 {
			return nil, notEvaluable("time() expects 3 or 6 integer arguments, got %d", len(args))
		}
		parts := make([]int, 6)
		for i, a := range args {
			n, ok := a.(ir.IRInt)
			if !ok {
				return nil, notEvaluable("time() argument %d is %s", i, ir.KindOf(a))
			}
			parts[i] = int(n)
		}
		return ir.IRTime(time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)), nil
	case ir.KindUUID:
		if len(args) != 1 {
			return nil, notEvaluable("uuid() expects one argument")
		}
		id, err := uuid.Parse(valueText(args[0]))
		if err != nil {
			return nil, notEvaluable("uuid(): %v", err)
		}
		return ir.IRUUID(id), nil
	case ir.KindDecimal:
		if len(args) != 1 {
			return nil, notEvaluable("decimal() expects one argument")
		}
		text := valueText(args[0])
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return nil, notEvaluable("decimal(%q): not a number", text)
		}
		return ir.IRDecimal(text), nil
	case ir.KindChar:
		if len(args) != 1 {
			return nil, notEvaluable("char() expects one argument")
		}
		return convertValue(args[0], ir.KindChar)
	case ir.KindString:
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(valueText(a))
		}
		return ir.IRString(sb.String()), nil
	default:
		return nil, notEvaluable("construction of %s", kind)
	}
}

func parseTime(s string) (ir.IRValue, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ir.IRTime(t), nil
		}
	}
	return nil, notEvaluable("time(%q): unrecognized layout", s)
}

func isNull(v ir.IRValue) bool {
	return ir.KindOf(v) == ir.KindNull
}

func toFloat(v ir.IRValue) (float64, bool) {
	switch x := v.(type) {
	case ir.IRInt:
		return float64(x), true
	case ir.IRFloat:
		return float64(x), true
	case ir.IRDecimal:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// valueText is the host's default textual form of a value.
func valueText(v ir.IRValue) string {
	switch x := v.(type) {
	case nil, ir.IRNull:
		return ""
	case ir.IRString:
		return string(x)
	case ir.IRChar:
		return string(rune(x))
	case ir.IRInt:
		return strconv.FormatInt(int64(x), 10)
	case ir.IRFloat:
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case ir.IRDecimal:
		return string(x)
	case ir.IRBool:
		return strconv.FormatBool(bool(x))
	case ir.IRTime:
		return time.Time(x).Format(time.RFC3339)
	case ir.IRUUID:
		return uuid.UUID(x).String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
