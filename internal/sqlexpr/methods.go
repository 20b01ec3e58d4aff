package sqlexpr

import (
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/ir"
)

// likePatterns maps pattern methods to the wildcards around their argument.
var likePatterns = map[string][2]string{
	"StartsWith": {"", "%"},
	"EndsWith":   {"%", ""},
	"Contains":   {"%", "%"},
}

var caseFuncs = map[string]string{
	"ToLower": "lower",
	"ToUpper": "upper",
}

// method compiles a call whose receiver depends on the entity or parameters.
// Foldable calls never reach here.
func (c *compiler) method(m expr.MethodCall) (string, error) {
	if m.Receiver == nil {
		return "", unsupported(m, "static call %s depends on the entity or parameters", m.Method)
	}

	if wild, ok := likePatterns[m.Method]; ok {
		if len(m.Args) != 1 {
			return "", unsupported(m, "%s expects one argument", m.Method)
		}
		return c.like(m, wild[0], wild[1])
	}

	if fn, ok := caseFuncs[m.Method]; ok {
		if len(m.Args) != 0 {
			return "", unsupported(m, "%s takes no arguments", m.Method)
		}
		recv, err := c.node(m.Receiver)
		if err != nil {
			return "", err
		}
		return fn + "(" + recv + ")", nil
	}

	return "", unsupported(m, "method %s has no SQL translation", m.Method)
}

// like renders <receiver> like '<prefix><arg><suffix>'.
//
// Wildcards are composed only onto constant arguments. A bind parameter
// argument renders bare; the caller supplies the pattern in its value.
func (c *compiler) like(m expr.MethodCall, prefix, suffix string) (string, error) {
	recv, err := c.node(m.Receiver)
	if err != nil {
		return "", err
	}

	arg := m.Args[0]
	switch {
	case c.isParam(arg):
		marker, err := c.node(arg)
		if err != nil {
			return "", err
		}
		return recv + " like " + marker, nil
	case c.foldable(arg):
		v, err := c.eval(arg)
		if err != nil {
			return "", err
		}
		if ir.KindOf(v) == ir.KindNull {
			return "", unsupported(m, "null pattern")
		}
		return recv + " like " + Quote(prefix+rawText(v)+suffix), nil
	default:
		return "", unsupported(m, "%s argument must be a constant or a parameter", m.Method)
	}
}
