package expr

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roach88/exprsql/internal/ir"
)

// builtins are the pure methods available to Env.Eval without registration.
var builtins = map[string]Func{
	"ToString":   fnToString,
	"ToLower":    stringMethod(strings.ToLower),
	"ToUpper":    stringMethod(strings.ToUpper),
	"Trim":       stringMethod(strings.TrimSpace),
	"TrimStart":  stringMethod(func(s string) string { return strings.TrimLeft(s, " \t\r\n") }),
	"TrimEnd":    stringMethod(func(s string) string { return strings.TrimRight(s, " \t\r\n") }),
	"Substring":  fnSubstring,
	"Length":     fnLength,
	"Replace":    fnReplace,
	"Concat":     fnConcat,
	"Abs":        fnAbs,
	"AddDays":    timeAdd(24 * time.Hour),
	"AddHours":   timeAdd(time.Hour),
	"AddMinutes": timeAdd(time.Minute),
	"AddSeconds": timeAdd(time.Second),
}

func fnToString(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
	if len(args) != 0 {
		return nil, notEvaluable("ToString takes no arguments")
	}
	return ir.IRString(valueText(recv)), nil
}

func stringMethod(fn func(string) string) Func {
	return func(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
		s, ok := recv.(ir.IRString)
		if !ok || len(args) != 0 {
			return nil, notEvaluable("string method on %s", ir.KindOf(recv))
		}
		return ir.IRString(fn(string(s))), nil
	}
}

func fnSubstring(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
	s, ok := recv.(ir.IRString)
	if !ok || len(args) < 1 || len(args) > 2 {
		return nil, notEvaluable("Substring(start[, length]) on %s", ir.KindOf(recv))
	}
	runes := []rune(string(s))
	start, ok := args[0].(ir.IRInt)
	if !ok || start < 0 || int(start) > len(runes) {
		return nil, notEvaluable("Substring start out of range")
	}
	end := len(runes)
	if len(args) == 2 {
		n, ok := args[1].(ir.IRInt)
		if !ok || n < 0 || int(start)+int(n) > len(runes) {
			return nil, notEvaluable("Substring length out of range")
		}
		end = int(start) + int(n)
	}
	return ir.IRString(string(runes[start:end])), nil
}

func fnLength(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
	s, ok := recv.(ir.IRString)
	if !ok || len(args) != 0 {
		return nil, notEvaluable("Length on %s", ir.KindOf(recv))
	}
	return ir.IRInt(utf8.RuneCountInString(string(s))), nil
}

func fnReplace(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
	s, ok := recv.(ir.IRString)
	if !ok || len(args) != 2 {
		return nil, notEvaluable("Replace(old, new) on %s", ir.KindOf(recv))
	}
	return ir.IRString(strings.ReplaceAll(string(s), valueText(args[0]), valueText(args[1]))), nil
}

func fnConcat(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
	var sb strings.Builder
	if recv != nil {
		sb.WriteString(valueText(recv))
	}
	for _, a := range args {
		sb.WriteString(valueText(a))
	}
	return ir.IRString(sb.String()), nil
}

func fnAbs(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
	v := recv
	if v == nil && len(args) == 1 {
		v = args[0]
	}
	switch x := v.(type) {
	case ir.IRInt:
		if x == math.MinInt64 {
			return nil, notEvaluable("integer overflow")
		}
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case ir.IRFloat:
		return ir.IRFloat(math.Abs(float64(x))), nil
	}
	return nil, notEvaluable("Abs of %s", ir.KindOf(v))
}

func timeAdd(unit time.Duration) Func {
	return func(recv ir.IRValue, args []ir.IRValue) (ir.IRValue, error) {
		t, ok := recv.(ir.IRTime)
		if !ok || len(args) != 1 {
			return nil, notEvaluable("time arithmetic on %s", ir.KindOf(recv))
		}
		n, ok := toFloat(args[0])
		if !ok {
			return nil, notEvaluable("time arithmetic by %s", ir.KindOf(args[0]))
		}
		return ir.IRTime(time.Time(t).Add(time.Duration(n * float64(unit)))), nil
	}
}
