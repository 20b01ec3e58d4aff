package expr

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/exprsql/internal/ir"
)

// Format renders n in a compact source-like notation for diagnostics,
// e.g. `((Student.Cource == 1) && Student.FirstName.StartsWith("Iv"))`.
// Every binary node is parenthesized.
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	switch v := Unwrap(n).(type) {
	case nil:
		sb.WriteString("<nil>")
	case BinaryOp:
		sb.WriteByte('(')
		format(sb, v.Left)
		fmt.Fprintf(sb, " %s ", v.Op)
		format(sb, v.Right)
		sb.WriteByte(')')
	case UnaryOp:
		switch v.Op {
		case OpNot:
			sb.WriteByte('!')
			format(sb, v.Operand)
		case OpNegate:
			sb.WriteByte('-')
			format(sb, v.Operand)
		default:
			fmt.Fprintf(sb, "%s<%s>(", v.Op, v.Type)
			format(sb, v.Operand)
			sb.WriteByte(')')
		}
	case MemberRef:
		fmt.Fprintf(sb, "%s.%s", v.Owner, v.Member)
	case Constant:
		sb.WriteString(formatValue(v.Value))
	case MethodCall:
		if v.Receiver != nil {
			format(sb, v.Receiver)
			sb.WriteByte('.')
		}
		sb.WriteString(v.Method)
		formatArgs(sb, v.Args)
	case Constructed:
		sb.WriteString("new ")
		sb.WriteString(v.Type.String())
		formatArgs(sb, v.Args)
	case Lambda:
		fmt.Fprintf(sb, "%s => ", v.Param)
		format(sb, v.Body)
	case Param:
		sb.WriteString(string(v.Type))
	default:
		fmt.Fprintf(sb, "<%T>", n)
	}
}

func formatArgs(sb *strings.Builder, args []Node) {
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		format(sb, a)
	}
	sb.WriteByte(')')
}

func formatValue(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return "null"
	case ir.IRString:
		return fmt.Sprintf("%q", string(val))
	case ir.IRChar:
		return fmt.Sprintf("%q", rune(val))
	case ir.IRTime:
		return time.Time(val).Format(time.RFC3339)
	case ir.IRUUID:
		return uuid.UUID(val).String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
