package sqlexpr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/exprsql/internal/ir"
)

// TimeLayout is the invariant rendering of temporal literals.
const TimeLayout = "2006-01-02 15:04:05"

// FormatLiteral renders v as a SQL literal.
//
// Strings, characters, temporal values and UUIDs are single-quoted with
// embedded quotes doubled. Floats use the shortest round-trip form. Null
// renders as the empty string; callers must not emit it in an operator
// context.
func FormatLiteral(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return ""
	case ir.IRString:
		return Quote(string(val))
	case ir.IRChar:
		return Quote(string(rune(val)))
	case ir.IRTime:
		return Quote(time.Time(val).Format(TimeLayout))
	case ir.IRUUID:
		return Quote(uuid.UUID(val).String())
	case ir.IRFloat:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	default:
		return rawText(v)
	}
}

// Quote wraps s in single quotes, doubling embedded quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// rawText is the unquoted textual form of v.
func rawText(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return ""
	case ir.IRString:
		return string(val)
	case ir.IRChar:
		return string(rune(val))
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10)
	case ir.IRFloat:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case ir.IRDecimal:
		return string(val)
	case ir.IRBool:
		return strconv.FormatBool(bool(val))
	case ir.IRTime:
		return time.Time(val).Format(TimeLayout)
	case ir.IRUUID:
		return uuid.UUID(val).String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
