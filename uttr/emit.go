package uttr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Neumenon/uttr/units"
)

// FormatValue renders a field value the way Record.String does.
func FormatValue(v any) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v any) {
	if isNil(v) {
		sb.WriteString("nil")
		return
	}
	switch x := v.(type) {
	case *units.Quantity:
		sb.WriteString(x.String())
	case fmt.Stringer:
		sb.WriteString(x.String())
	case string:
		sb.WriteString(strconv.Quote(x))
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case float64:
		sb.WriteString(units.FormatFloat(x))
	case float32:
		sb.WriteString(units.FormatFloat(float64(x)))
	case int:
		sb.WriteString(strconv.Itoa(x))
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case []float64:
		writeList(sb, len(x), func(i int) { sb.WriteString(units.FormatFloat(x[i])) })
	case []any:
		writeList(sb, len(x), func(i int) { writeValue(sb, x[i]) })
	default:
		fmt.Fprintf(sb, "%v", x)
	}
}

func writeList(sb *strings.Builder, n int, elem func(i int)) {
	sb.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		elem(i)
	}
	sb.WriteByte(']')
}
