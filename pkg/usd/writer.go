package usd

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

const indentUnit = "    "

// layerWriter serializes a stage as .usda text. The first write error is
// kept and every later write becomes a no-op.
type layerWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (lw *layerWriter) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	n, err := fmt.Fprintf(lw.w, format, args...)
	lw.n += int64(n)
	lw.err = err
}

// WriteTo writes the stage in .usda format.
func (s *Stage) WriteTo(w io.Writer) (int64, error) {
	lw := &layerWriter{w: w}
	lw.printf("#usda 1.0\n")
	if len(s.metadata) > 0 {
		lw.printf("(\n")
		for _, m := range s.metadata {
			lw.printf("%s%s = %s\n", indentUnit, m.key, formatMetadata(m.value))
		}
		lw.printf(")\n")
	}
	for _, p := range s.root.children {
		lw.printf("\n")
		lw.writePrim(p, 0)
	}
	return lw.n, lw.err
}

func (lw *layerWriter) writePrim(p *Prim, depth int) {
	indent := strings.Repeat(indentUnit, depth)

	lw.printf("%s%s ", indent, p.specifier)
	if p.typeName != "" {
		lw.printf("%s ", p.typeName)
	}
	lw.printf("%s", strconv.Quote(p.Name()))
	if len(p.apiSchemas) > 0 {
		quoted := make([]string, len(p.apiSchemas))
		for i, s := range p.apiSchemas {
			quoted[i] = strconv.Quote(s)
		}
		lw.printf(" (\n%s%sprepend apiSchemas = [%s]\n%s)", indent, indentUnit, strings.Join(quoted, ", "), indent)
	}
	lw.printf("\n%s{\n", indent)

	inner := indent + indentUnit
	for _, a := range p.attrs {
		lw.writeAttribute(a, inner)
	}
	for _, r := range p.rels {
		lw.printf("%srel %s = %s\n", inner, r.name, formatTargets(r.targets))
	}
	for i, c := range p.children {
		if i > 0 || len(p.attrs) > 0 || len(p.rels) > 0 {
			lw.printf("\n")
		}
		lw.writePrim(c, depth+1)
	}
	lw.printf("%s}\n", indent)
}

func (lw *layerWriter) writeAttribute(a *Attribute, indent string) {
	decl := a.typ.String() + " " + a.name
	if a.uniform {
		decl = "uniform " + decl
	}

	if a.hasValue || len(a.connections) == 0 {
		lw.printf("%s%s", indent, decl)
		if a.hasValue {
			lw.printf(" = %s", formatValue(a.value))
		}
		if a.interpolation != "" {
			lw.printf(" (\n%s%sinterpolation = %s\n%s)", indent, indentUnit, strconv.Quote(string(a.interpolation)), indent)
		}
		lw.printf("\n")
	}
	if len(a.connections) > 0 {
		lw.printf("%s%s.connect = %s\n", indent, decl, formatTargets(a.connections))
	}
}

func formatTargets(targets []Path) string {
	if len(targets) == 1 {
		return "<" + string(targets[0]) + ">"
	}
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = "<" + string(t) + ">"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatMetadata(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case float64:
		return formatDouble(x)
	case int:
		return strconv.Itoa(x)
	default:
		return formatValue(v)
	}
}

func formatValue(v any) string {
	var sb strings.Builder
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float32:
		return formatFloat(x)
	case float64:
		return formatDouble(x)
	case string:
		return strconv.Quote(x)
	case AssetPath:
		return "@" + string(x) + "@"
	case vec3.T:
		return formatVec3(x)
	case []int32:
		sb.WriteByte('[')
		for i, n := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.FormatInt(int64(n), 10))
		}
		sb.WriteByte(']')
	case []vec3.T:
		sb.WriteByte('[')
		for i, t := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatVec3(t))
		}
		sb.WriteByte(']')
	case []vec2.T:
		sb.WriteByte('[')
		for i, t := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(" + formatFloat(t[0]) + ", " + formatFloat(t[1]) + ")")
		}
		sb.WriteByte(']')
	default:
		return fmt.Sprint(v)
	}
	return sb.String()
}

func formatVec3(v vec3.T) string {
	return "(" + formatFloat(v[0]) + ", " + formatFloat(v[1]) + ", " + formatFloat(v[2]) + ")"
}

func formatFloat(f float32) string {
	if s, ok := formatNonFinite(float64(f)); ok {
		return s
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func formatDouble(f float64) string {
	if s, ok := formatNonFinite(f); ok {
		return s
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatNonFinite spells NaN and infinities the way usda parsers accept them.
func formatNonFinite(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "nan", true
	case math.IsInf(f, 1):
		return "inf", true
	case math.IsInf(f, -1):
		return "-inf", true
	}
	return "", false
}
