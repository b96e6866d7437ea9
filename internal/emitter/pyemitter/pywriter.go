package pyemitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// pyfile accumulates the lines of one generated Python source file.
type pyfile struct {
	b strings.Builder
}

func (f *pyfile) line(s string)                    { f.b.WriteString(s); f.b.WriteByte('\n') }
func (f *pyfile) linef(format string, args ...any) { f.line(fmt.Sprintf(format, args...)) }
func (f *pyfile) blank()                           { f.b.WriteByte('\n') }

// lines writes a block of pre-rendered text, re-indenting every non-empty
// line with prefix.
func (f *pyfile) lines(prefix, block string) {
	for _, l := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		if strings.TrimSpace(l) == "" {
			f.blank()
			continue
		}
		f.line(prefix + l)
	}
}

func (f *pyfile) String() string { return f.b.String() }

// pyString renders a double-quoted Python string literal.
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// pyScalar renders a scalar literal. JSON decoding hands integers to us
// as float64, so whole floats are printed without a fractional part.
func pyScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return pyString(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return pyString(fmt.Sprintf("%v", val))
	}
}

// exampleKeyOrder returns the keys of an example object: declared
// property order first when the object matches a known schema, then any
// extra keys sorted.
func exampleKeyOrder(m map[string]any, def *genspec.SchemaDef) []string {
	seen := make(map[string]bool, len(m))
	var keys []string
	if def != nil {
		for _, p := range def.Properties {
			if _, ok := m[p.Name]; ok {
				seen[p.Name] = true
				keys = append(keys, p.Name)
			}
		}
	}
	var extra []string
	for k := range m {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// renderExampleValue renders an example payload as an indented literal
// for field documentation. Arrays are rendered in full, one element per
// line, so an array example reads the same as the payload it came from.
func renderExampleValue(v any, shape genspec.ValueShape, table *genspec.SchemaTable, indent string) string {
	switch val := v.(type) {
	case []any:
		if len(val) == 0 {
			return "[]"
		}
		var elemShape genspec.ValueShape
		if shape.Kind == genspec.ShapeArray {
			elemShape = *shape.Elem
		}
		var b strings.Builder
		b.WriteString("[\n")
		for i, elem := range val {
			b.WriteString(indent + "    ")
			b.WriteString(renderExampleValue(elem, elemShape, table, indent+"    "))
			if i < len(val)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "]")
		return b.String()
	case map[string]any:
		var def *genspec.SchemaDef
		if shape.Kind == genspec.ShapeObject && table != nil {
			if d, ok := table.Get(shape.Object); ok {
				def = &d
			}
		}
		keys := exampleKeyOrder(val, def)
		if len(keys) == 0 {
			return "{}"
		}
		var b strings.Builder
		b.WriteString("{\n")
		for i, k := range keys {
			var propShape genspec.ValueShape
			if def != nil {
				for _, p := range def.Properties {
					if p.Name == k {
						propShape = p.Shape
						break
					}
				}
			}
			b.WriteString(indent + "    " + pyString(k) + ": ")
			b.WriteString(renderExampleValue(val[k], propShape, table, indent+"    "))
			if i < len(keys)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "}")
		return b.String()
	default:
		return pyScalar(v)
	}
}

// renderExampleCtor renders an example payload as the model-constructor
// expression the generated method would return, so docstrings show the
// caller exactly what they get back.
func renderExampleCtor(v any, shape genspec.ValueShape, table *genspec.SchemaTable, indent string) string {
	switch shape.Kind {
	case genspec.ShapeArray:
		elems, ok := v.([]any)
		if !ok || len(elems) == 0 {
			return "[]"
		}
		var b strings.Builder
		b.WriteString("[\n")
		for i, elem := range elems {
			b.WriteString(indent + "    ")
			b.WriteString(renderExampleCtor(elem, *shape.Elem, table, indent+"    "))
			if i < len(elems)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "]")
		return b.String()
	case genspec.ShapeObject:
		def, ok := table.Get(shape.Object)
		if !ok {
			return pyScalar(v)
		}
		fields, _ := v.(map[string]any)
		var b strings.Builder
		b.WriteString(shape.Object + "(\n")
		for i, p := range def.Properties {
			b.WriteString(indent + "    " + p.Name + "=")
			b.WriteString(renderExampleCtor(fields[p.Name], p.Shape, table, indent+"    "))
			if i < len(def.Properties)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + ")")
		return b.String()
	default:
		return pyScalar(v)
	}
}

// docLines splits free text into docstring lines, trimming trailing
// whitespace the way the document descriptions often carry it.
func docLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}
