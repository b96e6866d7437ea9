package pyemitter

import (
	"fmt"
	"strings"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// reconstructExpr builds the Python expression that rebuilds the declared
// return shape from a raw decoded payload, field by field. Objects are
// constructed with one keyword per declared property in declaration
// order; array-typed properties become comprehensions that recurse on the
// item schema, nesting to arbitrary depth. Constructing every field by
// hand (instead of **ret) is what lets the generated client ignore extra
// fields a newer API version may return.
func reconstructExpr(shape genspec.ValueShape, src string, table *genspec.SchemaTable, indent string, depth int) string {
	switch shape.Kind {
	case genspec.ShapePrimitive:
		if shape.Primitive == "number" {
			// Route through str so binary floating point never touches
			// the amount before Decimal parses it.
			return fmt.Sprintf("Decimal(str(%s))", src)
		}
		return src
	case genspec.ShapeObject:
		def, ok := table.Get(shape.Object)
		if !ok {
			// checkReferences rejects this before emission.
			return src
		}
		var b strings.Builder
		b.WriteString(shape.Object + "(\n")
		for i, prop := range def.Properties {
			b.WriteString(indent + "    " + prop.Name + "=")
			b.WriteString(reconstructExpr(prop.Shape, fmt.Sprintf("%s[%s]", src, pyString(prop.Name)), table, indent+"    ", depth))
			if i < len(def.Properties)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + ")")
		return b.String()
	case genspec.ShapeArray:
		elem := elemVar(depth)
		var b strings.Builder
		b.WriteString("[\n")
		b.WriteString(indent + "    ")
		b.WriteString(reconstructExpr(*shape.Elem, elem, table, indent+"    ", depth+1))
		b.WriteString("\n")
		b.WriteString(indent + "    for " + elem + " in " + src + "\n")
		b.WriteString(indent + "]")
		return b.String()
	}
	return src
}

// elemVar names the comprehension variable for a nesting depth, so an
// array of objects containing arrays never shadows its outer variable.
func elemVar(depth int) string {
	return string(rune('d' + depth%10))
}

// reachableModels lists every model the reconstruction of shape will
// construct, in deterministic first-use order: the return type itself
// plus, transitively, every object referenced through array properties.
func reachableModels(shape genspec.ValueShape, table *genspec.SchemaTable) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(s genspec.ValueShape)
	walk = func(s genspec.ValueShape) {
		switch s.Kind {
		case genspec.ShapeArray:
			walk(*s.Elem)
		case genspec.ShapeObject:
			if seen[s.Object] {
				return
			}
			seen[s.Object] = true
			out = append(out, s.Object)
			if def, ok := table.Get(s.Object); ok {
				for _, prop := range def.Properties {
					walk(prop.Shape)
				}
			}
		}
	}
	walk(shape)
	return out
}

// shapeNeedsDecimal reports whether reconstructing shape ever parses a
// number field.
func shapeNeedsDecimal(shape genspec.ValueShape, table *genspec.SchemaTable) bool {
	for _, name := range reachableModels(shape, table) {
		def, _ := table.Get(name)
		if schemaNeedsDecimal(def) {
			return true
		}
	}
	for s := &shape; s != nil; s = s.Elem {
		if s.Kind == genspec.ShapePrimitive && s.Primitive == "number" {
			return true
		}
	}
	return false
}
