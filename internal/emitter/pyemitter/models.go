package pyemitter

import (
	"strings"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// renderModel emits one immutable model file for a schema. Field order
// follows property declaration order exactly; the constructor matches it
// positionally and swallows unknown keyword data so clients keep working
// when the remote API starts returning extra fields.
func renderModel(def genspec.SchemaDef, table *genspec.SchemaTable) string {
	f := &pyfile{}

	f.line("from dataclasses import dataclass")
	if schemaNeedsDecimal(def) {
		f.line("from decimal import Decimal")
	}
	if schemaNeedsList(def) {
		f.line("from typing import List")
	}
	if subs := schemaObjectRefs(def); len(subs) > 0 {
		f.blank()
		for _, sub := range subs {
			f.linef("from .%s import %s", sub, sub)
		}
	}
	f.blank()
	f.blank()
	f.line("@dataclass(slots=True, frozen=True)")
	f.linef("class %s:", def.Name)
	if def.Description != "" {
		writeDocstring(f, "    ", docLines(def.Description))
	} else {
		f.linef(`    """The %s model"""`, def.Name)
	}
	f.blank()

	for _, prop := range def.Properties {
		f.linef("    %s: %s", prop.Name, genspec.PyType(prop.Shape))
		lines := docLines(propDescription(prop))
		if ex, ok := def.Example[prop.Name]; ok {
			lines = append(lines, "", "example: "+renderExampleValue(ex, prop.Shape, table, "    "))
		}
		writeDocstring(f, "    ", lines)
	}

	f.blank()
	var args []string
	for _, prop := range def.Properties {
		args = append(args, prop.Name+": "+genspec.PyType(prop.Shape))
	}
	ctorArgs := "self, **_"
	if len(args) > 0 {
		ctorArgs = "self, " + strings.Join(args, ", ") + ", **_"
	}
	f.linef("    def __init__(%s):", ctorArgs)
	ctorDoc := []string{"Creates a " + def.Name + " model", ""}
	for _, prop := range def.Properties {
		ctorDoc = append(ctorDoc,
			":param "+prop.Name+": "+firstLine(propDescription(prop)),
			":type "+prop.Name+": "+genspec.PyType(prop.Shape))
	}
	writeDocstring(f, "        ", ctorDoc)
	for _, prop := range def.Properties {
		// The dataclass is frozen, so plain attribute assignment would
		// raise FrozenInstanceError inside our own constructor.
		f.linef("        object.__setattr__(self, %s, %s)", pyString(prop.Name), prop.Name)
	}

	return f.String()
}

// renderModelsInit emits models/__init__.py with the configured module
// description and one re-export per model.
func renderModelsInit(description string, names []string) string {
	f := &pyfile{}
	if description != "" {
		writeModuleDocstring(f, docLines(description))
		f.blank()
	}
	for _, name := range names {
		f.linef("from .%s import %s", name, name)
	}
	f.blank()
	f.line("__all__ = [")
	for _, name := range names {
		f.linef("    %s,", pyString(name))
	}
	f.line("]")
	return f.String()
}

func propDescription(prop genspec.PropertyDef) string {
	if prop.Description != "" {
		return prop.Description
	}
	return "The " + prop.Name + " field"
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimRight(s[:idx], " \t")
	}
	return s
}

func schemaNeedsDecimal(def genspec.SchemaDef) bool {
	for _, p := range def.Properties {
		for s := &p.Shape; s != nil; s = s.Elem {
			if s.Kind == genspec.ShapePrimitive && s.Primitive == "number" {
				return true
			}
		}
	}
	return false
}

func schemaNeedsList(def genspec.SchemaDef) bool {
	for _, p := range def.Properties {
		if p.Shape.Kind == genspec.ShapeArray {
			return true
		}
	}
	return false
}

// schemaObjectRefs lists the model names a schema's fields reference, in
// field order, without duplicates.
func schemaObjectRefs(def genspec.SchemaDef) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range def.Properties {
		for s := &p.Shape; s != nil; s = s.Elem {
			if s.Kind == genspec.ShapeObject && !seen[s.Object] {
				seen[s.Object] = true
				out = append(out, s.Object)
			}
		}
	}
	return out
}

// writeDocstring writes a triple-quoted docstring block at the given
// indentation. Single-line content stays on one line.
func writeDocstring(f *pyfile, indent string, lines []string) {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return
	}
	if len(lines) == 1 && !strings.Contains(lines[0], "\n") {
		f.line(indent + `"""` + lines[0] + `"""`)
		return
	}
	f.line(indent + `"""` + lines[0])
	for _, l := range lines[1:] {
		f.lines(indent, l)
	}
	f.line(indent + `"""`)
}

func writeModuleDocstring(f *pyfile, lines []string) {
	writeDocstring(f, "", lines)
}
