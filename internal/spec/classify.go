package spec

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// SchemaError reports a fatal structural problem in the interface
// document: an unsupported type tag, a malformed reference, or a missing
// response schema. Where identifies the offending schema or operation.
type SchemaError struct {
	Where string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Where == "" {
		return "schema: " + e.Msg
	}
	return fmt.Sprintf("schema %s: %s", e.Where, e.Msg)
}

func schemaErrf(where, format string, args ...any) error {
	return &SchemaError{Where: where, Msg: fmt.Sprintf(format, args...)}
}

// RefName extracts the schema name from a reference string of the form
// ".../schemas/<Name>" by taking the substring after the final slash.
func RefName(ref string) (string, error) {
	idx := strings.LastIndex(ref, "/")
	if idx < 0 || idx == len(ref)-1 {
		return "", fmt.Errorf("malformed schema reference %q", ref)
	}
	return ref[idx+1:], nil
}

// primitiveTags is the closed set of supported primitive type tags.
var primitiveTags = map[string]bool{
	"string":  true,
	"integer": true,
	"number":  true,
}

// ClassifySchema classifies a schema fragment into exactly one ValueShape:
// a primitive scalar, a single named-object reference, or an array whose
// items are classified recursively. Anything else is a fatal SchemaError
// identifying where the fragment came from.
func ClassifySchema(where string, fragment *openapi3.SchemaRef) (ValueShape, error) {
	if fragment == nil {
		return ValueShape{}, schemaErrf(where, "missing schema fragment")
	}
	if fragment.Ref != "" {
		name, err := RefName(fragment.Ref)
		if err != nil {
			return ValueShape{}, schemaErrf(where, "%v", err)
		}
		return ObjectShape(name), nil
	}
	if fragment.Value == nil {
		return ValueShape{}, schemaErrf(where, "fragment has neither $ref nor type")
	}
	switch tag := fragment.Value.Type; {
	case primitiveTags[tag]:
		return PrimitiveShape(tag), nil
	case tag == "array":
		elem, err := ClassifySchema(where+".items", fragment.Value.Items)
		if err != nil {
			return ValueShape{}, err
		}
		return ArrayShape(elem), nil
	case tag == "":
		return ValueShape{}, schemaErrf(where, "fragment has neither $ref nor type")
	default:
		return ValueShape{}, schemaErrf(where, "%q is not a supported type", tag)
	}
}

// PyType renders the Python type annotation for a shape. Numbers map to
// Decimal rather than float so amount-style values never lose precision.
func PyType(shape ValueShape) string {
	switch shape.Kind {
	case ShapePrimitive:
		switch shape.Primitive {
		case "string":
			return "str"
		case "integer":
			return "int"
		case "number":
			return "Decimal"
		}
		// Unreachable for shapes built by ClassifySchema.
		return shape.Primitive
	case ShapeObject:
		return shape.Object
	case ShapeArray:
		return "List[" + PyType(*shape.Elem) + "]"
	}
	return ""
}

// PyParamType renders the annotation for a parameter's primitive tag.
// Unsupported tags fail so the generator never guesses a type the real
// API does not use.
func PyParamType(where, tag string) (string, error) {
	if !primitiveTags[tag] {
		return "", schemaErrf(where, "%q is not a supported parameter type", tag)
	}
	return PyType(PrimitiveShape(tag)), nil
}

// IsExceptionSchema reports whether a schema name signals an error shape.
// Such schemas become exception classes instead of models.
func IsExceptionSchema(name string) bool {
	return strings.Contains(name, "Error") || strings.Contains(name, "Exception")
}
