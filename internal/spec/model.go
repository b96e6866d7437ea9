package spec

// Internal representation of the interface document, consumed by the
// emitter. Everything here is built once per run by BuildDocument and is
// read-only afterwards.

// Document is the normalized interface document.
type Document struct {
	Title       string
	Description string
	Version     string
	Operations  []OperationDef
	Schemas     *SchemaTable
}

// SchemaTable maps schema names to their definitions while remembering the
// order in which they were declared. Every synthesizer receives the table
// by reference; none of them mutate it.
type SchemaTable struct {
	names  []string
	byName map[string]SchemaDef
}

// NewSchemaTable builds an empty table.
func NewSchemaTable() *SchemaTable {
	return &SchemaTable{byName: make(map[string]SchemaDef)}
}

// Add registers a schema under its name, preserving declaration order.
// It panics on duplicate names because the document keys schemas uniquely.
func (t *SchemaTable) Add(def SchemaDef) {
	if _, ok := t.byName[def.Name]; ok {
		panic("spec: duplicate schema " + def.Name)
	}
	t.names = append(t.names, def.Name)
	t.byName[def.Name] = def
}

// Get returns the schema declared under name.
func (t *SchemaTable) Get(name string) (SchemaDef, bool) {
	def, ok := t.byName[name]
	return def, ok
}

// Names returns schema names in declaration order.
func (t *SchemaTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len reports the number of declared schemas.
func (t *SchemaTable) Len() int { return len(t.names) }

// SchemaDef is one named data shape from components.schemas.
type SchemaDef struct {
	Name        string
	Description string
	// Properties in declaration order. The order is contractual: it
	// determines constructor parameter order and reconstruction order in
	// the emitted models.
	Properties []PropertyDef
	// Example holds the schema's example payload keyed by property name.
	Example map[string]any
}

// PropertyDef is one typed property of a schema.
type PropertyDef struct {
	Name        string
	Shape       ValueShape
	Description string
}

// OperationDef is one callable endpoint: a GET on Path.
type OperationDef struct {
	Path        string
	MethodName  string
	Summary     string
	Description string
	// Params lists required parameters first, then optional ones, each
	// group in document order.
	Params []ParamDef
	// Returns is the classified 200-response shape; ReturnsDescription is
	// the human description attached to that response.
	Returns            ValueShape
	ReturnsDescription string
	Errors             []ErrorResponse
}

// RequiredParams returns the required parameters in signature order.
func (op OperationDef) RequiredParams() []ParamDef {
	var out []ParamDef
	for _, p := range op.Params {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

// OptionalParams returns the optional parameters in signature order.
func (op OperationDef) OptionalParams() []ParamDef {
	var out []ParamDef
	for _, p := range op.Params {
		if !p.Required {
			out = append(out, p)
		}
	}
	return out
}

// ParamDef is one query parameter of an operation.
type ParamDef struct {
	Name        string
	Type        string // document primitive tag: string, integer, number
	Required    bool
	Default     any // nil means no declared default
	Example     any
	Description string
}

// ErrorResponse links a non-success status code to the schema describing
// its body.
type ErrorResponse struct {
	Status string
	Schema string
}

// ShapeKind discriminates ValueShape.
type ShapeKind int

const (
	ShapePrimitive ShapeKind = iota
	ShapeObject
	ShapeArray
)

// ValueShape is the closed classification of a schema fragment: a
// primitive scalar, a reference to a named object schema, or an array of
// shapes. All type dispatch in the emitter goes through this one type so
// the supported-tag set cannot drift between synthesizers.
type ValueShape struct {
	Kind      ShapeKind
	Primitive string // document tag when Kind == ShapePrimitive
	Object    string // schema name when Kind == ShapeObject
	Elem      *ValueShape
}

// PrimitiveShape returns the shape for a primitive type tag.
func PrimitiveShape(tag string) ValueShape {
	return ValueShape{Kind: ShapePrimitive, Primitive: tag}
}

// ObjectShape returns the shape for a named schema reference.
func ObjectShape(name string) ValueShape {
	return ValueShape{Kind: ShapeObject, Object: name}
}

// ArrayShape returns the shape for an ordered list of elem.
func ArrayShape(elem ValueShape) ValueShape {
	return ValueShape{Kind: ShapeArray, Elem: &elem}
}
