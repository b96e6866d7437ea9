package spec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// BuildDocument converts a parsed interface document into the internal
// representation. The raw document bytes are walked with yaml.Node to
// recover the declaration order of schemas and properties, which the
// parsed representation keeps in unordered maps. Declaration order is
// contractual: it drives constructor ordering in the emitted models.
func BuildDocument(ctx context.Context, doc *openapi3.T, raw []byte) (*Document, error) {
	_ = ctx
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	order, err := declarationOrder(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("recover declaration order: %v", err), Cause: err}
	}

	out := &Document{Schemas: NewSchemaTable()}
	if doc.Info != nil {
		out.Title = doc.Info.Title
		out.Description = doc.Info.Description
		out.Version = doc.Info.Version
	}

	if doc.Components != nil && doc.Components.Schemas != nil {
		for _, name := range order.schemaNames(doc.Components.Schemas) {
			ref := doc.Components.Schemas[name]
			def, err := buildSchemaDef(name, ref, order)
			if err != nil {
				return nil, err
			}
			out.Schemas.Add(def)
		}
	}

	for _, path := range order.pathNames(doc.Paths) {
		item := doc.Paths[path]
		if item == nil {
			continue
		}
		op, err := buildOperation(path, item)
		if err != nil {
			return nil, err
		}
		out.Operations = append(out.Operations, op)
	}

	if err := checkReferences(out); err != nil {
		return nil, err
	}
	return out, nil
}

func buildSchemaDef(name string, ref *openapi3.SchemaRef, order *docOrder) (SchemaDef, error) {
	if ref == nil || ref.Value == nil {
		return SchemaDef{}, schemaErrf(name, "empty schema definition")
	}
	sc := ref.Value
	def := SchemaDef{Name: name, Description: sc.Description}

	if ex, ok := sc.Example.(map[string]any); ok {
		def.Example = ex
	}

	for _, propName := range order.propertyNames(name, sc.Properties) {
		prop := sc.Properties[propName]
		where := name + "." + propName
		shape, err := ClassifySchema(where, prop)
		if err != nil {
			return SchemaDef{}, err
		}
		if shape.Kind == ShapeObject {
			return SchemaDef{}, schemaErrf(where, "properties must be primitive or array, not a bare object reference")
		}
		desc := ""
		if prop.Value != nil {
			desc = prop.Value.Description
		}
		def.Properties = append(def.Properties, PropertyDef{Name: propName, Shape: shape, Description: desc})
	}
	return def, nil
}

func buildOperation(path string, item *openapi3.PathItem) (OperationDef, error) {
	get := item.Get
	if get == nil {
		return OperationDef{}, schemaErrf(path, "path has no GET operation")
	}

	op := OperationDef{
		Path:        strings.TrimSuffix(path, "/"),
		MethodName:  methodNameFromPath(path),
		Summary:     get.Summary,
		Description: get.Description,
	}
	if op.Path == "" {
		op.Path = "/"
	}

	var required, optional []ParamDef
	for i, pref := range get.Parameters {
		if pref == nil || pref.Value == nil {
			continue
		}
		p := pref.Value
		where := fmt.Sprintf("%s.parameters[%d]", path, i)
		if p.Schema == nil || p.Schema.Value == nil {
			return OperationDef{}, schemaErrf(where, "parameter %q has no schema", p.Name)
		}
		tag := p.Schema.Value.Type
		if _, err := PyParamType(where, tag); err != nil {
			return OperationDef{}, err
		}
		desc := p.Description
		if desc == "" {
			desc = p.Schema.Value.Description
		}
		example := p.Example
		if example == nil {
			example = p.Schema.Value.Example
		}
		pd := ParamDef{
			Name:        p.Name,
			Type:        tag,
			Required:    p.Required,
			Default:     p.Schema.Value.Default,
			Example:     example,
			Description: desc,
		}
		if pd.Required {
			required = append(required, pd)
		} else {
			optional = append(optional, pd)
		}
	}
	// Required before optional in the emitted signature, regardless of
	// their order in the source document.
	op.Params = append(required, optional...)

	returns, returnsDesc, errs, err := buildResponses(path, get)
	if err != nil {
		return OperationDef{}, err
	}
	op.Returns = returns
	op.ReturnsDescription = returnsDesc
	op.Errors = errs
	return op, nil
}

func buildResponses(path string, get *openapi3.Operation) (ValueShape, string, []ErrorResponse, error) {
	okResp, ok := get.Responses["200"]
	if !ok || okResp == nil || okResp.Value == nil {
		return ValueShape{}, "", nil, schemaErrf(path, "operation has no 200 response")
	}
	media := okResp.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return ValueShape{}, "", nil, schemaErrf(path, "200 response has no application/json schema")
	}
	returns, err := ClassifySchema(path+".responses.200", media.Schema)
	if err != nil {
		return ValueShape{}, "", nil, err
	}
	if returns.Kind == ShapeArray && returns.Elem.Kind == ShapeArray {
		return ValueShape{}, "", nil, schemaErrf(path, "200 response may be a scalar, an object, or a list of objects")
	}
	returnsDesc := ""
	if okResp.Value.Description != nil {
		returnsDesc = *okResp.Value.Description
	}

	var errs []ErrorResponse
	for status, ref := range get.Responses {
		if status == "200" || ref == nil || ref.Value == nil {
			continue
		}
		media := ref.Value.Content.Get("application/json")
		if media == nil || media.Schema == nil || media.Schema.Ref == "" {
			continue
		}
		name, err := RefName(media.Schema.Ref)
		if err != nil {
			return ValueShape{}, "", nil, schemaErrf(path+".responses."+status, "%v", err)
		}
		errs = append(errs, ErrorResponse{Status: status, Schema: name})
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Status < errs[j].Status })
	return returns, returnsDesc, errs, nil
}

// checkReferences verifies that every object reference in the document
// resolves to a declared schema. Failing here keeps generation from
// producing a client that imports models that do not exist.
func checkReferences(doc *Document) error {
	check := func(where string, shape ValueShape) error {
		for s := &shape; s != nil; s = s.Elem {
			if s.Kind == ShapeObject {
				if _, ok := doc.Schemas.Get(s.Object); !ok {
					return schemaErrf(where, "reference to undeclared schema %q", s.Object)
				}
			}
		}
		return nil
	}
	for _, name := range doc.Schemas.Names() {
		def, _ := doc.Schemas.Get(name)
		for _, prop := range def.Properties {
			if err := check(name+"."+prop.Name, prop.Shape); err != nil {
				return err
			}
		}
	}
	for _, op := range doc.Operations {
		if err := check(op.Path+".responses.200", op.Returns); err != nil {
			return err
		}
		for _, e := range op.Errors {
			if _, ok := doc.Schemas.Get(e.Schema); !ok {
				return schemaErrf(op.Path+".responses."+e.Status, "reference to undeclared schema %q", e.Schema)
			}
		}
	}
	return nil
}

// methodNameFromPath derives the generated method name from the last
// meaningful path segment: "/v0/exchanges/" becomes "exchanges".
func methodNameFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	name := ""
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segments[i]); s != "" {
			name = s
			break
		}
	}
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "root"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "get_" + out
	}
	return out
}

// docOrder captures declaration order recovered from the raw document.
type docOrder struct {
	schemas    []string
	properties map[string][]string
	paths      []string
}

// schemaNames returns schema names in declaration order, falling back to
// sorted order for names the raw walk did not see.
func (o *docOrder) schemaNames(schemas openapi3.Schemas) []string {
	return orderedKeys(o.schemas, func(name string) bool {
		_, ok := schemas[name]
		return ok
	}, mapKeys(schemas))
}

func (o *docOrder) propertyNames(schema string, props openapi3.Schemas) []string {
	return orderedKeys(o.properties[schema], func(name string) bool {
		_, ok := props[name]
		return ok
	}, mapKeys(props))
}

func (o *docOrder) pathNames(paths openapi3.Paths) []string {
	return orderedKeys(o.paths, func(name string) bool {
		_, ok := paths[name]
		return ok
	}, mapKeysPaths(paths))
}

func mapKeys(m openapi3.Schemas) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mapKeysPaths(m openapi3.Paths) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// orderedKeys yields the recovered-order keys that still exist, then any
// remaining keys in sorted order.
func orderedKeys(recovered []string, exists func(string) bool, all []string) []string {
	seen := make(map[string]bool, len(recovered))
	out := make([]string, 0, len(all))
	for _, k := range recovered {
		if exists(k) && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range all {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}

// declarationOrder walks the raw document with yaml.Node, which preserves
// mapping key order for both YAML and JSON inputs.
func declarationOrder(raw []byte) (*docOrder, error) {
	order := &docOrder{properties: make(map[string][]string)}
	if len(raw) == 0 {
		return order, nil
	}
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return order, nil
	}

	if paths := mappingValue(doc, "paths"); paths != nil {
		order.paths = mappingKeys(paths)
	}
	components := mappingValue(doc, "components")
	if components == nil {
		// Swagger 2.0 keeps schemas under "definitions".
		if defs := mappingValue(doc, "definitions"); defs != nil {
			collectSchemaOrder(order, defs)
		}
		return order, nil
	}
	if schemas := mappingValue(components, "schemas"); schemas != nil {
		collectSchemaOrder(order, schemas)
	}
	return order, nil
}

func collectSchemaOrder(order *docOrder, schemas *yaml.Node) {
	for i := 0; i+1 < len(schemas.Content); i += 2 {
		name := schemas.Content[i].Value
		order.schemas = append(order.schemas, name)
		if props := mappingValue(schemas.Content[i+1], "properties"); props != nil {
			order.properties[name] = mappingKeys(props)
		}
	}
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func mappingKeys(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}
