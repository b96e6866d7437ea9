package spec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// Schemas and properties are deliberately declared in non-alphabetical
// order so the ordering assertions cannot pass by accident.
const sampleDoc = `openapi: 3.0.0
info:
  title: Blockchain APIs
  version: "1.1.0"
  description: Fast and reliable access to decentralized exchange data
paths:
  /v0/exchanges/:
    get:
      summary: Get exchanges
      description: Returns the paginated list of supported exchanges
      parameters:
        - in: query
          name: page
          required: false
          description: The page to fetch
          example: 1
          schema:
            type: integer
            default: 1
        - in: query
          name: blockchain
          required: false
          description: Filter by blockchain id
          schema:
            type: string
      responses:
        "200":
          description: The paginated exchanges
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Exchanges'
        "422":
          description: Invalid request
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/HTTPValidationError'
components:
  schemas:
    Exchanges:
      type: object
      description: Paginated list of exchanges
      properties:
        page:
          type: integer
          description: The page returned
        total_pages:
          type: integer
        data:
          type: array
          description: The exchanges of the page
          items:
            $ref: '#/components/schemas/Exchange'
    Exchange:
      type: object
      description: A decentralized exchange
      properties:
        blockchain:
          type: string
        name:
          type: string
        url:
          type: string
    HTTPValidationError:
      type: object
      description: Raised when the request is malformed
      properties:
        detail:
          type: string
`

func loadDoc(t *testing.T, source string) (*openapi3.T, []byte) {
	t.Helper()
	raw := []byte(strings.TrimSpace(source) + "\n")
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return doc, raw
}

func buildDoc(t *testing.T, source string) *Document {
	t.Helper()
	doc, raw := loadDoc(t, source)
	out, err := BuildDocument(context.Background(), doc, raw)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return out
}

func TestBuildDocument_Basic(t *testing.T) {
	t.Parallel()
	doc := buildDoc(t, sampleDoc)

	if doc.Title != "Blockchain APIs" {
		t.Errorf("title: got %q", doc.Title)
	}
	if doc.Version != "1.1.0" {
		t.Errorf("version: got %q", doc.Version)
	}
	if len(doc.Operations) != 1 {
		t.Fatalf("operations: got %d, want 1", len(doc.Operations))
	}

	op := doc.Operations[0]
	if op.Path != "/v0/exchanges" {
		t.Errorf("path: got %q, want trailing slash trimmed", op.Path)
	}
	if op.MethodName != "exchanges" {
		t.Errorf("method name: got %q", op.MethodName)
	}
	if op.Returns.Kind != ShapeObject || op.Returns.Object != "Exchanges" {
		t.Errorf("returns: got %+v", op.Returns)
	}
	if op.ReturnsDescription != "The paginated exchanges" {
		t.Errorf("returns description: got %q", op.ReturnsDescription)
	}
	if len(op.Errors) != 1 || op.Errors[0].Status != "422" || op.Errors[0].Schema != "HTTPValidationError" {
		t.Errorf("errors: got %+v", op.Errors)
	}
}

func TestBuildDocument_SchemaDeclarationOrder(t *testing.T) {
	t.Parallel()
	doc := buildDoc(t, sampleDoc)

	got := doc.Schemas.Names()
	want := []string{"Exchanges", "Exchange", "HTTPValidationError"}
	if len(got) != len(want) {
		t.Fatalf("schema names: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schema names: got %v, want %v", got, want)
		}
	}
}

func TestBuildDocument_PropertyDeclarationOrder(t *testing.T) {
	t.Parallel()
	doc := buildDoc(t, sampleDoc)

	def, ok := doc.Schemas.Get("Exchanges")
	if !ok {
		t.Fatalf("missing Exchanges schema")
	}
	want := []string{"page", "total_pages", "data"}
	if len(def.Properties) != len(want) {
		t.Fatalf("properties: got %d, want %d", len(def.Properties), len(want))
	}
	for i, prop := range def.Properties {
		if prop.Name != want[i] {
			t.Fatalf("property %d: got %q, want %q", i, prop.Name, want[i])
		}
	}
	if def.Properties[2].Shape.Kind != ShapeArray || def.Properties[2].Shape.Elem.Object != "Exchange" {
		t.Errorf("data shape: got %+v", def.Properties[2].Shape)
	}
}

func TestBuildDocument_ParameterDetails(t *testing.T) {
	t.Parallel()
	doc := buildDoc(t, sampleDoc)

	op := doc.Operations[0]
	if len(op.Params) != 2 {
		t.Fatalf("params: got %d, want 2", len(op.Params))
	}
	page := op.Params[0]
	if page.Name != "page" || page.Type != "integer" || page.Required {
		t.Errorf("page: got %+v", page)
	}
	if page.Default == nil || fmt.Sprintf("%v", page.Default) != "1" {
		t.Errorf("page default: got %v", page.Default)
	}
	if page.Example == nil {
		t.Errorf("page example: expected one")
	}
	blockchain := op.Params[1]
	if blockchain.Name != "blockchain" || blockchain.Default != nil {
		t.Errorf("blockchain: got %+v", blockchain)
	}
}

func TestBuildDocument_RequiredBeforeOptional(t *testing.T) {
	t.Parallel()
	doc := buildDoc(t, `openapi: 3.0.0
info:
  title: Ordering
  version: "1.0.0"
paths:
  /v0/pairs:
    get:
      parameters:
        - in: query
          name: page
          required: false
          schema:
            type: integer
        - in: query
          name: blockchain
          required: true
          schema:
            type: string
        - in: query
          name: token
          required: false
          schema:
            type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: integer
`)

	op := doc.Operations[0]
	got := make([]string, 0, len(op.Params))
	for _, p := range op.Params {
		got = append(got, p.Name)
	}
	want := []string{"blockchain", "page", "token"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("param order: got %v, want %v", got, want)
		}
	}
	if req := op.RequiredParams(); len(req) != 1 || req[0].Name != "blockchain" {
		t.Errorf("required params: got %+v", req)
	}
	if opt := op.OptionalParams(); len(opt) != 2 {
		t.Errorf("optional params: got %+v", opt)
	}
}

func TestBuildDocument_MissingOKResponse(t *testing.T) {
	t.Parallel()
	doc, raw := loadDoc(t, `openapi: 3.0.0
info:
  title: Broken
  version: "1.0.0"
paths:
  /v0/exchanges:
    get:
      responses:
        "422":
          description: Invalid request
`)

	_, err := BuildDocument(context.Background(), doc, raw)
	if err == nil {
		t.Fatalf("expected error for missing 200 response")
	}
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %T", err)
	}
	if !strings.Contains(err.Error(), "200") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestBuildDocument_PathWithoutGet(t *testing.T) {
	t.Parallel()
	doc, raw := loadDoc(t, `openapi: 3.0.0
info:
  title: Broken
  version: "1.0.0"
paths:
  /v0/exchanges:
    post:
      responses:
        "200":
          description: ok
`)

	_, err := BuildDocument(context.Background(), doc, raw)
	if err == nil {
		t.Fatalf("expected error for path without GET")
	}
	if !strings.Contains(err.Error(), "GET") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestBuildDocument_RejectsBareObjectProperty(t *testing.T) {
	t.Parallel()
	doc, raw := loadDoc(t, `openapi: 3.0.0
info:
  title: Broken
  version: "1.0.0"
paths:
  /v0/exchanges:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Wrapper'
components:
  schemas:
    Wrapper:
      type: object
      properties:
        inner:
          $ref: '#/components/schemas/Inner'
    Inner:
      type: object
      properties:
        name:
          type: string
`)

	_, err := BuildDocument(context.Background(), doc, raw)
	if err == nil {
		t.Fatalf("expected error for bare object property")
	}
	if !strings.Contains(err.Error(), "Wrapper.inner") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestBuildDocument_RejectsNestedArrayResponse(t *testing.T) {
	t.Parallel()
	doc, raw := loadDoc(t, `openapi: 3.0.0
info:
  title: Broken
  version: "1.0.0"
paths:
  /v0/matrix:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  type: array
                  items:
                    type: integer
`)

	_, err := BuildDocument(context.Background(), doc, raw)
	if err == nil {
		t.Fatalf("expected error for list-of-list response")
	}
}

func TestBuildDocument_RejectsUnsupportedParamType(t *testing.T) {
	t.Parallel()
	doc, raw := loadDoc(t, `openapi: 3.0.0
info:
  title: Broken
  version: "1.0.0"
paths:
  /v0/exchanges:
    get:
      parameters:
        - in: query
          name: verbose
          required: false
          schema:
            type: boolean
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: integer
`)

	_, err := BuildDocument(context.Background(), doc, raw)
	if err == nil {
		t.Fatalf("expected error for boolean parameter")
	}
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %T", err)
	}
}

func TestCheckReferences_UndeclaredSchema(t *testing.T) {
	t.Parallel()

	doc := &Document{Schemas: NewSchemaTable()}
	doc.Operations = []OperationDef{{
		Path:       "/v0/exchanges",
		MethodName: "exchanges",
		Returns:    ArrayShape(ObjectShape("Exchange")),
	}}

	err := checkReferences(doc)
	if err == nil {
		t.Fatalf("expected error for undeclared schema reference")
	}
	if !strings.Contains(err.Error(), "Exchange") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestMethodNameFromPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/v0/exchanges/":  "exchanges",
		"/v0/exchanges":   "exchanges",
		"/":               "root",
		"/v0/24h-volume":  "get_24h_volume",
		"/blockchains":    "blockchains",
		"/v0/Top-Tokens/": "top_tokens",
	}
	for path, want := range cases {
		if got := methodNameFromPath(path); got != want {
			t.Errorf("methodNameFromPath(%q): got %q, want %q", path, got, want)
		}
	}
}

func TestDeclarationOrder_JSONInput(t *testing.T) {
	t.Parallel()

	// JSON is a YAML subset, so the same walk recovers key order there too.
	raw := []byte(`{
  "paths": {"/b": {}, "/a": {}},
  "components": {"schemas": {
    "Zeta": {"properties": {"z": {}, "a": {}}},
    "Alpha": {"properties": {"b": {}, "a": {}}}
  }}
}`)
	order, err := declarationOrder(raw)
	if err != nil {
		t.Fatalf("declaration order: %v", err)
	}
	if len(order.paths) != 2 || order.paths[0] != "/b" || order.paths[1] != "/a" {
		t.Errorf("paths: got %v", order.paths)
	}
	if len(order.schemas) != 2 || order.schemas[0] != "Zeta" || order.schemas[1] != "Alpha" {
		t.Errorf("schemas: got %v", order.schemas)
	}
	if props := order.properties["Zeta"]; len(props) != 2 || props[0] != "z" || props[1] != "a" {
		t.Errorf("Zeta properties: got %v", props)
	}
}
