package pyemitter

import (
	"fmt"
	"strings"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// testCase is one generated test method: the optional parameters it
// supplies and the name they produce.
type testCase struct {
	name     string
	optional []genspec.ParamDef
	// positional makes the required arguments positional instead of
	// keyword; used by the reserved only_required case.
	positional bool
}

// operationTestCases enumerates the full powerset of optional parameters,
// one test case per subset, in declaration-order bitmask order. With
// required parameters present the reserved only_required case is emitted
// on top of the powerset (the empty subset keeps its own without_optional
// name), yielding 2^N + 1 cases; without required parameters the empty
// subset itself carries the reserved name, yielding 2^N. There is no cap
// on N: the powerset is an exhaustive contract test by intent.
func operationTestCases(op genspec.OperationDef) []testCase {
	optional := op.OptionalParams()
	hasRequired := len(op.RequiredParams()) > 0

	var cases []testCase
	if hasRequired {
		cases = append(cases, testCase{name: "only_required", positional: true})
		cases = append(cases, testCase{name: "without_optional"})
	} else {
		cases = append(cases, testCase{name: "only_required"})
	}
	for mask := 1; mask < 1<<len(optional); mask++ {
		var subset []genspec.ParamDef
		var parts []string
		for i, p := range optional {
			if mask&(1<<i) != 0 {
				subset = append(subset, p)
				parts = append(parts, p.Name)
			}
		}
		cases = append(cases, testCase{name: strings.Join(parts, "_"), optional: subset})
	}
	return cases
}

// renderOperationTest emits one test file for an operation: one test
// method per optional-parameter combination, each calling the generated
// method and an independent raw request with the same combination, then
// asserting structural equality with the helper matching the response
// shape.
func renderOperationTest(op genspec.OperationDef, table *genspec.SchemaTable) string {
	f := &pyfile{}
	if testNeedsDecimal(op) {
		f.line("from decimal import Decimal")
		f.blank()
	}
	f.line("from api_test_case import APITestCase")
	f.blank()
	f.blank()
	f.linef("class %s(APITestCase):", testClassName(op.MethodName))
	writeDocstring(f, "    ", []string{
		fmt.Sprintf("Checks that %s returns the same payload as a raw call to", op.MethodName),
		fmt.Sprintf("GET %s for every combination of optional parameters.", op.Path),
	})
	f.blank()
	f.linef("    _PATH = %s", pyString(op.Path))

	for _, tc := range operationTestCases(op) {
		f.blank()
		writeTestMethod(f, op, table, tc)
	}
	return f.String()
}

func writeTestMethod(f *pyfile, op genspec.OperationDef, table *genspec.SchemaTable, tc testCase) {
	f.linef("    async def test_%s(self):", tc.name)

	var callArgs []string
	for _, p := range op.RequiredParams() {
		if tc.positional {
			callArgs = append(callArgs, callValue(p))
		} else {
			callArgs = append(callArgs, p.Name+"="+callValue(p))
		}
	}
	for _, p := range tc.optional {
		callArgs = append(callArgs, p.Name+"="+callValue(p))
	}
	f.linef("        result = await self.api.%s(%s)", op.MethodName, strings.Join(callArgs, ", "))

	rawParams := rawQueryLiteral(op, tc.optional)
	if rawParams == "" {
		f.line("        raw = await self.raw_request(self._PATH)")
	} else {
		f.linef("        raw = await self.raw_request(self._PATH, %s)", rawParams)
	}

	switch op.Returns.Kind {
	case genspec.ShapeObject:
		f.line("        self.assert_model_equal(result, raw)")
	case genspec.ShapeArray:
		f.line("        self.assert_model_list_equal(result, raw)")
	default:
		if op.Returns.Primitive == "number" {
			f.line("        self.assertEqual(result, Decimal(str(raw)))")
		} else {
			f.line("        self.assertEqual(result, raw)")
		}
	}
}

// rawQueryLiteral renders the query dict the raw request must send to
// mirror the generated method's inclusion policy for this combination:
// required always, defaulted optionals always (their default when not in
// the combination), non-defaulted optionals only when supplied.
func rawQueryLiteral(op genspec.OperationDef, supplied []genspec.ParamDef) string {
	inSubset := make(map[string]bool, len(supplied))
	for _, p := range supplied {
		inSubset[p.Name] = true
	}
	var entries []string
	for _, p := range op.Params {
		switch {
		case p.Required || inSubset[p.Name]:
			entries = append(entries, pyString(p.Name)+": "+rawValue(p))
		case p.Default != nil:
			entries = append(entries, pyString(p.Name)+": "+pyScalar(p.Default))
		}
	}
	if len(entries) == 0 {
		return ""
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// callValue picks the argument for a parameter: the declared example,
// else the declared default, else a per-type placeholder.
func callValue(p genspec.ParamDef) string {
	v := p.Example
	if v == nil {
		v = p.Default
	}
	if p.Type == "number" {
		if v == nil {
			return `Decimal("1")`
		}
		return "Decimal(" + pyString(pyScalar(v)) + ")"
	}
	if v == nil {
		if p.Type == "integer" {
			return "1"
		}
		return pyString("test")
	}
	return pyScalar(v)
}

// rawValue is the same pick rendered as a query-map literal; numbers go
// through their string form so the raw request serializes them the same
// way the client does.
func rawValue(p genspec.ParamDef) string {
	v := p.Example
	if v == nil {
		v = p.Default
	}
	if p.Type == "number" {
		if v == nil {
			return pyString("1")
		}
		return pyString(pyScalar(v))
	}
	if v == nil {
		if p.Type == "integer" {
			return "1"
		}
		return pyString("test")
	}
	return pyScalar(v)
}

func testNeedsDecimal(op genspec.OperationDef) bool {
	if op.Returns.Kind == genspec.ShapePrimitive && op.Returns.Primitive == "number" {
		return true
	}
	for _, p := range op.Params {
		if p.Type == "number" {
			return true
		}
	}
	return false
}

// testClassName turns a snake_case method name into the CamelCase test
// class name: exchanges -> TestExchanges.
func testClassName(method string) string {
	var b strings.Builder
	b.WriteString("Test")
	for _, part := range strings.Split(method, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// renderTestFixture emits the shared test base class: client and raw
// session lifecycle plus the structural-equality helpers the generated
// tests select by response shape.
func renderTestFixture(cfg Config) string {
	f := &pyfile{}
	f.line("import unittest")
	f.blank()
	f.line("from decimal import Decimal")
	f.line("from typing import Any, Dict, List")
	f.blank()
	f.line("from aiohttp import ClientSession")
	f.blank()
	f.linef("from %s import %s", cfg.Package.Name, cfg.ClientName)
	f.line("from secret_config import API_KEY")
	f.blank()
	f.blank()
	f.line("class APITestCase(unittest.IsolatedAsyncioTestCase):")
	writeDocstring(f, "    ", []string{
		"Shared fixture for the generated API tests.",
		"",
		"Owns one generated client and one raw session against the same",
		"API, plus the assertion helpers that compare a reconstructed",
		"model against the raw payload it came from.",
	})
	f.blank()
	f.line("    async def asyncSetUp(self):")
	f.linef("        self.api = %s(API_KEY)", cfg.ClientName)
	f.line("        headers = {")
	f.line(`            "accept": "application/json"`)
	f.line("        }")
	f.line("        if API_KEY is not None:")
	f.line(`            headers["api-key"] = API_KEY`)
	f.linef("        self._raw_session = ClientSession(%s, headers=headers)", pyString(cfg.APIURL))
	f.blank()
	f.line("    async def asyncTearDown(self):")
	f.line("        await self._raw_session.close()")
	f.line("        await self.api.close()")
	f.blank()
	f.line("    async def raw_request(self, path: str, params: Dict[str, Any] | None = None) -> Any:")
	writeDocstring(f, "        ", []string{
		"Performs a raw GET against the API, bypassing the generated",
		"client entirely.",
	})
	f.line("        async with self._raw_session.get(path, params=params) as response:")
	f.line("            response.raise_for_status()")
	f.line("            return await response.json()")
	f.blank()
	f.line("    def assert_model_equal(self, model: Any, raw: Dict[str, Any]):")
	writeDocstring(f, "        ", []string{
		"Asserts that a reconstructed model matches the raw payload",
		"field by field, recursing into nested lists of models.",
	})
	f.line("        for field_name in model.__slots__:")
	f.line("            value = getattr(model, field_name)")
	f.line("            expected = raw[field_name]")
	f.line("            if isinstance(value, list):")
	f.line("                self.assert_model_list_equal(value, expected)")
	f.line("            elif isinstance(value, Decimal):")
	f.line("                self.assertEqual(value, Decimal(str(expected)))")
	f.line("            else:")
	f.line("                self.assertEqual(value, expected)")
	f.blank()
	f.line("    def assert_model_list_equal(self, models: List[Any], raws: List[Any]):")
	f.line("        self.assertEqual(len(models), len(raws))")
	f.line("        for model, raw in zip(models, raws):")
	f.line(`            if hasattr(model, "__slots__"):`)
	f.line("                self.assert_model_equal(model, raw)")
	f.line("            else:")
	f.line("                self.assertEqual(model, raw)")
	return f.String()
}

// renderSecretConfig emits the git-ignored placeholder that holds the
// tester's API key.
func renderSecretConfig() string {
	f := &pyfile{}
	writeModuleDocstring(f, []string{
		"Local secrets used by the generated tests.",
		"",
		"This file matches the secret_* pattern of the generated",
		".gitignore, so your key never reaches version control. Set",
		"API_KEY to your own key to unlock better rate limits.",
	})
	f.blank()
	f.line("API_KEY = None")
	return f.String()
}
