package pyemitter

import (
	"fmt"
	"strings"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// renderClient emits one of the two client class files. The async variant
// owns a single long-lived aiohttp session that the caller must close;
// the sync variant opens one connection per call through requests and
// leaves no lifecycle obligation on the caller.
func renderClient(doc *genspec.Document, cfg Config, sync bool) string {
	className := cfg.ClientName
	if sync {
		className += "Sync"
	}

	models, needDecimal, needList := clientTypeUsage(doc)
	exceptions := exceptionSchemaNames(doc.Schemas)

	f := &pyfile{}
	f.line("import json")
	f.blank()
	if needDecimal {
		f.line("from decimal import Decimal")
	}
	f.line("from typing import Any, Dict" + listImportSuffix(needList))
	f.blank()
	if sync {
		f.line("import requests")
	} else {
		f.line("from aiohttp import ClientSession")
	}
	f.blank()
	f.linef("from .exceptions import %s", baseExceptionName(cfg.ClientName))
	for _, name := range exceptions {
		f.linef("from .exceptions import %s", name)
	}
	for _, name := range models {
		f.linef("from .models import %s", name)
	}
	f.blank()
	f.blank()
	f.linef("class %s:", className)
	writeClassDocstring(f, doc, sync)
	f.blank()
	writeClientAttributes(f, cfg, sync)
	writeClientLifecycle(f, cfg, sync)
	writeDoRequest(f, sync)
	writeRaiseAPIError(f, cfg, exceptions)

	for _, op := range doc.Operations {
		f.blank()
		writeOperation(f, op, doc.Schemas, sync)
	}
	return f.String()
}

func listImportSuffix(needList bool) string {
	if needList {
		return ", List"
	}
	return ""
}

func writeClassDocstring(f *pyfile, doc *genspec.Document, sync bool) {
	lines := []string{doc.Title}
	if doc.Description != "" {
		lines = append(lines, "")
		lines = append(lines, docLines(doc.Description)...)
	}
	if sync {
		lines = append(lines, "",
			"This synchronous client performs one connection per call, so it",
			"never has to be closed. Prefer the asynchronous client when you",
			"chain many calls.")
	}
	writeDocstring(f, "    ", lines)
}

func writeClientAttributes(f *pyfile, cfg Config, sync bool) {
	f.line("    _api_key: str | None")
	writeDocstring(f, "    ", []string{
		"Your API key.",
		"",
		"The API works without an API key, but an API key unlocks better",
		"rate limits.",
	})
	f.blank()
	f.line("    _headers: Dict[str, str]")
	writeDocstring(f, "    ", []string{
		"The headers sent with every request.",
		"",
		"They are computed once at construction because they are the same",
		"for all calls.",
	})
	if sync {
		f.blank()
		f.line("    _base_url: str")
		writeDocstring(f, "    ", []string{
			"The base URL of the API.",
			"",
			"Each request path is appended to it at call time because the",
			"synchronous client keeps no session object.",
		})
	} else {
		f.blank()
		f.line("    _session: ClientSession")
		writeDocstring(f, "    ", []string{
			"The session shared by every asynchronous call.",
			"",
			"It must be released with close() (or by using the client as an",
			"async context manager) once you are done with the API.",
		})
	}
	f.blank()
}

func writeClientLifecycle(f *pyfile, cfg Config, sync bool) {
	f.line("    def __init__(self, api_key: str | None = None):")
	writeDocstring(f, "        ", []string{
		"Creates a " + clientClassFromConfig(cfg, sync) + " instance.",
		"",
		":param api_key: Your API key, defaults to None",
		":type api_key: str | None, optional",
	})
	f.line("        self._api_key = api_key")
	f.line("        self._headers = {")
	f.line(`            "accept": "application/json"`)
	f.line("        }")
	f.line("        if self._api_key is not None:")
	f.line(`            self._headers["api-key"] = self._api_key`)
	if sync {
		f.linef("        self._base_url = %s", pyString(cfg.APIURL))
	} else {
		f.linef("        self._session = ClientSession(%s)", pyString(cfg.APIURL))
	}
	if !sync {
		f.blank()
		f.line("    async def __aenter__(self):")
		f.line("        return self")
		f.blank()
		f.line("    async def __aexit__(self, exc_type, exc_value, traceback):")
		f.line("        await self.close()")
		f.blank()
		f.line("    async def close(self):")
		writeDocstring(f, "        ", []string{
			"Closes the underlying session.",
			"",
			"You must call this method at the end of your program or when",
			"you have finished working with the API.",
		})
		f.line("        await self._session.close()")
	}
	f.blank()
}

func writeDoRequest(f *pyfile, sync bool) {
	if sync {
		f.line("    def _do_request(self, path: str, params: Dict[str, Any] | None = None) -> Any:")
	} else {
		f.line("    async def _do_request(self, path: str, params: Dict[str, Any] | None = None) -> Any:")
	}
	writeDocstring(f, "        ", []string{
		"Makes a raw API request and returns the decoded json result.",
		"",
		"Raises the exception matching the API error when the response",
		"status is not a success.",
		"",
		":param path: The path of the request",
		":type path: str",
		":param params: The optional query parameters of the request, defaults to None",
		":type params: Dict[str, Any] | None, optional",
		":return: The json-decoded result",
		":rtype: Any",
	})
	if sync {
		f.line("        response = requests.get(self._base_url + path, params=params, headers=self._headers)")
		f.line("        if response.status_code != 200:")
		f.line("            self._raise_api_error(response.status_code, response.text)")
		f.line("        return response.json()")
	} else {
		f.line("        async with self._session.get(path, params=params, headers=self._headers) as response:")
		f.line("            if response.status != 200:")
		f.line("                self._raise_api_error(response.status, await response.text())")
		f.line("            return await response.json()")
	}
	f.blank()
}

// writeRaiseAPIError emits the dispatch that turns an error body into the
// generated exception named by its error_type discriminant. Unknown
// discriminants and unparseable bodies fall back to the base exception
// with the raw body, so no failure detail is ever lost.
func writeRaiseAPIError(f *pyfile, cfg Config, exceptions []string) {
	base := baseExceptionName(cfg.ClientName)
	f.line("    def _raise_api_error(self, status_code: int, body: str):")
	writeDocstring(f, "        ", []string{
		"Raises the exception matching an error response.",
		"",
		":param status_code: The non-success status code returned by the API",
		":type status_code: int",
		":param body: The raw response body",
		":type body: str",
	})
	f.line("        try:")
	f.line(`            detail = json.loads(body)["detail"]`)
	f.line(`            error_type = detail["error_type"]`)
	f.line(`            error_detail = detail["detail"]`)
	f.line("        except (KeyError, TypeError, ValueError):")
	f.linef("            raise %s(status_code, body)", base)
	f.line("        match error_type:")
	for _, name := range exceptions {
		f.linef("            case %s:", pyString(name))
		f.linef("                raise %s(status_code, error_detail)", name)
	}
	f.line("            case _:")
	f.linef("                raise %s(status_code, body)", base)
}

func clientClassFromConfig(cfg Config, sync bool) string {
	if sync {
		return cfg.ClientName + "Sync"
	}
	return cfg.ClientName
}

// writeOperation emits one generated API method: signature with required
// parameters first, docstring with a literal example response, the
// query-map construction, the request dispatch, and the reconstruction of
// the declared return shape.
func writeOperation(f *pyfile, op genspec.OperationDef, table *genspec.SchemaTable, sync bool) {
	def := "def"
	await := ""
	if !sync {
		def = "async def"
		await = "await "
	}

	var sig []string
	sig = append(sig, "self")
	for _, p := range op.RequiredParams() {
		sig = append(sig, p.Name+": "+paramPyType(p))
	}
	for _, p := range op.OptionalParams() {
		sig = append(sig, p.Name+": "+optionalParamSignature(p))
	}
	f.linef("    %s %s(%s) -> %s:", def, op.MethodName, strings.Join(sig, ", "), genspec.PyType(op.Returns))
	writeOperationDocstring(f, op, table)

	always, conditional := queryParamSplit(op)
	hasParams := len(always) > 0 || len(conditional) > 0
	if len(always) > 0 {
		f.line("        params = {")
		for i, p := range always {
			comma := ","
			if i == len(always)-1 {
				comma = ""
			}
			f.linef("            %s: %s%s", pyString(p.Name), queryValueExpr(p), comma)
		}
		f.line("        }")
	} else if len(conditional) > 0 {
		f.line("        params = {}")
	}
	for _, p := range conditional {
		f.linef("        if %s is not None:", p.Name)
		f.linef("            params[%s] = %s", pyString(p.Name), queryValueExpr(p))
	}

	call := fmt.Sprintf("%sself._do_request(%s)", await, pyString(op.Path))
	if hasParams {
		call = fmt.Sprintf("%sself._do_request(%s, params)", await, pyString(op.Path))
	}
	if op.Returns.Kind == genspec.ShapePrimitive {
		expr := reconstructExpr(op.Returns, call, table, "        ", 0)
		f.linef("        return %s", expr)
		return
	}
	f.linef("        ret = %s", call)
	f.linef("        return %s", reconstructExpr(op.Returns, "ret", table, "        ", 0))
}

func writeOperationDocstring(f *pyfile, op genspec.OperationDef, table *genspec.SchemaTable) {
	var lines []string
	summary := op.Summary
	if summary == "" {
		summary = "Calls GET " + op.Path
	}
	lines = append(lines, docLines(summary)...)
	if op.Description != "" && op.Description != op.Summary {
		lines = append(lines, "")
		lines = append(lines, docLines(op.Description)...)
	}
	lines = append(lines, "")
	for _, p := range op.Params {
		desc := p.Description
		if desc == "" {
			desc = "The " + p.Name + " parameter"
		}
		desc = firstLine(desc)
		if !p.Required && p.Default != nil {
			desc += ", defaults to " + pyScalar(p.Default)
		}
		lines = append(lines, ":param "+p.Name+": "+desc)
		typeRow := ":type " + p.Name + ": " + paramPyType(p)
		if !p.Required {
			typeRow += ", optional"
		}
		lines = append(lines, typeRow)
	}
	for _, e := range op.Errors {
		desc := "Error " + e.Status
		if def, ok := table.Get(e.Schema); ok && def.Description != "" {
			desc = firstLine(def.Description)
		}
		lines = append(lines, ":raises "+e.Schema+": "+desc)
	}
	ret := firstLine(op.ReturnsDescription)
	if ret == "" {
		ret = "The " + genspec.PyType(op.Returns) + " response"
	}
	lines = append(lines, ":return: "+ret)
	if example, ok := exampleForReturn(op, table); ok {
		lines = append(lines, "", "Example response:", example)
	}
	lines = append(lines, ":rtype: "+genspec.PyType(op.Returns))
	writeDocstring(f, "        ", lines)
}

// exampleForReturn renders the literal example response for an operation
// from the example payload of the schema it returns.
func exampleForReturn(op genspec.OperationDef, table *genspec.SchemaTable) (string, bool) {
	switch op.Returns.Kind {
	case genspec.ShapeObject:
		def, ok := table.Get(op.Returns.Object)
		if !ok || len(def.Example) == 0 {
			return "", false
		}
		example := make(map[string]any, len(def.Example))
		for k, v := range def.Example {
			example[k] = v
		}
		return renderExampleCtor(example, op.Returns, table, ""), true
	case genspec.ShapeArray:
		if op.Returns.Elem.Kind != genspec.ShapeObject {
			return "", false
		}
		def, ok := table.Get(op.Returns.Elem.Object)
		if !ok || len(def.Example) == 0 {
			return "", false
		}
		elem := make(map[string]any, len(def.Example))
		for k, v := range def.Example {
			elem[k] = v
		}
		return renderExampleCtor([]any{elem}, op.Returns, table, ""), true
	}
	return "", false
}

// queryParamSplit partitions the parameters following the inclusion
// policy: required parameters and optionals with a declared default are
// always sent (the default is meaningful to the API); optionals without
// a default are sent only when the caller supplied a value.
func queryParamSplit(op genspec.OperationDef) (always, conditional []genspec.ParamDef) {
	for _, p := range op.Params {
		switch {
		case p.Required:
			always = append(always, p)
		case p.Default != nil:
			always = append(always, p)
		default:
			conditional = append(conditional, p)
		}
	}
	return always, conditional
}

// queryValueExpr renders the value stored in the query map for a
// parameter. Numbers go through str because the transport layer only
// serializes str and int query values; the string form is also what the
// API parses back into an exact decimal.
func queryValueExpr(p genspec.ParamDef) string {
	if p.Type == "number" {
		return "str(" + p.Name + ")"
	}
	return p.Name
}

func paramPyType(p genspec.ParamDef) string {
	t, err := genspec.PyParamType(p.Name, p.Type)
	if err != nil {
		// Normalization already rejected unsupported tags.
		return p.Type
	}
	return t
}

// optionalParamSignature renders "type = default" or "type | None = None"
// when the document declares no default.
func optionalParamSignature(p genspec.ParamDef) string {
	if p.Default == nil {
		return paramPyType(p) + " | None = None"
	}
	return paramPyType(p) + " = " + paramDefaultLiteral(p)
}

func paramDefaultLiteral(p genspec.ParamDef) string {
	if p.Type == "number" {
		return "Decimal(" + pyString(pyScalar(p.Default)) + ")"
	}
	return pyScalar(p.Default)
}

// clientTypeUsage walks every operation's return shape and reports the
// models the client file must import, plus whether Decimal or List appear
// anywhere in signatures or reconstructions.
func clientTypeUsage(doc *genspec.Document) (models []string, needDecimal, needList bool) {
	seen := make(map[string]bool)
	for _, op := range doc.Operations {
		for _, name := range reachableModels(op.Returns, doc.Schemas) {
			if !seen[name] {
				seen[name] = true
				models = append(models, name)
			}
		}
		if shapeNeedsDecimal(op.Returns, doc.Schemas) {
			needDecimal = true
		}
		if op.Returns.Kind == genspec.ShapeArray {
			needList = true
		}
		for _, p := range op.Params {
			if p.Type == "number" {
				needDecimal = true
			}
		}
	}
	return models, needDecimal, needList
}

// exceptionSchemaNames returns the error schemas in declaration order.
func exceptionSchemaNames(table *genspec.SchemaTable) []string {
	var out []string
	for _, name := range table.Names() {
		if genspec.IsExceptionSchema(name) {
			out = append(out, name)
		}
	}
	return out
}

// modelSchemaNames returns the non-error schemas in declaration order.
func modelSchemaNames(table *genspec.SchemaTable) []string {
	var out []string
	for _, name := range table.Names() {
		if !genspec.IsExceptionSchema(name) {
			out = append(out, name)
		}
	}
	return out
}
