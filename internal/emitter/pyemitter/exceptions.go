package pyemitter

import (
	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// baseExceptionName derives the shared base exception class from the
// configured client class name.
func baseExceptionName(clientName string) string {
	return clientName + "Exception"
}

// renderBaseException emits the package's base exception carrying the
// numeric status code and the detail message returned by the API.
func renderBaseException(clientName string) string {
	base := baseExceptionName(clientName)
	f := &pyfile{}
	f.linef("class %s(Exception):", base)
	writeDocstring(f, "    ", []string{
		"Base exception raised when the API responds with an error.",
		"",
		"Every generated exception derives from this class, so you can",
		"catch it to handle any API error in one place.",
	})
	f.blank()
	f.line("    status_code: int")
	f.line(`    """The error code returned by the call"""`)
	f.blank()
	f.line("    detail: str")
	f.line(`    """Some details about the error that occurred"""`)
	f.blank()
	f.line("    def __init__(self, status_code: int, detail: str):")
	f.line("        self.status_code = status_code")
	f.line("        self.detail = detail")
	f.line(`        super().__init__(f"{status_code} - {detail}")`)
	return f.String()
}

// renderException emits one exception subclass for an error schema. The
// subclass adds nothing beyond the inherited fields; its docstring is the
// schema's own description.
func renderException(def genspec.SchemaDef, clientName string) string {
	base := baseExceptionName(clientName)
	f := &pyfile{}
	f.linef("from .%s import %s", base, base)
	f.blank()
	f.blank()
	f.linef("class %s(%s):", def.Name, base)
	if def.Description != "" {
		writeDocstring(f, "    ", docLines(def.Description))
	} else {
		f.linef(`    """Raised when the API responds with a %s error"""`, def.Name)
	}
	return f.String()
}

// renderExceptionsInit emits exceptions/__init__.py with the configured
// module description, the base exception first, then every subclass.
func renderExceptionsInit(description, clientName string, names []string) string {
	base := baseExceptionName(clientName)
	f := &pyfile{}
	if description != "" {
		writeModuleDocstring(f, docLines(description))
		f.blank()
	}
	f.linef("from .%s import %s", base, base)
	for _, name := range names {
		f.linef("from .%s import %s", name, name)
	}
	f.blank()
	f.line("__all__ = [")
	f.linef("    %s,", pyString(base))
	for _, name := range names {
		f.linef("    %s,", pyString(name))
	}
	f.line("]")
	return f.String()
}
