package pyemitter

// renderPackageInit emits the package __init__.py carrying version,
// author, the client classes, every model and exception, and the export
// list from the run configuration.
func renderPackageInit(cfg Config, models, exceptions []string) string {
	f := &pyfile{}
	if cfg.Package.Description != "" {
		writeModuleDocstring(f, docLines(cfg.Package.Description))
		f.blank()
	}
	f.linef("__version__ = %s", pyString(cfg.Package.Version))
	if cfg.Package.AuthorComment != "" {
		f.linef("__author__ = %s  # %s", pyString(cfg.Package.Author), cfg.Package.AuthorComment)
	} else {
		f.linef("__author__ = %s", pyString(cfg.Package.Author))
	}
	f.blank()
	f.linef("from .%s import %s", cfg.ClientName, cfg.ClientName)
	f.linef("from .%sSync import %sSync", cfg.ClientName, cfg.ClientName)
	f.linef("from .exceptions import %s", baseExceptionName(cfg.ClientName))
	for _, name := range exceptions {
		f.linef("from .exceptions import %s", name)
	}
	for _, name := range models {
		f.linef("from .models import %s", name)
	}
	f.blank()
	exports := cfg.Package.Exports
	if len(exports) == 0 {
		exports = append(exports, cfg.ClientName, cfg.ClientName+"Sync", baseExceptionName(cfg.ClientName))
		exports = append(exports, exceptions...)
		exports = append(exports, models...)
	}
	f.line("__all__ = [")
	for _, name := range exports {
		f.linef("    %s,", pyString(name))
	}
	f.line("]")
	return f.String()
}

// renderRequirements emits the dependency manifest of the generated
// package: aiohttp for the async client, requests for the sync one.
func renderRequirements() string {
	return "aiohttp\nrequests\n"
}

// renderGitignore emits the ignore list. secret_* keeps the local test
// secrets file out of version control.
func renderGitignore() string {
	return `secret_*
.env
__pycache__
venv
.venv
`
}
