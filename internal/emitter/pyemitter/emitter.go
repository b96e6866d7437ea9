package pyemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// PackageConfig is the packaging metadata of the generated client.
type PackageConfig struct {
	Name          string // Python package name
	Author        string
	AuthorComment string
	Version       string
	Description   string
	Exports       []string // __all__; defaults to everything generated
}

// Config is the run configuration driving generation.
type Config struct {
	ClientName                 string // primary client class name
	APIURL                     string // base URL baked into the clients
	Package                    PackageConfig
	ModelModuleDescription     string
	ExceptionModuleDescription string
}

// Options controls how the emitter writes the generated package.
type Options struct {
	OutDir  string // required; target directory to write the package
	Force   bool   // overwrite existing files
	DryRun  bool   // don't write, only plan
	Verbose bool
}

// OutputError marks a failure touching the destination filesystem, so
// callers can map it in their error taxonomy without parsing messages.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string { return e.Err.Error() }
func (e *OutputError) Unwrap() error { return e.Err }

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
}

// Result returns the planned files and final resolved names.
type Result struct {
	ClientName  string
	PackageName string
	Planned     []PlannedFile
}

// Emit renders the complete Python client package for a normalized
// document: one file per model, one per exception plus the shared base,
// the async and sync client classes, packaging scaffolding, and one
// generated test file per operation.
func Emit(ctx context.Context, doc *genspec.Document, cfg Config, opts Options) (*Result, error) {
	_ = ctx
	if doc == nil {
		return nil, fmt.Errorf("pyemitter: nil document")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("pyemitter: OutDir is required")
	}
	if err := resolveConfig(&cfg, doc); err != nil {
		return nil, err
	}

	models := modelSchemaNames(doc.Schemas)
	exceptions := exceptionSchemaNames(doc.Schemas)

	files := map[string][]byte{}
	pkgPath := cfg.Package.Name

	files[filepath.Join(pkgPath, "__init__.py")] = []byte(renderPackageInit(cfg, models, exceptions))
	files[filepath.Join(pkgPath, cfg.ClientName+".py")] = []byte(renderClient(doc, cfg, false))
	files[filepath.Join(pkgPath, cfg.ClientName+"Sync.py")] = []byte(renderClient(doc, cfg, true))

	modelsPath := filepath.Join(pkgPath, "models")
	files[filepath.Join(modelsPath, "__init__.py")] = []byte(renderModelsInit(cfg.ModelModuleDescription, models))
	for _, name := range models {
		def, _ := doc.Schemas.Get(name)
		files[filepath.Join(modelsPath, name+".py")] = []byte(renderModel(def, doc.Schemas))
	}

	excPath := filepath.Join(pkgPath, "exceptions")
	files[filepath.Join(excPath, "__init__.py")] = []byte(renderExceptionsInit(cfg.ExceptionModuleDescription, cfg.ClientName, exceptions))
	files[filepath.Join(excPath, baseExceptionName(cfg.ClientName)+".py")] = []byte(renderBaseException(cfg.ClientName))
	for _, name := range exceptions {
		def, _ := doc.Schemas.Get(name)
		files[filepath.Join(excPath, name+".py")] = []byte(renderException(def, cfg.ClientName))
	}

	files["requirements.txt"] = []byte(renderRequirements())
	files[".gitignore"] = []byte(renderGitignore())

	files[filepath.Join("tests", "__init__.py")] = []byte("")
	files[filepath.Join("tests", "api_test_case.py")] = []byte(renderTestFixture(cfg))
	files[filepath.Join("tests", "secret_config.py")] = []byte(renderSecretConfig())
	for _, op := range doc.Operations {
		files[filepath.Join("tests", "test_"+op.MethodName+".py")] = []byte(renderOperationTest(op, doc.Schemas))
	}

	// Plan in deterministic order.
	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, filepath.ToSlash(p))
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel])})
	}

	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, &OutputError{Path: opts.OutDir, Err: fmt.Errorf("pyemitter: resolve output directory: %w", err)}
	}
	// The destination check runs before any write so a failure leaves the
	// directory untouched: a half-generated client is worse than none.
	if err := validateOutputDirectory(abs, opts.Force); err != nil {
		return nil, &OutputError{Path: abs, Err: err}
	}
	if !opts.DryRun {
		if err := writeFiles(abs, files); err != nil {
			return nil, &OutputError{Path: abs, Err: err}
		}
	}

	return &Result{ClientName: cfg.ClientName, PackageName: cfg.Package.Name, Planned: planned}, nil
}

func resolveConfig(cfg *Config, doc *genspec.Document) error {
	cfg.ClientName = strings.TrimSpace(cfg.ClientName)
	if cfg.ClientName == "" {
		return fmt.Errorf("pyemitter: config is missing the client class name")
	}
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.APIURL == "" {
		return fmt.Errorf("pyemitter: config is missing the api url")
	}
	cfg.Package.Name = sanitizePackageName(cfg.Package.Name)
	if cfg.Package.Name == "" {
		cfg.Package.Name = sanitizePackageName(cfg.ClientName)
	}
	if cfg.Package.Name == "" {
		return fmt.Errorf("pyemitter: cannot derive a package name from config")
	}
	if cfg.Package.Version == "" {
		cfg.Package.Version = doc.Version
	}
	if cfg.Package.Version == "" {
		cfg.Package.Version = "0.1.0"
	}
	return nil
}

func sanitizePackageName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ToLower(name)
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

// validateOutputDirectory checks that the destination either does not
// exist or is an empty directory; force skips the emptiness check.
func validateOutputDirectory(absPath string, force bool) error {
	stat, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access output directory %q: %w", absPath, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("output path %q is not a directory", absPath)
	}
	if force {
		return nil
	}
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("cannot read output directory %q: %w", absPath, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("output directory %q is not empty (use --force to overwrite)", absPath)
	}
	return nil
}

func writeFiles(absOut string, files map[string][]byte) error {
	for rel := range files {
		dir := filepath.Dir(filepath.Join(absOut, rel))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("pyemitter: create directory %s: %w", dir, err)
		}
	}
	for rel, content := range files {
		if err := writeFileAtomic(absOut, rel, content); err != nil {
			return fmt.Errorf("pyemitter: write file %s: %w", rel, err)
		}
	}
	return nil
}

// writeFileAtomic writes a file via temp + rename so an interrupted run
// never leaves a truncated source file behind.
func writeFileAtomic(baseDir, relPath string, content []byte) error {
	fullPath := filepath.Join(baseDir, relPath)
	dir := filepath.Dir(fullPath)

	tmpFile, err := os.CreateTemp(dir, ".tmp-pyemitter-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", relPath, err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
		}
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if len(content) > 0 {
		if _, err := tmpFile.Write(content); err != nil {
			return fmt.Errorf("write content to temp file: %w", err)
		}
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		return fmt.Errorf("set file permissions: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("atomic rename %s to %s: %w", tmpPath, fullPath, err)
	}
	success = true
	return nil
}
