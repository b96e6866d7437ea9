package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/emitter/pyemitter"
)

// runConfigFile mirrors the YAML run configuration on disk.
type runConfigFile struct {
	Name                       string        `yaml:"name"`
	APIURL                     string        `yaml:"api-url"`
	Package                    pkgConfigFile `yaml:"package"`
	ModelModuleDescription     string        `yaml:"model-module-description"`
	ExceptionModuleDescription string        `yaml:"exception-module-description"`
}

type pkgConfigFile struct {
	Name          string   `yaml:"name"`
	Author        string   `yaml:"author"`
	AuthorComment string   `yaml:"author-comment"`
	Version       string   `yaml:"version"`
	Description   string   `yaml:"description"`
	AllExports    []string `yaml:"all-exports"`
}

// loadRunConfig reads and validates the run configuration file that
// drives generation.
func loadRunConfig(path string) (pyemitter.Config, error) {
	var zero pyemitter.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw runConfigFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return zero, newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	cfg := pyemitter.Config{
		ClientName: strings.TrimSpace(raw.Name),
		APIURL:     strings.TrimSpace(raw.APIURL),
		Package: pyemitter.PackageConfig{
			Name:          strings.TrimSpace(raw.Package.Name),
			Author:        strings.TrimSpace(raw.Package.Author),
			AuthorComment: strings.TrimSpace(raw.Package.AuthorComment),
			Version:       strings.TrimSpace(raw.Package.Version),
			Description:   raw.Package.Description,
			Exports:       sanitizeExports(raw.Package.AllExports),
		},
		ModelModuleDescription:     raw.ModelModuleDescription,
		ExceptionModuleDescription: raw.ExceptionModuleDescription,
	}

	if cfg.ClientName == "" {
		return zero, newUsageError(fmt.Sprintf("config file %q: missing required field %q (the client class name)", path, "name"))
	}
	if cfg.APIURL == "" {
		return zero, newUsageError(fmt.Sprintf("config file %q: missing required field %q", path, "api-url"))
	}
	return cfg, nil
}

func sanitizeExports(exports []string) []string {
	seen := make(map[string]struct{}, len(exports))
	result := make([]string, 0, len(exports))
	for _, e := range exports {
		trimmed := strings.TrimSpace(e)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
