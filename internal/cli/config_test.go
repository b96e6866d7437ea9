package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `name: BlockchainAPIs
api-url: https://api.blockchainapis.io
package:
  name: blockchainapis
  author: Clarensia
  author-comment: https://www.clarensia.com
  version: 1.1.0
  description: The fastest way to interact with decentralized exchanges.
  all-exports: [BlockchainAPIs, BlockchainAPIsSync, BlockchainAPIs]
model-module-description: The models returned by the API calls.
exception-module-description: The exceptions raised by the API calls.
`)

	cfg, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ClientName != "BlockchainAPIs" {
		t.Errorf("client name: got %q", cfg.ClientName)
	}
	if cfg.APIURL != "https://api.blockchainapis.io" {
		t.Errorf("api url: got %q", cfg.APIURL)
	}
	if cfg.Package.Name != "blockchainapis" || cfg.Package.Author != "Clarensia" {
		t.Errorf("package: got %+v", cfg.Package)
	}
	// Duplicate exports collapse.
	if want := []string{"BlockchainAPIs", "BlockchainAPIsSync"}; len(cfg.Package.Exports) != len(want) {
		t.Errorf("exports: got %v, want %v", cfg.Package.Exports, want)
	}
	if cfg.ModelModuleDescription != "The models returned by the API calls." {
		t.Errorf("model module description: got %q", cfg.ModelModuleDescription)
	}
}

func TestLoadRunConfig_MissingName(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `api-url: https://api.blockchainapis.io`)
	_, err := loadRunConfig(path)
	if err == nil {
		t.Fatalf("expected error for missing name")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "name") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestLoadRunConfig_MissingAPIURL(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `name: BlockchainAPIs`)
	_, err := loadRunConfig(path)
	if err == nil {
		t.Fatalf("expected error for missing api-url")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestLoadRunConfig_UnknownKey(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `name: BlockchainAPIs
api-url: https://api.blockchainapis.io
unknown: value
`)
	_, err := loadRunConfig(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestLoadRunConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadRunConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestSanitizeExports(t *testing.T) {
	t.Parallel()

	got := sanitizeExports([]string{" A ", "", "B", "A"})
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("got %v", got)
	}
	if sanitizeExports(nil) != nil {
		t.Errorf("expected nil for empty input")
	}
	if sanitizeExports([]string{"", "  "}) != nil {
		t.Errorf("expected nil for blank-only input")
	}
}
