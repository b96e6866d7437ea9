package spec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeTempDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()
	path := writeTempDoc(t, "spec.yaml", `openapi: 3.0.0
info:
  title: Sample
  version: "1.0.0"
paths:
  /v0/blockchains:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: integer
`)

	doc, raw, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Info == nil || doc.Info.Title != "Sample" {
		t.Fatalf("unexpected document: %+v", doc.Info)
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw bytes to be returned")
	}
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, _, err := Load(context.Background(), "   ")
	if err == nil {
		t.Fatalf("expected error for empty input")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
	if se.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, _, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	if err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := Load(ctx, "http://127.0.0.1:1/spec.yaml", WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	if err == nil {
		t.Fatalf("expected network error")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
}

func TestLoad_RetriesTransientErrors(t *testing.T) {
	t.Parallel()
	const body = `{"openapi": "3.0.0", "info": {"title": "Flaky", "version": "1.0.0"}, "paths": {}}`
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	doc, _, err := Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	if err != nil {
		t.Fatalf("load after transient errors: %v", err)
	}
	if doc.Info == nil || doc.Info.Title != "Flaky" {
		t.Fatalf("unexpected document: %+v", doc.Info)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	path := writeTempDoc(t, "weird.yaml", `info:
  title: Versionless
paths: {}
`)

	_, _, err := Load(context.Background(), path)
	if err == nil {
		t.Fatalf("expected error for unknown version")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
}

func TestLoad_InvalidDocument(t *testing.T) {
	t.Parallel()
	path := writeTempDoc(t, "bad.yaml", `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  /pet:
    get:
      responses: {}
`)

	_, _, err := Load(context.Background(), path)
	if err == nil {
		t.Fatalf("expected validation error for empty responses")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ValidationError && se.Code != ParseError { // parser version differences
		t.Fatalf("expected ValidationError/ParseError, got %v", se.Code)
	}
	if se.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

func TestLoad_SwaggerV2Conversion(t *testing.T) {
	t.Parallel()
	path := writeTempDoc(t, "swagger.yaml", `swagger: "2.0"
info:
  title: Legacy
  version: "1.0"
paths:
  /ping:
    get:
      responses:
        "200":
          description: ok
`)

	doc, raw, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		t.Fatalf("expected converted v3 document, got %q", doc.OpenAPI)
	}
	// Raw bytes stay the original input so declaration order survives the
	// conversion.
	if !strings.Contains(string(raw), `swagger: "2.0"`) {
		t.Fatalf("expected raw v2 bytes to be preserved")
	}
}

func TestDetectSpecVersion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		content string
		want    int
	}{
		{`openapi: 3.0.2`, 3},
		{`openapi: "3.1.0"`, 3},
		{`swagger: "2.0"`, 2},
	}
	for _, tc := range cases {
		got, err := detectSpecVersion([]byte(tc.content))
		if err != nil {
			t.Errorf("%q: %v", tc.content, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %d, want %d", tc.content, got, tc.want)
		}
	}
	if _, err := detectSpecVersion([]byte("swagger: 1.2")); err == nil {
		t.Errorf("swagger 1.2: expected error")
	}
}
