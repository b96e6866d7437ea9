package pyemitter

import (
	"strings"
	"testing"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

func TestBaseExceptionName(t *testing.T) {
	t.Parallel()

	if got := baseExceptionName("BlockchainAPIs"); got != "BlockchainAPIsException" {
		t.Errorf("got %q", got)
	}
}

func TestRenderBaseException(t *testing.T) {
	t.Parallel()

	got := renderBaseException("BlockchainAPIs")
	for _, want := range []string{
		"class BlockchainAPIsException(Exception):",
		"status_code: int",
		"detail: str",
		"def __init__(self, status_code: int, detail: str):",
		`super().__init__(f"{status_code} - {detail}")`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in base exception:\n%s", want, got)
		}
	}
}

func TestRenderException(t *testing.T) {
	t.Parallel()

	def := genspec.SchemaDef{
		Name:        "HTTPValidationError",
		Description: "Raised when the request is malformed",
	}
	got := renderException(def, "BlockchainAPIs")
	for _, want := range []string{
		"from .BlockchainAPIsException import BlockchainAPIsException",
		"class HTTPValidationError(BlockchainAPIsException):",
		`"""Raised when the request is malformed"""`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in exception:\n%s", want, got)
		}
	}
}

func TestRenderExceptionsInit_BaseFirst(t *testing.T) {
	t.Parallel()

	got := renderExceptionsInit("The exceptions raised by the API.", "BlockchainAPIs", []string{"HTTPValidationError"})
	baseAt := strings.Index(got, "from .BlockchainAPIsException import BlockchainAPIsException")
	subAt := strings.Index(got, "from .HTTPValidationError import HTTPValidationError")
	if baseAt < 0 || subAt < 0 || baseAt > subAt {
		t.Errorf("expected base exception import before subclasses:\n%s", got)
	}
	if !strings.Contains(got, `    "BlockchainAPIsException",`) {
		t.Errorf("missing base exception in __all__:\n%s", got)
	}
}
