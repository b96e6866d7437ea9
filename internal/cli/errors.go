package cli

import (
	"errors"

	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// outputError marks filesystem failures while writing generated output.
type outputError struct {
	msg string
}

func newOutputError(msg string) error {
	return outputError{msg: msg}
}

func (e outputError) Error() string { return e.msg }

// Stable exit codes, one per failure kind, so scripts can distinguish a
// bad invocation from a bad document.
const (
	ExitUsage  = 2
	ExitLoad   = 3
	ExitSchema = 4
	ExitOutput = 5
)

// ExitCode maps an error to its stable process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *genspec.SpecError
	var sh *genspec.SchemaError
	var oe outputError
	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.As(err, &sh):
		return ExitSchema
	case errors.As(err, &se):
		return ExitLoad
	case errors.As(err, &oe):
		return ExitOutput
	default:
		return 1
	}
}
