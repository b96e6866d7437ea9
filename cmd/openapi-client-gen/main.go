package main

import (
	"fmt"
	"os"

	"github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	if err := root.Execute(); err != nil {
		// Cobra is configured to not print errors. Ensure users still get
		// a message, then exit with the code for the failure kind.
		if msg := err.Error(); msg != "" {
			_, _ = fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(cli.ExitCode(err))
	}
}
