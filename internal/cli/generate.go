package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/emitter/pyemitter"
	"github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/overlay"
	genspec "github.com/Clarensia/Human-Readable-OpenAPI-Client-Generator/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command.
type GenerateConfig struct {
	Input      string
	ConfigPath string
	Additional string
	Out        string
	DryRun     bool
	Force      bool
	Verbose    bool
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a client library from an OpenAPI document",
		Long: "Generate a client library from an OpenAPI document: typed models, " +
			"exception classes, asynchronous and synchronous client classes, and a " +
			"generated test suite that cross-checks every method against raw requests.",
		Example: strings.TrimSpace(`  openapi-client-gen generate --input inputs/blockchainapis.json --config inputs/config.yml --out dest
  openapi-client-gen generate --input inputs/blockchainapis.json --config inputs/config.yml --additional inputs/additional --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "f", "", "Path or URL to the OpenAPI document to generate the client from")
	flags.StringP("config", "c", "", "Path to the YAML run configuration")
	flags.StringP("additional", "a", "", "Folder with additional source to append to the generated client")
	flags.StringP("out", "d", "dest", "Destination folder (must not exist or be empty)")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite a non-empty destination when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := &GenerateConfig{}
	if err := readGenerateFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.Verbose, err = cmd.Root().PersistentFlags().GetBool("verbose"); err != nil {
		return nil, err
	}

	cfg.Input = strings.TrimSpace(cfg.Input)
	cfg.ConfigPath = strings.TrimSpace(cfg.ConfigPath)
	cfg.Additional = strings.TrimSpace(cfg.Additional)
	cfg.Out = strings.TrimSpace(cfg.Out)

	if cfg.Input == "" {
		return nil, newUsageError("generate: --input is required")
	}
	if cfg.ConfigPath == "" {
		return nil, newUsageError("generate: --config is required")
	}
	if cfg.Out == "" {
		return nil, newUsageError("generate: --out must not be empty")
	}
	return cfg, nil
}

func readGenerateFlags(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	var err error
	if cfg.Input, err = flags.GetString("input"); err != nil {
		return err
	}
	if cfg.ConfigPath, err = flags.GetString("config"); err != nil {
		return err
	}
	if cfg.Additional, err = flags.GetString("additional"); err != nil {
		return err
	}
	if cfg.Out, err = flags.GetString("out"); err != nil {
		return err
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return err
	}
	if cfg.Force, err = flags.GetBool("force"); err != nil {
		return err
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	// 1) Run configuration first: it is the cheapest input to reject.
	runCfg, err := loadRunConfig(cfg.ConfigPath)
	if err != nil {
		return err
	}

	// 2) Load the document (file or http/https URL).
	doc, raw, err := genspec.Load(ctx, cfg.Input)
	if err != nil {
		var se *genspec.SpecError
		if errors.As(err, &se) && se.Location != "" {
			fmt.Fprintf(os.Stderr, "Location: %s\n", se.Location)
		}
		return err
	}
	verbosef(cfg, "loaded document %q (%d schemas parsed)\n", cfg.Input, len(raw))

	// 3) Normalize into the internal representation.
	im, err := genspec.BuildDocument(ctx, doc, raw)
	if err != nil {
		return err
	}
	verbosef(cfg, "normalized %d operations and %d schemas\n", len(im.Operations), im.Schemas.Len())

	// 4) Emit the client package.
	res, err := pyemitter.Emit(ctx, im, runCfg, pyemitter.Options{
		OutDir:  cfg.Out,
		Force:   cfg.Force,
		DryRun:  cfg.DryRun,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		return wrapOutputError(err, cfg.Out)
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	if cfg.DryRun {
		printPlan(absOut, res.Planned)
		return nil
	}

	// 5) Append the additional source overlay.
	if cfg.Additional != "" {
		warn := func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "[Warning] "+format+"\n", args...)
		}
		// Any overlay failure is a destination filesystem failure.
		if err := overlay.Apply(cfg.Additional, cfg.Out, res.PackageName, warn); err != nil {
			return newOutputError(outputHint(err, cfg.Out))
		}
	}

	fmt.Fprintf(os.Stdout, "Generated %s client package in %s (%d files)\n", res.ClientName, absOut, len(res.Planned))
	return nil
}

func verbosef(cfg *GenerateConfig, format string, args ...any) {
	if cfg.Verbose {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printPlan(outDir string, planned []pyemitter.PlannedFile) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, p := range planned {
		fmt.Fprintf(os.Stdout, "- %s\n", p.RelPath)
	}
}

// wrapOutputError maps the emitter's typed destination failures to the
// CLI output error; everything else passes through unchanged.
func wrapOutputError(err error, outDir string) error {
	var oe *pyemitter.OutputError
	if !errors.As(err, &oe) {
		return err
	}
	return newOutputError(outputHint(err, outDir))
}

func outputHint(err error, outDir string) string {
	return fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, err.Error())
}
