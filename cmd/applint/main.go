package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/applint/internal/appliance"
	"github.com/ogulcanaydogan/applint/internal/config"
	"github.com/ogulcanaydogan/applint/internal/lint"
	"github.com/ogulcanaydogan/applint/internal/logging"
	"github.com/ogulcanaydogan/applint/internal/policy/rego"
	"github.com/ogulcanaydogan/applint/internal/report"
	"github.com/ogulcanaydogan/applint/internal/symbol"
	"github.com/ogulcanaydogan/applint/pkg/schema"
)

// cliError carries the process exit code. quiet errors were already
// reported on stdout by the lint run.
type cliError struct {
	code  int
	err   error
	quiet bool
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	// The first interrupt cancels the run; a second one kills the process.
	context.AfterFunc(ctx, stop)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			if !ce.quiet {
				fmt.Fprintln(os.Stderr, ce.err)
			}
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(report.ExitUsage)
	}
}

var detectMeasurer = symbol.DetectMeasurer

func newRootCommand() *cobra.Command {
	var configPath string
	var noColor bool
	flagCfg := config.Default()

	root := &cobra.Command{
		Use:           "applint",
		Short:         "Check appliance descriptors, symbols and packer files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, configPath, flagCfg)
			if err != nil {
				return cliError{code: report.ExitUsage, err: err}
			}
			return runLint(cmd.Context(), cmd.OutOrStdout(), cfg, noColor)
		},
	}

	f := root.Flags()
	f.StringVarP(&flagCfg.ApplianceDir, "appliance-dir", "a", flagCfg.ApplianceDir, "directory to search for appliances")
	f.StringVarP(&flagCfg.PackerDir, "packer-dir", "p", flagCfg.PackerDir, "check packer files in given directory")
	f.StringVarP(&flagCfg.SymbolsDir, "symbols-dir", "s", flagCfg.SymbolsDir, "check symbol images in given directory")
	f.StringVar(&flagCfg.SchemaDir, "schema-dir", flagCfg.SchemaDir, "directory holding appliance_v<N>.json schemas")
	f.StringVar(&flagCfg.ImagesDir, "images-dir", flagCfg.ImagesDir, "verify md5sum of image files found in this directory")
	f.StringVar(&flagCfg.RegoPolicy, "rego-policy", flagCfg.RegoPolicy, "rego policy evaluated against each appliance")
	f.IntVar(&flagCfg.MaxSymbolHeight, "max-symbol-height", flagCfg.MaxSymbolHeight, "maximum symbol height in pixels")
	f.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "diagnostic log level (debug|info|warn|error)")
	f.StringVar(&configPath, "config", "", "YAML config file providing flag defaults")
	f.BoolVar(&noColor, "no-color", false, "disable colored output")
	return root
}

// resolveConfig layers defaults, the optional config file and the flags
// set on the command line, in that order.
func resolveConfig(cmd *cobra.Command, configPath string, flagCfg config.Config) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	override("appliance-dir", &cfg.ApplianceDir, flagCfg.ApplianceDir)
	override("packer-dir", &cfg.PackerDir, flagCfg.PackerDir)
	override("symbols-dir", &cfg.SymbolsDir, flagCfg.SymbolsDir)
	override("schema-dir", &cfg.SchemaDir, flagCfg.SchemaDir)
	override("images-dir", &cfg.ImagesDir, flagCfg.ImagesDir)
	override("rego-policy", &cfg.RegoPolicy, flagCfg.RegoPolicy)
	override("log-level", &cfg.LogLevel, flagCfg.LogLevel)
	if f.Changed("max-symbol-height") {
		cfg.MaxSymbolHeight = flagCfg.MaxSymbolHeight
	}
	return cfg, cfg.Validate()
}

func runLint(ctx context.Context, w io.Writer, cfg config.Config, noColor bool) error {
	if err := logging.Setup(os.Stderr, cfg.LogLevel, noColor); err != nil {
		return cliError{code: report.ExitUsage, err: err}
	}

	colorize := !noColor && !color.NoColor && w == io.Writer(os.Stdout)
	out := report.NewPrinter(w, colorize)

	store, err := schema.Load(cfg.SchemaDir)
	if err != nil {
		f := &report.Failure{Message: err.Error()}
		out.Fail(f)
		return cliError{code: report.ExitFailure, err: f, quiet: true}
	}
	var policy *rego.Engine
	if cfg.RegoPolicy != "" {
		policy, err = rego.Load(ctx, cfg.RegoPolicy)
		if err != nil {
			return cliError{code: report.ExitUsage, err: err}
		}
	}

	_, err = lint.Run(ctx, lint.Options{
		ApplianceDir: cfg.ApplianceDir,
		PackerDir:    cfg.PackerDir,
		SymbolsDir:   cfg.SymbolsDir,
		Appliances: &appliance.Validator{
			Schemas:   store,
			Policy:    policy,
			ImagesDir: cfg.ImagesDir,
			Out:       out,
		},
		Symbols: symbol.NewValidator(detectMeasurer(), cfg.MaxSymbolHeight),
	}, out)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		out.Aborted()
		return nil
	default:
		return cliError{code: report.ExitFailure, err: err, quiet: true}
	}
}
