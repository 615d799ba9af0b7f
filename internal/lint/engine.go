package lint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogulcanaydogan/applint/internal/appliance"
	"github.com/ogulcanaydogan/applint/internal/packer"
	"github.com/ogulcanaydogan/applint/internal/report"
	"github.com/ogulcanaydogan/applint/internal/symbol"
	"github.com/ogulcanaydogan/applint/pkg/types"
)

type Options struct {
	ApplianceDir string
	PackerDir    string
	SymbolsDir   string
	Appliances   *appliance.Validator
	Symbols      *symbol.Validator
}

type Summary struct {
	Appliances   int
	Symbols      int
	PackerGroups int
	Warnings     int
}

// Run executes the appliance, symbol and packer passes in order. The first
// fatal finding is printed and returned as a *report.Failure; a cancelled
// ctx stops the run with ctx.Err(), whatever error the interrupted check
// produced.
func Run(ctx context.Context, opts Options, out *report.Printer) (Summary, error) {
	sum, err := run(ctx, opts, out)
	if err == nil {
		return sum, nil
	}
	// Tools killed by the interrupt fail with their own error.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return sum, ctxErr
	}
	var f *report.Failure
	if !errors.As(err, &f) {
		f = &report.Failure{Message: err.Error()}
	}
	out.Fail(f)
	return sum, f
}

func run(ctx context.Context, opts Options, out *report.Printer) (Summary, error) {
	reg := appliance.NewRegistry()
	var sum Summary

	out.Section("Check appliances")
	names, err := listDir(opts.ApplianceDir, func(e os.DirEntry) bool {
		return !e.IsDir() && strings.HasSuffix(e.Name(), types.Extension)
	})
	if err != nil {
		return sum, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		out.Printf("Check %s", name)
		if err := opts.Appliances.Check(ctx, filepath.Join(opts.ApplianceDir, name), reg); err != nil {
			return sum, err
		}
		sum.Appliances++
	}

	out.Section("Check symbols")
	names, err = listDir(opts.SymbolsDir, func(e os.DirEntry) bool {
		return !e.IsDir() && symbol.IsSymbol(e.Name())
	})
	if err != nil {
		return sum, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		out.Printf("Check %s", name)
		if err := opts.Symbols.Check(ctx, filepath.Join(opts.SymbolsDir, name)); err != nil {
			return sum, err
		}
		sum.Symbols++
	}

	out.Section("Check packer files")
	names, err = listDir(opts.PackerDir, func(os.DirEntry) bool { return true })
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no packer directory", "dir", opts.PackerDir)
		names, err = nil, nil
	}
	if err != nil {
		return sum, err
	}
	for _, name := range names {
		if err := packer.Check(ctx, filepath.Join(opts.PackerDir, name), out); err != nil {
			return sum, err
		}
		sum.PackerGroups++
	}

	sum.Warnings = reg.Warnings()
	out.Summary(sum.Warnings)
	return sum, nil
}

func listDir(dir string, keep func(os.DirEntry) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
