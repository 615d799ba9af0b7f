package symbol

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ogulcanaydogan/applint/internal/report"
)

// Extensions lists the image types treated as symbols.
var Extensions = []string{".svg", ".png", ".jpg", ".jpeg", ".gif"}

const DefaultMaxHeight = 70

func IsSymbol(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// LicenceFile is the text file that must accompany the symbol at path.
func LicenceFile(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
}

type Validator struct {
	Measurer  Measurer
	MaxHeight int
}

func NewValidator(m Measurer, maxHeight int) *Validator {
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	return &Validator{Measurer: m, MaxHeight: maxHeight}
}

func (v *Validator) Check(ctx context.Context, path string) error {
	symbol := filepath.Base(path)
	licence := LicenceFile(path)
	if _, err := os.Stat(licence); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report.Failf("Missing licence %s for %s", licence, symbol)
		}
		return fmt.Errorf("stat licence %s: %w", licence, err)
	}

	height, err := v.Measurer.Height(ctx, path)
	if err != nil {
		return err
	}
	slog.Debug("measured symbol", "symbol", symbol, "height", height)
	if height > v.MaxHeight {
		return report.Failf("Symbol height of %s is too big %d > %d", symbol, height, v.MaxHeight)
	}
	return nil
}
