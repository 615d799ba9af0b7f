package packer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ogulcanaydogan/applint/internal/report"
)

const Extension = ".json"

// Check parses every packer definition in the group directory dir. A group
// that does not exist, or is a plain file, has nothing to check.
func Check(ctx context.Context, dir string, out *report.Printer) error {
	fi, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat packer group %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list packer group %s: %w", dir, err)
	}
	group := filepath.Base(dir)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		out.Printf("Check %s/%s", group, e.Name())
		if err := parseFile(filepath.Join(dir, e.Name())); err != nil {
			return report.Failf("Malformed packer file %s/%s: %v", group, e.Name(), err)
		}
	}
	return nil
}

func parseFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	return json.Unmarshal(raw, &doc)
}
