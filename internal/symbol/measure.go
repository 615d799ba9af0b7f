package symbol

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Measurer reports the rendered pixel height of an image file.
type Measurer interface {
	Height(ctx context.Context, path string) (int, error)
}

const identifyWaitDelay = 500 * time.Millisecond

// IdentifyMeasurer asks ImageMagick's identify for the height of the first
// frame.
type IdentifyMeasurer struct {
	Path string
}

func (m IdentifyMeasurer) Height(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, m.Path, "-format", "%h", path+"[0]")
	// Delegates spawned by identify may keep stdout open after the kill.
	cmd.WaitDelay = identifyWaitDelay
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("identify %s: %w", path, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("identify %s: unexpected output %q", path, out)
	}
	return h, nil
}

// HeaderMeasurer reads dimensions from the file header without decoding
// pixel data.
type HeaderMeasurer struct{}

func (HeaderMeasurer) Height(_ context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open symbol %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		h, err := svgHeight(f)
		if err != nil {
			return 0, fmt.Errorf("read svg header %s: %w", path, err)
		}
		return h, nil
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, fmt.Errorf("read image header %s: %w", path, err)
	}
	return cfg.Height, nil
}

var lookPath = exec.LookPath

// DetectMeasurer prefers identify when it is on PATH and falls back to
// header decoding otherwise.
func DetectMeasurer() Measurer {
	if p, err := lookPath("identify"); err == nil {
		slog.Debug("measuring symbols with identify", "path", p)
		return IdentifyMeasurer{Path: p}
	}
	slog.Debug("identify not found, measuring symbols from image headers")
	return HeaderMeasurer{}
}
