package symbol

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// CSS pixels per unit at 96 dpi.
var unitPixels = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"mm": 96.0 / 25.4,
	"cm": 96.0 / 2.54,
	"in": 96,
	"em": 16,
	"ex": 8,
}

// svgHeight reads the root <svg> element and returns its height in pixels.
// A missing or relative height falls back to the viewBox.
func svgHeight(r io.Reader) (int, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return 0, errors.New("no svg element")
		}
		if err != nil {
			return 0, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return 0, fmt.Errorf("root element is %s, not svg", start.Name.Local)
		}
		var height, viewBox string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "height":
				height = a.Value
			case "viewBox":
				viewBox = a.Value
			}
		}
		if h, ok := parseLength(height); ok {
			return h, nil
		}
		if h, ok := viewBoxHeight(viewBox); ok {
			return h, nil
		}
		return 0, errors.New("svg has neither absolute height nor viewBox")
	}
}

func parseLength(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasSuffix(v, "%") {
		return 0, false
	}
	i := len(v)
	for i > 0 && (v[i-1] >= 'a' && v[i-1] <= 'z' || v[i-1] >= 'A' && v[i-1] <= 'Z') {
		i--
	}
	scale, ok := unitPixels[strings.ToLower(v[i:])]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v[:i]), 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return int(math.Round(n * scale)), true
}

func viewBoxHeight(v string) (int, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return 0, false
	}
	h, err := strconv.ParseFloat(fields[3], 64)
	if err != nil || h < 0 {
		return 0, false
	}
	return int(math.Round(h)), true
}
