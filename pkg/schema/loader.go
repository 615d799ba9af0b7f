package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// Versions lists the supported registry versions in ascending order. The
// first entry is the current canonical version.
var Versions = []int{3, 4, 5, 6}

func Lowest() int { return Versions[0] }

func Supported(version int) bool { return slices.Contains(Versions, version) }

func FileName(version int) string {
	return fmt.Sprintf("appliance_v%d.json", version)
}

// Store holds one closed-world schema per supported registry version.
type Store struct {
	docs    map[int]map[string]any
	schemas map[int]*gojsonschema.Schema
}

func Load(dir string) (*Store, error) {
	s := &Store{
		docs:    make(map[int]map[string]any, len(Versions)),
		schemas: make(map[int]*gojsonschema.Schema, len(Versions)),
	}
	for _, v := range Versions {
		path := filepath.Join(dir, FileName(v))
		doc, err := loadDocument(path)
		if err != nil {
			return nil, err
		}
		Tighten(doc)
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", path, err)
		}
		s.docs[v] = doc
		s.schemas[v] = compiled
	}
	return s, nil
}

func loadDocument(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return doc, nil
}

// Tighten sets additionalProperties to false on every object schema that
// declares properties without saying otherwise. Array schemas are handled
// through their items schema.
func Tighten(s map[string]any) {
	if items, ok := s["items"].(map[string]any); ok {
		s = items
	}
	props, ok := s["properties"].(map[string]any)
	if !ok {
		return
	}
	if _, ok := s["additionalProperties"]; !ok {
		s["additionalProperties"] = false
	}
	for _, p := range props {
		if sub, ok := p.(map[string]any); ok {
			Tighten(sub)
		}
	}
}

// Validate checks raw JSON against the schema for version and returns the
// violations, if any.
func (s *Store) Validate(version int, raw []byte) ([]string, error) {
	compiled, ok := s.schemas[version]
	if !ok {
		return nil, fmt.Errorf("no schema for registry version %d", version)
	}
	result, err := compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", FileName(version), err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}
