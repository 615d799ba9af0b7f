package appliance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ogulcanaydogan/applint/internal/hash"
	"github.com/ogulcanaydogan/applint/internal/policy/rego"
	"github.com/ogulcanaydogan/applint/internal/report"
	"github.com/ogulcanaydogan/applint/pkg/schema"
	"github.com/ogulcanaydogan/applint/pkg/types"
)

// Validator checks appliance descriptors. Policy and ImagesDir are
// optional.
type Validator struct {
	Schemas   *schema.Store
	Policy    *rego.Engine
	ImagesDir string
	Out       *report.Printer
}

// Check validates the descriptor at path. A *report.Failure means the run
// must stop; warnings are printed and counted in reg.
func (v *Validator) Check(ctx context.Context, path string, reg *Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := filepath.Base(path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read appliance %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return report.Failf("Malformed appliance %s: %v", name, err)
	}

	version, err := registryVersion(raw)
	if err != nil {
		return err
	}
	if err := v.validateSchema(name, version, raw, reg); err != nil {
		return err
	}

	var a types.Appliance
	if err := json.Unmarshal(raw, &a); err != nil {
		return report.Failf("Malformed appliance %s: %v", name, err)
	}
	if prev, dup := reg.claimID(a.ApplianceID, name); dup {
		return &report.Failure{
			Message: "Duplicate appliance UUID detected " + a.ApplianceID,
			Details: []string{"first declared in " + prev},
		}
	}

	if gjson.GetBytes(raw, "images").Exists() {
		if err := v.checkImages(name, a, reg); err != nil {
			return err
		}
		if v.ImagesDir != "" {
			if err := v.checkDigests(ctx, a.Images); err != nil {
				return err
			}
		}
	}

	if v.Policy != nil {
		return v.checkPolicy(ctx, name, doc, reg)
	}
	return nil
}

func registryVersion(raw []byte) (int, error) {
	res := gjson.GetBytes(raw, "registry_version")
	if !res.Exists() {
		return 0, report.Failf("Schema version <missing> is not supported")
	}
	if res.Type != gjson.Number || res.Float() != math.Trunc(res.Float()) || !schema.Supported(int(res.Int())) {
		return 0, report.Failf("Schema version %s is not supported", res.Raw)
	}
	return int(res.Int()), nil
}

func (v *Validator) validateSchema(name string, version int, raw []byte, reg *Registry) error {
	errs, err := v.Schemas.Validate(version, raw)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return &report.Failure{
			Message: fmt.Sprintf("Schema validation failed for %s against registry version %d", name, version),
			Details: errs,
		}
	}

	// Only the schema shape is probed; the image cross-checks are not rerun
	// against the lower version.
	i := slices.Index(schema.Versions, version)
	if i <= 0 {
		return nil
	}
	lower := schema.Versions[i-1]
	probe, err := sjson.SetBytes(raw, "registry_version", lower)
	if err != nil {
		return fmt.Errorf("downgrade probe %s: %w", name, err)
	}
	if errs, err := v.Schemas.Validate(lower, probe); err == nil && len(errs) == 0 {
		v.warnf(reg, "Appliance %s can be downgraded to registry version %d", name, lower)
	}
	return nil
}

func (v *Validator) checkImages(name string, a types.Appliance, reg *Registry) error {
	declared := make(map[string]string, len(a.Images))
	for _, img := range a.Images {
		if reg.hasImage(img.Filename) {
			return report.Failf("Duplicate image filename %s", img.Filename)
		}
		if reg.hasMD5(img.MD5Sum) {
			return report.Failf("Duplicate image md5sum %s", img.MD5Sum)
		}
		if !a.References(img.Filename) {
			v.warnf(reg, "Unused image %s in %s", img.Filename, name)
		}
		reg.addImage(img.Filename, img.Version, img.MD5Sum)
		declared[img.Filename] = img.Version
	}

	for _, ver := range a.Versions {
		roles := make([]string, 0, len(ver.Images))
		for role := range ver.Images {
			roles = append(roles, role)
		}
		slices.Sort(roles)

		match := false
		for _, role := range roles {
			filename := ver.Images[role]
			imageVersion, ok := declared[filename]
			if !ok {
				return report.Failf("Missing relation %s in %s for version %s", filename, name, ver.Name)
			}
			if imageVersion == ver.Name {
				match = true
			}
		}
		if !match {
			return report.Failf("Version mismatch for version %s in %s", ver.Name, name)
		}
	}
	return nil
}

func (v *Validator) checkDigests(ctx context.Context, images []types.Image) error {
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(v.ImagesDir, filepath.Base(img.Filename))
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			slog.Debug("image not present locally, skipping digest", "image", img.Filename)
			continue
		}
		digest, err := hash.DigestImage(path)
		if err != nil {
			return err
		}
		if err := digest.Verify(img.MD5Sum, img.Filesize); err != nil {
			return report.Failf("Image %s %v", img.Filename, err)
		}
	}
	return nil
}

func (v *Validator) checkPolicy(ctx context.Context, name string, doc map[string]any, reg *Registry) error {
	res, err := v.Policy.Evaluate(ctx, rego.Input{File: name, Appliance: doc})
	if err != nil {
		return fmt.Errorf("policy %s: %w", name, err)
	}
	for _, w := range res.Warn {
		v.warnf(reg, "%s", w)
	}
	if len(res.Deny) > 0 {
		return &report.Failure{
			Message: "Policy denied appliance " + name,
			Details: res.Deny,
		}
	}
	return nil
}

func (v *Validator) warnf(reg *Registry, format string, args ...any) {
	reg.warnings++
	v.Out.Warnf(format, args...)
}
