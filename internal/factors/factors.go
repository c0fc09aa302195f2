// Package factors loads the emission factor reference table from YAML.
//
// Several historical field names are accepted for the same value. They are
// folded into core.EmissionFactor here and nowhere else.
package factors

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"footprint/internal/core"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

//go:embed default_factors.yaml
var defaultFile []byte

// namespace seeds ids for factors that do not declare one.
var namespace = uuid.MustParse("6f1d3c2a-8b7e-4f10-9a52-3c0d9e7b5a41")

type record struct {
	ID string `yaml:"id"`

	ItemName string `yaml:"item_name"`
	Name     string `yaml:"name"`

	Category     string `yaml:"category"`
	CategoryName string `yaml:"category_name"`

	Unit string `yaml:"unit"`

	CO2ePerUnit   *float64 `yaml:"co2e_per_unit"`
	CO2eValue     *float64 `yaml:"co2e_value"`
	EmissionValue *float64 `yaml:"emission_value"`
	Rate          *float64 `yaml:"rate"`
}

type document struct {
	Factors []record `yaml:"factors"`
}

// Default returns the embedded reference table.
func Default() ([]core.EmissionFactor, error) {
	return Parse(defaultFile)
}

// Load reads factors from path. An empty path selects the embedded table.
func Load(path string) ([]core.EmissionFactor, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	out, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", path, err)
	}
	return out, nil
}

// Parse decodes a factor document and normalizes every entry.
func Parse(data []byte) ([]core.EmissionFactor, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse factors: %v", core.ErrInvalidInput, err)
	}

	out := make([]core.EmissionFactor, 0, len(doc.Factors))
	seen := make(map[string]int, len(doc.Factors))
	for i, r := range doc.Factors {
		f, err := r.normalize()
		if err != nil {
			return nil, fmt.Errorf("factor at index %d: %w", i, err)
		}
		if prev, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("%w: factor at index %d duplicates id %q from index %d", core.ErrInvalidInput, i, f.ID, prev)
		}
		seen[f.ID] = i
		out = append(out, f)
	}
	return out, nil
}

// FactorID derives a stable id from a factor's name and unit.
func FactorID(name, unit string) string {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(unit))
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

func (r record) normalize() (core.EmissionFactor, error) {
	f := core.EmissionFactor{
		ID:       strings.TrimSpace(r.ID),
		Name:     firstNonEmpty(r.ItemName, r.Name),
		Category: firstNonEmpty(r.Category, r.CategoryName),
		Unit:     strings.TrimSpace(r.Unit),
	}

	rate := firstSet(r.CO2ePerUnit, r.CO2eValue, r.EmissionValue, r.Rate)
	if rate == nil {
		return core.EmissionFactor{}, fmt.Errorf("%w: factor %q has no rate", core.ErrInvalidInput, f.Name)
	}
	f.Rate = *rate

	if f.ID == "" && f.Name != "" {
		f.ID = FactorID(f.Name, f.Unit)
	}
	if err := f.Validate(); err != nil {
		return core.EmissionFactor{}, err
	}
	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstSet(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
