// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package presets provides named default criteria sets for new comparisons.
package presets

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/models"
)

//go:embed presets.yaml
var builtin []byte

type file struct {
	Presets []models.Preset `yaml:"presets"`
}

// Registry holds presets by name, keeping file order for listing
type Registry struct {
	byName map[string]models.Preset
	order  []string
}

// Load reads presets from path, or the built-in set when path is empty
func Load(path string) (*Registry, error) {
	data := builtin
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read presets file: %w", err)
		}
	}
	return Parse(data)
}

// Parse builds a Registry from YAML. Criterion names are normalized the same
// way criteria added over the API are.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	r := &Registry{byName: make(map[string]models.Preset, len(f.Presets))}
	for i, p := range f.Presets {
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: name is required", i)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("preset %q defined twice", p.Name)
		}

		switch p.Type {
		case "":
			p.Type = models.TypeWeighted
		case models.TypeSimple, models.TypeWeighted, models.TypeProCon:
		default:
			return nil, fmt.Errorf("preset %q: unknown type %q", p.Name, p.Type)
		}

		if len(p.Criteria) == 0 {
			return nil, fmt.Errorf("preset %q: at least one criterion is required", p.Name)
		}
		seen := make(map[string]bool, len(p.Criteria))
		for j := range p.Criteria {
			c := &p.Criteria[j]
			c.Name = decision.NormalizeCriterionName(c.Name)
			if c.Name == "" {
				return nil, fmt.Errorf("preset %q: criterion %d has no name", p.Name, j)
			}
			key := decision.CriterionKey(c.Name)
			if seen[key] {
				return nil, fmt.Errorf("preset %q: criterion %q listed twice", p.Name, c.Name)
			}
			seen[key] = true
			if err := decision.ValidateWeight(c.Weight); err != nil {
				return nil, fmt.Errorf("preset %q: criterion %q: %w", p.Name, c.Name, err)
			}
		}

		r.byName[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	return r, nil
}

// Lookup finds a preset by case-insensitive name
func (r *Registry) Lookup(name string) (models.Preset, bool) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// All returns every preset in file order
func (r *Registry) All() []models.Preset {
	out := make([]models.Preset, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
