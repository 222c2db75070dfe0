// Package scaffold creates new Workers projects by delegating to each
// template's own generator tool.
package scaffold

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template describes one scaffoldable project type.
type Template struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Framework   bool     `yaml:"framework"`
	Generator   []string `yaml:"generator"` // package + args for the dlx runner
}

// Manifest is the catalogue of available templates.
type Manifest struct {
	Default   string     `yaml:"default"`
	Templates []Template `yaml:"templates"`
}

//go:embed templates.yaml
var builtinManifest []byte

// LoadManifest parses the built-in template catalogue.
func LoadManifest() (*Manifest, error) {
	return ParseManifest(builtinManifest)
}

// ParseManifest parses a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse template manifest: %w", err)
	}
	if len(m.Templates) == 0 {
		return nil, fmt.Errorf("template manifest is empty")
	}
	for _, t := range m.Templates {
		if len(t.Generator) == 0 {
			return nil, fmt.Errorf("template %q has no generator command", t.Name)
		}
	}
	return &m, nil
}

// Lookup finds a template by name, falling back to the default when
// name is empty.
func (m *Manifest) Lookup(name string) (Template, error) {
	if name == "" {
		name = m.Default
	}
	for _, t := range m.Templates {
		if t.Name == name {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("unknown template %q", name)
}
