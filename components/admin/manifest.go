package admin

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current variable manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

//go:embed defaults/variables.yaml
var defaultManifest []byte

// VariableManifest models a YAML document listing variable definitions.
type VariableManifest struct {
	Version   string               `json:"version" yaml:"version"`
	Name      string               `json:"name,omitempty" yaml:"name,omitempty"`
	Variables []VariableDefinition `json:"variables" yaml:"variables"`
	Source    string               `json:"-" yaml:"-"`
}

// DefaultVariables returns the built-in system variables.
func DefaultVariables() []VariableDefinition {
	doc, err := DecodeVariableManifest(bytes.NewReader(defaultManifest))
	if err != nil {
		panic(fmt.Sprintf("admin: embedded variable manifest: %v", err))
	}
	return doc.Variables
}

// ReadVariableManifest loads a manifest file from disk.
func ReadVariableManifest(path string) (*VariableManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("admin: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeVariableManifest(f)
	if err != nil {
		return nil, fmt.Errorf("admin: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeVariableManifest reads a manifest from any reader. Unknown keys are
// rejected.
func DecodeVariableManifest(r io.Reader) (*VariableManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc VariableManifest
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("admin: manifest is empty")
		}
		return nil, fmt.Errorf("admin: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for i := range doc.Variables {
		doc.Variables[i] = doc.Variables[i].Normalized()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the version, each definition, name uniqueness, and that
// every formula only references variables declared in the manifest.
func (doc *VariableManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("admin: unsupported manifest version %q", doc.Version)
	}
	registry := make(map[string]VariableDefinition, len(doc.Variables))
	for idx, def := range doc.Variables {
		if def.Name == "" {
			return fmt.Errorf("admin: manifest variable at index %d is missing name", idx)
		}
		if _, exists := registry[def.Name]; exists {
			return fmt.Errorf("admin: manifest duplicates variable %s", def.Name)
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("admin: manifest variable %s: %w", def.Name, err)
		}
		registry[def.Name] = def
	}
	for _, def := range doc.Variables {
		if !def.Derived {
			continue
		}
		if err := ValidateFormula(def.Formula, def.Name, registry); err != nil {
			return fmt.Errorf("admin: manifest variable %s: %w", def.Name, err)
		}
	}
	return nil
}

// Encode writes the manifest as YAML.
func (doc *VariableManifest) Encode(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("admin: encode manifest: %w", err)
	}
	return encoder.Close()
}
