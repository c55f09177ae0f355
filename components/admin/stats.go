package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// StatsValidator checks stats payloads against a JSON Schema generated from
// the variable registry. Unknown keys are rejected.
type StatsValidator struct {
	mu          sync.RWMutex
	fingerprint string
	compiled    *jsonschema.Schema
}

// NewStatsValidator builds an empty validator. The schema is compiled lazily
// and rebuilt whenever the registry changes.
func NewStatsValidator() *StatsValidator {
	return &StatsValidator{}
}

// Validate ensures every key in stats names a registered, non-derived
// variable and carries a value of the right shape.
func (v *StatsValidator) Validate(defs []VariableDefinition, stats map[string]any) error {
	if len(stats) == 0 {
		return nil
	}
	schema, err := v.schemaFor(defs)
	if err != nil {
		return err
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("admin: marshal stats: %w", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("admin: normalize stats: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "stats do not match the variable registry").
			WithTextCode("INVALID_STATS")
	}
	return nil
}

// StatsSchema returns the JSON Schema document for the given registry.
func StatsSchema(defs []VariableDefinition) map[string]any {
	properties := make(map[string]any, len(defs))
	for _, def := range defs {
		if def.Derived {
			continue
		}
		properties[def.Name] = propertySchema(def)
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

func propertySchema(def VariableDefinition) map[string]any {
	switch def.Type {
	case TypeText:
		return map[string]any{"type": "string"}
	case TypeCount:
		return map[string]any{"type": "integer", "minimum": 0}
	case TypePercentage:
		return map[string]any{"type": "number", "minimum": 0, "maximum": 100}
	default:
		return map[string]any{"type": "number"}
	}
}

func (v *StatsValidator) schemaFor(defs []VariableDefinition) (*jsonschema.Schema, error) {
	fingerprint := registryFingerprint(defs)
	v.mu.RLock()
	if v.compiled != nil && v.fingerprint == fingerprint {
		schema := v.compiled
		v.mu.RUnlock()
		return schema, nil
	}
	v.mu.RUnlock()

	data, err := json.Marshal(StatsSchema(defs))
	if err != nil {
		return nil, fmt.Errorf("admin: marshal stats schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	const name = "stats.json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("admin: load stats schema: %w", err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("admin: compile stats schema: %w", err)
	}
	v.mu.Lock()
	v.compiled = compiled
	v.fingerprint = fingerprint
	v.mu.Unlock()
	return compiled, nil
}

func registryFingerprint(defs []VariableDefinition) string {
	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, fmt.Sprintf("%s:%s:%t", def.Name, def.Type, def.Derived))
	}
	slices.Sort(keys)
	var buf bytes.Buffer
	for _, key := range keys {
		buf.WriteString(key)
		buf.WriteByte(';')
	}
	return buf.String()
}
