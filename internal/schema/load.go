package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the serialized form of a Mapping.
type Definition struct {
	Root               string            `yaml:"root"`
	TypeColumn         string            `yaml:"typeColumn,omitempty"`
	IDColumn           string            `yaml:"idColumn,omitempty"`
	EnvelopeColumn     string            `yaml:"envelopeColumn,omitempty"`
	ResourceIDProperty string            `yaml:"resourceIdProperty,omitempty"`
	DatabaseIDProperty string            `yaml:"databaseIdProperty,omitempty"`
	Namespaces         map[string]string `yaml:"namespaces"`
	Types              []TypeDefinition  `yaml:"types"`
}

// TypeDefinition is the serialized form of a Type.
type TypeDefinition struct {
	ID         int                  `yaml:"id"`
	Name       string               `yaml:"name"`
	Version    string               `yaml:"version"`
	Table      string               `yaml:"table"`
	Extends    string               `yaml:"extends,omitempty"`
	Abstract   bool                 `yaml:"abstract,omitempty"`
	TopLevel   bool                 `yaml:"topLevel,omitempty"`
	Untyped    bool                 `yaml:"untyped,omitempty"`
	Properties []PropertyDefinition `yaml:"properties,omitempty"`
}

// PropertyDefinition is the serialized form of a Property.
type PropertyDefinition struct {
	Name   string          `yaml:"name"`
	Kind   string          `yaml:"kind,omitempty"` // simple | geometry | object
	Type   string          `yaml:"type,omitempty"` // data type of simple properties
	Column string          `yaml:"column,omitempty"`
	LOD    *int            `yaml:"lod,omitempty"`
	Target string          `yaml:"target,omitempty"`
	Join   *JoinDefinition `yaml:"join,omitempty"`
}

// JoinDefinition is the serialized form of a Join.
type JoinDefinition struct {
	Table string `yaml:"table,omitempty"`
	From  string `yaml:"from"`
	To    string `yaml:"to"`
}

// LoadMapping decodes a YAML mapping definition. Unknown fields are rejected.
func LoadMapping(r io.Reader) (*Mapping, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decoding mapping: %w", err)
	}
	return NewMapping(def)
}

// LoadMappingFile reads a YAML mapping definition from disk.
func LoadMappingFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping: %w", err)
	}
	m, err := LoadMapping(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
