// Package metadata describes generated models: their logical names and
// field descriptors. The query builder uses it to compute default
// selections and to resolve relations named in include arguments.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
)

// FieldKind classifies a model field.
type FieldKind int

const (
	// Scalar is a plain column value.
	Scalar FieldKind = iota
	// Enum is a column holding an enum value.
	Enum
	// Relational points to another model.
	Relational
	// Composite is an embedded composite type (MongoDB).
	Composite
)

var fieldKindNames = map[FieldKind]string{
	Scalar:     "scalar",
	Enum:       "enum",
	Relational: "relational",
	Composite:  "composite",
}

// String returns the kind name.
func (k FieldKind) String() string {
	if s, ok := fieldKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// MarshalJSON encodes the kind by name.
func (k FieldKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *FieldKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for kind, name := range fieldKindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("metadata: unknown field kind %q", s)
}

// Field describes one model field.
type Field struct {
	Name   string    `json:"name"`
	Kind   FieldKind `json:"kind"`
	IsList bool      `json:"isList,omitempty"`
	// Type names the target model for relational fields and the composite
	// type for composite fields.
	Type string `json:"type,omitempty"`
}

// IsRelational reports whether the field points to another model.
func (f Field) IsRelational() bool { return f.Kind == Relational }

// IsComposite reports whether the field embeds a composite type.
func (f Field) IsComposite() bool { return f.Kind == Composite }

// Model describes a generated model or composite type.
type Model struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`

	index map[string]int
	once  sync.Once
}

// NewModel builds a model descriptor.
func NewModel(name string, fields ...Field) *Model {
	return &Model{Name: name, Fields: fields}
}

// Field looks up a field by name.
func (m *Model) Field(name string) (Field, bool) {
	m.once.Do(func() {
		m.index = make(map[string]int, len(m.Fields))
		for i, f := range m.Fields {
			m.index[f.Name] = i
		}
	})
	i, ok := m.index[name]
	if !ok {
		return Field{}, false
	}
	return m.Fields[i], true
}

// ScalarFields returns the names of every non relational field, in order.
// Composite fields are included; they are expanded by the selection resolver.
func (m *Model) ScalarFields() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.IsRelational() {
			names = append(names, f.Name)
		}
	}
	return names
}

// Schema is a registry of models and composite types by name.
type Schema struct {
	mu         sync.RWMutex
	models     map[string]*Model
	composites map[string]*Model
}

// NewSchema creates a schema holding the given models.
func NewSchema(models ...*Model) *Schema {
	s := &Schema{
		models:     make(map[string]*Model),
		composites: make(map[string]*Model),
	}
	for _, m := range models {
		s.AddModel(m)
	}
	return s
}

// AddModel registers a model, replacing any model with the same name.
func (s *Schema) AddModel(m *Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.Name] = m
}

// AddComposite registers a composite type.
func (s *Schema) AddComposite(m *Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composites[m.Name] = m
}

// Model retrieves a model by name.
func (s *Schema) Model(name string) (*Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	return m, ok
}

// Composite retrieves a composite type by name.
func (s *Schema) Composite(name string) (*Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.composites[name]
	return m, ok
}

// ModelNames returns the registered model names, sorted.
func (s *Schema) ModelNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type schemaDocument struct {
	Models     []*Model `json:"models"`
	Composites []*Model `json:"composites,omitempty"`
}

// Load reads a schema from its JSON form:
//
//	{"models": [{"name": "User", "fields": [{"name": "id", "kind": "scalar"}]}]}
func Load(r io.Reader) (*Schema, error) {
	var doc schemaDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode schema metadata: %w", err)
	}
	s := NewSchema(doc.Models...)
	for _, c := range doc.Composites {
		s.AddComposite(c)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that every relational and composite field points to a
// registered model or composite type.
func (s *Schema) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	check := func(m *Model) error {
		if m.Name == "" {
			return fmt.Errorf("metadata: model without a name")
		}
		for _, f := range m.Fields {
			switch f.Kind {
			case Relational:
				if _, ok := s.models[f.Type]; !ok {
					return fmt.Errorf("metadata: field %s.%s points to unknown model %q", m.Name, f.Name, f.Type)
				}
			case Composite:
				if _, ok := s.composites[f.Type]; !ok {
					return fmt.Errorf("metadata: field %s.%s points to unknown composite type %q", m.Name, f.Name, f.Type)
				}
			}
		}
		return nil
	}
	for _, m := range s.models {
		if err := check(m); err != nil {
			return err
		}
	}
	for _, m := range s.composites {
		if err := check(m); err != nil {
			return err
		}
	}
	return nil
}
