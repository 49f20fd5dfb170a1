// Package selection computes the field tree requested from the engine.
//
// The default selection of a model is every non relational field, with
// composite fields expanded into their own default selection. Relations
// are only selected when named by an include argument.
package selection

import (
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// Field is a selected field. Children is set for composite fields and for
// explicit root selections such as _count { _all }.
type Field struct {
	Name     string
	Children []Field
}

// F is shorthand for building explicit selections.
//
//	selection.F("_count", selection.F("_all"))
func F(name string, children ...Field) Field {
	return Field{Name: name, Children: children}
}

// Relation is an included relation.
type Relation struct {
	Name      string
	Arguments types.Map
	Selection *Selection
}

// Selection is the field tree of a model.
type Selection struct {
	Model  *metadata.Model
	Fields []Field
	// Explicit is set when Fields were given by the caller instead of being
	// derived from the model.
	Explicit  bool
	Relations []Relation
}

// IsEmpty reports whether nothing is selected.
func (s *Selection) IsEmpty() bool {
	return s == nil || (len(s.Fields) == 0 && len(s.Relations) == 0)
}

// Resolver resolves selections against a schema.
type Resolver struct {
	schema *metadata.Schema
}

// NewResolver creates a resolver for the given schema.
func NewResolver(schema *metadata.Schema) *Resolver {
	if schema == nil {
		schema = metadata.NewSchema()
	}
	return &Resolver{schema: schema}
}

// Default returns the default field selection of model.
func (r *Resolver) Default(model *metadata.Model) ([]Field, error) {
	fields := make([]Field, 0, len(model.Fields))
	for _, f := range model.Fields {
		switch f.Kind {
		case metadata.Relational:
			continue
		case metadata.Composite:
			composite, ok := r.schema.Composite(f.Type)
			if !ok {
				return nil, prismaerrors.UnknownModel(f.Type)
			}
			children, err := r.Default(composite)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: f.Name, Children: children})
		default:
			fields = append(fields, Field{Name: f.Name})
		}
	}
	return fields, nil
}

// Resolve builds the selection for model. root, when non empty, replaces
// the default fields. include maps relation names to true, false or a
// mapping of arguments that may itself carry a nested include.
func (r *Resolver) Resolve(model *metadata.Model, root []Field, include any) (*Selection, error) {
	sel := &Selection{Model: model}
	if len(root) > 0 {
		sel.Fields = root
		sel.Explicit = true
	} else {
		fields, err := r.Default(model)
		if err != nil {
			return nil, err
		}
		sel.Fields = fields
	}

	if include == nil {
		return sel, nil
	}
	tree, ok := types.AsMap(include)
	if !ok {
		return nil, prismaerrors.InvalidIncludeValue("include", include)
	}

	for _, entry := range tree {
		rel, err := r.resolveRelation(model, entry.Key, entry.Value)
		if err != nil {
			return nil, err
		}
		if rel != nil {
			sel.Relations = append(sel.Relations, *rel)
		}
	}
	return sel, nil
}

func (r *Resolver) resolveRelation(model *metadata.Model, name string, value any) (*Relation, error) {
	var args types.Map
	var nested any

	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		if !v {
			return nil, nil
		}
	default:
		m, ok := types.AsMap(value)
		if !ok {
			return nil, prismaerrors.InvalidIncludeValue(name, value)
		}
		args = make(types.Map, 0, len(m))
		for _, p := range m {
			if p.Key == "include" {
				nested = p.Value
				continue
			}
			args = append(args, p)
		}
	}

	target, err := r.Target(model, name)
	if err != nil {
		return nil, err
	}
	sub, err := r.Resolve(target, nil, nested)
	if err != nil {
		return nil, err
	}
	return &Relation{Name: name, Arguments: args, Selection: sub}, nil
}

// Target returns the model a relational field points to.
func (r *Resolver) Target(model *metadata.Model, field string) (*metadata.Model, error) {
	f, ok := model.Field(field)
	if !ok || !f.IsRelational() {
		return nil, prismaerrors.UnknownRelationalField(model.Name, field)
	}
	target, ok := r.schema.Model(f.Type)
	if !ok {
		return nil, prismaerrors.UnknownModel(f.Type)
	}
	return target, nil
}
