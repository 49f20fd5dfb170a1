// Package jsonproto renders prepared calls for the engine's JSON protocol
// and unwraps the tagged values found in its responses.
package jsonproto

import (
	"encoding/json"
	"fmt"

	"github.com/satishbabariya/prisma-engine-go/query/builder"
	"github.com/satishbabariya/prisma-engine-go/query/selection"
	"github.com/satishbabariya/prisma-engine-go/query/serializer"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// Request is a JSON protocol query.
type Request struct {
	Action    string         `json:"action"`
	ModelName string         `json:"modelName,omitempty"`
	Query     FieldSelection `json:"query"`
}

// FieldSelection holds the arguments and selection of one field.
type FieldSelection struct {
	Arguments types.Map `json:"arguments"`
	Selection types.Map `json:"selection"`
}

// Body returns the encoded request.
func (r *Request) Body() ([]byte, error) {
	return serializer.MarshalJSON(r)
}

// Build prepares in with JSON value encoding and renders it.
func Build(b *builder.Builder, in builder.Input) (*Request, error) {
	p, err := b.Prepare(in, serializer.JSON)
	if err != nil {
		return nil, err
	}
	return Render(p)
}

// Render converts a prepared call into a JSON protocol request.
func Render(p *builder.Prepared) (*Request, error) {
	args, err := encodeArguments(p.Arguments)
	if err != nil {
		return nil, err
	}
	sel, err := renderSelection(p.Selection)
	if err != nil {
		return nil, err
	}
	return &Request{
		Action:    p.Method.Action(),
		ModelName: p.ModelName(),
		Query:     FieldSelection{Arguments: args, Selection: sel},
	}, nil
}

func encodeArguments(args types.Map) (types.Map, error) {
	out := types.Map{}
	for _, arg := range args {
		if arg.Value == nil {
			continue
		}
		enc, err := serializer.Tree(arg.Value, serializer.JSON)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Pair{Key: arg.Key, Value: enc})
	}
	return out, nil
}

// renderSelection starts from {"$scalars": true, "$composites": true}
// unless the fields were given explicitly, then merges in relations as
// nested {"arguments": ..., "selection": ...} objects.
func renderSelection(sel *selection.Selection) (types.Map, error) {
	out := types.Map{}
	if sel == nil {
		return out, nil
	}
	if sel.Explicit {
		for _, f := range sel.Fields {
			out = append(out, explicitField(f))
		}
	} else {
		out = append(out, types.Pair{Key: "$scalars", Value: true}, types.Pair{Key: "$composites", Value: true})
	}

	for _, rel := range sel.Relations {
		args, err := encodeArguments(rel.Arguments)
		if err != nil {
			return nil, err
		}
		sub, err := renderSelection(rel.Selection)
		if err != nil {
			return nil, err
		}
		out.Set(rel.Name, FieldSelection{Arguments: args, Selection: sub})
	}
	return out, nil
}

func explicitField(f selection.Field) types.Pair {
	if len(f.Children) == 0 {
		return types.Pair{Key: f.Name, Value: true}
	}
	children := make(types.Map, 0, len(f.Children))
	for _, c := range f.Children {
		children = append(children, explicitField(c))
	}
	return types.Pair{Key: f.Name, Value: types.M("selection", children)}
}

// Deserialize replaces every tagged value {"$type": T, "value": V} in v
// with V. FieldRef values cannot be represented and are rejected.
func Deserialize(v any) (any, error) {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			d, err := Deserialize(item)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case map[string]any:
		if tag, ok := val["$type"].(string); ok {
			if tag == "FieldRef" {
				return nil, fmt.Errorf("cannot deserialize FieldRef values yet")
			}
			return val["value"], nil
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			d, err := Deserialize(item)
			if err != nil {
				return nil, err
			}
			out[k] = d
		}
		return out, nil
	}
	return v, nil
}

// DeserializeJSON decodes raw, unwraps tagged values and re-encodes the
// result so it can be decoded into typed records.
func DeserializeJSON(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	d, err := Deserialize(v)
	if err != nil {
		return nil, err
	}
	return serializer.MarshalJSON(d)
}
