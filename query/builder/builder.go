// Package builder turns a client method call into an engine request. The
// call is first prepared (aliases applied, include split off into the
// selection, models validated) and then rendered as a GraphQL document.
// The JSON protocol renderer in package jsonproto shares Prepare.
package builder

import (
	"fmt"

	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/query/selection"
	"github.com/satishbabariya/prisma-engine-go/query/serializer"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// Input is one logical client call.
type Input struct {
	Method    query.Method
	Arguments types.Map
	// Model is required for every method except the raw ones.
	Model *metadata.Model
	// RootSelection replaces the default fields, e.g. for count.
	RootSelection []selection.Field
}

// Prepared is a validated call ready for rendering.
type Prepared struct {
	Method    query.Method
	Model     *metadata.Model
	Arguments types.Map
	// Selection is nil for raw methods.
	Selection *selection.Selection
}

// ModelName returns the model name, or "" for raw methods.
func (p *Prepared) ModelName() string {
	if p.Model == nil || p.Method.IsRaw() {
		return ""
	}
	return p.Model.Name
}

// WireName returns the engine field name of the call.
func (p *Prepared) WireName() string {
	return p.Method.WireName(p.ModelName())
}

// Builder prepares and renders calls against a schema.
type Builder struct {
	resolver *selection.Resolver
}

// New creates a builder. schema is used to resolve relations.
func New(schema *metadata.Schema) *Builder {
	return &Builder{resolver: selection.NewResolver(schema)}
}

// Prepare validates in and normalizes its arguments. Aliases are applied
// before nil filtering and include is moved from the arguments to the
// selection. Top level nil arguments are dropped; nested nil values are
// kept and sent as null. For raw methods every sequence argument is
// encoded as a JSON string using the given mode.
func (b *Builder) Prepare(in Input, mode serializer.Mode) (*Prepared, error) {
	if !in.Method.Valid() {
		return nil, fmt.Errorf("unknown method %q", in.Method)
	}

	args := transformArguments(in.Arguments)
	include, _ := args.Get("include")
	args.Delete("include")

	p := &Prepared{Method: in.Method, Model: in.Model}

	if in.Method.IsRaw() {
		if include != nil {
			return nil, prismaerrors.IncludeWithoutModel()
		}
		for i, arg := range args {
			if _, isList := types.AsList(arg.Value); !isList {
				continue
			}
			encoded, err := serializer.Marshal(arg.Value, mode)
			if err != nil {
				return nil, err
			}
			args[i].Value = string(encoded)
		}
	} else {
		if in.Model == nil || in.Model.Name == "" {
			name := ""
			if in.Model != nil {
				name = fmt.Sprintf("%T", in.Model)
			}
			return nil, prismaerrors.InvalidModel(name)
		}
		if include != nil && !in.Method.ReturnsRecords() {
			return nil, prismaerrors.New(prismaerrors.KindIncludeWithoutModel,
				"Cannot include fields for the %s method as it does not return %s records.", in.Method, in.Model.Name)
		}
		sel, err := b.resolver.Resolve(in.Model, in.RootSelection, include)
		if err != nil {
			return nil, err
		}
		p.Selection = sel
	}

	out := make(types.Map, 0, len(args))
	for _, arg := range args {
		if arg.Value == nil {
			continue
		}
		out = append(out, arg)
	}
	p.Arguments = out
	return p, nil
}

// Query is a rendered GraphQL request.
type Query struct {
	Method    query.Method
	Operation query.Operation
	WireName  string
	Document  string
}

// Payload is the body posted to the engine.
type Payload struct {
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operation_name"`
	Query         string         `json:"query"`
}

// Payload wraps the document in the engine request envelope.
func (q *Query) Payload() Payload {
	return Payload{
		Variables:     map[string]any{},
		OperationName: string(q.Operation),
		Query:         q.Document,
	}
}

// Body returns the encoded request body.
func (q *Query) Body() ([]byte, error) {
	return serializer.MarshalJSON(q.Payload())
}

// Build prepares and renders in as a GraphQL document.
func (b *Builder) Build(in Input) (*Query, error) {
	p, err := b.Prepare(in, serializer.GraphQL)
	if err != nil {
		return nil, err
	}
	return Render(p)
}

// Render renders a prepared call as a GraphQL document.
func Render(p *Prepared) (*Query, error) {
	doc, err := renderRoot(p)
	if err != nil {
		return nil, err
	}
	return &Query{
		Method:    p.Method,
		Operation: p.Method.Operation(),
		WireName:  p.WireName(),
		Document:  doc,
	}, nil
}
