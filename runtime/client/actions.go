package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/query/builder"
	"github.com/satishbabariya/prisma-engine-go/query/selection"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// Arg sets an optional argument of a call.
type Arg func(args *types.Map)

// With sets an arbitrary argument.
func With(key string, value any) Arg {
	return func(args *types.Map) { args.Set(key, value) }
}

// Where filters the records a call applies to.
func Where(where any) Arg { return With("where", where) }

// Include loads relations, e.g. types.M("posts", true).
func Include(include any) Arg { return With("include", include) }

// OrderBy sorts results, e.g. types.M("name", "asc").
func OrderBy(order any) Arg { return With("order_by", order) }

// Take limits the number of results.
func Take(n int) Arg { return With("take", n) }

// Skip skips the first n results.
func Skip(n int) Arg { return With("skip", n) }

// Cursor starts pagination at a unique record.
func Cursor(cursor any) Arg { return With("cursor", cursor) }

// Distinct removes duplicates on the given fields.
func Distinct(fields ...string) Arg { return With("distinct", fields) }

// SkipDuplicates ignores records that violate unique constraints in CreateMany.
func SkipDuplicates(skip bool) Arg { return With("skipDuplicates", skip) }

// Having filters GroupBy groups.
func Having(having any) Arg { return With("having", having) }

// Aggregate requests an aggregation in GroupBy. op is one of _count, _avg,
// _sum, _min and _max. Without fields _count counts every record.
func Aggregate(op string, fields ...string) Arg {
	if len(fields) == 0 {
		return With(op, true)
	}
	sel := types.Map{}
	for _, f := range fields {
		sel.Set(f, true)
	}
	return With(op, sel)
}

func buildArgs(fixed types.Map, args []Arg) types.Map {
	out := fixed.Clone()
	for _, a := range args {
		a(&out)
	}
	return out
}

// Actions runs the model methods for records of type T.
type Actions[T any] struct {
	client *Client
	model  *metadata.Model
}

// NewActions returns the actions of the named model.
func NewActions[T any](c *Client, model string) (*Actions[T], error) {
	m, err := c.model(model)
	if err != nil {
		return nil, err
	}
	return &Actions[T]{client: c, model: m}, nil
}

// ModelActions returns the actions of m.
func ModelActions[T any](c *Client, m *metadata.Model) *Actions[T] {
	return &Actions[T]{client: c, model: m}
}

// Model returns the model descriptor.
func (a *Actions[T]) Model() *metadata.Model { return a.model }

// WithClient returns the actions bound to c, typically a transaction client.
func (a *Actions[T]) WithClient(c *Client) *Actions[T] {
	return &Actions[T]{client: c, model: a.model}
}

func (a *Actions[T]) execute(ctx context.Context, method query.Method, args types.Map, root ...selection.Field) (json.RawMessage, error) {
	return a.client.Execute(ctx, builder.Input{
		Method:        method,
		Arguments:     args,
		Model:         a.model,
		RootSelection: root,
	})
}

func (a *Actions[T]) one(ctx context.Context, method query.Method, args types.Map) (*T, error) {
	raw, err := a.execute(ctx, method, args)
	if err != nil {
		return nil, err
	}
	return mapRecord[T](raw)
}

// Create creates a record.
func (a *Actions[T]) Create(ctx context.Context, data any, args ...Arg) (*T, error) {
	return a.one(ctx, query.Create, buildArgs(types.M("data", data), args))
}

// CreateMany creates several records and returns how many were created.
func (a *Actions[T]) CreateMany(ctx context.Context, data any, args ...Arg) (int, error) {
	raw, err := a.execute(ctx, query.CreateMany, buildArgs(types.M("data", data), args), selection.F("count"))
	if err != nil {
		return 0, err
	}
	return mapCount(raw)
}

// Delete deletes a record. A missing record is not an error: the result
// is nil.
func (a *Actions[T]) Delete(ctx context.Context, where any, args ...Arg) (*T, error) {
	rec, err := a.one(ctx, query.Delete, buildArgs(types.M("where", where), args))
	if errors.Is(err, prismaerrors.ErrRecordNotFound) {
		return nil, nil
	}
	return rec, err
}

// DeleteMany deletes every matching record and returns how many were deleted.
func (a *Actions[T]) DeleteMany(ctx context.Context, where any) (int, error) {
	raw, err := a.execute(ctx, query.DeleteMany, types.M("where", where), selection.F("count"))
	if err != nil {
		return 0, err
	}
	return mapCount(raw)
}

// Update updates a record. A missing record is not an error: the result
// is nil.
func (a *Actions[T]) Update(ctx context.Context, where, data any, args ...Arg) (*T, error) {
	rec, err := a.one(ctx, query.Update, buildArgs(types.M("data", data, "where", where), args))
	if errors.Is(err, prismaerrors.ErrRecordNotFound) {
		return nil, nil
	}
	return rec, err
}

// UpdateMany updates every matching record and returns how many were updated.
func (a *Actions[T]) UpdateMany(ctx context.Context, where, data any) (int, error) {
	raw, err := a.execute(ctx, query.UpdateMany, types.M("data", data, "where", where), selection.F("count"))
	if err != nil {
		return 0, err
	}
	return mapCount(raw)
}

// Upsert updates the record matching where or creates it.
func (a *Actions[T]) Upsert(ctx context.Context, where, create, update any, args ...Arg) (*T, error) {
	return a.one(ctx, query.Upsert, buildArgs(types.M("where", where, "create", create, "update", update), args))
}

// FindUnique finds a record by a unique filter. A missing record is nil.
func (a *Actions[T]) FindUnique(ctx context.Context, where any, args ...Arg) (*T, error) {
	return a.one(ctx, query.FindUnique, buildArgs(types.M("where", where), args))
}

// FindUniqueOrThrow is FindUnique failing with a record-not-found error.
func (a *Actions[T]) FindUniqueOrThrow(ctx context.Context, where any, args ...Arg) (*T, error) {
	return a.one(ctx, query.FindUniqueOrRaise, buildArgs(types.M("where", where), args))
}

// FindFirst finds the first matching record. A missing record is nil.
func (a *Actions[T]) FindFirst(ctx context.Context, args ...Arg) (*T, error) {
	return a.one(ctx, query.FindFirst, buildArgs(nil, args))
}

// FindFirstOrThrow is FindFirst failing with a record-not-found error.
func (a *Actions[T]) FindFirstOrThrow(ctx context.Context, args ...Arg) (*T, error) {
	return a.one(ctx, query.FindFirstOrRaise, buildArgs(nil, args))
}

// FindMany finds every matching record.
func (a *Actions[T]) FindMany(ctx context.Context, args ...Arg) ([]T, error) {
	raw, err := a.execute(ctx, query.FindMany, buildArgs(nil, args))
	if err != nil {
		return nil, err
	}
	return mapRecords[T](raw)
}

// Count counts the matching records.
func (a *Actions[T]) Count(ctx context.Context, args ...Arg) (int, error) {
	raw, err := a.execute(ctx, query.Count, buildArgs(nil, args), selection.F("_count", selection.F("_all")))
	if err != nil {
		return 0, err
	}
	counts, err := mapAggregateCount(raw)
	if err != nil {
		return 0, err
	}
	return counts["_all"], nil
}

// CountFields counts the non null values of each field.
func (a *Actions[T]) CountFields(ctx context.Context, fields []string, args ...Arg) (map[string]int, error) {
	children := make([]selection.Field, len(fields))
	for i, f := range fields {
		children[i] = selection.F(f)
	}
	raw, err := a.execute(ctx, query.Count, buildArgs(nil, args), selection.F("_count", children...))
	if err != nil {
		return nil, err
	}
	return mapAggregateCount(raw)
}

var aggregations = []string{"_count", "_avg", "_sum", "_min", "_max"}

// GroupBy groups records by the given fields. Aggregations are requested
// with Aggregate.
func (a *Actions[T]) GroupBy(ctx context.Context, by []string, args ...Arg) ([]map[string]any, error) {
	all := buildArgs(types.M("by", by), args)

	root := make([]selection.Field, 0, len(by)+len(aggregations))
	for _, f := range by {
		root = append(root, selection.F(f))
	}
	for _, op := range aggregations {
		v, ok := all.Get(op)
		if !ok {
			continue
		}
		all.Delete(op)
		if fields, ok := types.AsMap(v); ok {
			children := make([]selection.Field, 0, len(fields))
			for _, p := range fields {
				if enabled, _ := p.Value.(bool); enabled {
					children = append(children, selection.F(p.Key))
				}
			}
			root = append(root, selection.F(op, children...))
		} else if enabled, _ := v.(bool); enabled {
			root = append(root, selection.F(op, selection.F("_all")))
		}
	}

	raw, err := a.execute(ctx, query.GroupBy, all, root...)
	if err != nil {
		return nil, err
	}
	return mapRecords[map[string]any](raw)
}
