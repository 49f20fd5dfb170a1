package client

import (
	"context"
	"encoding/json"

	"github.com/satishbabariya/prisma-engine-go/engine"
	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/query/builder"
	"github.com/satishbabariya/prisma-engine-go/query/jsonproto"
	"github.com/satishbabariya/prisma-engine-go/query/serializer"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// Batch collects write queries and sends them to the engine as a single
// transactional request.
type Batch struct {
	client  *Client
	queries []json.RawMessage
}

// Batch starts a new batch on c.
func (c *Client) Batch() *Batch {
	return &Batch{client: c}
}

// Len returns the number of queued queries.
func (b *Batch) Len() int { return len(b.queries) }

// Add queues in. It is rendered immediately so that validation errors
// surface at the call site.
func (b *Batch) Add(in builder.Input) error {
	var item any
	if b.client.Protocol() == engine.ProtocolJSON {
		req, err := jsonproto.Build(b.client.core.builder, in)
		if err != nil {
			return err
		}
		item = req
	} else {
		q, err := b.client.core.builder.Build(in)
		if err != nil {
			return err
		}
		item = map[string]any{"query": q.Document, "variables": map[string]any{}}
	}
	encoded, err := serializer.MarshalJSON(item)
	if err != nil {
		return err
	}
	b.queries = append(b.queries, encoded)
	return nil
}

// Create queues a create.
func (b *Batch) Create(model *metadata.Model, data any, args ...Arg) error {
	return b.Add(builder.Input{Method: query.Create, Model: model, Arguments: buildArgs(types.M("data", data), args)})
}

// Update queues an update.
func (b *Batch) Update(model *metadata.Model, where, data any, args ...Arg) error {
	return b.Add(builder.Input{Method: query.Update, Model: model, Arguments: buildArgs(types.M("data", data, "where", where), args)})
}

// Upsert queues an upsert.
func (b *Batch) Upsert(model *metadata.Model, where, create, update any, args ...Arg) error {
	return b.Add(builder.Input{Method: query.Upsert, Model: model, Arguments: buildArgs(types.M("where", where, "create", create, "update", update), args)})
}

// Delete queues a delete.
func (b *Batch) Delete(model *metadata.Model, where any, args ...Arg) error {
	return b.Add(builder.Input{Method: query.Delete, Model: model, Arguments: buildArgs(types.M("where", where), args)})
}

// CreateMany queues a create many.
func (b *Batch) CreateMany(model *metadata.Model, data any, args ...Arg) error {
	return b.Add(builder.Input{Method: query.CreateMany, Model: model, Arguments: buildArgs(types.M("data", data), args)})
}

// UpdateMany queues an update many.
func (b *Batch) UpdateMany(model *metadata.Model, where, data any) error {
	return b.Add(builder.Input{Method: query.UpdateMany, Model: model, Arguments: types.M("data", data, "where", where)})
}

// DeleteMany queues a delete many.
func (b *Batch) DeleteMany(model *metadata.Model, where any) error {
	return b.Add(builder.Input{Method: query.DeleteMany, Model: model, Arguments: types.M("where", where)})
}

// ExecuteRaw queues a raw statement.
func (b *Batch) ExecuteRaw(sql string, params ...any) error {
	return b.Add(rawInput(query.ExecuteRaw, sql, params))
}

type batchResponse struct {
	BatchResult []json.RawMessage `json:"batchResult"`
}

// Commit sends every queued query in one transaction and returns their
// results in order. An empty batch sends nothing.
func (b *Batch) Commit(ctx context.Context) ([]json.RawMessage, error) {
	if len(b.queries) == 0 {
		return nil, nil
	}
	if !b.client.IsConnected() {
		return nil, prismaerrors.NotConnected()
	}

	body := map[string]any{"batch": b.queries, "transaction": true}
	if b.client.Protocol() == engine.ProtocolJSON {
		body["transaction"] = map[string]any{}
	}
	payload, err := serializer.MarshalJSON(body)
	if err != nil {
		return nil, err
	}

	event := &QueryEvent{Action: "batch", Payload: payload, TxID: b.client.txID}
	var results []json.RawMessage
	err = b.client.run(ctx, event, func() error {
		resp, err := b.client.core.engine.Query(ctx, payload, b.client.txID)
		if err != nil {
			return err
		}
		var out batchResponse
		if err := json.Unmarshal(resp, &out); err != nil || out.BatchResult == nil {
			return prismaerrors.MalformedResponse("response has no batch result: %s", resp)
		}
		if len(out.BatchResult) != len(b.queries) {
			return prismaerrors.MalformedResponse("expected %d batch results, got %d", len(b.queries), len(out.BatchResult))
		}
		results = make([]json.RawMessage, len(out.BatchResult))
		for i, item := range out.BatchResult {
			// Each entry has the shape of a single query response.
			checked, err := engine.ProcessResponse(200, item)
			if err != nil {
				return err
			}
			if results[i], err = b.client.extract(checked); err != nil {
				return err
			}
		}
		event.Result, _ = json.Marshal(results)
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.queries = nil
	return results, nil
}
