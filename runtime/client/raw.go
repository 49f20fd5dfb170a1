package client

import (
	"context"
	"encoding/json"

	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/query/builder"
	"github.com/satishbabariya/prisma-engine-go/query/rawresult"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

func rawInput(method query.Method, sql string, params []any) builder.Input {
	if params == nil {
		params = []any{}
	}
	return builder.Input{
		Method:    method,
		Arguments: types.M("query", sql, "parameters", params),
	}
}

func (c *Client) queryRaw(ctx context.Context, method query.Method, sql string, params []any) (json.RawMessage, error) {
	return c.Execute(ctx, rawInput(method, sql, params))
}

// QueryRaw runs a raw SELECT and decodes every row into a T.
func QueryRaw[T any](ctx context.Context, c *Client, sql string, params ...any) ([]T, error) {
	raw, err := c.queryRaw(ctx, query.QueryRaw, sql, params)
	if err != nil {
		return nil, err
	}
	return rawresult.DeserializeInto[T](raw)
}

// QueryRawRecords runs a raw SELECT and returns the rows as mappings.
func QueryRawRecords(ctx context.Context, c *Client, sql string, params ...any) ([]map[string]any, error) {
	raw, err := c.queryRaw(ctx, query.QueryRaw, sql, params)
	if err != nil {
		return nil, err
	}
	return rawresult.Deserialize(raw)
}

// QueryFirst runs a raw SELECT and returns its first row, or nil when the
// query matched nothing.
func QueryFirst[T any](ctx context.Context, c *Client, sql string, params ...any) (*T, error) {
	raw, err := c.queryRaw(ctx, query.QueryFirst, sql, params)
	if err != nil {
		return nil, err
	}
	rows, err := rawresult.DeserializeInto[T](raw)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// ExecuteRaw runs a raw statement and returns the number of affected rows.
func ExecuteRaw(ctx context.Context, c *Client, sql string, params ...any) (int, error) {
	raw, err := c.queryRaw(ctx, query.ExecuteRaw, sql, params)
	if err != nil {
		return 0, err
	}
	return mapInt(raw)
}
