package jsonproto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/query/builder"
	"github.com/satishbabariya/prisma-engine-go/query/selection"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

func testSchema() *metadata.Schema {
	return metadata.NewSchema(
		metadata.NewModel("User",
			metadata.Field{Name: "id"},
			metadata.Field{Name: "name"},
			metadata.Field{Name: "posts", Kind: metadata.Relational, IsList: true, Type: "Post"},
		),
		metadata.NewModel("Post",
			metadata.Field{Name: "id"},
			metadata.Field{Name: "author", Kind: metadata.Relational, Type: "User"},
		),
	)
}

func body(t *testing.T, r *Request) string {
	t.Helper()
	b, err := r.Body()
	require.NoError(t, err)
	return string(b)
}

func TestBuildFindMany(t *testing.T) {
	s := testSchema()
	user, _ := s.Model("User")

	req, err := Build(builder.New(s), builder.Input{
		Method: query.FindMany,
		Model:  user,
		Arguments: types.M(
			"where", types.M("created_at", types.M("gt", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))),
			"take", nil,
			"order_by", types.M("name", "asc"),
			"include", types.M("posts", types.M("take", 1, "include", types.M("author", true))),
		),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"action": "findMany",
		"modelName": "User",
		"query": {
			"arguments": {
				"where": {"created_at": {"gt": {"$type": "DateTime", "value": "2022-01-01T00:00:00+00:00"}}},
				"orderBy": {"name": "asc"}
			},
			"selection": {
				"$scalars": true,
				"$composites": true,
				"posts": {
					"arguments": {"take": 1},
					"selection": {
						"$scalars": true,
						"$composites": true,
						"author": {"arguments": {}, "selection": {"$scalars": true, "$composites": true}}
					}
				}
			}
		}
	}`, body(t, req))
}

func TestBuildRaw(t *testing.T) {
	req, err := Build(builder.New(nil), builder.Input{
		Method:    query.QueryRaw,
		Arguments: types.M("query", "SELECT 1 WHERE x = $1", "parameters", []any{types.BigInt(5)}),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"action": "queryRaw",
		"query": {
			"arguments": {
				"query": "SELECT 1 WHERE x = $1",
				"parameters": "[{\"$type\":\"BigInt\",\"value\":\"5\"}]"
			},
			"selection": {}
		}
	}`, body(t, req))
}

func TestBuildExplicitSelection(t *testing.T) {
	s := testSchema()
	user, _ := s.Model("User")

	req, err := Build(builder.New(s), builder.Input{
		Method:        query.Count,
		Model:         user,
		RootSelection: []selection.Field{selection.F("_count", selection.F("_all"))},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"action": "aggregate",
		"modelName": "User",
		"query": {"arguments": {}, "selection": {"_count": {"selection": {"_all": true}}}}
	}`, body(t, req))
}

func TestDeserialize(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "1",
		"big": {"$type": "BigInt", "value": "9007199254740993"},
		"posts": [{"at": {"$type": "DateTime", "value": "2022-01-01T00:00:00.000Z"}}],
		"empty": []
	}`), &v))

	got, err := Deserialize(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":    "1",
		"big":   "9007199254740993",
		"posts": []any{map[string]any{"at": "2022-01-01T00:00:00.000Z"}},
		"empty": []any{},
	}, got)

	_, err = Deserialize(map[string]any{"$type": "FieldRef", "value": map[string]any{}})
	assert.Error(t, err)
}

func TestDeserializeJSON(t *testing.T) {
	out, err := DeserializeJSON(json.RawMessage(`{"price":{"$type":"Decimal","value":"1.5"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"1.5"}`, string(out))
}
