package rawresult

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

const sample = `{
  "columns": ["id", "big", "huge", "price", "meta", "data", "created", "day", "at", "ints", "name", "score", "missing"],
  "types": ["int", "bigint", "bigint", "decimal", "json", "bytes", "datetime", "date", "time", "bigint-array", "string", "double", "string"],
  "rows": [[
    1, "12437823782382", "123456789012345678901234567890", "1.50", {"a": [1, 2]}, "aGVsbG8=",
    "2022-01-01T10:00:00.123+00:00", "2022-01-02T00:00:00+00:00", "12:30:00", ["1", "2"], "Robert", 1.5, null
  ]]
}`

func TestDeserialize(t *testing.T) {
	recs, err := Deserialize(json.RawMessage(sample))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	assert.Equal(t, int64(1), rec["id"])
	assert.Equal(t, int64(12437823782382), rec["big"])
	assert.Equal(t, huge, rec["huge"])
	assert.Equal(t, types.NewDecimal("1.50"), rec["price"])
	assert.Equal(t, map[string]any{"a": []any{int64(1), int64(2)}}, rec["meta"])
	assert.Equal(t, []byte("hello"), rec["data"])
	assert.True(t, time.Date(2022, 1, 1, 10, 0, 0, 123000000, time.UTC).Equal(rec["created"].(time.Time)))
	assert.True(t, time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC).Equal(rec["day"].(time.Time)))
	assert.True(t, time.Date(1970, 1, 1, 12, 30, 0, 0, time.UTC).Equal(rec["at"].(time.Time)))
	assert.Equal(t, []any{int64(1), int64(2)}, rec["ints"])
	assert.Equal(t, "Robert", rec["name"])
	assert.Equal(t, 1.5, rec["score"])
	assert.Nil(t, rec["missing"])
}

func TestParseUnwrapsStringResult(t *testing.T) {
	encoded, err := json.Marshal(`{"columns":["n"],"types":["int"],"rows":[[1],[2]]}`)
	require.NoError(t, err)

	recs, err := Deserialize(encoded)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"n": int64(1)}, {"n": int64(2)}}, recs)
}

type row struct {
	ID    int64        `json:"id"`
	Big   types.BigInt `json:"big"`
	Meta  types.Json   `json:"meta"`
	Price types.Decimal
	Name  string    `json:"name"`
	At    time.Time `json:"created"`
}

func TestDeserializeInto(t *testing.T) {
	raw := `{
	  "columns": ["id", "big", "meta", "Price", "name", "created"],
	  "types": ["int", "bigint", "json", "decimal", "string", "datetime"],
	  "rows": [[7, "42", {"k": "v"}, "2.25", "Bob", "2022-01-01T00:00:00Z"], [8, "43", "text", "1", "Al", "2022-01-01T00:00:00Z"]]
	}`
	rows, err := DeserializeInto[row](json.RawMessage(raw))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(7), rows[0].ID)
	assert.Equal(t, types.BigInt(42), rows[0].Big)
	assert.Equal(t, map[string]any{"k": "v"}, rows[0].Meta.Data)
	assert.Equal(t, "2.25", rows[0].Price.String())
	assert.Equal(t, "Bob", rows[0].Name)
	assert.Equal(t, 2022, rows[0].At.Year())

	assert.Equal(t, "text", rows[1].Meta.Data)
}

func TestMalformedResults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an object", `[1, 2]`},
		{"column type mismatch", `{"columns":["a","b"],"types":["int"],"rows":[]}`},
		{"short row", `{"columns":["a","b"],"types":["int","int"],"rows":[[1]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, prismaerrors.ErrMalformedResponse)
		})
	}
}

func TestInvalidCells(t *testing.T) {
	_, err := Deserialize(json.RawMessage(`{"columns":["a"],"types":["bytes"],"rows":[["@@@"]]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "a"`)
}
