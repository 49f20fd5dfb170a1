// Package rawresult decodes the tabular results of raw queries,
//
//	{"columns": ["id"], "types": ["bigint"], "rows": [["1"]]}
//
// into records, converting each cell according to its column type.
package rawresult

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/prisma-engine-go/query/serializer"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// Result is the raw tabular result.
type Result struct {
	Columns []string            `json:"columns"`
	Types   []string            `json:"types"`
	Rows    [][]json.RawMessage `json:"rows"`
}

// Parse decodes raw. The engine may return the result as a JSON encoded
// string, which is unwrapped first.
func Parse(raw json.RawMessage) (*Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		raw = json.RawMessage(inner)
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, prismaerrors.MalformedResponse("invalid raw query result: %v", err)
	}
	if len(r.Columns) != len(r.Types) {
		return nil, prismaerrors.MalformedResponse(
			"raw query result has %d columns but %d types", len(r.Columns), len(r.Types))
	}
	return &r, nil
}

// Records converts every row into a column name to value mapping.
func (r *Result) Records() ([]map[string]any, error) {
	return r.records(false)
}

func (r *Result) records(typed bool) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(r.Rows))
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return nil, prismaerrors.MalformedResponse(
				"raw query row %d has %d cells, expected %d", i, len(row), len(r.Columns))
		}
		rec := make(map[string]any, len(row))
		for j, cell := range row {
			v, err := convert(r.Types[j], cell, typed)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", r.Columns[j], err)
			}
			rec[r.Columns[j]] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

// Deserialize parses raw and returns the rows as mappings.
func Deserialize(raw json.RawMessage) ([]map[string]any, error) {
	r, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return r.Records()
}

// DeserializeInto parses raw and decodes every row into a T. Json columns
// are passed to T as strings.
func DeserializeInto[T any](raw json.RawMessage) ([]T, error) {
	r, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	recs, err := r.records(true)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode raw row into %T: %w", v, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func convert(tag string, cell json.RawMessage, typed bool) (any, error) {
	if isNull(cell) {
		return nil, nil
	}
	if inner, ok := strings.CutSuffix(tag, "-array"); ok {
		var items []json.RawMessage
		if err := json.Unmarshal(cell, &items); err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := convert(inner, item, typed)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch tag {
	case "bigint":
		s, err := scalarString(cell)
		if err != nil {
			return nil, err
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid bigint %s", cell)
		}
		return n, nil
	case "decimal":
		s, err := scalarString(cell)
		if err != nil {
			return nil, err
		}
		return types.ParseDecimal(s)
	case "json":
		v, err := decodeGeneric(cell)
		if err != nil {
			return nil, err
		}
		if typed {
			if s, ok := v.(string); ok {
				return s, nil
			}
			b, err := serializer.MarshalJSON(v)
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
		return v, nil
	case "bytes":
		var s string
		if err := json.Unmarshal(cell, &s); err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	case "datetime", "date":
		var s string
		if err := json.Unmarshal(cell, &s); err != nil {
			return nil, err
		}
		return parseDateTime(s)
	case "time":
		var s string
		if err := json.Unmarshal(cell, &s); err != nil {
			return nil, err
		}
		return parseDateTime("1970-01-01T" + s + "Z")
	}
	return decodeGeneric(cell)
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

func isNull(cell json.RawMessage) bool {
	return len(cell) == 0 || string(bytes.TrimSpace(cell)) == "null"
}

// scalarString returns a string or number cell as text.
func scalarString(cell json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(cell, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(cell, &n); err != nil {
		return "", fmt.Errorf("expected a number or string, got %s", cell)
	}
	return n.String(), nil
}

// decodeGeneric decodes cell keeping integers as int64.
func decodeGeneric(cell json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(cell))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i := range val {
			val[i] = normalizeNumbers(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeNumbers(val[k])
		}
		return val
	}
	return v
}
