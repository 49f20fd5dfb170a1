package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
)

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// mapRecord decodes a single record, returning nil for a null result.
func mapRecord[T any](raw json.RawMessage) (*T, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, prismaerrors.Wrap(prismaerrors.KindMalformedResponse, err, "could not decode %T: %v", v, err)
	}
	return &v, nil
}

// mapRecords decodes a list of records.
func mapRecords[T any](raw json.RawMessage) ([]T, error) {
	if isNull(raw) {
		return []T{}, nil
	}
	var v []T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, prismaerrors.Wrap(prismaerrors.KindMalformedResponse, err, "could not decode []%T: %v", *new(T), err)
	}
	return v, nil
}

// mapCount reads {"count": n} from a *_many mutation.
func mapCount(raw json.RawMessage) (int, error) {
	var out struct {
		Count *int `json:"count"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Count == nil {
		return 0, prismaerrors.MalformedResponse("expected a count result, got %s", raw)
	}
	return *out.Count, nil
}

// mapAggregateCount reads {"_count": {...}} from an aggregate query.
func mapAggregateCount(raw json.RawMessage) (map[string]int, error) {
	var out struct {
		Count map[string]int `json:"_count"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Count == nil {
		return nil, prismaerrors.MalformedResponse("expected an aggregate count result, got %s", raw)
	}
	return out.Count, nil
}

// mapInt decodes a bare integer, as returned by executeRaw.
func mapInt(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, prismaerrors.MalformedResponse("expected an integer result, got %s", raw)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid integer result %s: %w", raw, err)
	}
	return int(i), nil
}
