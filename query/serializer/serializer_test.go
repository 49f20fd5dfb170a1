package serializer

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

type role string

func TestFormatDateTime(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"utc truncated", time.Date(2022, 1, 1, 10, 0, 0, 123456789, time.UTC), "2022-01-01T10:00:00.123000+00:00"},
		{"whole seconds", time.Date(2022, 1, 1, 10, 0, 0, 0, time.UTC), "2022-01-01T10:00:00+00:00"},
		{"sub millisecond only", time.Date(2022, 1, 1, 10, 0, 0, 999, time.UTC), "2022-01-01T10:00:00+00:00"},
		{"converted to utc", time.Date(2022, 1, 1, 12, 30, 0, 5_000_000, time.FixedZone("CEST", 2*3600)), "2022-01-01T10:30:00.005000+00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDateTime(tt.in))
		})
	}
}

func TestEncodeGraphQL(t *testing.T) {
	ts := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "hi", "hi"},
		{"int", 5, 5},
		{"bool", false, false},
		{"datetime", ts, "2022-01-01T00:00:00+00:00"},
		{"datetime pointer", &ts, "2022-01-01T00:00:00+00:00"},
		{"bytes", []byte("hello"), "aGVsbG8="},
		{"decimal", types.NewDecimal("1.1"), "1.1"},
		{"bigint", types.BigInt(10), "10"},
		{"big.Int", big.NewInt(99), "99"},
		{"json", types.NewJson([]int{1}), "[1]"},
		{"enum", role("ADMIN"), "ADMIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.in, GraphQL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeNilPointers(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"decimal", (*types.Decimal)(nil)},
		{"bigint", (*types.BigInt)(nil)},
		{"base64", (*types.Base64)(nil)},
		{"json", (*types.Json)(nil)},
		{"datetime", (*time.Time)(nil)},
		{"big.Int", (*big.Int)(nil)},
		{"string", (*string)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []Mode{GraphQL, JSON} {
				got, err := Encode(tt.in, mode)
				require.NoError(t, err)
				assert.Nil(t, got)
			}
		})
	}

	out, err := Marshal(types.M("price", (*types.Decimal)(nil)), JSON)
	require.NoError(t, err)
	assert.Equal(t, `{"price":null}`, string(out))
}

func TestEncodeJSONTagsValues(t *testing.T) {
	ts := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := Encode(ts, JSON)
	require.NoError(t, err)
	assert.Equal(t, types.Tagged{Type: "DateTime", Value: "2022-01-01T00:00:00+00:00"}, got)

	got, err = Encode(types.BigInt(7), JSON)
	require.NoError(t, err)
	assert.Equal(t, types.Tagged{Type: "BigInt", Value: "7"}, got)

	got, err = Encode(3, JSON)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestEncodeRejectsUnknownTypes(t *testing.T) {
	type opaque struct{ X int }

	_, err := Encode(opaque{X: 1}, GraphQL)
	require.Error(t, err)
	assert.ErrorIs(t, err, prismaerrors.ErrNotSerializable)
	assert.Contains(t, err.Error(), "serializer.opaque not serializable")

	_, err = Encode(make(chan int), JSON)
	assert.ErrorIs(t, err, prismaerrors.ErrNotSerializable)
}

func TestMarshalTree(t *testing.T) {
	out, err := Marshal([]any{"1263526", types.M("a", types.BigInt(2), "b", types.Unset)}, GraphQL)
	require.NoError(t, err)
	assert.Equal(t, `["1263526",{"a":"2"}]`, string(out))

	out, err = Marshal([]any{types.NewDecimal("1.5")}, JSON)
	require.NoError(t, err)
	assert.Equal(t, `[{"$type":"Decimal","value":"1.5"}]`, string(out))
}
