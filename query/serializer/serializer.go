// Package serializer encodes argument values for the engine. Values with a
// dedicated encoding implement types.WireValue; temporal values, byte
// slices, big integers and plain Go scalars are handled here. Anything else
// is rejected with a not-serializable error naming the type.
package serializer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"
	"time"

	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// Mode selects between the two engine protocols.
type Mode int

const (
	// GraphQL produces plain values substituted into a GraphQL document.
	GraphQL Mode = iota
	// JSON produces JSON protocol values, tagging those JSON cannot carry.
	JSON
)

// FormatDateTime renders t in UTC with the sub second part truncated to
// millisecond precision, e.g. 2022-01-01T10:00:00.123000+00:00.
func FormatDateTime(t time.Time) string {
	t = t.UTC().Truncate(time.Millisecond)
	s := t.Format("2006-01-02T15:04:05")
	if micro := t.Nanosecond() / 1000; micro != 0 {
		s += "." + strconv.FormatInt(int64(1_000_000+micro), 10)[1:]
	}
	return s + "+00:00"
}

// Encode converts a scalar leaf into its wire value. Mappings and
// sequences are not leaves; use Tree for whole argument trees.
func Encode(v any, mode Mode) (any, error) {
	// Typed nil pointers, including *Decimal and friends whose wire methods
	// have value receivers, encode as null.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case types.WireValue:
		if mode == JSON {
			return val.TaggedValue()
		}
		return val.GraphQLValue()
	case time.Time:
		return encodeDateTime(val, mode), nil
	case *time.Time:
		return encodeDateTime(*val, mode), nil
	case []byte:
		return Encode(types.Base64(base64.StdEncoding.EncodeToString(val)), mode)
	case *big.Int:
		if mode == JSON {
			return types.Tagged{Type: "BigInt", Value: val.String()}, nil
		}
		return val.String(), nil
	case json.Number:
		return val, nil
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return val, nil
	}
	return encodeReflect(v, mode)
}

// encodeReflect handles pointers and named scalar types such as generated
// enums (type Role string).
func encodeReflect(v any, mode Mode) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return Encode(rv.Elem().Interface(), mode)
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, prismaerrors.NotSerializable(v)
}

func encodeDateTime(t time.Time, mode Mode) any {
	s := FormatDateTime(t)
	if mode == JSON {
		return types.Tagged{Type: "DateTime", Value: s}
	}
	return s
}

// Tree encodes every leaf of an argument tree. Mappings become ordered
// types.Map values and sequences become []any. Unset entries are removed.
func Tree(v any, mode Mode) (any, error) {
	if _, ok := v.(types.WireValue); ok {
		return Encode(v, mode)
	}
	if m, ok := types.AsMap(v); ok {
		out := make(types.Map, 0, len(m))
		for _, p := range m {
			if types.IsUnset(p.Value) {
				continue
			}
			enc, err := Tree(p.Value, mode)
			if err != nil {
				return nil, err
			}
			out = append(out, types.Pair{Key: p.Key, Value: enc})
		}
		return out, nil
	}
	if l, ok := types.AsList(v); ok {
		out := make([]any, 0, len(l))
		for _, item := range l {
			enc, err := Tree(item, mode)
			if err != nil {
				return nil, err
			}
			out = append(out, enc)
		}
		return out, nil
	}
	return Encode(v, mode)
}

// Marshal encodes an argument tree and renders it as JSON text.
func Marshal(v any, mode Mode) ([]byte, error) {
	enc, err := Tree(v, mode)
	if err != nil {
		return nil, err
	}
	return MarshalJSON(enc)
}

// MarshalJSON is json.Marshal without HTML escaping and without the
// trailing newline added by json.Encoder.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
