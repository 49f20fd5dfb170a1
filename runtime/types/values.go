package types

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// WireValue is implemented by argument values that have a dedicated engine
// encoding instead of their plain JSON form.
type WireValue interface {
	// GraphQLValue returns the value substituted into a GraphQL document.
	// The result is rendered as a JSON literal.
	GraphQLValue() (any, error)
	// TaggedValue returns the JSON protocol form, usually a
	// {"$type": ..., "value": ...} object.
	TaggedValue() (any, error)
}

// Tagged is the JSON protocol envelope for values JSON cannot carry natively.
type Tagged struct {
	Type  string `json:"$type"`
	Value any    `json:"value"`
}

// Json wraps a value stored in a Json column. It is sent as a JSON string
// rather than as a nested argument object.
type Json struct {
	Data any
}

// NewJson wraps data.
func NewJson(data any) Json {
	return Json{Data: data}
}

func (j Json) encoded() (string, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return "", fmt.Errorf("types: encode json value: %w", err)
	}
	return string(b), nil
}

// GraphQLValue implements WireValue.
func (j Json) GraphQLValue() (any, error) { return j.encoded() }

// TaggedValue implements WireValue.
func (j Json) TaggedValue() (any, error) {
	s, err := j.encoded()
	if err != nil {
		return nil, err
	}
	return Tagged{Type: "Json", Value: s}, nil
}

// MarshalJSON encodes the wrapped data.
func (j Json) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

// UnmarshalJSON accepts either a native JSON value or a string holding
// encoded JSON, which is how the engine returns Json fields.
func (j *Json) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			j.Data = inner
			return nil
		}
		j.Data = s
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	j.Data = v
	return nil
}

// Base64 holds base64 encoded binary data for Bytes columns.
type Base64 string

// EncodeBase64 encodes raw bytes.
func EncodeBase64(b []byte) Base64 {
	return Base64(base64.StdEncoding.EncodeToString(b))
}

// Decode returns the raw bytes.
func (b Base64) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(b))
}

// String returns the encoded form.
func (b Base64) String() string { return string(b) }

// GraphQLValue implements WireValue.
func (b Base64) GraphQLValue() (any, error) { return string(b), nil }

// TaggedValue implements WireValue.
func (b Base64) TaggedValue() (any, error) {
	return Tagged{Type: "Bytes", Value: string(b)}, nil
}

// Decimal represents an arbitrary precision decimal number
type Decimal struct {
	value string
}

// NewDecimal creates a new decimal from string
func NewDecimal(value string) Decimal {
	return Decimal{value: value}
}

// ParseDecimal validates value before wrapping it.
func ParseDecimal(value string) (Decimal, error) {
	if _, ok := new(big.Rat).SetString(value); !ok {
		return Decimal{}, fmt.Errorf("types: invalid decimal %q", value)
	}
	return Decimal{value: value}, nil
}

// String returns the string representation
func (d Decimal) String() string {
	return d.value
}

// Float64 converts the decimal, losing precision beyond float64.
func (d Decimal) Float64() (float64, error) {
	return strconv.ParseFloat(d.value, 64)
}

// GraphQLValue implements WireValue.
func (d Decimal) GraphQLValue() (any, error) { return d.value, nil }

// TaggedValue implements WireValue.
func (d Decimal) TaggedValue() (any, error) {
	return Tagged{Type: "Decimal", Value: d.value}, nil
}

// MarshalJSON encodes the decimal as a string to keep its precision.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.value)
}

// UnmarshalJSON accepts a string or a number.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d.value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("types: invalid decimal %s: %w", data, err)
	}
	d.value = n.String()
	return nil
}

// BigInt is a 64-bit integer carried as a string on the wire so that it
// survives JSON number precision limits.
type BigInt int64

// GraphQLValue implements WireValue.
func (b BigInt) GraphQLValue() (any, error) {
	return strconv.FormatInt(int64(b), 10), nil
}

// TaggedValue implements WireValue.
func (b BigInt) TaggedValue() (any, error) {
	return Tagged{Type: "BigInt", Value: strconv.FormatInt(int64(b), 10)}, nil
}

// UnmarshalJSON accepts a number or a decimal string.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("types: invalid bigint %s: %w", data, err)
	}
	*b = BigInt(n)
	return nil
}
