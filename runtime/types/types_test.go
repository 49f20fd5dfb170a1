package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	m := M("where", M("id", "1"), "include", M("posts", true), "take", 10)

	assert.Equal(t, []string{"where", "include", "take"}, m.Keys())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"where":{"id":"1"},"include":{"posts":true},"take":10}`, string(out))
}

func TestMapSetAndDelete(t *testing.T) {
	m := M("a", 1, "b", 2)
	m.Set("a", 3)
	m.Set("c", 4)
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	m.Delete("b")
	assert.Equal(t, []string{"a", "c"}, m.Keys())
	assert.False(t, m.Has("b"))
}

func TestMPanicsOnBadInput(t *testing.T) {
	assert.Panics(t, func() { M("a") })
	assert.Panics(t, func() { M(1, 2) })
}

func TestMapUnmarshalKeepsOrder(t *testing.T) {
	var m Map
	require.NoError(t, json.Unmarshal([]byte(`{"z":1,"a":{"y":[1,{"b":2}],"x":null}}`), &m))

	assert.Equal(t, []string{"z", "a"}, m.Keys())
	inner, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "x"}, inner.(Map).Keys())

	z, _ := m.Get("z")
	assert.Equal(t, json.Number("1"), z)
}

func TestAsMapSortsPlainMaps(t *testing.T) {
	m, ok := AsMap(map[string]any{"b": 1, "a": 2})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	m, ok = AsMap(map[string]int{"d": 1, "c": 2})
	require.True(t, ok)
	assert.Equal(t, []string{"c", "d"}, m.Keys())

	_, ok = AsMap("nope")
	assert.False(t, ok)
}

func TestAsList(t *testing.T) {
	l, ok := AsList([]string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, l)

	l, ok = AsList([2]int{1, 2})
	require.True(t, ok)
	assert.Equal(t, []any{1, 2}, l)

	_, ok = AsList([]byte("raw"))
	assert.False(t, ok)
}

func TestUnset(t *testing.T) {
	assert.True(t, IsUnset(Unset))
	assert.False(t, IsUnset(nil))
}
