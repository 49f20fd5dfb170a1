package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireName(t *testing.T) {
	tests := []struct {
		method Method
		op     Operation
		want   string
		action string
	}{
		{Create, OperationMutation, "createOneUser", "createOne"},
		{Delete, OperationMutation, "deleteOneUser", "deleteOne"},
		{Update, OperationMutation, "updateOneUser", "updateOne"},
		{Upsert, OperationMutation, "upsertOneUser", "upsertOne"},
		{CreateMany, OperationMutation, "createManyUser", "createMany"},
		{DeleteMany, OperationMutation, "deleteManyUser", "deleteMany"},
		{UpdateMany, OperationMutation, "updateManyUser", "updateMany"},
		{FindUnique, OperationQuery, "findUniqueUser", "findUnique"},
		{FindUniqueOrRaise, OperationQuery, "findUniqueUserOrThrow", "findUniqueOrThrow"},
		{FindFirst, OperationQuery, "findFirstUser", "findFirst"},
		{FindFirstOrRaise, OperationQuery, "findFirstUserOrThrow", "findFirstOrThrow"},
		{FindMany, OperationQuery, "findManyUser", "findMany"},
		{Count, OperationQuery, "aggregateUser", "aggregate"},
		{GroupBy, OperationQuery, "groupByUser", "groupBy"},
		{QueryRaw, OperationMutation, "queryRaw", "queryRaw"},
		{QueryFirst, OperationMutation, "queryRaw", "queryRaw"},
		{ExecuteRaw, OperationMutation, "executeRaw", "executeRaw"},
	}

	require.Len(t, tests, len(Methods()))
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.op, tt.method.Operation())
			assert.Equal(t, tt.want, tt.method.WireName("User"))
			assert.Equal(t, tt.action, tt.method.Action())
		})
	}
}

func TestIsRaw(t *testing.T) {
	for _, m := range Methods() {
		want := m == QueryRaw || m == QueryFirst || m == ExecuteRaw
		assert.Equal(t, want, m.IsRaw(), m)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("find_unique_or_raise")
	require.NoError(t, err)
	assert.Equal(t, FindUniqueOrRaise, m)

	m, err = ParseMethod("findMany")
	require.NoError(t, err)
	assert.Equal(t, FindMany, m)

	_, err = ParseMethod("explode")
	assert.Error(t, err)
	assert.False(t, Method("explode").Valid())
}
