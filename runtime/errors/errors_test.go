package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("find unique: %w", &Error{Kind: KindRecordNotFound, Message: "required but not found"})

	assert.True(t, stderrors.Is(err, ErrRecordNotFound))
	assert.True(t, stderrors.Is(err, ErrData), "data subkinds match ErrData")
	assert.False(t, stderrors.Is(err, ErrUniqueViolation))
	assert.True(t, IsNotFound(err))
	assert.True(t, IsData(err))
}

func TestUnprocessableEntityIsEngineRequest(t *testing.T) {
	err := UnprocessableEntity([]byte("bad"))
	assert.True(t, stderrors.Is(err, ErrEngineRequest))
	assert.True(t, stderrors.Is(err, ErrUnprocessableEntity))
	assert.False(t, stderrors.Is(ErrEngineRequest, ErrUnprocessableEntity))
	assert.Equal(t, 422, err.Status)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("wrapped: %w", TransactionNotStarted()))
	require.True(t, ok)
	assert.Equal(t, KindTransactionNotStarted, kind)

	_, ok = KindOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"unknown relational field", UnknownRelationalField("User", "hello"),
			`prisma: Field: "hello" either does not exist or is not a relational field on the User model`},
		{"unknown model", UnknownModel("Foo"), `prisma: Model: "Foo" does not exist.`},
		{"engine request", EngineRequest(500, []byte("boom")), "prisma: 500: boom"},
		{"kind only", ErrTransport, "prisma: transport"},
		{"version", VersionMismatch("a", "b"), "prisma: Expected query engine version `a` but got `b`."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(KindEngineConnection, cause, "could not connect to the query engine")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrEngineConnection)
	assert.True(t, IsTransport(Wrap(KindTransportTimeout, cause, "timed out")))
}
