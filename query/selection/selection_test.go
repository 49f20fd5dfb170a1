package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

func testSchema() *metadata.Schema {
	user := metadata.NewModel("User",
		metadata.Field{Name: "id"},
		metadata.Field{Name: "name"},
		metadata.Field{Name: "posts", Kind: metadata.Relational, IsList: true, Type: "Post"},
		metadata.Field{Name: "address", Kind: metadata.Composite, Type: "Address"},
	)
	post := metadata.NewModel("Post",
		metadata.Field{Name: "id"},
		metadata.Field{Name: "title"},
		metadata.Field{Name: "author", Kind: metadata.Relational, Type: "User"},
	)
	s := metadata.NewSchema(user, post)
	s.AddComposite(metadata.NewModel("Address",
		metadata.Field{Name: "street"},
		metadata.Field{Name: "geo", Kind: metadata.Composite, Type: "Geo"},
	))
	s.AddComposite(metadata.NewModel("Geo", metadata.Field{Name: "lat"}, metadata.Field{Name: "lng"}))
	return s
}

func names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestDefaultSelectionExcludesRelations(t *testing.T) {
	s := testSchema()
	r := NewResolver(s)
	user, _ := s.Model("User")

	fields, err := r.Default(user)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "address"}, names(fields))

	address := fields[2]
	assert.Equal(t, []string{"street", "geo"}, names(address.Children))
	assert.Equal(t, []string{"lat", "lng"}, names(address.Children[1].Children))
}

func TestResolveInclude(t *testing.T) {
	s := testSchema()
	r := NewResolver(s)
	user, _ := s.Model("User")

	sel, err := r.Resolve(user, nil, types.M(
		"posts", types.M(
			"take", 5,
			"include", types.M("author", true),
		),
	))
	require.NoError(t, err)
	require.Len(t, sel.Relations, 1)

	posts := sel.Relations[0]
	assert.Equal(t, "posts", posts.Name)
	assert.Equal(t, types.M("take", 5), posts.Arguments)
	assert.Equal(t, []string{"id", "title"}, names(posts.Selection.Fields))
	require.Len(t, posts.Selection.Relations, 1)
	assert.Equal(t, "author", posts.Selection.Relations[0].Name)
	assert.Empty(t, posts.Selection.Relations[0].Arguments)
}

func TestResolveIncludeFalseIsOmitted(t *testing.T) {
	s := testSchema()
	user, _ := s.Model("User")

	sel, err := NewResolver(s).Resolve(user, nil, map[string]any{"posts": false, "unknown": false})
	require.NoError(t, err)
	assert.Empty(t, sel.Relations)
}

func TestResolveIncludeErrors(t *testing.T) {
	s := testSchema()
	r := NewResolver(s)
	user, _ := s.Model("User")

	tests := []struct {
		name    string
		include any
		kind    *prismaerrors.Error
	}{
		{"missing field", types.M("hello", true), prismaerrors.ErrUnknownRelationalField},
		{"scalar field", types.M("name", true), prismaerrors.ErrUnknownRelationalField},
		{"composite field", types.M("address", true), prismaerrors.ErrUnknownRelationalField},
		{"bad value", types.M("posts", 1), prismaerrors.ErrInvalidIncludeValue},
		{"nested bad field", types.M("posts", types.M("include", types.M("title", true))), prismaerrors.ErrUnknownRelationalField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(user, nil, tt.include)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestUnknownRelationalFieldNamesModelAndField(t *testing.T) {
	s := testSchema()
	user, _ := s.Model("User")

	_, err := NewResolver(s).Resolve(user, nil, types.M("hello", true))
	require.Error(t, err)
	assert.Equal(t,
		`prisma: Field: "hello" either does not exist or is not a relational field on the User model`,
		err.Error())
}

func TestExplicitRootSelection(t *testing.T) {
	s := testSchema()
	user, _ := s.Model("User")

	sel, err := NewResolver(s).Resolve(user, []Field{F("_count", F("_all"))}, nil)
	require.NoError(t, err)
	assert.True(t, sel.Explicit)
	assert.Equal(t, []Field{{Name: "_count", Children: []Field{{Name: "_all"}}}}, sel.Fields)
}
