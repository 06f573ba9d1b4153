package loam_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanlloyd/loam"
	"github.com/jonathanlloyd/loam/schema/edge"
	"github.com/jonathanlloyd/loam/schema/field"
)

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()
	r := loam.NewRegistry()
	require.NoError(t, r.Register(User{}))
	err := r.Register(User{})
	require.Error(t, err)
	assert.True(t, loam.IsDuplicateModel(err))
}

func TestRegisterAtomic(t *testing.T) {
	t.Parallel()
	r := loam.NewRegistry()
	err := r.Register(User{}, User{})
	require.Error(t, err)
	assert.True(t, loam.IsDuplicateModel(err))
	// The failed batch must not leave User behind.
	require.NoError(t, r.Register(User{}))
}

func TestRegisterAfterFinalize(t *testing.T) {
	t.Parallel()
	r := newRegistry(t)
	_, err := r.Finalize()
	require.NoError(t, err)
	err = r.Register(Comment{})
	assert.ErrorIs(t, err, loam.ErrGraphFinalized)
}

func TestFinalizeIdempotent(t *testing.T) {
	t.Parallel()
	r := newRegistry(t)
	g1, err := r.Finalize()
	require.NoError(t, err)
	g2, err := r.Finalize()
	require.NoError(t, err)
	assert.Same(t, g1, g2)
}

// Comment references Post by name before Post is registered.
type Comment struct {
	loam.Schema
	ID   int
	Text string
	Post *loam.Ref
}

func (Comment) Fields() []loam.Field {
	return []loam.Field{
		field.Int("id").PrimaryKey().Auto(),
		field.String("text"),
	}
}

func (Comment) Edges() []loam.Edge {
	return []loam.Edge{
		edge.ToOne("post", "Post"),
	}
}

func TestForwardReference(t *testing.T) {
	t.Parallel()
	r := loam.NewRegistry()
	require.NoError(t, r.Register(Comment{}))
	require.NoError(t, r.Register(User{}, Post{}))
	g, err := r.Finalize()
	require.NoError(t, err)
	assert.Same(t, g.Model("Post"), g.Model("Comment").Edge("post").Target)
}

func TestUnresolvedReference(t *testing.T) {
	t.Parallel()
	r := loam.NewRegistry()
	require.NoError(t, r.Register(Comment{}))
	_, err := r.Finalize()
	require.Error(t, err)
	assert.True(t, loam.IsUnresolvedReference(err))
}

type keyless struct {
	loam.Schema
	Name string
}

func (keyless) Fields() []loam.Field {
	return []loam.Field{field.String("name")}
}

func TestMissingPrimaryKey(t *testing.T) {
	t.Parallel()
	r := loam.NewRegistry()
	require.NoError(t, r.Register(keyless{}))
	_, err := r.Finalize()
	require.Error(t, err)
	assert.True(t, loam.IsMissingPrimaryKey(err))
}

// Album declares a to-many view whose Ref names no to-one edge on the
// target.
type Album struct {
	loam.Schema
	ID     int
	Photos *loam.RefList
}

func (Album) Fields() []loam.Field {
	return []loam.Field{field.Int("id").PrimaryKey().Auto()}
}

func (Album) Edges() []loam.Edge {
	return []loam.Edge{
		edge.ToMany("photos", Photo.Type).Ref("gallery"),
	}
}

type Photo struct {
	loam.Schema
	ID    int
	Album *loam.Ref
}

func (Photo) Fields() []loam.Field {
	return []loam.Field{field.Int("id").PrimaryKey().Auto()}
}

func (Photo) Edges() []loam.Edge {
	return []loam.Edge{
		edge.ToOne("album", Album.Type),
	}
}

func TestDanglingRelationship(t *testing.T) {
	t.Parallel()
	r := loam.NewRegistry()
	require.NoError(t, r.Register(Album{}, Photo{}))
	_, err := r.Finalize()
	require.Error(t, err)
	assert.True(t, loam.IsDanglingRelationship(err))
}

func TestInvalidSchema(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		model loam.Model
	}{
		{"deferred builder error", badName{}},
		{"duplicate field", dupField{}},
		{"multiple primary keys", twoKeys{}},
		{"unbacked field", unbacked{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := loam.NewRegistry()
			require.NoError(t, r.Register(tt.model))
			_, err := r.Finalize()
			require.Error(t, err)
			assert.True(t, loam.IsInvalidSchema(err))
		})
	}
}

type badName struct {
	loam.Schema
	ID       int
	BadField string
}

func (badName) Fields() []loam.Field {
	return []loam.Field{
		field.Int("id").PrimaryKey(),
		field.String("BadField"),
	}
}

type dupField struct {
	loam.Schema
	ID   int
	Name string
}

func (dupField) Fields() []loam.Field {
	return []loam.Field{
		field.Int("id").PrimaryKey(),
		field.String("name"),
		field.String("name"),
	}
}

type twoKeys struct {
	loam.Schema
	ID   int
	Name string
}

func (twoKeys) Fields() []loam.Field {
	return []loam.Field{
		field.Int("id").PrimaryKey(),
		field.String("name").PrimaryKey(),
	}
}

type unbacked struct {
	loam.Schema
	ID int
}

func (unbacked) Fields() []loam.Field {
	return []loam.Field{
		field.Int("id").PrimaryKey(),
		field.String("missing"),
	}
}

func TestMustRegisterPanics(t *testing.T) {
	t.Parallel()
	r := loam.NewRegistry()
	r.MustRegister(User{})
	assert.Panics(t, func() { r.MustRegister(User{}) })
}
