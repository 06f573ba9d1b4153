package edge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanlloyd/loam/schema/edge"
)

type User struct{}

func (User) Type() {}

func TestToOne(t *testing.T) {
	t.Parallel()
	d := edge.ToOne("author", User.Type).Optional().Descriptor()
	require.NoError(t, d.Err)
	assert.Equal(t, "author", d.Name)
	assert.Equal(t, "User", d.Target)
	assert.False(t, d.Inverse)
	assert.True(t, d.Optional)
	assert.Equal(t, "author_id", d.Column())
}

func TestToOneStorageKey(t *testing.T) {
	t.Parallel()
	d := edge.ToOne("author", User.Type).StorageKey("created_by").Descriptor()
	assert.Equal(t, "created_by", d.Column())
}

func TestToMany(t *testing.T) {
	t.Parallel()
	d := edge.ToMany("posts", "Post").Ref("author").Descriptor()
	require.NoError(t, d.Err)
	assert.Equal(t, "posts", d.Name)
	assert.Equal(t, "Post", d.Target)
	assert.True(t, d.Inverse)
	assert.Equal(t, "author", d.Ref)
}

func TestTargetResolution(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		target any
		want   string
		ok     bool
	}{
		{"method expression", User.Type, "User", true},
		{"string name", "Group", "Group", true},
		{"empty string", "", "", false},
		{"nil", nil, "", false},
		{"arbitrary value", 42, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := edge.ToOne("e", tt.target).Descriptor()
			if tt.ok {
				require.NoError(t, d.Err)
				assert.Equal(t, tt.want, d.Target)
			} else {
				assert.Error(t, d.Err)
			}
		})
	}
}
