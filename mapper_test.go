package loam

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanlloyd/loam/schema/field"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, normalizeName("UserID"), normalizeName("user_id"))
	assert.Equal(t, normalizeName("CreatedAt"), normalizeName("created_at"))
	assert.NotEqual(t, normalizeName("name"), normalizeName("email"))
}

func TestParseTime(t *testing.T) {
	t.Parallel()
	want := time.Date(2024, 5, 1, 12, 30, 45, 123456789, time.UTC)
	got, err := parseTime(want.Format(time.RFC3339Nano))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseTime("2024-05-01 12:30:45")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())

	_, err = parseTime("not a time")
	assert.Error(t, err)
}

func TestSerializeValueNormalizesTime(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+2", 2*3600)
	local := time.Date(2024, 5, 1, 14, 0, 0, 0, loc)
	v, err := serializeValue(field.TypeTime, reflect.ValueOf(local))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00Z", v)
}

func TestDeserializeValueMismatch(t *testing.T) {
	t.Parallel()
	var n int
	err := deserializeValue(field.TypeInt, reflect.ValueOf(&n).Elem(), "not-a-number")
	assert.Error(t, err)

	var b bool
	err = deserializeValue(field.TypeBool, reflect.ValueOf(&b).Elem(), "yes")
	assert.Error(t, err)
}

func TestRefWithoutSession(t *testing.T) {
	t.Parallel()
	_, err := RefKey(7).Resolve(t.Context())
	assert.Error(t, err)

	_, err = (&RefList{}).All(t.Context())
	assert.Error(t, err)
}
