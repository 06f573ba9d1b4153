package loam_test

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanlloyd/loam"
	"github.com/jonathanlloyd/loam/dialect"
	"github.com/jonathanlloyd/loam/dialect/sql"
)

// mockSession returns a session over a sqlmock connection. The mock is
// only touched by tests that execute statements; compile-only tests
// never reach it.
func mockSession(t *testing.T, d string, opts ...loam.SessionOption) (*loam.Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	sess, err := loam.NewSession(sql.OpenDB(d, db), newRegistry(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess, mock
}

func TestQueryCompile(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	tests := []struct {
		name  string
		query *loam.Query
		stmt  string
		args  []any
	}{
		{
			name:  "bare",
			query: sess.Query("User"),
			stmt:  "SELECT id, name, email, age, created_at FROM users",
		},
		{
			name:  "single predicate",
			query: sess.Query("User").Where(loam.EQ("name", "alice")),
			stmt:  "SELECT id, name, email, age, created_at FROM users WHERE (name = ?)",
			args:  []any{"alice"},
		},
		{
			name: "predicates join with and",
			query: sess.Query("User").
				Where(loam.GTE("age", 18)).
				Where(loam.LT("age", 65), loam.NotNull("email")),
			stmt: "SELECT id, name, email, age, created_at FROM users WHERE (age >= ?) AND (age < ?) AND (email IS NOT NULL)",
			args: []any{int64(18), int64(65)},
		},
		{
			name: "order limit offset",
			query: sess.Query("User").
				OrderBy("name", loam.Asc).
				Limit(10).
				Offset(20),
			stmt: "SELECT id, name, email, age, created_at FROM users ORDER BY name ASC LIMIT 10 OFFSET 20",
		},
		{
			name: "later order wins",
			query: sess.Query("User").
				OrderBy("name", loam.Asc).
				OrderBy("age", loam.Desc),
			stmt: "SELECT id, name, email, age, created_at FROM users ORDER BY age DESC",
		},
		{
			name:  "edge column predicate",
			query: sess.Query("Post").Where(loam.EQ("author", loam.RefKey(7))),
			stmt:  "SELECT id, title, body, published, author_id FROM posts WHERE (author_id = ?)",
			args:  []any{int64(7)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stmt, args, err := tt.query.Compile()
			require.NoError(t, err)
			assert.Equal(t, tt.stmt, stmt)
			assert.Equal(t, tt.args, args)
		})
	}
}

// Limit and offset never become placeholders, so the argument list
// holds exactly one value per predicate.
func TestQueryCompilePlaceholderCount(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	stmt, args, err := sess.Query("User").
		Where(loam.EQ("name", "a"), loam.GT("age", 1)).
		Limit(5).
		Offset(10).
		Compile()
	require.NoError(t, err)
	n := 0
	for _, r := range stmt {
		if r == '?' {
			n++
		}
	}
	assert.Equal(t, len(args), n)
	assert.Len(t, args, 2)
}

func TestQueryCompilePostgres(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.Postgres)
	stmt, args, err := sess.Query("User").
		Where(loam.EQ("name", "alice"), loam.GT("age", 30)).
		Compile()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, email, age, created_at FROM users WHERE (name = $1) AND (age > $2)", stmt)
	assert.Len(t, args, 2)
}

func TestCountStatement(t *testing.T) {
	t.Parallel()
	sess, mock := mockSession(t, dialect.SQLite)

	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE (age >= ?)").
		WithArgs(int64(18)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := sess.Query("User").Where(loam.GTE("age", 18)).Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A row cap counts capped rows through a derived table, never the
	// one-row aggregate.
	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT 1 FROM users LIMIT 2) AS matched").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err = sess.Query("User").Limit(2).Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT 1 FROM users LIMIT -1 OFFSET 1) AS matched").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	n, err = sess.Query("User").Offset(1).Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryImmutable(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	base := sess.Query("User").Where(loam.GTE("age", 18))
	adults := base.Where(loam.EQ("name", "alice"))
	limited := base.Limit(1)

	stmt, _, err := base.Compile()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, email, age, created_at FROM users WHERE (age >= ?)", stmt)

	stmt, _, err = adults.Compile()
	require.NoError(t, err)
	assert.Contains(t, stmt, "(name = ?)")

	stmt, _, err = limited.Compile()
	require.NoError(t, err)
	assert.Contains(t, stmt, "LIMIT 1")
}

func TestQueryInvalidLimit(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	_, _, err := sess.Query("User").Limit(-1).Compile()
	require.Error(t, err)
	assert.True(t, loam.IsInvalidLimit(err))

	_, err = sess.Query("User").Limit(-1).All(t.Context())
	assert.True(t, loam.IsInvalidLimit(err))
}

func TestQueryUnknownField(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	_, _, err := sess.Query("User").Where(loam.EQ("nickname", "al")).Compile()
	require.Error(t, err)
	assert.True(t, loam.IsUnknownField(err))

	_, _, err = sess.Query("User").OrderBy("nickname", loam.Asc).Compile()
	assert.True(t, loam.IsUnknownField(err))
}

func TestQueryInvalidDirection(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	_, _, err := sess.Query("User").
		OrderBy("name", loam.Direction("ASC; DROP TABLE users")).
		Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid direction")
}

func TestQueryUnknownModel(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	_, err := sess.Query("Ghost").All(t.Context())
	assert.Error(t, err)
}

func BenchmarkQueryCompile(b *testing.B) {
	db, _, err := sqlmock.New()
	require.NoError(b, err)
	r := loam.NewRegistry()
	require.NoError(b, r.Register(User{}, Post{}))
	sess, err := loam.NewSession(sql.OpenDB(dialect.SQLite, db), r)
	require.NoError(b, err)
	defer sess.Close()

	q := sess.Query("User").
		Where(loam.GTE("age", 18), loam.NotNull("email")).
		OrderBy("name", loam.Asc).
		Limit(50)
	b.ResetTimer()
	for range b.N {
		if _, _, err := q.Compile(); err != nil {
			b.Fatal(err)
		}
	}
}

func TestQueryValueTypeMismatch(t *testing.T) {
	t.Parallel()
	sess, _ := mockSession(t, dialect.SQLite)
	_, _, err := sess.Query("User").Where(loam.EQ("age", "not-a-number")).Compile()
	assert.Error(t, err)
}
