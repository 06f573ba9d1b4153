package sql_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanlloyd/loam/dialect"
	"github.com/jonathanlloyd/loam/dialect/sql"
)

func TestDriverExec(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	mock.ExpectExec("DELETE FROM users WHERE id = ?").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	drv := sql.OpenDB(dialect.MySQL, db)
	defer drv.Close()
	assert.Equal(t, dialect.MySQL, drv.Dialect())

	var res sql.Result
	err = drv.Exec(context.Background(), "DELETE FROM users WHERE id = ?", []any{1}, &res)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverExecBadInput(t *testing.T) {
	t.Parallel()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	drv := sql.OpenDB(dialect.SQLite, db)
	defer drv.Close()

	err = drv.Exec(context.Background(), "DELETE FROM users", "not-a-slice", nil)
	assert.Error(t, err)

	var wrong int
	err = drv.Exec(context.Background(), "DELETE FROM users", []any{}, &wrong)
	assert.Error(t, err)
}

func TestDriverQuery(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "alice").
			AddRow(2, "bob"))

	drv := sql.OpenDB(dialect.SQLite, db)
	defer drv.Close()

	rows := &sql.Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT id, name FROM users", []any{}, rows))
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			id   int
			name string
		)
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"alice", "bob"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverTx(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	drv := sql.OpenDB(dialect.Postgres, db)
	defer drv.Close()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO users DEFAULT VALUES", []any{}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		dialect string
		in      string
		out     string
	}{
		{
			name:    "sqlite passthrough",
			dialect: dialect.SQLite,
			in:      "SELECT * FROM users WHERE id = ?",
			out:     "SELECT * FROM users WHERE id = ?",
		},
		{
			name:    "mysql passthrough",
			dialect: dialect.MySQL,
			in:      "SELECT * FROM users WHERE id = ?",
			out:     "SELECT * FROM users WHERE id = ?",
		},
		{
			name:    "postgres numbering",
			dialect: dialect.Postgres,
			in:      "INSERT INTO users (name, age) VALUES (?, ?)",
			out:     "INSERT INTO users (name, age) VALUES ($1, $2)",
		},
		{
			name:    "postgres quoted question mark",
			dialect: dialect.Postgres,
			in:      "SELECT * FROM users WHERE name = '?' AND id = ?",
			out:     "SELECT * FROM users WHERE name = '?' AND id = $1",
		},
		{
			name:    "postgres no placeholders",
			dialect: dialect.Postgres,
			in:      "SELECT COUNT(*) FROM users",
			out:     "SELECT COUNT(*) FROM users",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.out, sql.Rebind(tt.dialect, tt.in))
		})
	}
}
