package sql_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/jonathanlloyd/loam/dialect/sql"
)

// sqliteErr mimics the error type of the sqlite driver: a result code
// plus a message.
type sqliteErr struct {
	code int
	msg  string
}

func (e *sqliteErr) Error() string { return e.msg }
func (e *sqliteErr) Code() int     { return e.code }

func TestConstraintErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		unique bool
		fk     bool
		check  bool
	}{
		{
			name:   "pq unique violation",
			err:    &pq.Error{Code: "23505"},
			unique: true,
		},
		{
			name: "pq foreign key violation",
			err:  &pq.Error{Code: "23503"},
			fk:   true,
		},
		{
			name:  "pq check violation",
			err:   &pq.Error{Code: "23514"},
			check: true,
		},
		{
			name:   "mysql duplicate entry",
			err:    &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"},
			unique: true,
		},
		{
			name: "mysql child row violation",
			err:  &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"},
			fk:   true,
		},
		{
			name:   "sqlite unique violation",
			err:    &sqliteErr{code: 2067, msg: "constraint failed: UNIQUE constraint failed: users.email (2067)"},
			unique: true,
		},
		{
			name: "sqlite foreign key violation",
			err:  &sqliteErr{code: 787, msg: "constraint failed: FOREIGN KEY constraint failed (787)"},
			fk:   true,
		},
		{
			name: "wrapped error",
			err:  fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}),
			fk:   true,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection refused"),
		},
		{
			name: "nil",
			err:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.unique, sql.IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, sql.IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, sql.IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.fk || tt.check, sql.IsConstraintError(tt.err))
		})
	}
}

func TestIsTableExistsError(t *testing.T) {
	t.Parallel()
	assert.True(t, sql.IsTableExistsError(&pq.Error{Code: "42P07"}))
	assert.True(t, sql.IsTableExistsError(&mysql.MySQLError{Number: 1050, Message: "Table 'users' already exists"}))
	assert.True(t, sql.IsTableExistsError(errors.New(`table "users" already exists`)))
	assert.False(t, sql.IsTableExistsError(errors.New("no such table")))
	assert.False(t, sql.IsTableExistsError(nil))
}
