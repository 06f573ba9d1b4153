package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes (Class 23 constraint violations, Class 42
// schema conflicts).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgDuplicateTable      = "42P07"
)

// MySQL error numbers.
const (
	mysqlTableExists            = 1050
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQLite primary result code for constraint violations. Extended codes
// (SQLITE_CONSTRAINT_UNIQUE etc.) carry it in their low byte.
const sqliteConstraint = 19

// errorCoder is implemented by modernc.org/sqlite's Error type. The
// sqlite driver is not imported here; sniffing the interface keeps the
// backend pluggable.
type errorCoder interface {
	Code() int
}

// pgError returns the SQLSTATE of a lib/pq error, if err is one.
func pgError(err error) (string, bool) {
	var e *pq.Error
	if errors.As(err, &e) {
		return string(e.Code), true
	}
	return "", false
}

// mysqlError returns the error number of a go-sql-driver/mysql error,
// if err is one.
func mysqlError(err error) (uint16, bool) {
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		return e.Number, true
	}
	return 0, false
}

// sqliteError returns the result code of a sqlite error, if err
// carries one.
func sqliteError(err error) (int, bool) {
	var e errorCoder
	if errors.As(err, &e) {
		return e.Code(), true
	}
	return 0, false
}

// IsUniqueConstraintError reports if the error resulted from a
// uniqueness constraint violation, e.g. a duplicate value in a unique
// column.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgError(err); ok {
		return code == pgUniqueViolation
	}
	if num, ok := mysqlError(err); ok {
		return num == mysqlDuplicateEntry
	}
	if code, ok := sqliteError(err); ok {
		return code&0xff == sqliteConstraint && strings.Contains(err.Error(), "UNIQUE")
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyConstraintError reports if the error resulted from a
// foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgError(err); ok {
		return code == pgForeignKeyViolation
	}
	if num, ok := mysqlError(err); ok {
		return num == mysqlForeignKeyParent || num == mysqlForeignKeyChild
	}
	if code, ok := sqliteError(err); ok {
		return code&0xff == sqliteConstraint && strings.Contains(err.Error(), "FOREIGN KEY")
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsCheckConstraintError reports if the error resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgError(err); ok {
		return code == pgCheckViolation
	}
	if num, ok := mysqlError(err); ok {
		return num == mysqlCheckConstraintViolate
	}
	if code, ok := sqliteError(err); ok {
		return code&0xff == sqliteConstraint && strings.Contains(err.Error(), "CHECK")
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsConstraintError reports if the error resulted from any database
// constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsTableExistsError reports if the error resulted from creating a
// table that already exists. Backends report this differently:
// postgres uses SQLSTATE 42P07, mysql error 1050, and sqlite a generic
// error whose message names the table.
func IsTableExistsError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgError(err); ok {
		return code == pgDuplicateTable
	}
	if num, ok := mysqlError(err); ok {
		return num == mysqlTableExists
	}
	return strings.Contains(err.Error(), "already exists")
}
