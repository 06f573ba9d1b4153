package dialect

import (
	"context"
)

// Supported dialect names. They double as database/sql driver names,
// except Postgres which maps to lib/pq's "postgres".
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the two standard statement operations.
//
// Exec and Query follow an out-parameter convention: args carries the
// bound parameters ([]any) and v receives the result (*sql.Result for
// Exec, *sql.Rows-compatible value for Query). The concrete types are
// defined by the driver implementation in dialect/sql.
type ExecQuerier interface {
	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the minimal interface a backend must satisfy. The engine
// never encodes a dialect beyond the type-mapping table and placeholder
// style, keeping the backend swappable.
type Driver interface {
	ExecQuerier
	// Tx starts a transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is a driver-level transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// nopTx is a Tx with a no-op Commit and Rollback, used by drivers that
// do not support transactions.
type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx that executes statements directly on d and treats
// Commit and Rollback as no-ops.
func NopTx(d Driver) Tx {
	return nopTx{d}
}
