// Package dialect defines the backend driver abstraction.
//
// The engine talks to its relational backend exclusively through the
// Driver interface, so any database/sql driver (or a mock) can serve as
// the backend. The dialect/sql subpackage provides the standard
// implementation on top of database/sql.
//
// # Supported Dialects
//
// Each backend is identified by a constant string:
//
//	dialect.SQLite   = "sqlite"
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Debugging
//
// Debug wraps a Driver and logs every statement through zap:
//
//	drv, _ := sql.Open(dialect.SQLite, ":memory:")
//	sess := loam.NewSession(dialect.Debug(drv, logger), registry)
package dialect
