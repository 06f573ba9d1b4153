// Package sql provides the database/sql-backed driver implementation
// and the predicate expression builders the query engine compiles.
//
// # Driver
//
// Open returns a dialect.Driver over a database/sql handle:
//
//	drv, err := sql.Open(dialect.SQLite, ":memory:")
//
// # Predicates
//
// Predicates are immutable expression trees built from constructors
// (EQ, GT, In, IsNull, And, Or, Not) or from typed field helpers:
//
//	var Age = sql.IntField("age")
//	p := sql.And(Age.GTE(18), sql.NotNull("email"))
//	stmt, args, err := p.Compile(sql.Ident)
//
// Compilation emits ?-placeholders and a positionally matched
// parameter list; values never appear in statement text.
//
// # Backend errors
//
// IsUniqueConstraintError, IsForeignKeyConstraintError and
// IsTableExistsError classify driver errors across postgres, mysql and
// sqlite without the engine committing to one backend.
package sql
