// Package schema generates table-definition statements from the
// finalized schema graph. Generation is deterministic: the same table
// yields byte-identical DDL on every call.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathanlloyd/loam/dialect"
	"github.com/jonathanlloyd/loam/schema/field"
)

// A Table is the relational lowering of one model: one column per
// scalar field plus one foreign-key column per to-one edge, in
// declaration order.
type Table struct {
	Name        string
	Columns     []*Column
	ForeignKeys []*ForeignKey
}

// A Column in a table definition.
type Column struct {
	Name       string
	Type       field.Type
	SchemaType map[string]string // per-dialect type override.
	PrimaryKey bool
	Auto       bool // backend-assigned primary key.
	Nullable   bool
	Unique     bool
}

// A ForeignKey constraint on a column.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// columnTypes is the explicit mapping from semantic field types to
// backend column types. A type absent from a dialect's table cannot be
// stored there; generation fails with UnsupportedTypeError rather than
// inferring something.
var columnTypes = map[string]map[field.Type]string{
	dialect.SQLite: {
		field.TypeBool:    "BOOLEAN",
		field.TypeInt:     "INTEGER",
		field.TypeInt64:   "INTEGER",
		field.TypeFloat64: "REAL",
		field.TypeString:  "TEXT",
		field.TypeText:    "TEXT",
		field.TypeTime:    "TIMESTAMP",
		field.TypeUUID:    "TEXT",
		field.TypeBytes:   "BLOB",
	},
	dialect.MySQL: {
		field.TypeBool:    "BOOLEAN",
		field.TypeInt:     "INT",
		field.TypeInt64:   "BIGINT",
		field.TypeFloat64: "DOUBLE",
		field.TypeString:  "VARCHAR(255)",
		field.TypeText:    "LONGTEXT",
		field.TypeTime:    "TIMESTAMP",
		field.TypeUUID:    "CHAR(36)",
		field.TypeBytes:   "BLOB",
	},
	dialect.Postgres: {
		field.TypeBool:    "BOOLEAN",
		field.TypeInt:     "INTEGER",
		field.TypeInt64:   "BIGINT",
		field.TypeFloat64: "DOUBLE PRECISION",
		field.TypeString:  "VARCHAR(255)",
		field.TypeText:    "TEXT",
		field.TypeTime:    "TIMESTAMPTZ",
		field.TypeUUID:    "UUID",
		field.TypeBytes:   "BYTEA",
	},
}

// ColumnType returns the backend column type for c under the given
// dialect, honoring SchemaType overrides.
func ColumnType(d string, c *Column) (string, error) {
	if t, ok := c.SchemaType[d]; ok {
		return t, nil
	}
	types, ok := columnTypes[d]
	if !ok {
		return "", fmt.Errorf("schema: unknown dialect %q", d)
	}
	t, ok := types[c.Type]
	if !ok {
		return "", NewUnsupportedTypeError(c.Name, c.Type, d)
	}
	// Backend-assigned integer keys need a dialect-specific spelling.
	if c.Auto {
		switch d {
		case dialect.Postgres:
			if c.Type == field.TypeInt64 {
				return "BIGSERIAL", nil
			}
			return "SERIAL", nil
		case dialect.MySQL:
			return t + " AUTO_INCREMENT", nil
		}
	}
	return t, nil
}

// Generate emits the CREATE TABLE statement for t under the given
// dialect. Column order equals declaration order and foreign keys
// follow the columns, keeping output diff-friendly.
func Generate(d string, t *Table) (string, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(t.Name)
	b.WriteString("( ")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		ct, err := ColumnType(d, c)
		if err != nil {
			return "", err
		}
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(ct)
		switch {
		case c.PrimaryKey:
			b.WriteString(" PRIMARY KEY")
		case !c.Nullable:
			b.WriteString(" NOT NULL")
		}
		if c.Unique {
			b.WriteString(" UNIQUE")
		}
	}
	for _, fk := range t.ForeignKeys {
		fmt.Fprintf(&b, ", FOREIGN KEY(%s) REFERENCES %s(%s)", fk.Column, fk.RefTable, fk.RefColumn)
	}
	b.WriteString(" );")
	return b.String(), nil
}

// UnsupportedTypeError is returned when a field's semantic type has no
// column type mapping for the target backend.
type UnsupportedTypeError struct {
	Column  string
	Type    field.Type
	Dialect string
}

// Error returns the error string.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("schema: column %q: type %q has no %s mapping", e.Column, e.Type, e.Dialect)
}

// NewUnsupportedTypeError returns a new UnsupportedTypeError.
func NewUnsupportedTypeError(column string, t field.Type, dialect string) *UnsupportedTypeError {
	return &UnsupportedTypeError{Column: column, Type: t, Dialect: dialect}
}

// IsUnsupportedType returns true if the error is an UnsupportedTypeError.
func IsUnsupportedType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedTypeError
	return errors.As(err, &e)
}
