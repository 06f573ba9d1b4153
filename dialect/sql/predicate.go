package sql

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// An Op is a predicate operator.
type Op uint8

const (
	// Comparison operators.
	OpEQ  Op = iota // =
	OpNEQ           // <>
	OpLT            // <
	OpLTE           // <=
	OpGT            // >
	OpGTE           // >=
	OpIn            // IN
	OpNotIn         // NOT IN
	OpIsNull        // IS NULL
	OpNotNull       // IS NOT NULL
	// Logical operators.
	OpAnd // AND
	OpOr  // OR
	OpNot // NOT
)

var ops = [...]string{
	OpEQ:      "=",
	OpNEQ:     "<>",
	OpLT:      "<",
	OpLTE:     "<=",
	OpGT:      ">",
	OpGTE:     ">=",
	OpIn:      "IN",
	OpNotIn:   "NOT IN",
	OpIsNull:  "IS NULL",
	OpNotNull: "IS NOT NULL",
	OpAnd:     "AND",
	OpOr:      "OR",
	OpNot:     "NOT",
}

// String returns the SQL spelling of the operator.
func (o Op) String() string {
	if int(o) < len(ops) {
		return ops[o]
	}
	return fmt.Sprintf("invalid(%d)", o)
}

// A Predicate is a node in a boolean filter expression: either a single
// comparison on a named field, or a logical combination of child
// predicates. Predicates are immutable values; constructors are the
// only way to build them, so they can be shared between queries.
type Predicate struct {
	op     Op
	field  string
	value  any
	values []any
	preds  []*Predicate
}

// EQ returns a field = v predicate.
func EQ(field string, v any) *Predicate {
	return &Predicate{op: OpEQ, field: field, value: v}
}

// NEQ returns a field <> v predicate.
func NEQ(field string, v any) *Predicate {
	return &Predicate{op: OpNEQ, field: field, value: v}
}

// LT returns a field < v predicate.
func LT(field string, v any) *Predicate {
	return &Predicate{op: OpLT, field: field, value: v}
}

// LTE returns a field <= v predicate.
func LTE(field string, v any) *Predicate {
	return &Predicate{op: OpLTE, field: field, value: v}
}

// GT returns a field > v predicate.
func GT(field string, v any) *Predicate {
	return &Predicate{op: OpGT, field: field, value: v}
}

// GTE returns a field >= v predicate.
func GTE(field string, v any) *Predicate {
	return &Predicate{op: OpGTE, field: field, value: v}
}

// In returns a field IN (vs...) predicate. With no values it compiles
// to FALSE, matching SQL's empty-set semantics.
func In(field string, vs ...any) *Predicate {
	return &Predicate{op: OpIn, field: field, values: vs}
}

// NotIn returns a field NOT IN (vs...) predicate. With no values it
// compiles to TRUE.
func NotIn(field string, vs ...any) *Predicate {
	return &Predicate{op: OpNotIn, field: field, values: vs}
}

// IsNull returns a field IS NULL predicate.
func IsNull(field string) *Predicate {
	return &Predicate{op: OpIsNull, field: field}
}

// NotNull returns a field IS NOT NULL predicate.
func NotNull(field string) *Predicate {
	return &Predicate{op: OpNotNull, field: field}
}

// And combines predicates with AND.
func And(ps ...*Predicate) *Predicate {
	return &Predicate{op: OpAnd, preds: ps}
}

// Or combines predicates with OR.
func Or(ps ...*Predicate) *Predicate {
	return &Predicate{op: OpOr, preds: ps}
}

// Not negates a predicate.
func Not(p *Predicate) *Predicate {
	return &Predicate{op: OpNot, preds: []*Predicate{p}}
}

// A Resolver maps declared field and edge names to columns and
// normalizes comparison values for them. The engine supplies a
// schema-aware resolver; Ident passes names and values through
// untouched for standalone use.
type Resolver interface {
	// Column returns the column a name compiles to.
	Column(name string) (string, error)
	// Value normalizes a comparison value for the named field.
	Value(name string, v any) (any, error)
}

type identResolver struct{}

func (identResolver) Column(name string) (string, error) { return name, nil }
func (identResolver) Value(_ string, v any) (any, error) { return v, nil }

// Ident is a Resolver that treats predicate names as literal column
// names and passes values through unchanged.
var Ident Resolver = identResolver{}

// Compile traverses the predicate tree depth-first and returns the
// parenthesized SQL expression with ?-placeholders and the bound
// parameters in left-to-right order. Values are never interpolated
// into the statement text. Compilation is pure: the same predicate
// compiles identically every time.
func (p *Predicate) Compile(r Resolver) (string, []any, error) {
	var (
		b    strings.Builder
		args []any
	)
	if err := p.compile(&b, &args, r); err != nil {
		return "", nil, err
	}
	return b.String(), args, nil
}

func (p *Predicate) compile(b *strings.Builder, args *[]any, r Resolver) error {
	switch p.op {
	case OpAnd, OpOr:
		switch len(p.preds) {
		case 0:
			// Empty conjunction is the identity TRUE, empty
			// disjunction FALSE.
			if p.op == OpAnd {
				b.WriteString("(TRUE)")
			} else {
				b.WriteString("(FALSE)")
			}
		case 1:
			return p.preds[0].compile(b, args, r)
		default:
			b.WriteByte('(')
			for i, child := range p.preds {
				if i > 0 {
					b.WriteString(" " + p.op.String() + " ")
				}
				if err := child.compile(b, args, r); err != nil {
					return err
				}
			}
			b.WriteByte(')')
		}
	case OpNot:
		if len(p.preds) != 1 {
			return fmt.Errorf("dialect/sql: NOT expects exactly one operand")
		}
		b.WriteString("(NOT ")
		if err := p.preds[0].compile(b, args, r); err != nil {
			return err
		}
		b.WriteByte(')')
	case OpIsNull, OpNotNull:
		col, err := r.Column(p.field)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "(%s %s)", col, p.op)
	case OpIn, OpNotIn:
		col, err := r.Column(p.field)
		if err != nil {
			return err
		}
		if len(p.values) == 0 {
			// IN over the empty set selects nothing.
			if p.op == OpIn {
				b.WriteString("(FALSE)")
			} else {
				b.WriteString("(TRUE)")
			}
			return nil
		}
		fmt.Fprintf(b, "(%s %s (", col, p.op)
		for i, v := range p.values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('?')
			nv, err := r.Value(p.field, v)
			if err != nil {
				return err
			}
			*args = append(*args, nv)
		}
		b.WriteString("))")
	default:
		col, err := r.Column(p.field)
		if err != nil {
			return err
		}
		nv, err := r.Value(p.field, p.value)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "(%s %s ?)", col, p.op)
		*args = append(*args, nv)
	}
	return nil
}

// StringField provides type-safe predicate constructors for a string
// field or column.
//
//	var Username = sql.StringField("username")
//	q.Where(Username.EQ("alice"))
type StringField string

// Name returns the field name.
func (f StringField) Name() string { return string(f) }

// EQ returns a predicate that checks the field equals v.
func (f StringField) EQ(v string) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks the field does not equal v.
func (f StringField) NEQ(v string) *Predicate { return NEQ(string(f), v) }

// LT returns a predicate that checks the field is less than v.
func (f StringField) LT(v string) *Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks the field is at most v.
func (f StringField) LTE(v string) *Predicate { return LTE(string(f), v) }

// GT returns a predicate that checks the field is greater than v.
func (f StringField) GT(v string) *Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks the field is at least v.
func (f StringField) GTE(v string) *Predicate { return GTE(string(f), v) }

// In returns a predicate that checks the field value is in vs.
func (f StringField) In(vs ...string) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks the field value is not in vs.
func (f StringField) NotIn(vs ...string) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// IsNull returns a predicate that checks the field is NULL.
func (f StringField) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks the field is not NULL.
func (f StringField) NotNull() *Predicate { return NotNull(string(f)) }

// IntField provides type-safe predicate constructors for an integer
// field or column.
type IntField string

// Name returns the field name.
func (f IntField) Name() string { return string(f) }

// EQ returns a predicate that checks the field equals v.
func (f IntField) EQ(v int) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks the field does not equal v.
func (f IntField) NEQ(v int) *Predicate { return NEQ(string(f), v) }

// LT returns a predicate that checks the field is less than v.
func (f IntField) LT(v int) *Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks the field is at most v.
func (f IntField) LTE(v int) *Predicate { return LTE(string(f), v) }

// GT returns a predicate that checks the field is greater than v.
func (f IntField) GT(v int) *Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks the field is at least v.
func (f IntField) GTE(v int) *Predicate { return GTE(string(f), v) }

// In returns a predicate that checks the field value is in vs.
func (f IntField) In(vs ...int) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks the field value is not in vs.
func (f IntField) NotIn(vs ...int) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// IsNull returns a predicate that checks the field is NULL.
func (f IntField) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks the field is not NULL.
func (f IntField) NotNull() *Predicate { return NotNull(string(f)) }

// Int64Field provides type-safe predicate constructors for an int64
// field or column.
type Int64Field string

// Name returns the field name.
func (f Int64Field) Name() string { return string(f) }

// EQ returns a predicate that checks the field equals v.
func (f Int64Field) EQ(v int64) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks the field does not equal v.
func (f Int64Field) NEQ(v int64) *Predicate { return NEQ(string(f), v) }

// LT returns a predicate that checks the field is less than v.
func (f Int64Field) LT(v int64) *Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks the field is at most v.
func (f Int64Field) LTE(v int64) *Predicate { return LTE(string(f), v) }

// GT returns a predicate that checks the field is greater than v.
func (f Int64Field) GT(v int64) *Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks the field is at least v.
func (f Int64Field) GTE(v int64) *Predicate { return GTE(string(f), v) }

// In returns a predicate that checks the field value is in vs.
func (f Int64Field) In(vs ...int64) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks the field value is not in vs.
func (f Int64Field) NotIn(vs ...int64) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// IsNull returns a predicate that checks the field is NULL.
func (f Int64Field) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks the field is not NULL.
func (f Int64Field) NotNull() *Predicate { return NotNull(string(f)) }

// Float64Field provides type-safe predicate constructors for a float64
// field or column.
type Float64Field string

// Name returns the field name.
func (f Float64Field) Name() string { return string(f) }

// EQ returns a predicate that checks the field equals v.
func (f Float64Field) EQ(v float64) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks the field does not equal v.
func (f Float64Field) NEQ(v float64) *Predicate { return NEQ(string(f), v) }

// LT returns a predicate that checks the field is less than v.
func (f Float64Field) LT(v float64) *Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks the field is at most v.
func (f Float64Field) LTE(v float64) *Predicate { return LTE(string(f), v) }

// GT returns a predicate that checks the field is greater than v.
func (f Float64Field) GT(v float64) *Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks the field is at least v.
func (f Float64Field) GTE(v float64) *Predicate { return GTE(string(f), v) }

// In returns a predicate that checks the field value is in vs.
func (f Float64Field) In(vs ...float64) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks the field value is not in vs.
func (f Float64Field) NotIn(vs ...float64) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// IsNull returns a predicate that checks the field is NULL.
func (f Float64Field) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks the field is not NULL.
func (f Float64Field) NotNull() *Predicate { return NotNull(string(f)) }

// BoolField provides type-safe predicate constructors for a boolean
// field or column.
type BoolField string

// Name returns the field name.
func (f BoolField) Name() string { return string(f) }

// EQ returns a predicate that checks the field equals v.
func (f BoolField) EQ(v bool) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks the field does not equal v.
func (f BoolField) NEQ(v bool) *Predicate { return NEQ(string(f), v) }

// IsNull returns a predicate that checks the field is NULL.
func (f BoolField) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks the field is not NULL.
func (f BoolField) NotNull() *Predicate { return NotNull(string(f)) }

// TimeField provides type-safe predicate constructors for a timestamp
// field or column.
type TimeField string

// Name returns the field name.
func (f TimeField) Name() string { return string(f) }

// EQ returns a predicate that checks the field equals v.
func (f TimeField) EQ(v time.Time) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks the field does not equal v.
func (f TimeField) NEQ(v time.Time) *Predicate { return NEQ(string(f), v) }

// LT returns a predicate that checks the field is before v.
func (f TimeField) LT(v time.Time) *Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks the field is at or before v.
func (f TimeField) LTE(v time.Time) *Predicate { return LTE(string(f), v) }

// GT returns a predicate that checks the field is after v.
func (f TimeField) GT(v time.Time) *Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks the field is at or after v.
func (f TimeField) GTE(v time.Time) *Predicate { return GTE(string(f), v) }

// In returns a predicate that checks the field value is in vs.
func (f TimeField) In(vs ...time.Time) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks the field value is not in vs.
func (f TimeField) NotIn(vs ...time.Time) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// IsNull returns a predicate that checks the field is NULL.
func (f TimeField) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks the field is not NULL.
func (f TimeField) NotNull() *Predicate { return NotNull(string(f)) }

// UUIDField provides type-safe predicate constructors for a UUID field
// or column.
type UUIDField string

// Name returns the field name.
func (f UUIDField) Name() string { return string(f) }

// EQ returns a predicate that checks the field equals v.
func (f UUIDField) EQ(v uuid.UUID) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks the field does not equal v.
func (f UUIDField) NEQ(v uuid.UUID) *Predicate { return NEQ(string(f), v) }

// In returns a predicate that checks the field value is in vs.
func (f UUIDField) In(vs ...uuid.UUID) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks the field value is not in vs.
func (f UUIDField) NotIn(vs ...uuid.UUID) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// IsNull returns a predicate that checks the field is NULL.
func (f UUIDField) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks the field is not NULL.
func (f UUIDField) NotNull() *Predicate { return NotNull(string(f)) }

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i := range vs {
		out[i] = vs[i]
	}
	return out
}
