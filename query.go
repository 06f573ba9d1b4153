package loam

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"strconv"
	"strings"

	"github.com/jonathanlloyd/loam/dialect"
	"github.com/jonathanlloyd/loam/dialect/sql"
)

// A Predicate is a filter condition on a query. Predicates are built
// with EQ, LT, In and friends, composed with And, Or and Not, and
// compiled into the WHERE clause with one placeholder per value.
type Predicate = sql.Predicate

// EQ applies an equality check on the given field or to-one edge.
// An edge predicate accepts a *Ref, a loaded instance, or a bare key.
func EQ(field string, v any) *Predicate { return sql.EQ(field, v) }

// NEQ applies an inequality check on the given field.
func NEQ(field string, v any) *Predicate { return sql.NEQ(field, v) }

// LT applies a < check on the given field.
func LT(field string, v any) *Predicate { return sql.LT(field, v) }

// LTE applies a <= check on the given field.
func LTE(field string, v any) *Predicate { return sql.LTE(field, v) }

// GT applies a > check on the given field.
func GT(field string, v any) *Predicate { return sql.GT(field, v) }

// GTE applies a >= check on the given field.
func GTE(field string, v any) *Predicate { return sql.GTE(field, v) }

// In applies a membership check on the given field. An empty value set
// matches no rows.
func In(field string, vs ...any) *Predicate { return sql.In(field, vs...) }

// NotIn negates a membership check on the given field.
func NotIn(field string, vs ...any) *Predicate { return sql.NotIn(field, vs...) }

// IsNull checks that the given optional field or edge holds no value.
func IsNull(field string) *Predicate { return sql.IsNull(field) }

// NotNull checks that the given optional field or edge holds a value.
func NotNull(field string) *Predicate { return sql.NotNull(field) }

// And groups predicates with the AND operator.
func And(ps ...*Predicate) *Predicate { return sql.And(ps...) }

// Or groups predicates with the OR operator.
func Or(ps ...*Predicate) *Predicate { return sql.Or(ps...) }

// Not negates a predicate.
func Not(p *Predicate) *Predicate { return sql.Not(p) }

// A Direction of ordering.
type Direction string

const (
	// Asc orders ascending.
	Asc Direction = "ASC"
	// Desc orders descending.
	Desc Direction = "DESC"
)

type order struct {
	field string
	dir   Direction
}

// A Query selects instances of one model. Queries are immutable:
// every refinement returns a derived query and leaves the receiver
// untouched, so a base query can be shared and refined concurrently.
//
//	base := sess.Query("User")
//	admins := base.Where(loam.EQ("is_admin", true))
//	recent := base.OrderBy("created_at", loam.Desc).Limit(10)
type Query struct {
	sess   *Session
	model  *ModelInfo
	preds  []*Predicate
	orders []order
	limit  *int
	offset *int
	err    error
}

// clone returns a shallow copy with its own slice headers, so appends
// on the copy never reach the receiver.
func (q *Query) clone() *Query {
	c := *q
	c.preds = q.preds[:len(q.preds):len(q.preds)]
	c.orders = q.orders[:len(q.orders):len(q.orders)]
	return &c
}

// Where returns a derived query that also requires the given
// predicates. Multiple predicates, and multiple Where calls, combine
// with AND.
func (q *Query) Where(ps ...*Predicate) *Query {
	c := q.clone()
	c.preds = append(c.preds, ps...)
	return c
}

// OrderBy returns a derived query ordered by the given field. A later
// OrderBy replaces the ordering of an earlier one.
func (q *Query) OrderBy(field string, dir Direction) *Query {
	c := q.clone()
	c.orders = []order{{field: field, dir: dir}}
	return c
}

// Limit returns a derived query that fetches at most n rows. A
// negative limit fails with InvalidLimitError at execution; a zero
// limit is valid and yields no rows.
func (q *Query) Limit(n int) *Query {
	c := q.clone()
	if n < 0 {
		c.err = NewInvalidLimitError(n)
		return c
	}
	c.limit = &n
	return c
}

// Offset returns a derived query that skips the first n rows.
func (q *Query) Offset(n int) *Query {
	c := q.clone()
	if n < 0 {
		c.err = fmt.Errorf("loam: invalid offset %d", n)
		return c
	}
	c.offset = &n
	return c
}

// Compile renders the query into a parameterized statement and its
// argument list. Compilation is deterministic and pure: the same query
// always yields the same statement, and nothing touches the backend.
func (q *Query) Compile() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.model.Columns(), ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.model.Table)
	args, err := q.compileWhere(&b)
	if err != nil {
		return "", nil, err
	}
	for i, o := range q.orders {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		col, err := q.model.resolveColumn(o.field)
		if err != nil {
			return "", nil, err
		}
		// Directions reach the statement text verbatim; only the two
		// known spellings may pass.
		if o.dir != Asc && o.dir != Desc {
			return "", nil, fmt.Errorf("loam: invalid direction %q", o.dir)
		}
		b.WriteString(col)
		b.WriteString(" ")
		b.WriteString(string(o.dir))
	}
	q.writeLimitOffset(&b)
	return sql.Rebind(q.sess.dialect(), b.String()), args, nil
}

// writeLimitOffset renders the row-cap clause as integer literals, so
// the argument list carries exactly one value per predicate. sqlite
// and mysql accept OFFSET only after LIMIT, so a bare offset carries
// the dialect's unbounded limit.
func (q *Query) writeLimitOffset(b *strings.Builder) {
	switch {
	case q.limit != nil:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*q.limit))
	case q.offset != nil:
		switch q.sess.dialect() {
		case dialect.SQLite:
			b.WriteString(" LIMIT -1")
		case dialect.MySQL:
			b.WriteString(" LIMIT 18446744073709551615")
		}
	}
	if q.offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(*q.offset))
	}
}

// compileCount renders the counting form of the query. Ordering is
// irrelevant to a count and is dropped. A limit or offset must cap the
// counted rows, not the one-row aggregate, so they push the row
// selection into a derived table.
func (q *Query) compileCount() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	if q.limit == nil && q.offset == nil {
		b.WriteString(q.model.Table)
		args, err := q.compileWhere(&b)
		if err != nil {
			return "", nil, err
		}
		return sql.Rebind(q.sess.dialect(), b.String()), args, nil
	}
	b.WriteString("(SELECT 1 FROM ")
	b.WriteString(q.model.Table)
	args, err := q.compileWhere(&b)
	if err != nil {
		return "", nil, err
	}
	q.writeLimitOffset(&b)
	// The derived table needs an alias on mysql and postgres.
	b.WriteString(") AS matched")
	return sql.Rebind(q.sess.dialect(), b.String()), args, nil
}

func (q *Query) compileWhere(b *strings.Builder) ([]any, error) {
	var args []any
	r := &modelResolver{model: q.model}
	for i, p := range q.preds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		expr, vs, err := p.Compile(r)
		if err != nil {
			return nil, err
		}
		b.WriteString(expr)
		args = append(args, vs...)
	}
	return args, nil
}

// All fetches every matching instance.
func (q *Query) All(ctx context.Context) ([]any, error) {
	rows, err := q.sess.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		inst, err := fromRow(q.sess, q.model, row)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Iterate fetches the matching rows and yields instances one at a
// time, mapping each row only when the consumer reaches it.
func (q *Query) Iterate(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		rows, err := q.sess.fetch(ctx, q)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, row := range rows {
			if !yield(fromRow(q.sess, q.model, row)) {
				return
			}
		}
	}
}

// First fetches the first matching instance, or NotFoundError if
// nothing matched.
func (q *Query) First(ctx context.Context) (any, error) {
	all, err := q.Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, NewNotFoundError(q.model.Name, nil)
	}
	return all[0], nil
}

// Only fetches the single matching instance. It fails with
// NotFoundError if nothing matched and NotSingularError if more than
// one instance did.
func (q *Query) Only(ctx context.Context) (any, error) {
	all, err := q.Limit(2).All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(all) {
	case 1:
		return all[0], nil
	case 0:
		return nil, NewNotFoundError(q.model.Name, nil)
	default:
		return nil, NewNotSingularError(q.model.Name)
	}
}

// Count reports the number of matching rows without mapping them.
func (q *Query) Count(ctx context.Context) (int, error) {
	return q.sess.fetchCount(ctx, q)
}

// Collect runs the query and asserts every result to T.
//
//	users, err := loam.Collect[*User](ctx, sess.Query("User"))
func Collect[T any](ctx context.Context, q *Query) ([]T, error) {
	all, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, v := range all {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("loam: cannot collect %T as %T", v, *new(T))
		}
		out = append(out, t)
	}
	return out, nil
}

// modelResolver compiles predicate names and values against one
// model: field names map to their columns, to-one edge names to their
// foreign-key columns, and edge values to the referenced key.
type modelResolver struct {
	model *ModelInfo
}

func (r *modelResolver) Column(name string) (string, error) {
	return r.model.resolveColumn(name)
}

func (r *modelResolver) Value(name string, v any) (any, error) {
	if f := r.model.Field(name); f != nil {
		rv := reflect.ValueOf(v)
		if v == nil || !compatibleKind(f.Type, rv.Type()) {
			return nil, fmt.Errorf("loam: field %s.%s: cannot compare against %T", r.model.Name, name, v)
		}
		return serializeValue(f.Type, rv)
	}
	e := r.model.Edge(name)
	if e == nil || e.Inverse {
		return nil, NewUnknownFieldError(r.model.Name, name)
	}
	switch x := v.(type) {
	case *Ref:
		return refKey(r.model, e, x)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type() == e.Target.typ {
			return refKey(r.model, e, RefTo(v))
		}
		return serializeKey(e.Target, v)
	}
}
