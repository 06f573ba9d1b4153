package loam

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/jonathanlloyd/loam/dialect"
	"github.com/jonathanlloyd/loam/dialect/sql"
	sqlschema "github.com/jonathanlloyd/loam/dialect/sql/schema"
)

// A Session is the runtime facade over one backend connection. It
// owns schema creation, inserts, deletes, lookups and queries for the
// models of its registry.
//
// A session admits one statement at a time. Callers block until the
// running statement finishes; a session opened with NonBlocking fails
// fast with ErrSessionBusy instead.
type Session struct {
	drv         dialect.Driver
	graph       *Graph
	sem         *semaphore.Weighted
	nonblocking bool
}

// A SessionOption configures a Session.
type SessionOption func(*Session)

// NonBlocking makes the session fail with ErrSessionBusy when a
// statement is issued while another is running, instead of waiting.
func NonBlocking() SessionOption {
	return func(s *Session) { s.nonblocking = true }
}

// NewSession finalizes the registry and returns a session over the
// given driver. The driver is owned by the session and closed with it.
func NewSession(drv dialect.Driver, r *Registry, opts ...SessionOption) (*Session, error) {
	g, err := r.Finalize()
	if err != nil {
		return nil, err
	}
	s := &Session{drv: drv, graph: g, sem: semaphore.NewWeighted(1)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open opens a connection to the backend named by the dialect and
// returns a session over it.
func Open(dialect, source string, r *Registry, opts ...SessionOption) (*Session, error) {
	drv, err := sql.Open(dialect, source)
	if err != nil {
		return nil, NewBackendError("open", err)
	}
	return NewSession(drv, r, opts...)
}

// Graph returns the session's finalized schema graph.
func (s *Session) Graph() *Graph { return s.graph }

// Close closes the underlying driver.
func (s *Session) Close() error { return s.drv.Close() }

func (s *Session) dialect() string { return s.drv.Dialect() }

// acquire claims the session's single statement slot.
func (s *Session) acquire(ctx context.Context) error {
	if s.nonblocking {
		if !s.sem.TryAcquire(1) {
			return ErrSessionBusy
		}
		return nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.wrapErr("acquire", err)
	}
	return nil
}

func (s *Session) release() { s.sem.Release(1) }

// wrapErr classifies a backend failure: an exceeded deadline becomes
// TimeoutError, anything else BackendError.
func (s *Session) wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(op, err)
	}
	return NewBackendError(op, err)
}

// model resolves a model by name.
func (s *Session) model(name string) (*ModelInfo, error) {
	if mi := s.graph.Model(name); mi != nil {
		return mi, nil
	}
	return nil, fmt.Errorf("loam: model %q is not registered", name)
}

// instanceModel resolves the model a struct instance belongs to.
func (s *Session) instanceModel(inst any) (*ModelInfo, error) {
	m, ok := inst.(Model)
	if !ok {
		return nil, fmt.Errorf("loam: %T is not a model instance", inst)
	}
	name, err := modelName(m)
	if err != nil {
		return nil, err
	}
	return s.model(name)
}

// CreateTable generates and executes the table definition for one
// model. Creating a table that already exists fails with
// TableAlreadyExistsError.
func (s *Session) CreateTable(ctx context.Context, model string) error {
	mi, err := s.model(model)
	if err != nil {
		return err
	}
	return s.createTable(ctx, mi)
}

// CreateTables creates the tables of every registered model in
// registration order, so referenced tables exist before the tables
// that point at them.
func (s *Session) CreateTables(ctx context.Context) error {
	for _, mi := range s.graph.Models() {
		if err := s.createTable(ctx, mi); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) createTable(ctx context.Context, mi *ModelInfo) error {
	ddl, err := sqlschema.Generate(s.dialect(), mi.table())
	if err != nil {
		return err
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	if err := s.drv.Exec(ctx, ddl, []any{}, nil); err != nil {
		if sql.IsTableExistsError(err) {
			return NewTableAlreadyExistsError(mi.Table, err)
		}
		return s.wrapErr("create table", err)
	}
	return nil
}

// Insert stores one instance. A backend-assigned primary key is
// written back into the instance before Insert returns, so the
// instance can immediately be referenced by other inserts.
func (s *Session) Insert(ctx context.Context, inst any) error {
	mi, err := s.instanceModel(inst)
	if err != nil {
		return err
	}
	columns, values, err := toRow(mi, inst)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mi.Table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES (")
	for i := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
	}
	b.WriteString(")")
	writeback := mi.ID.Auto && !sliceContains(columns, mi.ID.Column)
	if writeback && s.dialect() == dialect.Postgres {
		b.WriteString(" RETURNING ")
		b.WriteString(mi.ID.Column)
	}
	query := sql.Rebind(s.dialect(), b.String())
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	if writeback && s.dialect() == dialect.Postgres {
		rows := &sql.Rows{}
		if err := s.drv.Query(ctx, query, values, rows); err != nil {
			return s.wrapErr("insert", err)
		}
		defer rows.Close()
		var id int64
		if rows.Next() {
			if err := rows.Scan(&id); err != nil {
				return s.wrapErr("insert", err)
			}
		}
		if err := rows.Err(); err != nil {
			return s.wrapErr("insert", err)
		}
		return setAutoKey(mi, inst, id)
	}
	var res sql.Result
	if err := s.drv.Exec(ctx, query, values, &res); err != nil {
		return s.wrapErr("insert", err)
	}
	if writeback {
		id, err := res.LastInsertId()
		if err != nil {
			return s.wrapErr("insert", err)
		}
		return setAutoKey(mi, inst, id)
	}
	return nil
}

// Get fetches one instance by primary key, or NotFoundError.
func (s *Session) Get(ctx context.Context, model string, key any) (any, error) {
	mi, err := s.model(model)
	if err != nil {
		return nil, err
	}
	inst, err := s.Query(model).Where(EQ(mi.ID.Name, key)).First(ctx)
	if IsNotFound(err) {
		return nil, NewNotFoundError(mi.Name, key)
	}
	return inst, err
}

// Delete removes one instance by primary key. Deleting an instance
// whose row no longer exists fails with NotFoundError.
func (s *Session) Delete(ctx context.Context, inst any) error {
	mi, err := s.instanceModel(inst)
	if err != nil {
		return err
	}
	key, err := pkValue(mi, inst)
	if err != nil {
		return err
	}
	query := sql.Rebind(s.dialect(), fmt.Sprintf("DELETE FROM %s WHERE %s = ?", mi.Table, mi.ID.Column))
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, []any{key}, &res); err != nil {
		return s.wrapErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.wrapErr("delete", err)
	}
	if n == 0 {
		return NewNotFoundError(mi.Name, key)
	}
	return nil
}

// Query starts a query over the given model.
func (s *Session) Query(model string) *Query {
	mi, err := s.model(model)
	if err != nil {
		return &Query{err: err}
	}
	return &Query{sess: s, model: mi}
}

// fetch compiles and runs a query, returning the raw rows. Rows are
// drained before the statement slot is released, so the mapper never
// holds backend state.
func (s *Session) fetch(ctx context.Context, q *Query) ([][]any, error) {
	query, args, err := q.Compile()
	if err != nil {
		return nil, err
	}
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	rows := &sql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, s.wrapErr("query", err)
	}
	defer rows.Close()
	width := len(q.model.Columns())
	var out [][]any
	for rows.Next() {
		row := make([]any, width)
		ptrs := make([]any, width)
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, s.wrapErr("query", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrapErr("query", err)
	}
	return out, nil
}

// fetchCount runs the counting form of a query.
func (s *Session) fetchCount(ctx context.Context, q *Query) (int, error) {
	query, args, err := q.compileCount()
	if err != nil {
		return 0, err
	}
	if err := s.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.release()
	rows := &sql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return 0, s.wrapErr("count", err)
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, s.wrapErr("count", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, s.wrapErr("count", err)
	}
	return n, nil
}

// pkValue extracts and serializes the primary key of an instance.
func pkValue(mi *ModelInfo, inst any) (any, error) {
	rv, err := instanceValue(mi, inst)
	if err != nil {
		return nil, err
	}
	return serializeValue(mi.ID.Type, rv.FieldByIndex(mi.ID.index))
}

// setAutoKey writes a backend-assigned key back into the instance.
func setAutoKey(mi *ModelInfo, inst any, id int64) error {
	rv, err := instanceValue(mi, inst)
	if err != nil {
		return err
	}
	fv := rv.FieldByIndex(mi.ID.index)
	if fv.CanUint() {
		fv.SetUint(uint64(id))
	} else {
		fv.SetInt(id)
	}
	return nil
}

func sliceContains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
