package loam

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathanlloyd/loam/schema/field"
)

// A Ref is a lazy placeholder for a to-one reference. Loading a row
// does not load the rows it references; the referenced instance is
// fetched on the first Resolve call and memoized.
//
// When inserting, assign the referenced instance with RefTo:
//
//	post := &Post{Title: "hello", Author: loam.RefTo(alice)}
type Ref struct {
	mu      sync.Mutex
	key     any
	value   any
	done    bool
	resolve func(context.Context, any) (any, error)
}

// RefTo returns a Ref holding an already-loaded instance.
func RefTo(v any) *Ref {
	return &Ref{value: v, done: true}
}

// RefKey returns a Ref holding only the referenced primary key.
// Resolve fails on a Ref built this way unless the Ref was produced by
// a query; it is intended for inserts where the referenced row is
// known by key alone.
func RefKey(k any) *Ref {
	return &Ref{key: k}
}

// Key returns the referenced primary key, if known.
func (r *Ref) Key() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.key
}

// Resolve fetches the referenced instance. The result is memoized:
// subsequent calls return the same instance without touching the
// backend.
func (r *Ref) Resolve(ctx context.Context) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return r.value, nil
	}
	if r.resolve == nil {
		return nil, fmt.Errorf("loam: reference to key %v is not attached to a session", r.key)
	}
	v, err := r.resolve(ctx, r.key)
	if err != nil {
		return nil, err
	}
	r.value = v
	r.done = true
	return v, nil
}

// A RefList is a lazy placeholder for a to-many view. It holds no
// data; every All or Iterate call runs a fresh query, so the view
// reflects rows inserted after the owner was loaded.
type RefList struct {
	query func() *Query
}

// Query returns the underlying query for the view, for further
// filtering or ordering.
func (r *RefList) Query() *Query {
	if r.query == nil {
		return &Query{err: fmt.Errorf("loam: reference list is not attached to a session")}
	}
	return r.query()
}

// All fetches the current members of the view.
func (r *RefList) All(ctx context.Context) ([]any, error) {
	return r.Query().All(ctx)
}

// Iterate streams the current members of the view.
func (r *RefList) Iterate(ctx context.Context) iter.Seq2[any, error] {
	return r.Query().Iterate(ctx)
}

// Count reports the current size of the view.
func (r *RefList) Count(ctx context.Context) (int, error) {
	return r.Query().Count(ctx)
}

// toRow serializes an instance into column names and values for
// insertion. Scalar fields come first, then one foreign-key value per
// to-one edge, in declaration order. A backend-assigned primary key
// that is still zero is omitted so the backend fills it in.
func toRow(mi *ModelInfo, inst any) ([]string, []any, error) {
	rv, err := instanceValue(mi, inst)
	if err != nil {
		return nil, nil, err
	}
	columns := make([]string, 0, len(mi.Fields)+len(mi.Edges))
	values := make([]any, 0, cap(columns))
	for _, f := range mi.Fields {
		fv := rv.FieldByIndex(f.index)
		if f.Auto && fv.IsZero() {
			continue
		}
		if fv.IsZero() && f.Default != nil {
			if err := applyDefault(fv, f.Default); err != nil {
				return nil, nil, fmt.Errorf("loam: field %s.%s: %w", mi.Name, f.Name, err)
			}
		}
		v, err := serializeValue(f.Type, fv)
		if err != nil {
			return nil, nil, fmt.Errorf("loam: field %s.%s: %w", mi.Name, f.Name, err)
		}
		columns = append(columns, f.Column)
		values = append(values, v)
	}
	for _, e := range mi.Edges {
		if e.Inverse {
			continue
		}
		ref, _ := rv.FieldByIndex(e.index).Interface().(*Ref)
		if ref == nil {
			if !e.Optional {
				return nil, nil, NewRequiredEdgeError(mi.Name, e.Name)
			}
			columns = append(columns, e.Column)
			values = append(values, nil)
			continue
		}
		key, err := refKey(mi, e, ref)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, e.Column)
		values = append(values, key)
	}
	return columns, values, nil
}

// instanceValue checks that inst is a pointer to the model's struct
// type and returns the addressable struct value.
func instanceValue(mi *ModelInfo, inst any) (reflect.Value, error) {
	rv := reflect.ValueOf(inst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != mi.typ {
		return reflect.Value{}, fmt.Errorf("loam: expect *%s instance, got %T", mi.Name, inst)
	}
	return rv.Elem(), nil
}

// refKey extracts the foreign-key value of a reference. A reference to
// an instance whose backend-assigned key has not been set yet cannot
// be stored.
func refKey(mi *ModelInfo, e *EdgeInfo, ref *Ref) (any, error) {
	ref.mu.Lock()
	defer ref.mu.Unlock()
	if !ref.done {
		return serializeKey(e.Target, ref.key)
	}
	rv := reflect.ValueOf(ref.value)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != e.Target.typ {
		return nil, fmt.Errorf("loam: edge %s.%s: expect *%s reference, got %T", mi.Name, e.Name, e.Target.Name, ref.value)
	}
	pk := rv.Elem().FieldByIndex(e.Target.ID.index)
	if e.Target.ID.Auto && pk.IsZero() {
		return nil, NewTransientReferenceError(mi.Name, e.Name)
	}
	ref.key = pk.Interface()
	return serializeValue(e.Target.ID.Type, pk)
}

// serializeKey serializes a bare key value against the target's
// primary-key type.
func serializeKey(target *ModelInfo, key any) (any, error) {
	if key == nil {
		return nil, fmt.Errorf("loam: reference to %s has no key", target.Name)
	}
	return serializeValue(target.ID.Type, reflect.ValueOf(key))
}

// fromRow deserializes one row into a fresh instance. To-one edges
// become unresolved Refs bound to the session; to-many edges become
// RefLists that query the view on demand.
func fromRow(s *Session, mi *ModelInfo, row []any) (any, error) {
	inst := reflect.New(mi.typ)
	rv := inst.Elem()
	i := 0
	for _, f := range mi.Fields {
		if err := deserializeValue(f.Type, rv.FieldByIndex(f.index), row[i]); err != nil {
			return nil, fmt.Errorf("loam: field %s.%s: %w", mi.Name, f.Name, err)
		}
		i++
	}
	out := inst.Interface()
	for _, e := range mi.Edges {
		if e.Inverse {
			continue
		}
		if row[i] != nil {
			target := e.Target
			ref := &Ref{
				resolve: func(ctx context.Context, key any) (any, error) {
					return s.Get(ctx, target.Name, key)
				},
			}
			if err := deserializeKey(target, &ref.key, row[i]); err != nil {
				return nil, fmt.Errorf("loam: edge %s.%s: %w", mi.Name, e.Name, err)
			}
			rv.FieldByIndex(e.index).Set(reflect.ValueOf(ref))
		}
		i++
	}
	for _, e := range mi.Edges {
		if !e.Inverse {
			continue
		}
		owner, ref := out, e.Ref
		target := e.Target
		rl := &RefList{
			query: func() *Query {
				return s.Query(target.Name).Where(EQ(ref.Name, owner))
			},
		}
		rv.FieldByIndex(e.index).Set(reflect.ValueOf(rl))
	}
	return out, nil
}

// applyDefault fills a zero field from its declared default. A func
// default, e.g. uuid.New, is called; anything else is assigned.
func applyDefault(fv reflect.Value, def any) error {
	dv := reflect.ValueOf(def)
	if dv.Kind() == reflect.Func {
		if dv.Type().NumIn() != 0 || dv.Type().NumOut() != 1 {
			return fmt.Errorf("default func must be func() T, got %T", def)
		}
		dv = dv.Call(nil)[0]
	}
	if !dv.Type().ConvertibleTo(fv.Type()) {
		return fmt.Errorf("default %T is not assignable to %s", def, fv.Type())
	}
	fv.Set(dv.Convert(fv.Type()))
	return nil
}

// serializeValue lowers a Go value into a driver value. Timestamps are
// normalized to UTC RFC 3339 text and UUIDs to their string form, so
// rows compare and order identically across backends.
func serializeValue(ft field.Type, v reflect.Value) (any, error) {
	switch ft {
	case field.TypeBool:
		return v.Bool(), nil
	case field.TypeInt, field.TypeInt64:
		if v.CanUint() {
			return int64(v.Uint()), nil
		}
		return v.Int(), nil
	case field.TypeFloat64:
		return v.Float(), nil
	case field.TypeString, field.TypeText:
		return v.String(), nil
	case field.TypeTime:
		t := v.Interface().(time.Time)
		return t.UTC().Format(time.RFC3339Nano), nil
	case field.TypeUUID:
		return v.Interface().(uuid.UUID).String(), nil
	case field.TypeBytes:
		return v.Bytes(), nil
	case field.TypeOther:
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("cannot serialize %s value", ft)
}

// deserializeValue raises a driver value into the given struct field.
// Drivers disagree on scan types, so each semantic type accepts the
// handful of representations seen in practice.
func deserializeValue(ft field.Type, fv reflect.Value, v any) error {
	if v == nil {
		fv.SetZero()
		return nil
	}
	switch ft {
	case field.TypeBool:
		switch x := v.(type) {
		case bool:
			fv.SetBool(x)
		case int64:
			fv.SetBool(x != 0)
		default:
			return scanError(ft, v)
		}
	case field.TypeInt, field.TypeInt64:
		n, err := scanInt(v)
		if err != nil {
			return err
		}
		if fv.CanUint() {
			fv.SetUint(uint64(n))
		} else {
			fv.SetInt(n)
		}
	case field.TypeFloat64:
		switch x := v.(type) {
		case float64:
			fv.SetFloat(x)
		case int64:
			fv.SetFloat(float64(x))
		default:
			return scanError(ft, v)
		}
	case field.TypeString, field.TypeText:
		s, ok := scanString(v)
		if !ok {
			return scanError(ft, v)
		}
		fv.SetString(s)
	case field.TypeTime:
		t, err := scanTime(v)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(t))
	case field.TypeUUID:
		s, ok := scanString(v)
		if !ok {
			return scanError(ft, v)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(id))
	case field.TypeBytes:
		switch x := v.(type) {
		case []byte:
			fv.SetBytes(append([]byte(nil), x...))
		case string:
			fv.SetBytes([]byte(x))
		default:
			return scanError(ft, v)
		}
	case field.TypeOther:
		rv := reflect.ValueOf(v)
		if !rv.Type().ConvertibleTo(fv.Type()) {
			return scanError(ft, v)
		}
		fv.Set(rv.Convert(fv.Type()))
	default:
		return scanError(ft, v)
	}
	return nil
}

// deserializeKey raises a stored foreign-key value into the Go type of
// the target's primary key.
func deserializeKey(target *ModelInfo, key *any, v any) error {
	kv := reflect.New(target.typ).Elem().FieldByIndex(target.ID.index)
	if err := deserializeValue(target.ID.Type, kv, v); err != nil {
		return err
	}
	*key = kv.Interface()
	return nil
}

func scanError(ft field.Type, v any) error {
	return fmt.Errorf("cannot scan %T into %s field", v, ft)
}

func scanInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("cannot scan %T into integer field", v)
}

func scanString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}

func scanTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	}
	return time.Time{}, fmt.Errorf("cannot scan %T into time field", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}
