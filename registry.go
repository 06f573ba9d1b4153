package loam

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"

	sqlschema "github.com/jonathanlloyd/loam/dialect/sql/schema"
	"github.com/jonathanlloyd/loam/schema/edge"
	"github.com/jonathanlloyd/loam/schema/field"
)

// A Registry collects model declarations and finalizes them into a
// schema graph. Models are registered once, at process start;
// finalization resolves edge targets (including forward references by
// name), validates referential consistency, and is idempotent.
type Registry struct {
	mu    sync.Mutex
	order []string
	decls map[string]Model
	graph *Graph
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decls: make(map[string]Model)}
}

// Register adds model declarations to the registry. It fails with
// DuplicateModelError if a model with the same name is already
// registered, and with ErrGraphFinalized after Finalize has run.
// Registration is all-or-nothing: a failing call leaves the registry
// untouched.
func (r *Registry) Register(ms ...Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.graph != nil {
		return ErrGraphFinalized
	}
	names := make([]string, len(ms))
	for i, m := range ms {
		name, err := modelName(m)
		if err != nil {
			return err
		}
		if _, ok := r.decls[name]; ok {
			return NewDuplicateModelError(name)
		}
		for _, prev := range names[:i] {
			if prev == name {
				return NewDuplicateModelError(name)
			}
		}
		names[i] = name
	}
	for i, m := range ms {
		r.decls[names[i]] = m
		r.order = append(r.order, names[i])
	}
	return nil
}

// MustRegister is like Register but panics on error. Intended for
// package-level model registration.
func (r *Registry) MustRegister(ms ...Model) {
	if err := r.Register(ms...); err != nil {
		panic(err)
	}
}

// Finalize resolves and validates all declarations into an immutable
// Graph. A finalized graph is cached: calling Finalize again returns
// the same graph without re-validating.
func (r *Registry) Finalize() (*Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.graph != nil {
		return r.graph, nil
	}
	g, err := buildGraph(r.order, r.decls)
	if err != nil {
		return nil, err
	}
	r.graph = g
	return g, nil
}

// A Graph is the finalized, cross-referenced set of models. It is
// immutable and safe to share across sessions.
type Graph struct {
	order  []string
	models map[string]*ModelInfo
}

// Model returns the model info for the given name, or nil.
func (g *Graph) Model(name string) *ModelInfo {
	return g.models[name]
}

// Models returns all models in registration order.
func (g *Graph) Models() []*ModelInfo {
	out := make([]*ModelInfo, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.models[name])
	}
	return out
}

// Tables lowers every model to its relational table definition, in
// registration order.
func (g *Graph) Tables() []*sqlschema.Table {
	out := make([]*sqlschema.Table, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.models[name].table())
	}
	return out
}

// ModelInfo is the finalized form of one model declaration.
type ModelInfo struct {
	Name   string       // model name, e.g. "User".
	Table  string       // table name, e.g. "users".
	Fields []*FieldInfo // in declaration order.
	Edges  []*EdgeInfo  // in declaration order.
	ID     *FieldInfo   // the primary-key field.
	typ    reflect.Type // instance struct type.
}

// FieldInfo is the finalized form of one field declaration, bound to
// its backing struct field.
type FieldInfo struct {
	Name       string
	Type       field.Type
	Column     string
	PrimaryKey bool
	Auto       bool
	Unique     bool
	Optional   bool
	Immutable  bool
	Default    any
	SchemaType map[string]string
	index      []int // struct field index.
}

// EdgeInfo is the finalized form of one edge declaration. For to-one
// edges, Column names the foreign-key column and Target the referenced
// model. For to-many edges, Ref is the owning to-one edge on Target.
type EdgeInfo struct {
	Name      string
	Inverse   bool
	Optional  bool
	Immutable bool
	Column    string
	Target    *ModelInfo
	Ref       *EdgeInfo
	target    string // raw target name, until resolution.
	ref       string // raw owning-edge name, for to-many edges.
	index     []int
}

// Field returns the field with the given name, or nil.
func (m *ModelInfo) Field(name string) *FieldInfo {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Edge returns the edge with the given name, or nil.
func (m *ModelInfo) Edge(name string) *EdgeInfo {
	for _, e := range m.Edges {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Columns returns the stored column names in declaration order: scalar
// fields first, then one foreign-key column per to-one edge.
func (m *ModelInfo) Columns() []string {
	out := make([]string, 0, len(m.Fields)+len(m.Edges))
	for _, f := range m.Fields {
		out = append(out, f.Column)
	}
	for _, e := range m.Edges {
		if !e.Inverse {
			out = append(out, e.Column)
		}
	}
	return out
}

// resolveColumn maps a declared field or to-one edge name to its
// column for predicate and ordering compilation.
func (m *ModelInfo) resolveColumn(name string) (string, error) {
	if f := m.Field(name); f != nil {
		return f.Column, nil
	}
	if e := m.Edge(name); e != nil && !e.Inverse {
		return e.Column, nil
	}
	return "", NewUnknownFieldError(m.Name, name)
}

// table lowers the model to its relational definition.
func (m *ModelInfo) table() *sqlschema.Table {
	t := &sqlschema.Table{Name: m.Table}
	for _, f := range m.Fields {
		t.Columns = append(t.Columns, &sqlschema.Column{
			Name:       f.Column,
			Type:       f.Type,
			SchemaType: f.SchemaType,
			PrimaryKey: f.PrimaryKey,
			Auto:       f.Auto,
			Nullable:   f.Optional,
			Unique:     f.Unique,
		})
	}
	for _, e := range m.Edges {
		if e.Inverse {
			continue
		}
		t.Columns = append(t.Columns, &sqlschema.Column{
			Name:     e.Column,
			Type:     e.Target.ID.Type,
			Nullable: e.Optional,
		})
		t.ForeignKeys = append(t.ForeignKeys, &sqlschema.ForeignKey{
			Column:    e.Column,
			RefTable:  e.Target.Table,
			RefColumn: e.Target.ID.Column,
		})
	}
	return t
}

// modelName derives the model name from the declaring struct type.
func modelName(m Model) (string, error) {
	t := reflect.TypeOf(m)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t.Name() == "" {
		return "", fmt.Errorf("loam: model must be a named struct, got %T", m)
	}
	return t.Name(), nil
}

// buildGraph resolves declarations into a Graph. Validation happens
// here, not at declaration time, so declarations may reference each
// other in any order.
func buildGraph(order []string, decls map[string]Model) (*Graph, error) {
	g := &Graph{order: order, models: make(map[string]*ModelInfo, len(decls))}
	// First pass: fields and struct binding.
	for _, name := range order {
		mi, err := buildModel(name, decls[name])
		if err != nil {
			return nil, err
		}
		g.models[name] = mi
	}
	// Second pass: resolve edge targets.
	for _, name := range order {
		mi := g.models[name]
		for _, e := range mi.Edges {
			target, ok := g.models[e.target]
			if !ok {
				return nil, NewUnresolvedReferenceError(mi.Name, e.Name, e.target)
			}
			e.Target = target
		}
	}
	// Third pass: referential consistency of inverse edges.
	for _, name := range order {
		mi := g.models[name]
		for _, e := range mi.Edges {
			if !e.Inverse {
				continue
			}
			ref := e.Target.Edge(e.ref)
			if ref == nil || ref.Inverse || ref.target != mi.Name {
				return nil, NewDanglingRelationshipError(mi.Name, e.Name, e.ref)
			}
			e.Ref = ref
		}
	}
	return g, nil
}

// buildModel validates one declaration and binds it to its struct.
func buildModel(name string, m Model) (*ModelInfo, error) {
	t := reflect.TypeOf(m)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	mi := &ModelInfo{Name: name, Table: inflect.Tableize(name), typ: t}
	seen := make(map[string]bool)
	for _, f := range m.Fields() {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, NewInvalidSchemaError(name, fmt.Sprintf("field %q", d.Name), d.Err)
		}
		if seen[d.Name] {
			return nil, NewInvalidSchemaError(name, fmt.Sprintf("duplicate field %q", d.Name), nil)
		}
		seen[d.Name] = true
		idx, err := bindField(t, d)
		if err != nil {
			return nil, NewInvalidSchemaError(name, fmt.Sprintf("field %q", d.Name), err)
		}
		fi := &FieldInfo{
			Name:       d.Name,
			Type:       d.Type,
			Column:     d.Column(),
			PrimaryKey: d.PrimaryKey,
			Auto:       d.Auto,
			Unique:     d.Unique,
			Optional:   d.Optional,
			Immutable:  d.Immutable,
			Default:    d.Default,
			SchemaType: d.SchemaType,
			index:      idx,
		}
		if fi.PrimaryKey {
			if mi.ID != nil {
				return nil, NewInvalidSchemaError(name, "multiple primary keys", nil)
			}
			mi.ID = fi
		}
		mi.Fields = append(mi.Fields, fi)
	}
	if mi.ID == nil {
		return nil, NewMissingPrimaryKeyError(name)
	}
	for _, e := range m.Edges() {
		d := e.Descriptor()
		if d.Err != nil {
			return nil, NewInvalidSchemaError(name, fmt.Sprintf("edge %q", d.Name), d.Err)
		}
		if seen[d.Name] {
			return nil, NewInvalidSchemaError(name, fmt.Sprintf("duplicate declaration %q", d.Name), nil)
		}
		seen[d.Name] = true
		if d.Inverse && d.Ref == "" {
			return nil, NewInvalidSchemaError(name, fmt.Sprintf("edge %q: to-many edge requires Ref", d.Name), nil)
		}
		idx, err := bindEdge(t, d)
		if err != nil {
			return nil, NewInvalidSchemaError(name, fmt.Sprintf("edge %q", d.Name), err)
		}
		ei := &EdgeInfo{
			Name:      d.Name,
			Inverse:   d.Inverse,
			Optional:  d.Optional,
			Immutable: d.Immutable,
			target:    d.Target,
			ref:       d.Ref,
			index:     idx,
		}
		if !d.Inverse {
			ei.Column = d.Column()
		}
		mi.Edges = append(mi.Edges, ei)
	}
	return mi, nil
}

// bindField locates and type-checks the struct field backing a
// declared field. The struct field is matched by its loam tag, or by
// name with case and underscores ignored.
func bindField(t reflect.Type, d *field.Descriptor) ([]int, error) {
	sf, err := structField(t, d.Name)
	if err != nil {
		return nil, err
	}
	if !compatibleKind(d.Type, sf.Type) {
		return nil, fmt.Errorf("struct field %s has type %s, want %s", sf.Name, sf.Type, d.Type)
	}
	return sf.Index, nil
}

// bindEdge locates the struct field backing an edge: *loam.Ref for
// to-one edges, *loam.RefList for to-many edges.
func bindEdge(t reflect.Type, d *edge.Descriptor) ([]int, error) {
	sf, err := structField(t, d.Name)
	if err != nil {
		return nil, err
	}
	want := reflect.TypeOf(&Ref{})
	if d.Inverse {
		want = reflect.TypeOf(&RefList{})
	}
	if sf.Type != want {
		return nil, fmt.Errorf("struct field %s has type %s, want %s", sf.Name, sf.Type, want)
	}
	return sf.Index, nil
}

func structField(t reflect.Type, name string) (reflect.StructField, error) {
	norm := normalizeName(name)
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("loam"); ok {
			if tag == name {
				return sf, nil
			}
			continue
		}
		if normalizeName(sf.Name) == norm {
			return sf, nil
		}
	}
	return reflect.StructField{}, fmt.Errorf("no struct field backs %q", name)
}

// normalizeName lowers a name and strips underscores, so that
// "user_id" matches both UserID and UserId.
func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "")
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// compatibleKind reports whether a Go struct field type can back the
// declared semantic type.
func compatibleKind(ft field.Type, t reflect.Type) bool {
	switch ft {
	case field.TypeBool:
		return t.Kind() == reflect.Bool
	case field.TypeInt, field.TypeInt64:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	case field.TypeFloat64:
		return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
	case field.TypeString, field.TypeText:
		return t.Kind() == reflect.String
	case field.TypeTime:
		return t == timeType
	case field.TypeUUID:
		return t == uuidType
	case field.TypeBytes:
		return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
	case field.TypeOther:
		return true
	}
	return false
}
