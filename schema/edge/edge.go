package edge

import (
	"fmt"
	"reflect"
)

// A Descriptor for edge configuration. An edge declares a directional
// relationship between two models. The owning (to-one) side stores a
// foreign-key column; the inverse (to-many) side is a view resolved at
// query time and produces no column.
type Descriptor struct {
	Name       string // edge name on the declaring model.
	Target     string // name of the referenced model.
	Inverse    bool   // true for to-many edges.
	Ref        string // for to-many edges, the to-one edge on the target that owns the key.
	Optional   bool   // nullable foreign key (to-one only).
	Immutable  bool   // reference cannot change after insert.
	StorageKey string // foreign-key column override (to-one only).
	Comment    string // column comment.
	Err        error  // deferred configuration error.
}

// Column returns the foreign-key column name of a to-one edge.
func (d *Descriptor) Column() string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name + "_id"
}

// ToOne declares a many-to-one edge: the declaring model stores a
// foreign key to target's primary key, in a column named <name>_id.
//
// The target is given either as the referenced model's Type method
// expression, or as its name for forward references:
//
//	edge.ToOne("author", User.Type)
//	edge.ToOne("parent", "Category")
func ToOne(name string, target any) *toOneBuilder {
	d := &Descriptor{Name: name}
	d.Target, d.Err = targetName(target)
	return &toOneBuilder{desc: d}
}

// ToMany declares a one-to-many edge: the inverse view of a to-one edge
// on the target model. It is not stored on this model's table; it is
// resolved at query time by matching the target's foreign key against
// this model's primary key. Ref names the owning to-one edge:
//
//	edge.ToMany("posts", Post.Type).Ref("author")
func ToMany(name string, target any) *toManyBuilder {
	d := &Descriptor{Name: name, Inverse: true}
	d.Target, d.Err = targetName(target)
	return &toManyBuilder{desc: d}
}

// targetName resolves the target argument to a model name. A string is
// taken verbatim; anything else must be a Type method expression whose
// receiver is the target model.
func targetName(target any) (string, error) {
	switch t := target.(type) {
	case string:
		if t == "" {
			return "", fmt.Errorf("edge: empty target model name")
		}
		return t, nil
	default:
		typ := reflect.TypeOf(target)
		if typ == nil || typ.Kind() != reflect.Func || typ.NumIn() != 1 {
			return "", fmt.Errorf("edge: invalid target %T: expect model name or Type method expression", target)
		}
		recv := typ.In(0)
		if recv.Kind() == reflect.Pointer {
			recv = recv.Elem()
		}
		if recv.Name() == "" {
			return "", fmt.Errorf("edge: cannot derive model name from %s", typ)
		}
		return recv.Name(), nil
	}
}

// toOneBuilder builds many-to-one edges.
type toOneBuilder struct {
	desc *Descriptor
}

// Optional makes the foreign-key column nullable. To-one edges are
// required by default.
func (b *toOneBuilder) Optional() *toOneBuilder {
	b.desc.Optional = true
	return b
}

// Immutable prevents the reference from changing after insert.
func (b *toOneBuilder) Immutable() *toOneBuilder {
	b.desc.Immutable = true
	return b
}

// StorageKey overrides the foreign-key column name.
func (b *toOneBuilder) StorageKey(key string) *toOneBuilder {
	b.desc.StorageKey = key
	return b
}

// Comment sets the column comment.
func (b *toOneBuilder) Comment(c string) *toOneBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Edge interface.
func (b *toOneBuilder) Descriptor() *Descriptor { return b.desc }

// toManyBuilder builds one-to-many edges.
type toManyBuilder struct {
	desc *Descriptor
}

// Ref names the to-one edge on the target model that owns the foreign
// key. Every to-many edge must reference a matching to-one edge;
// finalization fails otherwise.
func (b *toManyBuilder) Ref(name string) *toManyBuilder {
	b.desc.Ref = name
	return b
}

// Comment sets the edge comment.
func (b *toManyBuilder) Comment(c string) *toManyBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Edge interface.
func (b *toManyBuilder) Descriptor() *Descriptor { return b.desc }
