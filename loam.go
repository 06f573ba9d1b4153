// Package loam is a minimal object-relational mapper: models are
// declared with fluent field and edge builders, registered with a
// Registry, and persisted through a Session that owns a single backend
// driver.
//
// A model declaration embeds loam.Schema and describes its fields and
// edges; the declaring struct doubles as the instance type:
//
//	type User struct {
//	    loam.Schema
//	    ID       int    `loam:"id"`
//	    Username string `loam:"username"`
//	}
//
//	func (User) Fields() []loam.Field {
//	    return []loam.Field{
//	        field.Int("id").PrimaryKey().Auto(),
//	        field.String("username").Unique(),
//	    }
//	}
//
// Models are registered once, the registry is finalized into an
// immutable schema graph, and a Session executes DDL, inserts and
// queries against the backend:
//
//	r := loam.NewRegistry()
//	r.Register(User{}, Post{})
//	sess, err := loam.Open(dialect.SQLite, ":memory:", r)
package loam

import (
	"github.com/jonathanlloyd/loam/schema/edge"
	"github.com/jonathanlloyd/loam/schema/field"
)

// A Field declares a model attribute. Implemented by the builders in
// schema/field.
type Field interface {
	Descriptor() *field.Descriptor
}

// An Edge declares a relationship to another model. Implemented by the
// builders in schema/edge.
type Edge interface {
	Descriptor() *edge.Descriptor
}

// A Model declares an entity type: a named, ordered set of fields with
// exactly one primary key, plus zero or more edges. Declarations embed
// Schema and override Fields and, if related to other models, Edges.
type Model interface {
	// Fields returns the field declarations, in column order.
	Fields() []Field
	// Edges returns the edge declarations.
	Edges() []Edge
	// Type is a marker method. Its method expression (e.g. User.Type)
	// names the model in edge declarations.
	Type()
}

// Schema is the embeddable default Model implementation.
type Schema struct{}

// Fields of the model. The default is no fields.
func (Schema) Fields() []Field { return nil }

// Edges of the model. The default is no edges.
func (Schema) Edges() []Edge { return nil }

// Type is a marker method for edge target references.
func (Schema) Type() {}
