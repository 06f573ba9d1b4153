// Package edge provides fluent builders for declaring relationships
// between models.
//
// There are two edge kinds:
//
//   - edge.ToOne: many-to-one; the declaring model stores a foreign key
//     to the target's primary key (column <name>_id).
//   - edge.ToMany: one-to-many; the inverse view of a to-one edge on
//     the target. It produces no column and is resolved at query time.
//
// A to-many edge must name its owning to-one edge via Ref:
//
//	// Post schema
//	edge.ToOne("author", User.Type)
//
//	// User schema
//	edge.ToMany("posts", Post.Type).Ref("author")
//
// Referential consistency is checked when the registry finalizes, not
// at declaration time, so mutually referencing and forward-referenced
// models can be declared in any order.
package edge
