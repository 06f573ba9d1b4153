// Package field provides fluent builders for declaring model fields.
//
// A field declares a named, typed attribute of a model:
//
//	field.Int("id").PrimaryKey().Auto()
//	field.String("username").Unique()
//	field.Time("published_at").Optional()
//
// Field names are snake_case and double as column names unless a
// StorageKey override is given. Every model must declare exactly one
// primary-key field; the registry rejects models that do not.
//
// Builders never return errors. Invalid configuration is carried in
// Descriptor.Err and reported once, when the registry finalizes.
package field
