package field

import (
	"fmt"
	"regexp"
)

// A Type is the semantic type of a field. Every type that is meant to be
// stored must have a mapping in the backend type table of
// dialect/sql/schema; TypeOther has none and requires an explicit
// SchemaType override.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat64
	TypeString
	TypeText
	TypeTime
	TypeUUID
	TypeBytes
	TypeOther
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeText:    "text",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeBytes:   "bytes",
	TypeOther:   "other",
}

// String returns the name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("invalid(%d)", t)
}

// Valid reports if the given type is a declarable field type.
func (t Type) Valid() bool { return t > TypeInvalid && t < endTypes }

// Numeric reports if the type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeInt64 || t == TypeFloat64
}

// A Descriptor for field configuration. Builders accumulate their
// configuration into a Descriptor; invalid configuration is deferred
// into Err and reported when the model registry finalizes.
type Descriptor struct {
	Name       string            // field name, snake_case.
	Type       Type              // semantic type.
	PrimaryKey bool              // field is the model's primary key.
	Auto       bool              // primary key is assigned by the backend.
	Unique     bool              // unique constraint on the column.
	Optional   bool              // nullable column.
	Immutable  bool              // value cannot be updated after insert.
	Default    any               // default value on insert.
	StorageKey string            // column name override.
	SchemaType map[string]string // per-dialect column type override.
	Comment    string            // column comment.
	Err        error             // deferred configuration error.
}

// validNameRe restricts field names to snake_case identifiers.
var validNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func newDescriptor(name string, t Type) *Descriptor {
	d := &Descriptor{Name: name, Type: t}
	if !validNameRe.MatchString(name) {
		d.Err = fmt.Errorf("field name %q must be a snake_case identifier", name)
	}
	return d
}

// Column returns the column name the field is stored under.
func (d *Descriptor) Column() string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

// String returns a new builder for a short string field.
func String(name string) *stringBuilder {
	return &stringBuilder{desc: newDescriptor(name, TypeString)}
}

// Text returns a new builder for an unbounded text field.
func Text(name string) *stringBuilder {
	return &stringBuilder{desc: newDescriptor(name, TypeText)}
}

// Int returns a new builder for an integer field.
func Int(name string) *intBuilder {
	return &intBuilder{desc: newDescriptor(name, TypeInt)}
}

// Int64 returns a new builder for an int64 field.
func Int64(name string) *intBuilder {
	return &intBuilder{desc: newDescriptor(name, TypeInt64)}
}

// Float returns a new builder for a float64 field.
func Float(name string) *floatBuilder {
	return &floatBuilder{desc: newDescriptor(name, TypeFloat64)}
}

// Bool returns a new builder for a boolean field.
func Bool(name string) *boolBuilder {
	return &boolBuilder{desc: newDescriptor(name, TypeBool)}
}

// Time returns a new builder for a timestamp field. Timestamps are
// stored in the backend's text format (UTC, RFC 3339).
func Time(name string) *timeBuilder {
	return &timeBuilder{desc: newDescriptor(name, TypeTime)}
}

// UUID returns a new builder for a UUID field, stored as text.
func UUID(name string) *uuidBuilder {
	return &uuidBuilder{desc: newDescriptor(name, TypeUUID)}
}

// Bytes returns a new builder for a binary field.
func Bytes(name string) *bytesBuilder {
	return &bytesBuilder{desc: newDescriptor(name, TypeBytes)}
}

// Other returns a new builder for a field with no built-in backend
// mapping. A SchemaType override is required; schema generation fails
// with an unsupported-type error otherwise.
func Other(name string) *otherBuilder {
	return &otherBuilder{desc: newDescriptor(name, TypeOther)}
}

// stringBuilder builds string and text fields.
type stringBuilder struct {
	desc *Descriptor
}

// PrimaryKey marks the field as the model's primary key.
func (b *stringBuilder) PrimaryKey() *stringBuilder {
	b.desc.PrimaryKey = true
	return b
}

// Unique adds a unique constraint on the column.
func (b *stringBuilder) Unique() *stringBuilder {
	b.desc.Unique = true
	return b
}

// Optional makes the column nullable.
func (b *stringBuilder) Optional() *stringBuilder {
	b.desc.Optional = true
	return b
}

// Immutable marks the field as immutable after insert.
func (b *stringBuilder) Immutable() *stringBuilder {
	b.desc.Immutable = true
	return b
}

// Default sets the default value of the field on insert.
func (b *stringBuilder) Default(v string) *stringBuilder {
	b.desc.Default = v
	return b
}

// StorageKey overrides the column name.
func (b *stringBuilder) StorageKey(key string) *stringBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *stringBuilder) SchemaType(types map[string]string) *stringBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *stringBuilder) Comment(c string) *stringBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *stringBuilder) Descriptor() *Descriptor { return b.desc }

// intBuilder builds int and int64 fields.
type intBuilder struct {
	desc *Descriptor
}

// PrimaryKey marks the field as the model's primary key.
func (b *intBuilder) PrimaryKey() *intBuilder {
	b.desc.PrimaryKey = true
	return b
}

// Auto marks the primary key as assigned by the backend on insert.
// The assigned value is written back into the instance.
func (b *intBuilder) Auto() *intBuilder {
	if !b.desc.PrimaryKey {
		b.desc.Err = fmt.Errorf("field %q: Auto requires PrimaryKey", b.desc.Name)
		return b
	}
	b.desc.Auto = true
	return b
}

// Unique adds a unique constraint on the column.
func (b *intBuilder) Unique() *intBuilder {
	b.desc.Unique = true
	return b
}

// Optional makes the column nullable.
func (b *intBuilder) Optional() *intBuilder {
	b.desc.Optional = true
	return b
}

// Immutable marks the field as immutable after insert.
func (b *intBuilder) Immutable() *intBuilder {
	b.desc.Immutable = true
	return b
}

// Default sets the default value of the field on insert.
func (b *intBuilder) Default(v int64) *intBuilder {
	b.desc.Default = v
	return b
}

// StorageKey overrides the column name.
func (b *intBuilder) StorageKey(key string) *intBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *intBuilder) SchemaType(types map[string]string) *intBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *intBuilder) Comment(c string) *intBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *intBuilder) Descriptor() *Descriptor { return b.desc }

// floatBuilder builds float64 fields.
type floatBuilder struct {
	desc *Descriptor
}

// Unique adds a unique constraint on the column.
func (b *floatBuilder) Unique() *floatBuilder {
	b.desc.Unique = true
	return b
}

// Optional makes the column nullable.
func (b *floatBuilder) Optional() *floatBuilder {
	b.desc.Optional = true
	return b
}

// Immutable marks the field as immutable after insert.
func (b *floatBuilder) Immutable() *floatBuilder {
	b.desc.Immutable = true
	return b
}

// Default sets the default value of the field on insert.
func (b *floatBuilder) Default(v float64) *floatBuilder {
	b.desc.Default = v
	return b
}

// StorageKey overrides the column name.
func (b *floatBuilder) StorageKey(key string) *floatBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *floatBuilder) SchemaType(types map[string]string) *floatBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *floatBuilder) Comment(c string) *floatBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *floatBuilder) Descriptor() *Descriptor { return b.desc }

// boolBuilder builds boolean fields.
type boolBuilder struct {
	desc *Descriptor
}

// Optional makes the column nullable.
func (b *boolBuilder) Optional() *boolBuilder {
	b.desc.Optional = true
	return b
}

// Immutable marks the field as immutable after insert.
func (b *boolBuilder) Immutable() *boolBuilder {
	b.desc.Immutable = true
	return b
}

// Default sets the default value of the field on insert.
func (b *boolBuilder) Default(v bool) *boolBuilder {
	b.desc.Default = v
	return b
}

// StorageKey overrides the column name.
func (b *boolBuilder) StorageKey(key string) *boolBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *boolBuilder) SchemaType(types map[string]string) *boolBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *boolBuilder) Comment(c string) *boolBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *boolBuilder) Descriptor() *Descriptor { return b.desc }

// timeBuilder builds timestamp fields.
type timeBuilder struct {
	desc *Descriptor
}

// Unique adds a unique constraint on the column.
func (b *timeBuilder) Unique() *timeBuilder {
	b.desc.Unique = true
	return b
}

// Optional makes the column nullable.
func (b *timeBuilder) Optional() *timeBuilder {
	b.desc.Optional = true
	return b
}

// Immutable marks the field as immutable after insert.
func (b *timeBuilder) Immutable() *timeBuilder {
	b.desc.Immutable = true
	return b
}

// StorageKey overrides the column name.
func (b *timeBuilder) StorageKey(key string) *timeBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *timeBuilder) SchemaType(types map[string]string) *timeBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *timeBuilder) Comment(c string) *timeBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *timeBuilder) Descriptor() *Descriptor { return b.desc }

// uuidBuilder builds UUID fields.
type uuidBuilder struct {
	desc *Descriptor
}

// PrimaryKey marks the field as the model's primary key.
func (b *uuidBuilder) PrimaryKey() *uuidBuilder {
	b.desc.PrimaryKey = true
	return b
}

// Unique adds a unique constraint on the column.
func (b *uuidBuilder) Unique() *uuidBuilder {
	b.desc.Unique = true
	return b
}

// Optional makes the column nullable.
func (b *uuidBuilder) Optional() *uuidBuilder {
	b.desc.Optional = true
	return b
}

// Immutable marks the field as immutable after insert.
func (b *uuidBuilder) Immutable() *uuidBuilder {
	b.desc.Immutable = true
	return b
}

// Default sets a function that generates the field value on insert,
// e.g. uuid.New.
func (b *uuidBuilder) Default(fn any) *uuidBuilder {
	b.desc.Default = fn
	return b
}

// StorageKey overrides the column name.
func (b *uuidBuilder) StorageKey(key string) *uuidBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *uuidBuilder) SchemaType(types map[string]string) *uuidBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *uuidBuilder) Comment(c string) *uuidBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *uuidBuilder) Descriptor() *Descriptor { return b.desc }

// bytesBuilder builds binary fields.
type bytesBuilder struct {
	desc *Descriptor
}

// Optional makes the column nullable.
func (b *bytesBuilder) Optional() *bytesBuilder {
	b.desc.Optional = true
	return b
}

// Immutable marks the field as immutable after insert.
func (b *bytesBuilder) Immutable() *bytesBuilder {
	b.desc.Immutable = true
	return b
}

// StorageKey overrides the column name.
func (b *bytesBuilder) StorageKey(key string) *bytesBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *bytesBuilder) SchemaType(types map[string]string) *bytesBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *bytesBuilder) Comment(c string) *bytesBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *bytesBuilder) Descriptor() *Descriptor { return b.desc }

// otherBuilder builds fields with no built-in backend mapping.
type otherBuilder struct {
	desc *Descriptor
}

// Optional makes the column nullable.
func (b *otherBuilder) Optional() *otherBuilder {
	b.desc.Optional = true
	return b
}

// StorageKey overrides the column name.
func (b *otherBuilder) StorageKey(key string) *otherBuilder {
	b.desc.StorageKey = key
	return b
}

// SchemaType sets the column type per dialect. Required for Other
// fields before schema generation.
func (b *otherBuilder) SchemaType(types map[string]string) *otherBuilder {
	b.desc.SchemaType = types
	return b
}

// Comment sets the column comment.
func (b *otherBuilder) Comment(c string) *otherBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the loam.Field interface.
func (b *otherBuilder) Descriptor() *Descriptor { return b.desc }
