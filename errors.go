package loam

import (
	"context"
	"errors"
	"fmt"
)

// Standard sentinel errors.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("loam: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one
	// result returns multiple results.
	ErrNotSingular = errors.New("loam: entity not singular")

	// ErrSessionBusy is returned by a non-blocking session when a
	// statement is already in flight.
	ErrSessionBusy = errors.New("loam: session busy")

	// ErrGraphFinalized is returned when registering a model after the
	// registry has been finalized.
	ErrGraphFinalized = errors.New("loam: registry already finalized")
)

// DuplicateModelError is returned when a model with an already
// registered name is registered again.
type DuplicateModelError struct {
	Name string
}

// Error returns the error string.
func (e *DuplicateModelError) Error() string {
	return fmt.Sprintf("loam: model %q already registered", e.Name)
}

// NewDuplicateModelError returns a new DuplicateModelError.
func NewDuplicateModelError(name string) *DuplicateModelError {
	return &DuplicateModelError{Name: name}
}

// IsDuplicateModel returns true if the error is a DuplicateModelError.
func IsDuplicateModel(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateModelError
	return errors.As(err, &e)
}

// UnresolvedReferenceError is returned at finalization when an edge
// targets a model name that was never registered.
type UnresolvedReferenceError struct {
	Model  string // declaring model.
	Edge   string // edge name.
	Target string // unresolved target model name.
}

// Error returns the error string.
func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("loam: %s.%s references unregistered model %q", e.Model, e.Edge, e.Target)
}

// NewUnresolvedReferenceError returns a new UnresolvedReferenceError.
func NewUnresolvedReferenceError(model, edge, target string) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{Model: model, Edge: edge, Target: target}
}

// IsUnresolvedReference returns true if the error is an UnresolvedReferenceError.
func IsUnresolvedReference(err error) bool {
	if err == nil {
		return false
	}
	var e *UnresolvedReferenceError
	return errors.As(err, &e)
}

// MissingPrimaryKeyError is returned at finalization when a model
// declares no primary-key field.
type MissingPrimaryKeyError struct {
	Model string
}

// Error returns the error string.
func (e *MissingPrimaryKeyError) Error() string {
	return fmt.Sprintf("loam: model %q has no primary key", e.Model)
}

// NewMissingPrimaryKeyError returns a new MissingPrimaryKeyError.
func NewMissingPrimaryKeyError(model string) *MissingPrimaryKeyError {
	return &MissingPrimaryKeyError{Model: model}
}

// IsMissingPrimaryKey returns true if the error is a MissingPrimaryKeyError.
func IsMissingPrimaryKey(err error) bool {
	if err == nil {
		return false
	}
	var e *MissingPrimaryKeyError
	return errors.As(err, &e)
}

// DanglingRelationshipError is returned at finalization when a to-many
// edge has no matching to-one edge on the referenced model.
type DanglingRelationshipError struct {
	Model string // declaring model.
	Edge  string // to-many edge name.
	Ref   string // expected to-one edge on the target.
}

// Error returns the error string.
func (e *DanglingRelationshipError) Error() string {
	return fmt.Sprintf("loam: %s.%s has no matching to-one edge %q on its target", e.Model, e.Edge, e.Ref)
}

// NewDanglingRelationshipError returns a new DanglingRelationshipError.
func NewDanglingRelationshipError(model, edge, ref string) *DanglingRelationshipError {
	return &DanglingRelationshipError{Model: model, Edge: edge, Ref: ref}
}

// IsDanglingRelationship returns true if the error is a DanglingRelationshipError.
func IsDanglingRelationship(err error) bool {
	if err == nil {
		return false
	}
	var e *DanglingRelationshipError
	return errors.As(err, &e)
}

// InvalidSchemaError is returned at finalization for model shape
// defects not covered by a more specific error: duplicate field names,
// multiple primary keys, builder errors, or declarations the
// instance struct cannot back.
type InvalidSchemaError struct {
	Model  string
	Reason string
	Err    error // optional underlying builder error.
}

// Error returns the error string.
func (e *InvalidSchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loam: model %q: %s: %v", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("loam: model %q: %s", e.Model, e.Reason)
}

// Unwrap returns the underlying error.
func (e *InvalidSchemaError) Unwrap() error { return e.Err }

// NewInvalidSchemaError returns a new InvalidSchemaError.
func NewInvalidSchemaError(model, reason string, err error) *InvalidSchemaError {
	return &InvalidSchemaError{Model: model, Reason: reason, Err: err}
}

// IsInvalidSchema returns true if the error is an InvalidSchemaError.
func IsInvalidSchema(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidSchemaError
	return errors.As(err, &e)
}

// TransientReferenceError is returned when mapping an instance whose
// to-one edge references an object that has no primary key yet, i.e.
// has not been inserted.
type TransientReferenceError struct {
	Model string
	Edge  string
}

// Error returns the error string.
func (e *TransientReferenceError) Error() string {
	return fmt.Sprintf("loam: %s.%s references an object that has not been inserted", e.Model, e.Edge)
}

// NewTransientReferenceError returns a new TransientReferenceError.
func NewTransientReferenceError(model, edge string) *TransientReferenceError {
	return &TransientReferenceError{Model: model, Edge: edge}
}

// IsTransientReference returns true if the error is a TransientReferenceError.
func IsTransientReference(err error) bool {
	if err == nil {
		return false
	}
	var e *TransientReferenceError
	return errors.As(err, &e)
}

// RequiredEdgeError is returned when inserting an instance whose
// required to-one edge holds no reference.
type RequiredEdgeError struct {
	Model string
	Edge  string
}

// Error returns the error string.
func (e *RequiredEdgeError) Error() string {
	return fmt.Sprintf("loam: %s.%s is required but holds no reference", e.Model, e.Edge)
}

// NewRequiredEdgeError returns a new RequiredEdgeError.
func NewRequiredEdgeError(model, edge string) *RequiredEdgeError {
	return &RequiredEdgeError{Model: model, Edge: edge}
}

// IsRequiredEdge returns true if the error is a RequiredEdgeError.
func IsRequiredEdge(err error) bool {
	if err == nil {
		return false
	}
	var e *RequiredEdgeError
	return errors.As(err, &e)
}

// InvalidLimitError is returned when a query declares a negative row
// cap. It is surfaced at compile time, before any statement reaches
// the backend.
type InvalidLimitError struct {
	Limit int
}

// Error returns the error string.
func (e *InvalidLimitError) Error() string {
	return fmt.Sprintf("loam: invalid limit %d", e.Limit)
}

// NewInvalidLimitError returns a new InvalidLimitError.
func NewInvalidLimitError(limit int) *InvalidLimitError {
	return &InvalidLimitError{Limit: limit}
}

// IsInvalidLimit returns true if the error is an InvalidLimitError.
func IsInvalidLimit(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidLimitError
	return errors.As(err, &e)
}

// UnknownFieldError is returned when a predicate or ordering clause
// names a field the target model does not declare. It is surfaced at
// compile time.
type UnknownFieldError struct {
	Model string
	Name  string
}

// Error returns the error string.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("loam: model %q has no field %q", e.Model, e.Name)
}

// NewUnknownFieldError returns a new UnknownFieldError.
func NewUnknownFieldError(model, name string) *UnknownFieldError {
	return &UnknownFieldError{Model: model, Name: name}
}

// IsUnknownField returns true if the error is an UnknownFieldError.
func IsUnknownField(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownFieldError
	return errors.As(err, &e)
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("loam: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("loam: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError, bridging
// errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string { return e.label }

// ID returns the key that was searched for, if available.
func (e *NotFoundError) ID() any { return e.id }

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular
// result but receives more than one.
type NotSingularError struct {
	label string
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	return fmt.Sprintf("loam: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity label.
func (e *NotSingularError) Label() string { return e.label }

// NewNotSingularError returns a new NotSingularError for the given entity type.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// TableAlreadyExistsError is returned by CreateTable when the backend
// reports that the table exists. The conflict is surfaced, never
// silently ignored.
type TableAlreadyExistsError struct {
	Table string
	Err   error
}

// Error returns the error string.
func (e *TableAlreadyExistsError) Error() string {
	return fmt.Sprintf("loam: table %q already exists: %v", e.Table, e.Err)
}

// Unwrap returns the backend error.
func (e *TableAlreadyExistsError) Unwrap() error { return e.Err }

// NewTableAlreadyExistsError returns a new TableAlreadyExistsError.
func NewTableAlreadyExistsError(table string, err error) *TableAlreadyExistsError {
	return &TableAlreadyExistsError{Table: table, Err: err}
}

// IsTableAlreadyExists returns true if the error is a TableAlreadyExistsError.
func IsTableAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var e *TableAlreadyExistsError
	return errors.As(err, &e)
}

// BackendError wraps an error passed through from the backend driver:
// constraint violations, connectivity failures, malformed statements
// the engine did not catch. The original driver error is preserved.
type BackendError struct {
	Op  string // operation that failed, e.g. "insert".
	Err error
}

// Error returns the error string.
func (e *BackendError) Error() string {
	return fmt.Sprintf("loam: %s: backend: %v", e.Op, e.Err)
}

// Unwrap returns the driver error.
func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError returns a new BackendError.
func NewBackendError(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}

// IsBackend returns true if the error is a BackendError.
func IsBackend(err error) bool {
	if err == nil {
		return false
	}
	var e *BackendError
	return errors.As(err, &e)
}

// TimeoutError is returned when a statement exceeds its caller-set
// round-trip ceiling. Backend state after an aborted statement is
// whatever the backend guarantees for aborted statements.
type TimeoutError struct {
	Op  string
	Err error
}

// Error returns the error string.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("loam: %s: timeout: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error { return e.Err }

// Is reports whether the target matches a context deadline error.
func (e *TimeoutError) Is(err error) bool {
	return err == context.DeadlineExceeded
}

// NewTimeoutError returns a new TimeoutError.
func NewTimeoutError(op string, err error) *TimeoutError {
	return &TimeoutError{Op: op, Err: err}
}

// IsTimeout returns true if the error is a TimeoutError.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var e *TimeoutError
	return errors.As(err, &e)
}

// IsSessionBusy returns true if the error is ErrSessionBusy.
func IsSessionBusy(err error) bool {
	return errors.Is(err, ErrSessionBusy)
}
