package loam_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathanlloyd/loam"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{loam.NewDuplicateModelError("User"), `loam: model "User" already registered`},
		{loam.NewMissingPrimaryKeyError("User"), `loam: model "User" has no primary key`},
		{loam.NewNotFoundError("User", 7), "loam: User not found (id=7)"},
		{loam.NewNotFoundError("User", nil), "loam: User not found"},
		{loam.NewNotSingularError("User"), "loam: User not singular"},
		{loam.NewInvalidLimitError(-1), "loam: invalid limit -1"},
		{loam.NewUnknownFieldError("User", "nickname"), `loam: model "User" has no field "nickname"`},
		{loam.NewTransientReferenceError("Post", "author"), "loam: Post.author references an object that has not been inserted"},
		{loam.NewRequiredEdgeError("Post", "author"), "loam: Post.author is required but holds no reference"},
	}
	for _, tt := range tests {
		assert.EqualError(t, tt.err, tt.want)
	}
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()
	wrap := func(err error) error { return fmt.Errorf("op: %w", err) }

	assert.True(t, loam.IsNotFound(wrap(loam.NewNotFoundError("User", 1))))
	assert.True(t, loam.IsNotSingular(wrap(loam.NewNotSingularError("User"))))
	assert.True(t, loam.IsDuplicateModel(wrap(loam.NewDuplicateModelError("User"))))
	assert.True(t, loam.IsInvalidLimit(wrap(loam.NewInvalidLimitError(-5))))
	assert.True(t, loam.IsBackend(wrap(loam.NewBackendError("exec", errors.New("boom")))))
	assert.True(t, loam.IsTimeout(wrap(loam.NewTimeoutError("query", context.DeadlineExceeded))))
	assert.True(t, loam.IsSessionBusy(wrap(loam.ErrSessionBusy)))

	assert.False(t, loam.IsNotFound(nil))
	assert.False(t, loam.IsNotFound(errors.New("other")))
}

func TestSentinelBridging(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, loam.NewNotFoundError("User", 1), loam.ErrNotFound)
	assert.ErrorIs(t, loam.NewNotSingularError("User"), loam.ErrNotSingular)
	assert.ErrorIs(t, loam.NewTimeoutError("query", context.DeadlineExceeded), context.DeadlineExceeded)

	var nf *loam.NotFoundError
	err := fmt.Errorf("get: %w", loam.NewNotFoundError("User", 3))
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, "User", nf.Label())
	assert.Equal(t, 3, nf.ID())
}

func TestBackendErrorUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("disk full")
	err := loam.NewBackendError("insert", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert")
}
