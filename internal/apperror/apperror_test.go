package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorsMatchTheirKind(t *testing.T) {
	errBatchNotFound := NotFound("batch_not_found")
	wrapped := fmt.Errorf("load batch: %w", errBatchNotFound)

	assert.True(t, errors.Is(wrapped, errBatchNotFound))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, NotFound("species_not_found")))

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
	assert.Equal(t, "batch_not_found", CodeOf(wrapped))
}

func TestStorageWrapsUncodedErrors(t *testing.T) {
	assert.Nil(t, Storage(nil))

	err := Storage(errors.New("connection refused"))
	assert.True(t, errors.Is(err, ErrStorage))
	assert.Equal(t, "storage_unavailable", CodeOf(err))

	coded := Conflict("duplicate_phone")
	assert.Same(t, coded, Storage(coded))
}

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	errInvalidLatitude := Validation("invalid_latitude")
	err := Wrap(errInvalidLatitude, errors.New("latitude 91 out of range"))

	assert.True(t, errors.Is(err, errInvalidLatitude))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "latitude 91 out of range")
}

func TestRecallCascadeErrorIsDistinctFromNotFound(t *testing.T) {
	err := error(&RecallCascadeError{BatchID: 42, Stage: "products", Err: errors.New("timeout")})

	assert.False(t, errors.Is(err, ErrNotFound))
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindRecallCascade, kind)
	assert.Equal(t, "recall_cascade_incomplete", CodeOf(err))

	var cascade *RecallCascadeError
	assert.True(t, errors.As(err, &cascade))
	assert.Equal(t, "products", cascade.Stage)
	assert.Same(t, cascade, Storage(err))
}
