package domain

import (
	"errors"
	"testing"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code := NewCode()
		_, dup := seen[code]
		require.False(t, dup, "duplicate code %s", code)
		seen[code] = struct{}{}
	}
}

func TestNormalizeCode(t *testing.T) {
	code := NewCode()

	got, err := NormalizeCode("  " + code + "\n")
	require.NoError(t, err)
	assert.Equal(t, code, got)

	_, err = NormalizeCode("batch-123")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = NormalizeCode("AYU-not-a-ulid")
	assert.True(t, errors.Is(err, ErrInvalidCode))
}
