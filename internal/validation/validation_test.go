package validation

import (
	"errors"
	"testing"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string  `json:"name" validate:"required,max=10"`
	Latitude float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Ignored  string  `json:"-"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(New(), sample{Latitude: 120})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	var vErr *Errors
	require.True(t, errors.As(err, &vErr))
	require.Len(t, vErr.Fields, 2)
	assert.Equal(t, FieldError{Field: "name", Code: "required", Message: "is required"}, vErr.Fields[0])
	assert.Equal(t, "latitude", vErr.Fields[1].Field)
	assert.Equal(t, "must be at most 90", vErr.Fields[1].Message)
}

func TestStructPasses(t *testing.T) {
	assert.NoError(t, Struct(nil, sample{Name: "tulsi", Latitude: 12.9}))
}

func TestFieldError(t *testing.T) {
	err := Field("latitude", "immutable", "cannot change")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "validation error: latitude:immutable", err.Error())
}
