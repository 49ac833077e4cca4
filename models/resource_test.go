package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceStates(t *testing.T) {
	loading := NewLoading[int]()
	assert.True(t, loading.IsLoading())
	assert.False(t, loading.IsSuccess())
	assert.False(t, loading.IsError())

	success := NewSuccess(42)
	assert.True(t, success.IsSuccess())
	assert.False(t, success.IsLoading())
	assert.False(t, success.IsError())
	assert.Equal(t, 42, success.Value())

	failure := NewFailure[int](ErrNotFound, "nothing here")
	assert.True(t, failure.IsError())
	assert.False(t, failure.IsSuccess())
	assert.False(t, failure.IsLoading())
	assert.Equal(t, ErrNotFound, failure.Kind())
	assert.Equal(t, "nothing here", failure.Message())
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "not_found", ErrNotFound.String())
	assert.Equal(t, "validation", ErrValidation.String())
	assert.Equal(t, "conflict", ErrConflict.String())
	assert.Equal(t, "insufficient_stock", ErrInsufficientStock.String())
	assert.Equal(t, "unauthorized", ErrUnauthorized.String())
	assert.Equal(t, "internal", ErrInternal.String())
}
