package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(errors.New("boom"))

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "boom")
}

func TestFromErrorKeepsTyped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrValidation, "batch is required"))

	err := FromError(wrapped)

	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.Equal(t, "batch is required", err.Message)
}

func TestIsComparesCodes(t *testing.T) {
	assert.True(t, Is(Clone(ErrForbidden, "nope"), ErrForbidden))
	assert.False(t, Is(Clone(ErrForbidden, "nope"), ErrNotFound))
	assert.False(t, Is(errors.New("plain"), ErrForbidden))
	assert.False(t, Is(nil, ErrForbidden))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "report not found")

	assert.Equal(t, "report not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestWithDetailsCopies(t *testing.T) {
	err := Clone(ErrValidation, "invalid or missing fields: batch").WithDetails("batch")

	assert.Equal(t, []string{"batch"}, err.Details)
	assert.Empty(t, ErrValidation.Details)

	var nilErr *Error
	assert.Nil(t, nilErr.WithDetails("x"))
}
