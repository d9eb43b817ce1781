package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewInternalError(cause)

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("deck", 3).Status)
	assert.Equal(t, "deck not found: 3", NewNotFoundError("deck", 3).Message)
	assert.Equal(t, http.StatusConflict, NewConflictError("session finished", nil).Status)
	assert.Equal(t, http.StatusServiceUnavailable, NewUnavailableError("parser off", nil).Status)
	assert.Equal(t, http.StatusTooManyRequests, NewRateLimitedError("slow down").Status)
	assert.Equal(t, ErrCodeValidation, NewValidationError("rating", "must be 1-5").Code)
}

func TestAs(t *testing.T) {
	assert.Nil(t, As(nil))

	nf := NewNotFoundError("card", 9)
	assert.Same(t, nf, As(fmt.Errorf("load: %w", nf)))

	plain := As(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
}
