package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := New("TEST", "something failed", http.StatusBadRequest)
	require.Equal(t, "something failed", err.Error())

	withInternal := err.WithInternal(errors.New("db down"))
	require.Equal(t, "something failed: db down", withInternal.Error())
	require.ErrorIs(t, withInternal, withInternal.Internal)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := New("TEST", "boom", http.StatusConflict)
	require.Equal(t, appErr, FromError(appErr))

	wrapped := fmt.Errorf("context: %w", appErr)
	require.Equal(t, appErr, FromError(wrapped))

	plain := FromError(errors.New("plain"))
	require.Equal(t, ErrInternalServer.Code, plain.Code)
	require.Equal(t, http.StatusInternalServerError, plain.StatusCode)
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("Validation failed", map[string]string{"email": "taken"})
	require.Equal(t, "VALIDATION_ERROR", err.Code)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
	require.Equal(t, "taken", err.Fields["email"])
}

func TestWrap(t *testing.T) {
	cause := errors.New("io failure")
	err := Wrap(cause, "saving record")
	require.Equal(t, http.StatusInternalServerError, err.StatusCode)
	require.ErrorIs(t, err, cause)
}
