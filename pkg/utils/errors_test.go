package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewError(CodeNotFound, "order not found")
	assert.Contains(t, err.Error(), "40400")
	assert.Contains(t, err.Error(), "order not found")

	wrapped := WrapError(errors.New("db down"), CodeInternalError, "query failed")
	assert.Contains(t, wrapped.Error(), "db down")
	assert.Equal(t, "db down", wrapped.Unwrap().Error())
}

func TestValidationCollector(t *testing.T) {
	var v ValidationCollector
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Err())

	v.Addf("field %s is required", "name")
	v.Addf("quantity must be positive")

	require.True(t, v.HasErrors())
	err := v.Err()
	require.Error(t, err)

	appErr, ok := IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidationFailed, appErr.Code)
	assert.Equal(t, []string{"field name is required", "quantity must be positive"}, appErr.Details)
	assert.Contains(t, err.Error(), "field name is required")
}

func TestIsAppError_Wrapped(t *testing.T) {
	inner := ErrStockConflict
	outer := fmt.Errorf("checkout failed: %w", inner)

	appErr, ok := IsAppError(outer)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, appErr.Code)
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, GetErrorCode(ErrOrderNotFound))
	assert.Equal(t, CodeInternalError, GetErrorCode(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
	}{
		{ErrStockConflict, true},
		{ErrDuplicateOrderNo, true},
		{ErrRatingExists, true},
		{ErrOrderNotFound, false},
		{ErrIllegalTransition, false},
		{ErrForbidden, false},
		{errors.New("plain"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.retryable, IsRetryable(tt.err), "error %v", tt.err)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code   ResponseCode
		status int
	}{
		{CodeSuccess, http.StatusOK},
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeIllegalTransition, http.StatusUnprocessableEntity},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.code.HTTPStatus(), "code %d", tt.code)
	}
}
