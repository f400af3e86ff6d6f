package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		expose    bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", expose: true, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required", expose: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", expose: true},
		{code: CodeProductNotFound, status: http.StatusNotFound, publicMsg: "product not found", expose: true, detailsOK: true},
		{code: CodeUserNotFound, status: http.StatusNotFound, publicMsg: "user not found", expose: true},
		{code: CodeInsufficientStock, status: http.StatusBadRequest, publicMsg: "insufficient stock", expose: true, detailsOK: true},
		{code: CodeInsufficientPoints, status: http.StatusBadRequest, publicMsg: "insufficient points", expose: true, detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", expose: true, detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "too many requests", retryable: true, expose: true},
		{code: CodeTransactionAborted, status: http.StatusInternalServerError, publicMsg: "transaction aborted", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			require.Equal(t, tt.status, meta.HTTPStatus)
			require.Equal(t, tt.publicMsg, meta.PublicMessage)
			require.Equal(t, tt.retryable, meta.Retryable)
			require.Equal(t, tt.expose, meta.ExposeMessage)
			require.Equal(t, tt.detailsOK, meta.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing foo", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "foo"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeTransactionAborted, cause, "place order")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeTransactionAborted, wrapped.Code())
	require.Contains(t, wrapped.Error(), "boom")
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeInsufficientStock, "out"))
	got := As(err)
	require.NotNil(t, got)
	require.Equal(t, CodeInsufficientStock, got.Code())
	require.True(t, IsCode(err, CodeInsufficientStock))
	require.False(t, IsCode(err, CodeNotFound))
	require.Nil(t, As(nil))
}

func TestWrapStorageKeepsTypedErrors(t *testing.T) {
	typed := New(CodeProductNotFound, "missing")
	require.Same(t, typed, WrapStorage(CodeTransactionAborted, typed, "x"))

	raw := stdErrors.New("connection reset")
	wrapped := WrapStorage(CodeTransactionAborted, raw, "place order")
	require.True(t, IsCode(wrapped, CodeTransactionAborted))
	require.ErrorIs(t, wrapped, raw)

	require.NoError(t, WrapStorage(CodeTransactionAborted, nil, "x"))
}
