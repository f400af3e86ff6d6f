package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/types"
)

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteOK(w, map[string]any{"success": true})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestWriteErrorExposesBusinessMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientPoints, "Insufficient points").
		WithDetails(map[string]any{"requested": 500, "available": 120})
	WriteError(context.Background(), logger.Nop(), w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body types.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "Insufficient points", body.Error)
	require.Equal(t, string(pkgerrors.CodeInsufficientPoints), body.Code)
	require.NotNil(t, body.Details)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "internal server error", body["error"])
	require.Equal(t, string(pkgerrors.CodeInternal), body["code"])
	require.NotContains(t, body, "details")
}

func TestWriteErrorAbortedUsesPublicMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeTransactionAborted, errors.New("deadlock"), "order placement failed")
	WriteError(context.Background(), nil, w, err)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), `"transaction aborted"`)
	require.NotContains(t, w.Body.String(), "deadlock")
}

func TestWriteErrorLogsDump(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	w := httptest.NewRecorder()
	WriteError(context.Background(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "check idempotency"))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, buf.String(), `"error_code":"DEPENDENCY_ERROR"`)
	require.Contains(t, buf.String(), "request.error")
}
