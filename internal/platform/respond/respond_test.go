// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secrets/internal/platform/apperr"
	"github.com/taibuivan/secrets/internal/platform/respond"
)

/*
TestError_AppError verifies an AppError keeps its status, code and details.
*/
func TestError_AppError(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/register", nil)

	respond.Error(recorder, request, apperr.ValidationError("Validation failed", apperr.FieldError{Field: "email", Message: "bad"}))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var body respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "email", body.Details[0].Field)
}

/*
TestError_PlainError verifies unknown errors become a generic 500 without leaking the cause.
*/
func TestError_PlainError(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(recorder, request, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "pq:")
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
}

/*
TestJSONRenderer writes the view name and payload.
*/
func TestJSONRenderer(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.JSONRenderer{}.Render(recorder, httptest.NewRequest(http.MethodGet, "/login", nil), http.StatusOK, "login", map[string]string{"error": "x"})

	var view struct {
		Name string            `json:"view"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &view))
	assert.Equal(t, "login", view.Name)
	assert.Equal(t, "x", view.Data["error"])
}

/*
TestRedirect issues a 302 to the target.
*/
func TestRedirect(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Redirect(recorder, httptest.NewRequest(http.MethodGet, "/secrets", nil), "/login")

	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/login", recorder.Header().Get("Location"))
}
