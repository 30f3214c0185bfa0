// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses. JSON
// envelopes serve the probes and API-style failures, [Redirect] drives the
// browser flows, and [Renderer] decouples page handlers from the template
// engine that eventually draws them.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/secrets/internal/platform/apperr"
	"github.com/taibuivan/secrets/internal/platform/constants"
	"github.com/taibuivan/secrets/internal/platform/ctxutil"
)

// SuccessEnvelope is the JSON envelope for successful single-resource responses.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set(constants.HeaderContentType, "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Redirect sends a 302 Found to target. Every browser flow ends here.
func Redirect(writer http.ResponseWriter, request *http.Request, target string) {
	http.Redirect(writer, request, target, http.StatusFound)
}

// Error converts any Go error into a standardized JSON error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String(constants.FieldRequestID, ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger.ErrorContext(request.Context(), "server_error",
			slog.String("code", appError.Code),
			slog.String(constants.FieldRequestID, ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

// # Page Rendering

// Renderer draws a named page. Implementations decide the markup.
type Renderer interface {
	Render(writer http.ResponseWriter, request *http.Request, status int, view string, data any)
}

// View is the payload written by [JSONRenderer].
type View struct {
	Name string `json:"view"`
	Data any    `json:"data,omitempty"`
}

// JSONRenderer renders pages as JSON documents, which keeps the service
// usable by scripts and tests without a template set.
type JSONRenderer struct{}

// Render implements [Renderer].
func (JSONRenderer) Render(writer http.ResponseWriter, _ *http.Request, status int, view string, data any) {
	JSON(writer, status, View{Name: view, Data: data})
}
