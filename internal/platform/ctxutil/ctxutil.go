// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/secrets/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Identity Annotation

// IdentityRef is a mutable slot the request logger installs so that a
// handler deeper in the chain can report which identity it served.
type IdentityRef struct {
	ID string
}

// WithIdentityRef returns a new context carrying an empty [IdentityRef].
func WithIdentityRef(ctx context.Context) (context.Context, *IdentityRef) {
	ref := &IdentityRef{}
	return context.WithValue(ctx, ctxkey.KeyIdentityID, ref), ref
}

// SetIdentityID records the served identity on the request's [IdentityRef], if any.
func SetIdentityID(ctx context.Context, id string) {
	if ref, ok := ctx.Value(ctxkey.KeyIdentityID).(*IdentityRef); ok && ref != nil {
		ref.ID = id
	}
}
