// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, cookie names, header names, and cross-cutting keys
that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Sessions: Cookie names, token sizes and store prefixes.
  - Delegated Login: Flow cookie lifetime and signing issuer.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "secrets"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// StartupTimeout bounds every dependency dial performed in cmd/api.
	StartupTimeout = 30 * time.Second
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderContentType   = "Content-Type"
	HeaderLocation      = "Location"
)

// # Sessions

const (
	// SessionCookieName carries the opaque session token.
	SessionCookieName = "session"

	// SessionTokenBytes is the entropy of a session token (256 bits).
	SessionTokenBytes = 32

	// DefaultSessionTTL is used when SESSION_TTL is not configured.
	DefaultSessionTTL = 24 * time.Hour
)

// # Delegated Login

const (
	// FlowCookieName carries the signed state and PKCE verifier between
	// the redirect to the provider and its callback.
	FlowCookieName = "__oauth_flow"

	// FlowTTL is how long a user has to complete the provider round trip.
	FlowTTL = 5 * time.Minute

	// FlowIssuer is the 'iss' claim of signed flow cookies.
	FlowIssuer = "secrets.app"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
	FieldView    = "view"
)

// # Log Attribute Keys

const (
	FieldIdentityID = "identity_id"
	FieldProvider   = "provider"
	FieldReason     = "reason"
	FieldRequestID  = "request_id"
)

// # Database Schemas

const (
	SchemaUsers = "users"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession = "auth:session:"
)
