// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidFlow means a delegated login flow envelope was forged, expired or
// belongs to another provider.
var ErrInvalidFlow = errors.New("sec: invalid login flow")

// FlowClaims is the payload kept in the browser between the redirect to an
// identity provider and its callback.
type FlowClaims struct {
	jwt.RegisteredClaims

	// Abbreviated to keep the cookie small.
	Provider string `json:"prv"`
	State    string `json:"sta"`
	Verifier string `json:"pkv"`
}

// FlowSigner signs and verifies [FlowClaims] with HS256.
//
// The PKCE verifier travels inside the envelope, so the cookie must never be
// readable by scripts and the signature must never be skipped.
type FlowSigner struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewFlowSigner creates a signer. ttl bounds how long a user may spend at the provider.
func NewFlowSigner(secret []byte, issuer string, ttl time.Duration) *FlowSigner {
	return &FlowSigner{key: secret, issuer: issuer, ttl: ttl}
}

// Sign returns a compact JWT binding provider, state and PKCE verifier.
func (signer *FlowSigner) Sign(provider, state, verifier string) (string, error) {
	now := time.Now()
	claims := FlowClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(signer.ttl)),
		},
		Provider: provider,
		State:    state,
		Verifier: verifier,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signer.key)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign flow: %w", err)
	}
	return signed, nil
}

// Verify parses envelope and checks it was issued for provider and state.
func (signer *FlowSigner) Verify(envelope, provider, state string) (*FlowClaims, error) {
	claims := &FlowClaims{}
	_, err := jwt.ParseWithClaims(envelope, claims,
		func(*jwt.Token) (interface{}, error) { return signer.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signer.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
	}

	if claims.Provider != provider {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidFlow)
	}

	if state == "" || !EqualTokens(claims.State, state) {
		return nil, fmt.Errorf("%w: state mismatch", ErrInvalidFlow)
	}

	return claims, nil
}
