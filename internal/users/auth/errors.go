// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "errors"

// # Error Taxonomy

var (
	// ErrInvalidCredentials covers a wrong password and a login attempt on an
	// identity that has no local password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUserNotFound means no identity exists for the submitted email.
	// Never shown to the user as distinct from ErrInvalidCredentials.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrDuplicateRegistration means the email is already registered.
	ErrDuplicateRegistration = errors.New("auth: email already registered")

	// ErrStoreUnavailable means the credential store could not be reached.
	ErrStoreUnavailable = errors.New("auth: credential store unavailable")

	// ErrHasherFailure means a digest could not be produced or checked.
	ErrHasherFailure = errors.New("auth: password hasher failure")

	// ErrProviderAssertionInvalid means an identity provider returned a
	// profile the service cannot use, such as one without an email.
	ErrProviderAssertionInvalid = errors.New("auth: provider assertion invalid")
)

// IsRecoverable reports whether err should simply re-prompt the user.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrDuplicateRegistration)
}
