// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"
	"time"

	"github.com/taibuivan/secrets/internal/platform/constants"
)

// CookieOptions controls how the session cookie is issued.
type CookieOptions struct {
	Name   string
	Path   string
	Secure bool
}

// NewCookieOptions returns the defaults for the session cookie. secure should
// be true everywhere except local development over plain HTTP.
func NewCookieOptions(secure bool) CookieOptions {
	return CookieOptions{Name: constants.SessionCookieName, Path: "/", Secure: secure}
}

func (options CookieOptions) normalize() CookieOptions {
	if options.Name == "" {
		options.Name = constants.SessionCookieName
	}
	if options.Path == "" {
		options.Path = "/"
	}
	return options
}

// SetCookie hands the session token to the client.
func SetCookie(writer http.ResponseWriter, issued Issued, options CookieOptions) {
	options = options.normalize()

	http.SetCookie(writer, &http.Cookie{
		Name:     options.Name,
		Value:    issued.Token,
		Path:     options.Path,
		Expires:  issued.ExpiresAt,
		MaxAge:   int(time.Until(issued.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   options.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie instructs the client to drop the session cookie.
func ClearCookie(writer http.ResponseWriter, options CookieOptions) {
	options = options.normalize()

	http.SetCookie(writer, &http.Cookie{
		Name:     options.Name,
		Value:    "",
		Path:     options.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   options.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the presented session token, or "".
func TokenFromRequest(request *http.Request, options CookieOptions) string {
	cookie, err := request.Cookie(options.normalize().Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
