// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and the form
and cookie handling used by the browser flows.
*/
package requestutil

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/secrets/internal/platform/validate"
)

// maxFormBytes caps urlencoded bodies. Credentials and secrets are small.
const maxFormBytes = 64 << 10

/*
ParseForm reads an application/x-www-form-urlencoded body with a size cap.

Parameters:
  - writer: http.ResponseWriter (needed by http.MaxBytesReader)
  - request: *http.Request

Returns:
  - error: validate.ErrInvalidForm if the body cannot be parsed, otherwise nil
*/
func ParseForm(writer http.ResponseWriter, request *http.Request) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxFormBytes)
	if err := request.ParseForm(); err != nil {
		return validate.ErrInvalidForm
	}
	return nil
}

/*
FormValue returns the first non-empty value among the given POST field names.

The login form historically posts the email as "username"; callers list the
accepted aliases in order of preference.
*/
func FormValue(request *http.Request, names ...string) string {
	for _, name := range names {
		if value := request.PostForm.Get(name); value != "" {
			return value
		}
	}
	return ""
}

/*
TrimmedFormValue is [FormValue] with surrounding whitespace removed.
Never use it for passwords.
*/
func TrimmedFormValue(request *http.Request, names ...string) string {
	return strings.TrimSpace(FormValue(request, names...))
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
CookieValue returns the value of the named cookie, or "" when absent.
*/
func CookieValue(request *http.Request, name string) string {
	cookie, err := request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
