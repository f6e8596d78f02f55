// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apperr defines the application error taxonomy. Services return
// these errors; the API layer maps them to HTTP status codes and the JSON
// error envelope in exactly one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindConflict
	KindRateLimited
	KindExternal
)

// Error is a classified application error. Message is safe to return to
// clients; Err (if set) carries the underlying cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for the error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Validation returns a 400-class error for a single invalid field.
func Validation(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Details: map[string]string{field: message},
	}
}

// ValidationMsg returns a 400-class error without field details.
func ValidationMsg(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound returns a 404-class error for a missing resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Authorization returns a 403-class error.
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// Conflict returns a 409-class error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// RateLimited returns a 429-class error.
func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// External wraps a failure of an outside collaborator (502).
func External(service string, err error) *Error {
	return &Error{Kind: KindExternal, Message: service + " unavailable", Err: err}
}

// Internal wraps an unexpected failure. The cause is logged, never sent
// to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// From converts any error into an *Error, wrapping unknown errors as
// internal so callers always get a classified error.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
