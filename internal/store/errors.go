package store

import (
	"errors"
	"net/http"
)

// Error types reported by the store
const (
	TypeNotFound   = "data.notfound"
	TypeValidation = "data.validation.input"
	TypeConflict   = "data.conflict"
	TypeForbidden  = "data.authorization.user"
	TypeInternal   = "data.internal"
	TypeTransport  = "data.transport"
)

// Error is a store-reported failure. Its message is surfaced verbatim.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a store error
func NewError(status int, errorType, message string) *Error {
	return &Error{Status: status, Type: errorType, Message: message}
}

// NotFound builds a 404 store error
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, TypeNotFound, message)
}

// BadRequest builds a 400 store error
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, TypeValidation, message)
}

// Conflict builds a 409 store error
func Conflict(message string) *Error {
	return NewError(http.StatusConflict, TypeConflict, message)
}

// Forbidden builds a 403 store error
func Forbidden(message string) *Error {
	return NewError(http.StatusForbidden, TypeForbidden, message)
}

// StatusOf returns the HTTP status carried by err, or 500
func StatusOf(err error) int {
	var se *Error
	if errors.As(err, &se) && se.Status != 0 {
		return se.Status
	}
	return http.StatusInternalServerError
}

// TypeOf returns the error type carried by err
func TypeOf(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Type != "" {
		return se.Type
	}
	return TypeInternal
}
