package jsonapi

import (
	"fmt"
	"strconv"
)

// ErrorBuilder provides a fluent API for building Error objects.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new ErrorBuilder with the given status, code, and title.
func NewError(status int, code, title string) *ErrorBuilder {
	return &ErrorBuilder{
		err: Error{
			Status: strconv.Itoa(status),
			Code:   code,
			Title:  title,
		},
	}
}

// Detail sets the error detail message.
func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

// Detailf sets the error detail message with formatting.
func (b *ErrorBuilder) Detailf(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// ID sets the error ID.
func (b *ErrorBuilder) ID(id string) *ErrorBuilder {
	b.err.ID = id
	return b
}

// Pointer sets the JSON pointer to the source of the error.
func (b *ErrorBuilder) Pointer(pointer string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Pointer = pointer
	return b
}

// Parameter sets the query parameter that caused the error.
func (b *ErrorBuilder) Parameter(param string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Parameter = param
	return b
}

// Meta adds metadata to the error.
func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if b.err.Meta == nil {
		b.err.Meta = make(Meta)
	}
	b.err.Meta[key] = value
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() Error {
	return b.err
}

// StatusCode returns the HTTP status code as an int.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// Common error constructors

// ErrBadRequest creates a 400 Bad Request error.
func ErrBadRequest(detail string) Error {
	return NewError(400, "bad_request", "Bad Request").Detail(detail).Build()
}

// ErrNotFound creates a 404 Not Found error.
func ErrNotFound(detail string) Error {
	if detail == "" {
		detail = "The requested resource was not found"
	}
	return NewError(404, "not_found", "Not Found").Detail(detail).Build()
}

// ErrNoOperation creates a 404 error for a request that matches no
// documented operation.
func ErrNoOperation(method, path string) Error {
	return NewError(404, "no_operation", "Not Found").
		Detailf("No operation is documented for %s %s", method, path).
		Build()
}

// ErrMethodNotAllowed creates a 405 Method Not Allowed error.
func ErrMethodNotAllowed(method string) Error {
	return NewError(405, "method_not_allowed", "Method Not Allowed").
		Detailf("The %s method is not allowed for this resource", method).
		Build()
}

// ErrUnknownModule creates a 501 error for an operation whose module has no
// registered implementation.
func ErrUnknownModule(module string) Error {
	return NewError(501, "unknown_module", "Not Implemented").
		Detailf("No module named '%s' is registered", module).
		Build()
}

// ErrUnknownOperation creates a 501 error for a module that does not
// implement the resolved operation.
func ErrUnknownOperation(module, operation string) Error {
	return NewError(501, "unknown_operation", "Not Implemented").
		Detailf("Module '%s' does not implement operation '%s'", module, operation).
		Build()
}

// ErrInternal creates a 500 Internal Server Error.
func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An internal error occurred"
	}
	return NewError(500, "internal_error", "Internal Server Error").Detail(detail).Build()
}

// ErrServiceUnavailable creates a 503 Service Unavailable error.
func ErrServiceUnavailable(detail string) Error {
	if detail == "" {
		detail = "Service temporarily unavailable"
	}
	return NewError(503, "service_unavailable", "Service Unavailable").Detail(detail).Build()
}

// ErrFromError creates a JSON:API Error from a standard Go error.
func ErrFromError(err error) Error {
	if err == nil {
		return ErrInternal("")
	}
	return ErrInternal(err.Error())
}
