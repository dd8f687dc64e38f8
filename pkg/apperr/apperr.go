// Package apperr defines the error taxonomy shared by the lifecycle core and
// the HTTP layer. Every business failure carries a Kind so callers can decide
// whether to reload, retry, or report without parsing messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	NotFound         Kind = "not_found"
	InvalidOperation Kind = "invalid_operation"
	Conflict         Kind = "conflict"
	ExternalFailure  Kind = "external_failure"
	Validation       Kind = "validation"
	Internal         Kind = "internal"
)

type AppError struct {
	Kind    Kind
	Message string
	Fields  map[string]string // validation field errors (optional)
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NotFoundErr(format string, args ...any) *AppError {
	return &AppError{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidOperationErr(format string, args ...any) *AppError {
	return &AppError{Kind: InvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// ConflictErr signals an optimistic-lock version mismatch or a uniqueness
// race lost to a concurrent writer. Callers reload before deciding to retry.
func ConflictErr(format string, args ...any) *AppError {
	return &AppError{Kind: Conflict, Message: fmt.Sprintf(format, args...)}
}

func ExternalFailureErr(err error, format string, args ...any) *AppError {
	return &AppError{Kind: ExternalFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

func ValidationErr(message string, fields map[string]string) *AppError {
	return &AppError{Kind: Validation, Message: message, Fields: fields}
}

// Wrap tags an unexpected infrastructure error as internal.
func Wrap(err error, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, Message: fmt.Sprintf(format, args...), Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns Internal for errors that carry no kind.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case InvalidOperation, Conflict:
		return http.StatusConflict
	case ExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal error details from API consumers.
func PublicMessage(err error) string {
	ae, ok := As(err)
	if !ok || ae.Kind == Internal {
		return "Internal server error"
	}
	return ae.Message
}
