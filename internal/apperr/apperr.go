// Package apperr is the error taxonomy shared by services and HTTP handlers.
//
// Services wrap domain sentinels with a Kind (stored as the oops code) and a
// machine-readable reason. Handlers translate the Kind into a status code and
// the reason into the "code" field of the error envelope. The wrapped
// sentinel stays reachable through errors.Is.
package apperr

import (
	"errors"
	"net/http"

	"github.com/samber/oops"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

const reasonKey = "reason"

// New tags err with kind and reason. A nil err yields nil.
func New(kind Kind, reason string, err error) error {
	if err == nil {
		return nil
	}
	return oops.Code(string(kind)).With(reasonKey, reason).Wrap(err)
}

func Validation(reason string, err error) error {
	return New(KindValidation, reason, err)
}

func NotFound(reason string, err error) error {
	return New(KindNotFound, reason, err)
}

func Conflict(reason string, err error) error {
	return New(KindConflict, reason, err)
}

func Forbidden(reason string, err error) error {
	return New(KindForbidden, reason, err)
}

// Internal keeps op in the error context for logs; it never reaches clients.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return oops.Code(string(KindInternal)).With(reasonKey, "internal_error", "operation", op).Wrap(err)
}

// KindOf returns the kind attached to err, KindInternal for untagged errors.
func KindOf(err error) Kind {
	o, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}

	code, _ := any(o.Code()).(string)
	if code == "" {
		return KindInternal
	}
	return Kind(code)
}

// ReasonOf returns the reason attached to err, or a generic one per kind.
func ReasonOf(err error) string {
	if o, ok := oops.AsOops(err); ok {
		if r, ok := o.Context()[reasonKey].(string); ok && r != "" {
			return r
		}
	}

	if KindOf(err) == KindInternal {
		return "internal_error"
	}
	return string(KindOf(err))
}

// Status maps a kind to its HTTP status.
func Status(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-facing text for err. Internal errors get a fixed
// message so storage or driver details never leak.
func Message(err error) string {
	if KindOf(err) == KindInternal {
		return "Something went wrong"
	}

	// the innermost error is the domain sentinel
	inner := err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			break
		}
		inner = next
	}
	return inner.Error()
}
