package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, "forbidden", errors.New(msg))
}

func NotFound(code, msg string) *Error {
	return New(http.StatusNotFound, code, errors.New(msg))
}

func Conflict(code, msg string) *Error {
	return New(http.StatusConflict, code, errors.New(msg))
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// FromAggregate converts aggregate error codes into HTTP-facing errors.
// Errors already carrying an *Error pass through unchanged.
func FromAggregate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if errors.Is(err, domainagg.ErrForbidden) {
		return New(http.StatusForbidden, "forbidden", errors.New(domainagg.MessageOf(err)))
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, "validation_error", errors.New(domainagg.MessageOf(err)))
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, "not_found", errors.New(domainagg.MessageOf(err)))
	case domainagg.CodeConflict:
		return New(http.StatusConflict, "conflict", errors.New(domainagg.MessageOf(err)))
	case domainagg.CodePreconditionFailed, domainagg.CodeInvariantViolation:
		return New(http.StatusBadRequest, "precondition_failed", errors.New(domainagg.MessageOf(err)))
	case domainagg.CodeRetryable:
		return New(http.StatusServiceUnavailable, "retryable", errors.New(domainagg.MessageOf(err)))
	case domainagg.CodeInternal:
		return New(http.StatusInternalServerError, "internal", err)
	}
	return err
}
