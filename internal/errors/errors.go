package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Sentinel errors for the domain. Services return these (possibly wrapped);
// the HTTP layer maps them with Status.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidCursor   = errors.New("invalid cursor")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Status converts repo/service errors into an HTTP status code plus a
// client-safe message. Keeps handlers clean by centralizing error mapping.
func Status(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""

	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"

	case errors.Is(err, ErrInvalidCursor):
		return http.StatusBadRequest, "invalid cursor"

	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "request was canceled"

	default:
		// fallback → bubble up error message for debugging
		return http.StatusInternalServerError, err.Error()
	}
}

// InvalidArgument wraps ErrInvalidArgument with a caller-supplied message.
// Use this in the service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &wrapped{msg: msg, err: ErrInvalidArgument}
}

type wrapped struct {
	msg string
	err error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.err }
