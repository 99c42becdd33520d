package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/yukari/internal/command"
	"github.com/samcharles93/yukari/internal/decode"
	"github.com/samcharles93/yukari/internal/history"
	"github.com/samcharles93/yukari/internal/memory"
	"github.com/samcharles93/yukari/internal/sampling"
	"github.com/samcharles93/yukari/internal/session"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps a domain error to an HTTP status and an error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, command.ErrUsage),
		errors.Is(err, sampling.ErrInvalidConfig),
		errors.Is(err, memory.ErrEmptyKey):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, command.ErrUnknownCommand),
		errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, history.ErrUnderflow):
		return http.StatusConflict, "conflict_error"
	case errors.Is(err, session.ErrBusy):
		return http.StatusTooManyRequests, "busy_error"
	case errors.Is(err, decode.ErrModelInvocation):
		return http.StatusBadGateway, "model_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
