package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status    int
	Code      string
	Err       error
	Retryable bool
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

func NotFound(code, msg string) *Error {
	return New(http.StatusNotFound, code, errors.New(msg))
}

// Failure reports a server-side failure whose details stay in the logs. The caller
// only sees msg and that the request is safe to repeat.
func Failure(code, msg string, cause error) *Error {
	return &Error{
		Status:    http.StatusInternalServerError,
		Code:      code,
		Err:       &hidden{msg: msg, cause: cause},
		Retryable: true,
	}
}

type hidden struct {
	msg   string
	cause error
}

func (h *hidden) Error() string { return h.msg }
func (h *hidden) Unwrap() error { return h.cause }

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
