package aggregates

import (
	"errors"
	"strings"
)

// Code classifies a failed aggregate write.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodePreconditionFailed Code = "precondition_failed"
	CodeRetryable          Code = "retryable"
	CodeInternal           Code = "internal"
)

// Error is a classified write failure. Op names the aggregate operation, e.g.
// "character.reconcile".
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("failed")
	}
	b.WriteString(" [")
	b.WriteString(string(e.Code))
	b.WriteString("]")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error from a message and optional cause.
func NewError(code Code, op, message string, cause error) error {
	err := cause
	if msg := strings.TrimSpace(message); msg != "" {
		if cause == nil {
			err = errors.New(msg)
		} else {
			err = &annotated{msg: msg, cause: cause}
		}
	}
	return &Error{Code: code, Op: strings.TrimSpace(op), Err: err}
}

// Wrap classifies err under op; nil stays nil.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: strings.TrimSpace(op), Err: err}
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

type annotated struct {
	msg   string
	cause error
}

func (a *annotated) Error() string { return a.msg + ": " + a.cause.Error() }
func (a *annotated) Unwrap() error { return a.cause }
