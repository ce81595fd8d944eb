package apierr

import (
	"fmt"
	"net/http"
)

// Error carries an HTTP status and a stable machine-readable code alongside
// the wrapped cause, so handlers can translate service failures uniformly.
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

// BadRequest tags a caller input problem.
func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

// NotFound tags a missing resource named by caller input.
func NotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}
