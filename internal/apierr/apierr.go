package apierr

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeValidation = "validation"
	CodeExternal   = "external"
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

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Status: 404, Code: CodeNotFound, Err: fmt.Errorf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Status: 409, Code: CodeConflict, Err: fmt.Errorf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Status: 422, Code: CodeValidation, Err: fmt.Errorf(format, args...)}
}

func External(err error) *Error {
	return &Error{Status: 502, Code: CodeExternal, Err: err}
}

func IsNotFound(err error) bool   { return hasCode(err, CodeNotFound) }
func IsConflict(err error) bool   { return hasCode(err, CodeConflict) }
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }
func IsExternal(err error) bool   { return hasCode(err, CodeExternal) }

func hasCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
