// Package muxerr defines the typed error taxonomy shared by the session
// core, the dispatcher and the wire protocol.
package muxerr

import (
	"errors"
	"fmt"
)

// Code is the stable, wire-visible error category.
type Code string

const (
	CodeNotFound        Code = "not_found"
	CodeInvalidTarget   Code = "invalid_target"
	CodeAmbiguousTarget Code = "ambiguous_target"
	CodeInvalidArgument Code = "invalid_argument"
	CodeNotSupported    Code = "not_supported"
	CodeTimedOut        Code = "timed_out"
	CodeNoHistory       Code = "no_history"
	CodeUnknownCommand  Code = "unknown_command"
	CodeInternal        Code = "internal"
)

// Error carries a Code and a user-facing message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Is matches any *Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return e.Code == other.Code
}

var (
	ErrNotFound        = &Error{Code: CodeNotFound}
	ErrInvalidTarget   = &Error{Code: CodeInvalidTarget}
	ErrAmbiguousTarget = &Error{Code: CodeAmbiguousTarget}
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument}
	ErrNotSupported    = &Error{Code: CodeNotSupported}
	ErrTimedOut        = &Error{Code: CodeTimedOut}
	ErrNoHistory       = &Error{Code: CodeNoHistory}
	ErrUnknownCommand  = &Error{Code: CodeUnknownCommand}
)

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, format, args...)
}

func InvalidTarget(format string, args ...any) *Error {
	return New(CodeInvalidTarget, format, args...)
}

func Ambiguous(format string, args ...any) *Error {
	return New(CodeAmbiguousTarget, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(CodeInvalidArgument, format, args...)
}

func NotSupported(format string, args ...any) *Error {
	return New(CodeNotSupported, format, args...)
}

func TimedOut(format string, args ...any) *Error {
	return New(CodeTimedOut, format, args...)
}

func NoHistory(format string, args ...any) *Error {
	return New(CodeNoHistory, format, args...)
}

func UnknownCommand(name string) *Error {
	return New(CodeUnknownCommand, "unknown command %q", name)
}

// CodeOf extracts the code from err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.Code
	}
	return CodeInternal
}

// FromWire rebuilds a typed error from a code/message pair received over a
// transport. An empty message yields nil.
func FromWire(code, message string) error {
	if message == "" && code == "" {
		return nil
	}
	if code == "" {
		code = string(CodeInternal)
	}
	return &Error{Code: Code(code), Message: message}
}
