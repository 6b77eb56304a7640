// Package syncerr classifies the errors a sync run can end with.
package syncerr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of failure.
type Kind string

const (
	// KindConfig covers a missing or malformed configuration file and
	// missing router credentials.
	KindConfig Kind = "config"
	// KindConnection covers auth failures and an unreachable router.
	KindConnection Kind = "connection"
	// KindAction covers a single add, update or delete rejected by the router.
	KindAction Kind = "action"
)

// Exit codes reported by the command.
const (
	ExitOK         = 0
	ExitActions    = 1
	ExitConfig     = 2
	ExitConnection = 3
)

// Error wraps an underlying error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind) + " error"
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New wraps err with kind. A nil err yields a bare error of that kind.
func New(kind Kind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf formats a message and wraps it with kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost Kind found in err's chain, or "" when none is.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindConfig:
		return ExitConfig
	case KindConnection:
		return ExitConnection
	default:
		return ExitActions
	}
}
