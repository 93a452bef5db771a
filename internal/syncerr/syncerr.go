// Package syncerr holds the error kinds shared by every stage of a push.
// Each failure is wrapped with one kind so the CLI can tell the user what to do next.
package syncerr

import (
	"errors"
	"fmt"
)

var (
	ErrIO                 = errors.New("io error")
	ErrPattern            = errors.New("invalid exclude pattern")
	ErrNetwork            = errors.New("network error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrProtocolMismatch   = errors.New("protocol mismatch")
	ErrValidation         = errors.New("invalid input")
	ErrCredentialsExpired = errors.New("storage credentials expired")
)

var kinds = []error{
	ErrCredentialsExpired,
	ErrUnauthorized,
	ErrProtocolMismatch,
	ErrPattern,
	ErrValidation,
	ErrIO,
	ErrNetwork,
}

var (
	ErrFileindexMismatch = fmt.Errorf("%w: uploaded fileindex.json does not match the uploaded files", ErrProtocolMismatch)
	ErrGameNotFound      = fmt.Errorf("%w: game not found", ErrValidation)
	ErrBuildSizeLimit    = fmt.Errorf("%w: build size limit reached for this account", ErrValidation)
)

// Error tags an underlying error with one of the kinds above.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func IO(op string, err error) error      { return Wrap(ErrIO, op, err) }
func Network(op string, err error) error { return Wrap(ErrNetwork, op, err) }

// Validation builds a validation error from a message.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

// ServerError is a non-success HTTP response from the control plane or a presigned URL.
type ServerError struct {
	Op   string
	Code int
	Body string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server responded %d: %s", e.Op, e.Code, e.Body)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrNetwork
}

// KindOf returns the kind err was tagged with, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Hint is the follow-up advice printed after a failed push.
func Hint(err error) string {
	switch KindOf(err) {
	case ErrUnauthorized:
		return "You are not authorized for this game. Check that you are one of its developers and that CLAWDROP_API_KEY is valid."
	case ErrCredentialsExpired:
		return "The temporary storage credentials expired during the push. Run the push again."
	case ErrProtocolMismatch:
		return "The server could not confirm the uploaded files. Another upload may be running or the build changed during the push."
	case ErrPattern:
		return "Fix the --ignore pattern and try again."
	case ErrValidation:
		return "Check the push arguments (--id, --os, --exe, --version or the shorthand)."
	case ErrIO:
		return "A file in the build directory could not be read."
	case ErrNetwork:
		return "Files uploaded so far are kept; running the push again only sends what is still missing."
	}
	return ""
}
