// File: internal/errs/errs.go
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies a failure so the command layer can decide whether to recover from it
type Kind int

const (
	// KindOther is any failure with no recovery path; it propagates to the process boundary
	KindOther Kind = iota
	KindUnknownStore
	KindCorruptedConfig
	KindLimitExceeded
	KindBadRequest
	KindExceededRetries
	KindInvalidConfig
)

func (k Kind) String() string {
	switch k {
	case KindUnknownStore:
		return "unknown_store"
	case KindCorruptedConfig:
		return "corrupted_config"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindBadRequest:
		return "bad_request"
	case KindExceededRetries:
		return "exceeded_retries"
	case KindInvalidConfig:
		return "invalid_config"
	default:
		return "other"
	}
}

// Error carries a Kind alongside the operator-facing message
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil && e.Message == "" {
		return e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a tagged error with a formatted message and a captured stack
func New(kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Wrap tags err with kind, keeping err's own message so it can be shown to the operator as-is
func Wrap(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Message: err.Error(), cause: err})
}

// KindOf returns the outermost Kind found in err's chain, or KindOther
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the operator-facing message of the first tagged error in err's chain
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
