// Package snaperr defines the error-kind taxonomy shared by the core
// snapshot engine (blob, tree, delta, revision).
package snaperr

import (
	"errors"
	"fmt"
)

// Kind classifies a core failure so callers can branch on it without
// string-matching error messages.
type Kind uint8

const (
	IOError Kind = iota + 1
	OOM
	CompressionError
	DecompressionError
	CorruptTree
	CorruptRevision
	MissingBase
	DeltaMismatch
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case IOError:
		return "IO_ERROR"
	case OOM:
		return "OOM"
	case CompressionError:
		return "COMPRESSION_ERROR"
	case DecompressionError:
		return "DECOMPRESSION_ERROR"
	case CorruptTree:
		return "CORRUPT_TREE"
	case CorruptRevision:
		return "CORRUPT_REVISION"
	case MissingBase:
		return "MISSING_BASE"
	case DeltaMismatch:
		return "DELTA_MISMATCH"
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", k)
	}
}

// Error wraps an underlying error with a Kind and the operation that
// produced it, so the propagation policy in the core never has to
// surface a bare errors.New.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds a *Error, or returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
