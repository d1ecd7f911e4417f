package kvstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any *Error of KindNotFound via errors.Is.
	ErrNotFound = errors.New("key not found")

	// ErrUnsupportedBackend is returned for an unknown backend name.
	ErrUnsupportedBackend = errors.New("unsupported kvstore backend")
)

// Kind classifies a KV engine failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindOpen
	KindRead
	KindWrite
	KindClose
	KindCorrupt
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindOpen:
		return "open"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindClose:
		return "close"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Error describes a failed KV operation.
//
// The underlying engine error (if any) can be accessed via errors.Unwrap.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("kvstore %s %s: %s", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("kvstore %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var kvErr *Error
	if errors.As(err, &kvErr) {
		return kvErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(op, path string) error {
	return &Error{Op: op, Path: path, Kind: KindNotFound}
}
