package bearer

import (
	"errors"
	"fmt"
)

// Kind tells where a bearer stage failure originated.
type Kind int

const (
	// KindService means the inner service failed.
	KindService Kind = iota
	// KindMissingEnvironmentVariable means the key was absent from the store
	// or its value was not valid UTF-8.
	KindMissingEnvironmentVariable
	// KindIo means the token file could not be read as text.
	KindIo
	// KindInvalidCredential means the fetched token cannot be carried in a
	// bearer header.
	KindInvalidCredential
)

// Sentinels matched by errors.Is against an [*Error] of the same kind.
var (
	ErrService                    = errors.New("bearer: inner service failed")
	ErrMissingEnvironmentVariable = errors.New("bearer: missing environment variable")
	ErrIo                         = errors.New("bearer: token file unreadable")
	ErrInvalidCredential          = errors.New("bearer: invalid bearer token")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMissingEnvironmentVariable:
		return ErrMissingEnvironmentVariable
	case KindIo:
		return ErrIo
	case KindInvalidCredential:
		return ErrInvalidCredential
	default:
		return ErrService
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindMissingEnvironmentVariable:
		return "missing_environment_variable"
	case KindIo:
		return "io"
	case KindInvalidCredential:
		return "invalid_credential"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error returned by the bearer stage. Err is the underlying
// cause: the inner service error, the file error, or a description of what
// was wrong with the token.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}
