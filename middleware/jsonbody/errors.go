package jsonbody

import (
	"errors"
	"fmt"
)

// Kind tells where a jsonbody failure originated.
type Kind int

const (
	// KindService means the inner service failed.
	KindService Kind = iota
	// KindBody means draining the response body failed.
	KindBody
	// KindMalformedDocument means the aggregated body is not a valid JSON
	// encoding of the target type.
	KindMalformedDocument
	// KindSerialize means a request body could not be encoded.
	KindSerialize
)

// Sentinels matched by errors.Is against an [*Error] of the same kind.
var (
	ErrService           = errors.New("jsonbody: inner service failed")
	ErrBody              = errors.New("jsonbody: body drain failed")
	ErrMalformedDocument = errors.New("jsonbody: malformed document")
	ErrSerialize         = errors.New("jsonbody: serialize failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindBody:
		return ErrBody
	case KindMalformedDocument:
		return ErrMalformedDocument
	case KindSerialize:
		return ErrSerialize
	default:
		return ErrService
	}
}

// Error is the error returned by this package. For KindMalformedDocument, Err
// is the parser diagnostic.
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
