package datasource

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindAuth
	KindTransport
	KindMalformed
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrAuth         = errors.New("invalid API credential")
	ErrTransport    = errors.New("transport failure")
	ErrMalformed    = errors.New("malformed response")
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrCityNotFound
	case KindAuth:
		return ErrAuth
	case KindTransport:
		return ErrTransport
	case KindMalformed:
		return ErrMalformed
	}
	return nil
}

// ProviderError is a failed provider operation tagged with its kind.
// errors.Is matches it against the sentinel of its kind.
type ProviderError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError builds a ProviderError for op
func NewError(kind ErrorKind, op string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Err: err}
}

// Errorf builds a ProviderError with a formatted cause
func Errorf(kind ErrorKind, op, format string, args ...interface{}) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first ProviderError in err's chain
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
