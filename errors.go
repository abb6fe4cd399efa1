package lambda

import (
	"errors"
	"net/http"
)

// ErrorKind classifies the failure of a single invocation step.
type ErrorKind uint8

const (
	// ConfigurationError the secret reference is not configured.
	ConfigurationError ErrorKind = iota + 1
	// SecretUnavailable the secrets store call failed.
	SecretUnavailable
	// MalformedSecret the secret payload cannot be decoded, or misses required fields.
	MalformedSecret
	// ConnectionError the database is unreachable, or rejected the credentials.
	ConnectionError
	// QueryError the diagnostic query failed.
	QueryError
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "ConfigurationError"
	case SecretUnavailable:
		return "SecretUnavailable"
	case MalformedSecret:
		return "MalformedSecret"
	case ConnectionError:
		return "ConnectionError"
	case QueryError:
		return "QueryError"
	default:
		return "UnknownError"
	}
}

// Sentinels to match the error kind with errors.Is.
var (
	ErrConfiguration     = &Error{Kind: ConfigurationError}
	ErrSecretUnavailable = &Error{Kind: SecretUnavailable}
	ErrMalformedSecret   = &Error{Kind: MalformedSecret}
	ErrConnection        = &Error{Kind: ConnectionError}
	ErrQuery             = &Error{Kind: QueryError}
)

// Error defines the failure of the invocation pipeline.
type Error struct {
	Kind ErrorKind
	Err  error
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

func wrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when the target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the pipeline error, or zero if err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusCode maps the error to the response status code.
// All kinds are reported as internal server errors.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
