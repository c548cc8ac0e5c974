package authprovider

import (
	"net/http"

	"launchkit/internal/apperr"
)

// Result is the single shape callers consume after Normalize.
type Result[T any] struct {
	Value *T
	Err   error
}

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (*T, error) {
	return r.Value, r.Err
}

// Response is implemented only by ProviderResponse and APIEnvelope.
type Response[T any] interface {
	normalize() Result[T]
}

// Normalize converts either response shape into a Result.
func Normalize[T any](r Response[T]) Result[T] {
	if r == nil {
		return Result[T]{Err: apperr.Internal(errEmptyResponse)}
	}
	return r.normalize()
}

type responseError string

func (e responseError) Error() string { return string(e) }

const errEmptyResponse = responseError("empty auth provider response")

// ProviderError is the provider-native error payload.
type ProviderError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`

	// cause is the failure behind an internal error. It stays in the process.
	cause error
}

// ProviderResponse is what the in-process provider returns: data or error, never both.
type ProviderResponse[T any] struct {
	Data  *T             `json:"data"`
	Error *ProviderError `json:"error"`
}

func (r ProviderResponse[T]) normalize() Result[T] {
	if r.Error != nil {
		if r.Error.cause != nil && r.Error.Status >= http.StatusInternalServerError {
			return Result[T]{Err: apperr.Internal(r.Error.cause)}
		}
		return Result[T]{Err: errorFor(r.Error.Status, r.Error.Code, r.Error.Message)}
	}
	if r.Data == nil {
		return Result[T]{Err: apperr.Internal(errEmptyResponse)}
	}
	return Result[T]{Value: r.Data}
}

// respond packs a provider call outcome into the provider-native shape.
func respond[T any](v *T, err error) ProviderResponse[T] {
	if err != nil {
		e := apperr.As(err)
		pe := &ProviderError{Status: e.Status(), Code: e.Code, Message: e.Message}
		if e.Kind == apperr.KindInternal {
			pe.cause = e.Err
		}
		return ProviderResponse[T]{Error: pe}
	}
	return ProviderResponse[T]{Data: v}
}

// APIEnvelope is a decoded HTTP response of the internal API: the body on
// success, {code, message} otherwise.
type APIEnvelope[T any] struct {
	Status  int
	Data    *T
	Code    string
	Message string
}

func (r APIEnvelope[T]) normalize() Result[T] {
	if r.Status >= 200 && r.Status < 300 {
		if r.Data == nil {
			return Result[T]{Err: apperr.Internal(errEmptyResponse)}
		}
		return Result[T]{Value: r.Data}
	}
	return Result[T]{Err: errorFor(r.Status, r.Code, r.Message)}
}

func errorFor(status int, code, message string) error {
	var e *apperr.Error
	switch status {
	case http.StatusUnauthorized:
		e = apperr.Unauthorized(message)
	case http.StatusForbidden:
		e = apperr.Forbidden(message)
	case http.StatusNotFound:
		e = apperr.NotFound(message)
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		e = apperr.Validation(message, nil)
	case http.StatusTooManyRequests:
		e = apperr.RateLimited(message)
	default:
		e = apperr.Internal(responseError(message))
	}
	if code != "" && e.Kind != apperr.KindInternal {
		e.Code = code
	}
	return e
}
