package jina

import (
	"errors"
	"fmt"
)

var (
	ErrBatchSizeExceeded      = errors.New("too many values for a single embedding call")
	ErrValidation             = errors.New("invalid embedding options")
	ErrMissingCredential      = errors.New("missing api key")
	ErrNetwork                = errors.New("network error")
	ErrProvider               = errors.New("provider error")
	ErrMalformedResponse      = errors.New("malformed response")
	ErrCanceled               = errors.New("request canceled")
	ErrCapabilityNotSupported = errors.New("capability not supported")

	// ErrInvalidProvider is returned when a Provider is used without being created by New.
	ErrInvalidProvider = errors.New("jina: provider must be created with jina.New")
)

// BatchSizeError is returned before any request is sent when a call carries
// more values than the model accepts. Callers are expected to re-batch.
type BatchSizeError struct {
	Limit int

	Model    string
	Provider string

	Values any
	Count  int
}

func (e *BatchSizeError) Error() string {
	return fmt.Sprintf("jina: too many values for a single embedding call: model %q (provider %s) accepts at most %d values, got %d", e.Model, e.Provider, e.Limit, e.Count)
}

func (e *BatchSizeError) Unwrap() error {
	return ErrBatchSizeExceeded
}

// ValidationError names the option that failed and the constraint it broke.
type ValidationError struct {
	Field      string
	Constraint string

	Value any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid embedding options: %s: %s", e.Field, e.Constraint)
	}

	return fmt.Sprintf("invalid embedding options: %s: %s (got %v)", e.Field, e.Constraint, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type MissingCredentialError struct {
	Env string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("jina: api key is missing: pass it with jina.WithToken or set the %s environment variable", e.Env)
}

func (e *MissingCredentialError) Unwrap() error {
	return ErrMissingCredential
}

type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("jina: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// ProviderError reports a non-2xx response. Request holds the body that was
// sent, for diagnostics.
type ProviderError struct {
	StatusCode int
	Message    string

	Body    []byte
	Request any
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("jina: request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return ErrProvider
}

type MalformedResponseError struct {
	Body []byte
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("jina: malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

type CapabilityError struct {
	Capability string
	Model      string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("jina: %s %q is not supported by the jina provider", e.Capability, e.Model)
}

func (e *CapabilityError) Unwrap() error {
	return ErrCapabilityNotSupported
}

func canceledError(cause error) error {
	return fmt.Errorf("jina: %w: %w", ErrCanceled, cause)
}
