package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error represents a failure surfaced by a model gateway or by the turn
// pipeline itself.
type Error struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	Code          string    `json:"code,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	ProviderError any       `json:"provider_error,omitempty"`
	RetryAfter    *int      `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrInvalidCredential means the API key is rejected outright. Fatal for
	// the turn; no amount of retrying helps.
	ErrInvalidCredential ErrorType = "invalid_credential_error"

	// ErrQuota means the credential is fine but its quota is exhausted.
	// The turn may restart once on a rotated credential.
	ErrQuota ErrorType = "quota_error"

	// ErrNetwork covers transport failures: DNS, timeouts, connection reset.
	ErrNetwork ErrorType = "network_error"

	// ErrEmptyResponse means the model finished without producing any text.
	ErrEmptyResponse ErrorType = "empty_response_error"

	// ErrAborted means the turn was cancelled by the caller.
	ErrAborted ErrorType = "aborted_error"

	// ErrMediaAcquisition means a microphone or camera could not be
	// opened. The Code field narrows the cause.
	ErrMediaAcquisition ErrorType = "media_acquisition_error"

	// ErrInternal is everything else.
	ErrInternal ErrorType = "internal_error"
)

// Codes attached to ErrMediaAcquisition errors.
const (
	MediaPermissionDenied = "permission_denied"
	MediaDeviceNotFound   = "device_not_found"
)

// NewInvalidCredentialError creates an invalid credential error.
func NewInvalidCredentialError(message string) *Error {
	return &Error{
		Type:    ErrInvalidCredential,
		Message: message,
	}
}

// NewQuotaError creates a quota exhaustion error. retryAfter is in seconds,
// zero when the provider gave no hint.
func NewQuotaError(message string, retryAfter int) *Error {
	e := &Error{
		Type:    ErrQuota,
		Message: message,
	}
	if retryAfter > 0 {
		e.RetryAfter = &retryAfter
	}
	return e
}

// NewNetworkError creates a network error wrapping the transport failure.
func NewNetworkError(message string, underlying error) *Error {
	return &Error{
		Type:          ErrNetwork,
		Message:       message,
		ProviderError: underlying,
	}
}

// NewEmptyResponseError creates an empty response error.
func NewEmptyResponseError(message string) *Error {
	return &Error{
		Type:    ErrEmptyResponse,
		Message: message,
	}
}

// NewAbortedError creates an aborted error.
func NewAbortedError(message string) *Error {
	return &Error{
		Type:    ErrAborted,
		Message: message,
	}
}

// NewMediaAcquisitionError wraps a device open failure. The underlying
// error text decides the code: access failures map to permission denied,
// missing hardware to device not found, anything else stays uncoded.
func NewMediaAcquisitionError(message string, underlying error) *Error {
	e := &Error{
		Type:          ErrMediaAcquisition,
		Message:       message,
		ProviderError: underlying,
	}
	if underlying != nil {
		detail := strings.ToLower(underlying.Error())
		switch {
		case strings.Contains(detail, "access denied"), strings.Contains(detail, "permission"):
			e.Code = MediaPermissionDenied
		case strings.Contains(detail, "no device"), strings.Contains(detail, "device not found"),
			strings.Contains(detail, "no such device"):
			e.Code = MediaDeviceNotFound
		}
	}
	return e
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *Error {
	return &Error{
		Type:    ErrInternal,
		Message: message,
	}
}

// NewProviderError wraps a raw provider failure as an internal error,
// preserving the underlying error for Unwrap.
func NewProviderError(provider string, underlying error) *Error {
	return &Error{
		Type:          ErrInternal,
		Message:       fmt.Sprintf("%s: %v", provider, underlying),
		ProviderError: underlying,
	}
}

// IsRetryable returns true if retrying the same request on the same
// credential can succeed.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrNetwork, ErrEmptyResponse:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	if ue, ok := e.ProviderError.(error); ok {
		return ue
	}
	return nil
}

// TypeOf classifies an arbitrary error. Context cancellation maps to
// ErrAborted; anything that is not a *Error maps to ErrInternal.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrAborted
	}
	return ErrInternal
}
