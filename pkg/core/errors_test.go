package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Type:    ErrInvalidCredential,
		Message: "API key rejected",
	}

	expected := "invalid_credential_error: API key rejected"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithCode(t *testing.T) {
	err := &Error{
		Type:    ErrQuota,
		Message: "quota exceeded",
		Code:    "RESOURCE_EXHAUSTED",
	}

	expected := "quota_error: quota exceeded (code: RESOURCE_EXHAUSTED)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewQuotaError(t *testing.T) {
	err := NewQuotaError("quota exceeded", 60)
	if err.Type != ErrQuota {
		t.Errorf("Type = %v, want %v", err.Type, ErrQuota)
	}
	if err.RetryAfter == nil || *err.RetryAfter != 60 {
		t.Errorf("RetryAfter = %v, want 60", err.RetryAfter)
	}

	err = NewQuotaError("quota exceeded", 0)
	if err.RetryAfter != nil {
		t.Errorf("RetryAfter = %v, want nil", err.RetryAfter)
	}
}

func TestNewNetworkError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("dial tcp: connection refused")
	err := NewNetworkError("request failed", underlying)

	if err.Type != ErrNetwork {
		t.Errorf("Type = %v, want %v", err.Type, ErrNetwork)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the underlying transport error")
	}
}

func TestError_IsRetryable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrNetwork, true},
		{ErrEmptyResponse, true},
		{ErrInvalidCredential, false},
		{ErrQuota, false},
		{ErrAborted, false},
		{ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := &Error{Type: tt.errType, Message: "test"}
			if got := err.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"typed", NewInvalidCredentialError("bad key"), ErrInvalidCredential},
		{"wrapped typed", fmt.Errorf("turn: %w", NewQuotaError("out", 0)), ErrQuota},
		{"context canceled", context.Canceled, ErrAborted},
		{"deadline", context.DeadlineExceeded, ErrAborted},
		{"plain", errors.New("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.err); got != tt.want {
				t.Errorf("TypeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewMediaAcquisitionError(t *testing.T) {
	tests := []struct {
		name       string
		underlying error
		wantCode   string
	}{
		{"permission denied", errors.New("miniaudio: Access denied"), MediaPermissionDenied},
		{"permission keyword", errors.New("operation not permitted: permission required"), MediaPermissionDenied},
		{"no device", errors.New("miniaudio: No device"), MediaDeviceNotFound},
		{"no such device", errors.New("open /dev/dsp: no such device"), MediaDeviceNotFound},
		{"generic", errors.New("device busy"), ""},
		{"nil underlying", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMediaAcquisitionError("init microphone", tt.underlying)
			if err.Type != ErrMediaAcquisition {
				t.Fatalf("Type = %v, want %v", err.Type, ErrMediaAcquisition)
			}
			if err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", err.Code, tt.wantCode)
			}
			if tt.underlying != nil && !errors.Is(err, tt.underlying) {
				t.Error("underlying error not reachable via errors.Is")
			}
			if err.IsRetryable() {
				t.Error("media acquisition errors are not retryable")
			}
			if got := TypeOf(err); got != ErrMediaAcquisition {
				t.Errorf("TypeOf() = %v, want %v", got, ErrMediaAcquisition)
			}
		})
	}
}
