package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/neochat-ai/neochat/pkg/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.ErrorType
	}{
		{
			"quota by status",
			genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"},
			core.ErrQuota,
		},
		{
			"quota by code only",
			genai.APIError{Code: 429, Message: "too many requests"},
			core.ErrQuota,
		},
		{
			"unauthenticated",
			genai.APIError{Code: 401, Status: "UNAUTHENTICATED", Message: "bad key"},
			core.ErrInvalidCredential,
		},
		{
			"permission denied",
			genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "denied"},
			core.ErrInvalidCredential,
		},
		{
			"invalid api key as 400",
			genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid. Please pass a valid API key."},
			core.ErrInvalidCredential,
		},
		{
			"server error is retryable network",
			genai.APIError{Code: 500, Status: "INTERNAL", Message: "internal"},
			core.ErrNetwork,
		},
		{
			"unavailable is retryable network",
			genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "overloaded"},
			core.ErrNetwork,
		},
		{
			"other api error is internal",
			genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad request"},
			core.ErrInternal,
		},
		{
			"plain error is internal",
			fmt.Errorf("something odd"),
			core.ErrInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if core.TypeOf(got) != tt.want {
				t.Errorf("classify() type = %v, want %v", core.TypeOf(got), tt.want)
			}
		})
	}
}

func TestClassifyPassesThroughCancellation(t *testing.T) {
	if got := classify(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Errorf("classify(context.Canceled) = %v", got)
	}
	if got := classify(nil); got != nil {
		t.Errorf("classify(nil) = %v", got)
	}
}

func TestRetryAfterOf(t *testing.T) {
	apiErr := genai.APIError{
		Code:   429,
		Status: "RESOURCE_EXHAUSTED",
		Details: []map[string]any{
			{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "27s"},
		},
	}
	if got := retryAfterOf(apiErr); got != 27 {
		t.Errorf("retryAfterOf() = %d, want 27", got)
	}

	if got := retryAfterOf(genai.APIError{Code: 429}); got != 0 {
		t.Errorf("retryAfterOf() without details = %d, want 0", got)
	}
}
