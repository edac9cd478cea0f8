package gemini

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/neochat-ai/neochat/pkg/core"
)

// classify maps a Gemini API error onto the chat core's error taxonomy.
// Invalid keys are fatal to the turn, quota errors trigger key rotation,
// network errors get one retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
			return core.NewQuotaError(apiErr.Message, retryAfterOf(apiErr))
		case apiErr.Code == 401 || apiErr.Code == 403 ||
			apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED":
			return core.NewInvalidCredentialError(apiErr.Message)
		case apiErr.Code == 400 && strings.Contains(apiErr.Message, "API key not valid"):
			return core.NewInvalidCredentialError(apiErr.Message)
		case apiErr.Code == 500 || apiErr.Code == 503 ||
			apiErr.Status == "INTERNAL" || apiErr.Status == "UNAVAILABLE":
			return core.NewNetworkError(apiErr.Message, err)
		default:
			return core.NewProviderError("gemini", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return core.NewNetworkError(netErr.Error(), err)
	}

	return core.NewProviderError("gemini", err)
}

func retryAfterOf(apiErr genai.APIError) int {
	for _, detail := range apiErr.Details {
		if delay, ok := detail["retryDelay"].(string); ok {
			if secs, ok := strings.CutSuffix(delay, "s"); ok {
				var n int
				for _, r := range secs {
					if r < '0' || r > '9' {
						return 0
					}
					n = n*10 + int(r-'0')
				}
				return n
			}
		}
	}
	return 0
}
