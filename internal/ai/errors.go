package ai

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

var ErrUnavailable = errors.New("ai provider not configured")

// classify wraps a raw provider failure with the taxonomy kind the caller
// needs for retry decisions: auth, rate_limited, timeout or transient.
func classify(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErr.NewProviderError(provider, appErr.ProviderTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && status == 0 {
		status = apiErr.Code
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return appErr.NewProviderError(provider, appErr.ProviderAuth, err)
	case status == http.StatusTooManyRequests:
		return appErr.NewProviderError(provider, appErr.ProviderRateLimited, err)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return appErr.NewProviderError(provider, appErr.ProviderTimeout, err)
	default:
		return appErr.NewProviderError(provider, appErr.ProviderTransient, err)
	}
}
