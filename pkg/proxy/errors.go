package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"mercator-hq/chatrelay/pkg/providers"
	"mercator-hq/chatrelay/pkg/proxy/types"
)

// missingCredentialMessage is the body text clients show in their settings view.
const missingCredentialMessage = "API key not configured. Please provide an API key in the settings."

// HandleError converts an error raised before the stream opens into an
// error response.
//
// Example usage:
//
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	switch {
	case errors.Is(err, providers.ErrMissingCredential):
		return types.NewErrorResponse(http.StatusInternalServerError, missingCredentialMessage, types.CodeMissingCredential)

	case errors.Is(err, providers.ErrMissingEndpoint):
		return types.NewInvalidRequestError(trimInvalid(err), types.CodeMissingEndpoint)

	case errors.Is(err, providers.ErrInvalidRequest):
		return types.NewInvalidRequestError(trimInvalid(err), types.CodeInvalidValue)
	}

	var cfgErr *providers.ConfigError
	if errors.As(err, &cfgErr) {
		return types.NewServerError(cfgErr.Error())
	}

	// Default to internal server error for unknown errors
	return types.NewServerError("An internal error occurred. Please try again later.")
}

// trimInvalid drops the generic "invalid request: " prefix from wrapped
// sentinel errors.
func trimInvalid(err error) string {
	return strings.TrimPrefix(err.Error(), providers.ErrInvalidRequest.Error()+": ")
}

// StreamErrorMessage formats an upstream failure for an in-band error frame.
func StreamErrorMessage(err error) string {
	return "Stream error: " + err.Error()
}

// ErrorClass classifies an upstream failure for metrics and audit records.
//
// Classes: "auth", "rate_limit", "timeout", "server_error", "client_error",
// "upstream" (an error envelope inside a 2xx body), "parse", "stream", "network",
// "canceled", "unknown".
func ErrorClass(err error) string {
	var (
		authErr     *providers.AuthError
		rateErr     *providers.RateLimitError
		timeoutErr  *providers.TimeoutError
		providerErr *providers.ProviderError
		upstreamErr *providers.UpstreamError
		streamErr   *providers.StreamError
		parseErr    *providers.ParseError
		netErr      net.Error
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateErr):
		return "rate_limit"
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &providerErr):
		if providerErr.StatusCode >= 500 {
			return "server_error"
		}
		return "client_error"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &streamErr):
		return "stream"
	case errors.As(err, &netErr):
		return "network"
	default:
		return "unknown"
	}
}
