package types

import "net/http"

// ErrorResponse is the JSON body of every error returned before a stream
// opens: {"error": "...", "code": "..."}.
type ErrorResponse struct {
	// Error is a human-readable error message.
	Error string `json:"error"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	status int
}

// Error code constants.
const (
	// CodeMissingField indicates a required field is missing.
	CodeMissingField = "missing_field"

	// CodeInvalidValue indicates a field has an invalid value.
	CodeInvalidValue = "invalid_value"

	// CodeInvalidJSON indicates the request body is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeRequestTooLarge indicates the request payload is too large.
	CodeRequestTooLarge = "request_too_large"

	// CodeMissingCredential indicates no upstream credential could be resolved.
	CodeMissingCredential = "missing_credential"

	// CodeMissingEndpoint indicates no upstream endpoint could be resolved.
	CodeMissingEndpoint = "missing_endpoint"

	// CodeMethodNotAllowed indicates the HTTP method is not supported.
	CodeMethodNotAllowed = "method_not_allowed"

	// CodeProviderError indicates an error from the LLM provider.
	CodeProviderError = "provider_error"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates an error response with an HTTP status.
func NewErrorResponse(status int, message, code string) *ErrorResponse {
	return &ErrorResponse{Error: message, Code: code, status: status}
}

// NewInvalidRequestError creates a 400 error response.
func NewInvalidRequestError(message, code string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, message, code)
}

// NewServerError creates a 500 error response.
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, message, CodeInternalError)
}

// NewBadGatewayError creates a 502 error response.
func NewBadGatewayError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadGateway, message, CodeProviderError)
}

// HTTPStatusCode returns the HTTP status for the response, 500 if unset.
func (e *ErrorResponse) HTTPStatusCode() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}
