package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionDead indicates the refresh token was rejected by the
// backend. The session has been torn down; the caller must
// re-authenticate. This condition is never retried.
var ErrSessionDead = errors.New("api: session dead, re-authentication required")

// APIError is a structured error for any non-2xx backend response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Transient reports whether the error is a 5xx server-side failure.
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500
}

// errorBody is the superset of error shapes the backend emits. Any of
// message, details, error, or errors may carry the human-readable text.
type errorBody struct {
	Message   string          `json:"message"`
	Details   string          `json:"details"`
	Err       string          `json:"error"`
	Errors    json.RawMessage `json:"errors"`
	RequestID string          `json:"requestId"`
}

// parseAPIError builds an APIError from a non-2xx response body. The
// surfaced text is the first non-empty of message, details, error,
// errors, in that priority. An unparsable body falls back to the raw
// text, or the canonical status text when the body is empty.
func parseAPIError(statusCode int, body []byte, requestID string) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		RequestID:  requestID,
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = string(body)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(statusCode)
		}
		return apiErr
	}

	switch {
	case eb.Message != "":
		apiErr.Message = eb.Message
		apiErr.Detail = eb.Details
	case eb.Details != "":
		apiErr.Message = eb.Details
	case eb.Err != "":
		apiErr.Message = eb.Err
	case len(eb.Errors) > 0:
		apiErr.Message = string(eb.Errors)
	default:
		apiErr.Message = http.StatusText(statusCode)
	}

	if eb.RequestID != "" {
		apiErr.RequestID = eb.RequestID
	}

	return apiErr
}

// isAuthStatus reports whether the status code means the access token
// was rejected.
func isAuthStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}
