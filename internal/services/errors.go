package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/vkx/internal/shared"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap lets callers match with [errors.Is] against the shared sentinels.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return shared.ErrNotAuthenticated
	}
	return shared.ErrAPIRequest
}

// Temporary reports whether retrying the same request might succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// parseAPIError builds an [APIError] from an error body, accepting {"message"} and FastAPI's {"detail"}.
func parseAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}

	var payload struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	if payload.Message != "" {
		apiErr.Message = payload.Message
		return apiErr
	}

	// detail is a string for HTTPException and a list for validation errors
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		apiErr.Message = detail
		return apiErr
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		apiErr.Message = items[0].Msg
	}
	return apiErr
}
