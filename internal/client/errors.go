package client

import (
	"encoding/json"
	"fmt"
)

// AuthError means no usable credentials were available or the provider
// rejected the ones supplied.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// RateLimitError is returned on HTTP 429. It is a distinct type so callers
// can suggest switching auth mode instead of blindly retrying.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// HTTPError covers other non-2xx responses, carrying the status code and a
// truncated response body.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// PlanningError means the planner returned malformed or incomplete output
type PlanningError struct {
	Message string
}

func (e *PlanningError) Error() string {
	return e.Message
}

// ImageGenError means the provider returned zero images
type ImageGenError struct {
	Message string
}

func (e *ImageGenError) Error() string {
	return e.Message
}

// TTSError means no inline audio payload was present in the response
type TTSError struct {
	Message string
}

func (e *TTSError) Error() string {
	return e.Message
}

// VideoTimeoutError means the operation did not complete within the poll budget
type VideoTimeoutError struct {
	Polls int
}

func (e *VideoTimeoutError) Error() string {
	return fmt.Sprintf("video generation timed out after %d polls", e.Polls)
}

// DownloadError means the result URI was missing or the download failed
type DownloadError struct {
	Message string
}

func (e *DownloadError) Error() string {
	return e.Message
}

const maxErrorBody = 500

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}

// apiErrorEnvelope is the provider's standard error shape
type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

// classifyError maps a non-2xx response to a typed error. Classification is
// by status code and the structured error envelope, never by matching
// substrings of the message text.
func classifyError(statusCode int, body []byte) error {
	if statusCode == 429 {
		return &RateLimitError{Message: fmt.Sprintf("rate limit exceeded (status 429): %s", truncateBody(body))}
	}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, d := range envelope.Error.Details {
			if d.Reason == "API_KEY_INVALID" {
				return &AuthError{Message: fmt.Sprintf("API key rejected: %s", envelope.Error.Message)}
			}
		}
		switch envelope.Error.Status {
		case "UNAUTHENTICATED", "PERMISSION_DENIED":
			return &AuthError{Message: fmt.Sprintf("authentication rejected: %s", envelope.Error.Message)}
		}
	}

	if statusCode == 401 || statusCode == 403 {
		return &AuthError{Message: fmt.Sprintf("authentication rejected (status %d): %s", statusCode, truncateBody(body))}
	}

	return &HTTPError{StatusCode: statusCode, Body: truncateBody(body)}
}
