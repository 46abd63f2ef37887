package client

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyError_RateLimit(t *testing.T) {
	err := classifyError(429, []byte(`{"error": {"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}`))

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %T", err)
	}
}

func TestClassifyError_APIKeyInvalidReason(t *testing.T) {
	body := []byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT", "details": [{"reason": "API_KEY_INVALID"}]}}`)
	err := classifyError(400, body)

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError for API_KEY_INVALID reason, got %T", err)
	}
}

func TestClassifyError_UnauthenticatedStatus(t *testing.T) {
	for _, status := range []string{"UNAUTHENTICATED", "PERMISSION_DENIED"} {
		body := []byte(`{"error": {"code": 403, "message": "denied", "status": "` + status + `"}}`)
		err := classifyError(403, body)

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Errorf("status %s: expected AuthError, got %T", status, err)
		}
	}
}

func TestClassifyError_BareAuthStatusCodes(t *testing.T) {
	// no parseable envelope, classification falls back to the status code
	for _, code := range []int{401, 403} {
		err := classifyError(code, []byte("Forbidden"))

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Errorf("status %d: expected AuthError, got %T", code, err)
		}
	}
}

func TestClassifyError_MessageTextIsNotMatched(t *testing.T) {
	// an error merely mentioning auth words in its message must not be
	// treated as an auth failure
	body := []byte(`{"error": {"code": 500, "message": "internal error while checking API key quota", "status": "INTERNAL"}}`)
	err := classifyError(500, body)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", httpErr.StatusCode)
	}
}

func TestClassifyError_TruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("x", 2000)
	err := classifyError(500, []byte(long))

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if len(httpErr.Body) != maxErrorBody {
		t.Errorf("expected body truncated to %d bytes, got %d", maxErrorBody, len(httpErr.Body))
	}
}
