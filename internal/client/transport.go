package client

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
)

// AuthContext carries the resolved auth mode and credentials for one run.
// It is snapshotted at run start and read-only thereafter.
type AuthContext struct {
	Mode        model.AuthMode
	Credentials model.Credentials
}

// Transport performs authenticated HTTP calls against the generation provider.
// It does not retry; retries are a caller-level policy.
type Transport struct {
	httpClient *http.Client
	baseURL    string
	origin     string
	now        func() time.Time
}

// NewTransport creates a transport for the generation provider
func NewTransport(cfg *config.GenAIConfig) *Transport {
	return &Transport{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: cfg.BaseURL,
		origin:  cfg.Origin,
		now:     time.Now,
	}
}

// Send performs a single authenticated request to endpoint (a path relative
// to the provider base URL) and returns the raw JSON response body.
func (t *Transport) Send(ctx context.Context, method, endpoint string, body interface{}, auth AuthContext) (json.RawMessage, error) {
	url := t.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	switch auth.Mode {
	case model.AuthModeAPIKey:
		url = appendKey(url, auth.Credentials.APIKey)
	case model.AuthModeCookie:
		// headers added below
	default:
		return nil, &AuthError{Message: "no authentication method available: provide cookies or an API key"}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if auth.Mode == model.AuthModeCookie {
		if err := t.setCookieAuth(req, auth.Credentials.Cookies); err != nil {
			return nil, err
		}
	}

	log.Printf("[GenAI] → %s %s (auth=%s)", method, endpoint, auth.Mode)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		log.Printf("[GenAI] ✗ %s %s — request failed: %v", method, endpoint, err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[GenAI] ✗ %s %s — failed to read response: %v", method, endpoint, err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[GenAI] ← %d %s %s (%d bytes)", resp.StatusCode, method, endpoint, len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyError(resp.StatusCode, respBody)
	}

	return json.RawMessage(respBody), nil
}

// Download fetches a binary payload from an absolute URI returned by the
// provider. In API-key mode the key is appended as a query parameter, the
// same way the generation endpoints expect it.
func (t *Transport) Download(ctx context.Context, uri string, auth AuthContext) ([]byte, string, error) {
	switch auth.Mode {
	case model.AuthModeAPIKey:
		uri = appendKey(uri, auth.Credentials.APIKey)
	case model.AuthModeCookie:
		// headers added below
	default:
		return nil, "", &AuthError{Message: "no authentication method available: provide cookies or an API key"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	if auth.Mode == model.AuthModeCookie {
		if err := t.setCookieAuth(req, auth.Credentials.Cookies); err != nil {
			return nil, "", err
		}
	}

	log.Printf("[GenAI] → GET download (auth=%s)", auth.Mode)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, "", &DownloadError{Message: fmt.Sprintf("download request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", &DownloadError{Message: fmt.Sprintf("download failed (status %d): %s", resp.StatusCode, string(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &DownloadError{Message: fmt.Sprintf("failed to read download body: %v", err)}
	}

	log.Printf("[GenAI] ← download complete (%d bytes)", len(data))

	contentType := resp.Header.Get("Content-Type")
	return data, contentType, nil
}

// setCookieAuth attaches the serialized Cookie header and the session digest
// authorization token for cookie-mode requests.
func (t *Transport) setCookieAuth(req *http.Request, cookies []model.Cookie) error {
	header := cookieHeader(cookies)
	if header == "" {
		return &AuthError{Message: "no provider cookies present in credential set"}
	}
	req.Header.Set("Cookie", header)
	req.Header.Set("Origin", t.origin)
	req.Header.Set("Referer", t.origin+"/")

	if session := sessionCookie(cookies); session != "" {
		req.Header.Set("Authorization", sapisidHash(session, t.origin, t.now()))
	}
	return nil
}

// cookieHeader joins name=value pairs for cookies belonging to the provider's
// domains.
func cookieHeader(cookies []model.Cookie) string {
	var pairs []string
	for _, c := range cookies {
		if strings.Contains(c.Domain, "google") {
			pairs = append(pairs, c.Name+"="+c.Value)
		}
	}
	return strings.Join(pairs, "; ")
}

// sessionCookie picks the session identifier used for the authorization digest
func sessionCookie(cookies []model.Cookie) string {
	for _, name := range []string{"SAPISID", "__Secure-1PSID", "__Secure-3PSID"} {
		for _, c := range cookies {
			if c.Name == name {
				return c.Value
			}
		}
	}
	return ""
}

// sapisidHash computes the time-stamped keyed digest the provider expects in
// the Authorization header: SHA-1 over "{timestamp} {session} {origin}".
func sapisidHash(session, origin string, now time.Time) string {
	ts := now.Unix()
	sum := sha1.Sum([]byte(fmt.Sprintf("%d %s %s", ts, session, origin)))
	return fmt.Sprintf("SAPISIDHASH %d_%x", ts, sum)
}

// appendKey adds the API key as a query parameter
func appendKey(url, key string) string {
	if strings.Contains(url, "?") {
		return url + "&key=" + key
	}
	return url + "?key=" + key
}
