package client

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
)

const testOrigin = "https://aistudio.google.com"

func newTestTransport(serverURL string) *Transport {
	return NewTransport(&config.GenAIConfig{
		BaseURL: serverURL,
		Origin:  testOrigin,
	})
}

func TestSend_APIKeyMode(t *testing.T) {
	var gotKey, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL)
	auth := AuthContext{
		Mode:        model.AuthModeAPIKey,
		Credentials: model.Credentials{APIKey: "secret-key"},
	}

	_, err := tr.Send(context.Background(), http.MethodPost, "/models/test:generateContent", map[string]string{"a": "b"}, auth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "secret-key" {
		t.Errorf("expected key query parameter, got %q", gotKey)
	}
	if gotCookie != "" {
		t.Errorf("API-key mode must not send cookies, got %q", gotCookie)
	}
}

func TestSend_CookieMode(t *testing.T) {
	var gotCookie, gotOrigin, gotReferer, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotOrigin = r.Header.Get("Origin")
		gotReferer = r.Header.Get("Referer")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL)
	fixed := time.Unix(1700000000, 0)
	tr.now = func() time.Time { return fixed }

	auth := AuthContext{
		Mode: model.AuthModeCookie,
		Credentials: model.Credentials{
			Cookies: []model.Cookie{
				{Domain: ".google.com", Name: "SAPISID", Value: "sid-value"},
				{Domain: ".google.com", Name: "SID", Value: "other"},
				{Domain: ".example.com", Name: "tracker", Value: "nope"},
			},
		},
	}

	_, err := tr.Send(context.Background(), http.MethodPost, "/models/test:generateContent", nil, auth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotCookie != "SAPISID=sid-value; SID=other" {
		t.Errorf("expected provider cookies only, got %q", gotCookie)
	}
	if gotOrigin != testOrigin {
		t.Errorf("expected Origin %q, got %q", testOrigin, gotOrigin)
	}
	if gotReferer != testOrigin+"/" {
		t.Errorf("expected Referer %q, got %q", testOrigin+"/", gotReferer)
	}

	sum := sha1.Sum([]byte(fmt.Sprintf("%d %s %s", fixed.Unix(), "sid-value", testOrigin)))
	want := fmt.Sprintf("SAPISIDHASH %d_%x", fixed.Unix(), sum)
	if gotAuth != want {
		t.Errorf("expected Authorization %q, got %q", want, gotAuth)
	}
}

func TestSend_CookieMode_NoProviderCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL)
	auth := AuthContext{
		Mode: model.AuthModeCookie,
		Credentials: model.Credentials{
			Cookies: []model.Cookie{{Domain: ".example.com", Name: "x", Value: "y"}},
		},
	}

	_, err := tr.Send(context.Background(), http.MethodPost, "/x", nil, auth)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestSend_NoneMode_FailsBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL)
	_, err := tr.Send(context.Background(), http.MethodPost, "/x", nil, AuthContext{Mode: model.AuthModeNone})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestSend_ClassifiesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "quota"}}`)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL)
	auth := AuthContext{Mode: model.AuthModeAPIKey, Credentials: model.Credentials{APIKey: "k"}}

	_, err := tr.Send(context.Background(), http.MethodPost, "/x", nil, auth)
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestDownload_APIKeyAppendedToExistingQuery(t *testing.T) {
	var gotKey, gotAlt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotAlt = r.URL.Query().Get("alt")
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL)
	auth := AuthContext{Mode: model.AuthModeAPIKey, Credentials: model.Credentials{APIKey: "dl-key"}}

	data, contentType, err := tr.Download(context.Background(), srv.URL+"/file?alt=media", auth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "dl-key" || gotAlt != "media" {
		t.Errorf("expected key appended alongside existing query, got key=%q alt=%q", gotKey, gotAlt)
	}
	if string(data) != "payload" {
		t.Errorf("unexpected payload: %q", data)
	}
	if contentType != "video/mp4" {
		t.Errorf("expected content type video/mp4, got %q", contentType)
	}
}

func TestDownload_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL)
	auth := AuthContext{Mode: model.AuthModeAPIKey, Credentials: model.Credentials{APIKey: "k"}}

	_, _, err := tr.Download(context.Background(), srv.URL+"/missing", auth)
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
}
