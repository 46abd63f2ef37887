package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
)

// veoServer simulates the video generation endpoints: submission, operation
// polling and result download. doneAfter controls how many polls report
// in-progress before the operation completes.
type veoServer struct {
	srv       *httptest.Server
	polls     atomic.Int64
	doneAfter int64
}

func newVeoServer(t *testing.T, doneAfter int64) *veoServer {
	t.Helper()
	vs := &veoServer{doneAfter: doneAfter}

	mux := http.NewServeMux()
	mux.HandleFunc("/models/veo-test:generateVideos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "operations/op-1",
			"done": false,
		})
	})
	mux.HandleFunc("/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		n := vs.polls.Add(1)
		op := map[string]interface{}{"name": "operations/op-1", "done": false}
		if n >= vs.doneAfter {
			op["done"] = true
			op["response"] = map[string]interface{}{
				"generatedVideos": []map[string]interface{}{
					{"video": map[string]string{"uri": vs.srv.URL + "/download/video.mp4"}},
				},
			}
		}
		json.NewEncoder(w).Encode(op)
	})
	mux.HandleFunc("/download/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		fmt.Fprint(w, "video-bytes")
	})

	vs.srv = httptest.NewServer(mux)
	t.Cleanup(vs.srv.Close)
	return vs
}

func newVeoClient(serverURL string, maxPolls int) *GenAIClient {
	return NewGenAIClient(&config.GenAIConfig{
		BaseURL:      serverURL,
		Origin:       testOrigin,
		VideoModel:   "veo-test",
		PollInterval: time.Millisecond,
		MaxPolls:     maxPolls,
	})
}

func TestGenerateVideo_CompletesAfterPolling(t *testing.T) {
	vs := newVeoServer(t, 2)
	c := newVeoClient(vs.srv.URL, 5)

	result, err := c.GenerateVideo(context.Background(), &VideoRequest{
		Prompt:      "a robot in the rain",
		AspectRatio: model.AspectLandscape,
	}, testAuth())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Data) != "video-bytes" {
		t.Errorf("unexpected payload: %q", result.Data)
	}
	if result.MimeType != "video/mp4" {
		t.Errorf("expected video/mp4, got %q", result.MimeType)
	}
	if got := vs.polls.Load(); got != 2 {
		t.Errorf("expected 2 polls, got %d", got)
	}
}

func TestGenerateVideo_SucceedsOnFinalPoll(t *testing.T) {
	// completion on the very last allowed poll is a success, not a timeout
	vs := newVeoServer(t, 5)
	c := newVeoClient(vs.srv.URL, 5)

	_, err := c.GenerateVideo(context.Background(), &VideoRequest{
		Prompt:      "boundary case",
		AspectRatio: model.AspectLandscape,
	}, testAuth())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := vs.polls.Load(); got != 5 {
		t.Errorf("expected 5 polls, got %d", got)
	}
}

func TestGenerateVideo_TimesOut(t *testing.T) {
	vs := newVeoServer(t, 100)
	c := newVeoClient(vs.srv.URL, 5)

	_, err := c.GenerateVideo(context.Background(), &VideoRequest{
		Prompt:      "never finishes",
		AspectRatio: model.AspectLandscape,
	}, testAuth())

	var timeoutErr *VideoTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected VideoTimeoutError, got %v", err)
	}
	if timeoutErr.Polls != 5 {
		t.Errorf("expected 5 polls in error, got %d", timeoutErr.Polls)
	}
	if got := vs.polls.Load(); got != 5 {
		t.Errorf("expected exactly 5 polls, got %d", got)
	}
}

func TestGenerateVideo_ContextCancellation(t *testing.T) {
	vs := newVeoServer(t, 100)
	c := newVeoClient(vs.srv.URL, 10000)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GenerateVideo(ctx, &VideoRequest{
		Prompt:      "canceled",
		AspectRatio: model.AspectLandscape,
	}, testAuth())

	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
}

func TestGenerateVideo_SendsReferenceImage(t *testing.T) {
	var gotBody map[string]interface{}
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/models/veo-test:generateVideos", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "operations/op-1",
			"done": true,
			"response": map[string]interface{}{
				"generatedVideos": []map[string]interface{}{
					{"video": map[string]string{"uri": srv.URL + "/dl"}},
				},
			},
		})
	})
	mux.HandleFunc("/dl", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "v")
	})

	c := newVeoClient(srv.URL, 5)
	_, err := c.GenerateVideo(context.Background(), &VideoRequest{
		Prompt:         "with reference",
		AspectRatio:    model.AspectPortrait,
		ReferenceImage: &model.ImageRef{Data: "aW1n", MimeType: "image/png"},
	}, testAuth())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := gotBody["config"].(map[string]interface{})
	if cfg["aspectRatio"] != "9:16" {
		t.Errorf("expected aspectRatio 9:16, got %v", cfg["aspectRatio"])
	}
	refs, ok := cfg["referenceImages"].([]interface{})
	if !ok || len(refs) != 1 {
		t.Fatalf("expected one reference image, got %v", cfg["referenceImages"])
	}
	image := refs[0].(map[string]interface{})["image"].(map[string]interface{})
	if image["imageBytes"] != "aW1n" || image["mimeType"] != "image/png" {
		t.Errorf("unexpected reference image payload: %v", image)
	}
}

func TestGenerateVideo_NoDownloadLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "operations/op-1",
			"done": true,
		})
	}))
	defer srv.Close()

	c := newVeoClient(srv.URL, 5)
	_, err := c.GenerateVideo(context.Background(), &VideoRequest{
		Prompt:      "empty result",
		AspectRatio: model.AspectLandscape,
	}, testAuth())

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
}
