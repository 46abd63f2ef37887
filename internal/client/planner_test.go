package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
)

func testAuth() AuthContext {
	return AuthContext{Mode: model.AuthModeAPIKey, Credentials: model.Credentials{APIKey: "k"}}
}

func plannerResponse(t *testing.T, plan string) string {
	t.Helper()
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": plan}},
			}},
		},
	}
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}
	return string(b)
}

func newPlannerClient(serverURL string) *GenAIClient {
	return NewGenAIClient(&config.GenAIConfig{
		BaseURL:      serverURL,
		Origin:       testOrigin,
		PlannerModel: "planner-model",
	})
}

func planRequest() *PlanRequest {
	return &PlanRequest{
		Idea: "a lonely robot",
		Config: model.VideoConfig{
			Style:           model.StyleCinematic,
			Language:        model.LanguageEN,
			DurationMinutes: 0.2,
			AspectRatio:     model.AspectLandscape,
			Mode:            model.ModeAuto,
		},
	}
}

func TestGenerateCreativeAssets_Success(t *testing.T) {
	plan := `{
		"characterPrompt": "a rusty robot with kind eyes",
		"videoPrompt": "a robot wanders a quiet city",
		"voiceScript": "Once there was a robot.",
		"scenes": [
			{"videoPrompt": "robot wakes up", "voiceScript": "It woke at dawn."},
			{"videoPrompt": "robot walks outside", "voiceScript": "It stepped into the light."}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/planner-model:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, plannerResponse(t, plan))
	}))
	defer srv.Close()

	c := newPlannerClient(srv.URL)
	assets, err := c.GenerateCreativeAssets(context.Background(), planRequest(), testAuth())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assets.CharacterPrompt != "a rusty robot with kind eyes" {
		t.Errorf("unexpected character prompt: %q", assets.CharacterPrompt)
	}
	if len(assets.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(assets.Scenes))
	}
	for i, s := range assets.Scenes {
		if s.ID == "" {
			t.Errorf("scene %d: missing ID", i)
		}
		if s.Index != i {
			t.Errorf("scene %d: expected index %d, got %d", i, i, s.Index)
		}
		if s.CharacterPrompt != assets.CharacterPrompt {
			t.Errorf("scene %d: character prompt not inherited", i)
		}
		if s.Status != model.StepIdle {
			t.Errorf("scene %d: expected idle status, got %v", i, s.Status)
		}
	}
}

func TestGenerateCreativeAssets_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, plannerResponse(t, "here is your plan: ..."))
	}))
	defer srv.Close()

	c := newPlannerClient(srv.URL)
	_, err := c.GenerateCreativeAssets(context.Background(), planRequest(), testAuth())

	var planErr *PlanningError
	if !errors.As(err, &planErr) {
		t.Fatalf("expected PlanningError, got %v", err)
	}
}

func TestGenerateCreativeAssets_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		plan string
	}{
		{
			"missing characterPrompt",
			`{"voiceScript": "x", "scenes": [{"videoPrompt": "a", "voiceScript": "b"}]}`,
		},
		{
			"empty scenes",
			`{"characterPrompt": "c", "voiceScript": "x", "scenes": []}`,
		},
		{
			"scene missing voiceScript",
			`{"characterPrompt": "c", "voiceScript": "x", "scenes": [{"videoPrompt": "a"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, plannerResponse(t, tt.plan))
			}))
			defer srv.Close()

			c := newPlannerClient(srv.URL)
			_, err := c.GenerateCreativeAssets(context.Background(), planRequest(), testAuth())

			var planErr *PlanningError
			if !errors.As(err, &planErr) {
				t.Fatalf("expected PlanningError, got %v", err)
			}
		})
	}
}

func TestGenerateCreativeAssets_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	c := newPlannerClient(srv.URL)
	_, err := c.GenerateCreativeAssets(context.Background(), planRequest(), testAuth())

	var planErr *PlanningError
	if !errors.As(err, &planErr) {
		t.Fatalf("expected PlanningError, got %v", err)
	}
}
