package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/ideareel/api/internal/model"
)

// generateContentResponse is the subset of the text/audio generation response
// the pipeline reads; all other fields are opaque.
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// planOutput is the structured JSON the planner model is instructed to return
type planOutput struct {
	CharacterPrompt string `json:"characterPrompt"`
	VideoPrompt     string `json:"videoPrompt"`
	VoiceScript     string `json:"voiceScript"`
	Scenes          []struct {
		VideoPrompt string `json:"videoPrompt"`
		VoiceScript string `json:"voiceScript"`
	} `json:"scenes"`
}

// GenerateCreativeAssets asks the planner model for a character prompt, an
// overall prompt, a narration script and exactly sceneCount scene stubs.
func (c *GenAIClient) GenerateCreativeAssets(ctx context.Context, req *PlanRequest, auth AuthContext) (*model.CreativeAssets, error) {
	sceneCount := req.Config.SceneCount()
	prompt := buildPlannerPrompt(req, sceneCount)

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"temperature":      0.9,
			"topP":             0.95,
			"topK":             40,
		},
	}

	endpoint := fmt.Sprintf("/models/%s:generateContent", c.cfg.PlannerModel)

	raw, err := c.transport.Send(ctx, http.MethodPost, endpoint, body, auth)
	if err != nil {
		return nil, err
	}

	var resp generateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &PlanningError{Message: fmt.Sprintf("failed to parse planner response: %v", err)}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &PlanningError{Message: "no candidates in planner response"}
	}

	text := resp.Candidates[0].Content.Parts[0].Text

	var plan planOutput
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, &PlanningError{Message: fmt.Sprintf("planner returned invalid JSON: %v", err)}
	}
	if plan.CharacterPrompt == "" || plan.VoiceScript == "" {
		return nil, &PlanningError{Message: "planner output missing required fields"}
	}
	if len(plan.Scenes) == 0 {
		return nil, &PlanningError{Message: "planner output contains no scenes"}
	}
	for i, s := range plan.Scenes {
		if s.VideoPrompt == "" || s.VoiceScript == "" {
			return nil, &PlanningError{Message: fmt.Sprintf("scene %d missing required fields", i)}
		}
	}

	scenes := make([]model.Scene, len(plan.Scenes))
	for i, s := range plan.Scenes {
		scenes[i] = model.Scene{
			ID:              uuid.New().String(),
			Index:           i,
			CharacterPrompt: plan.CharacterPrompt,
			VideoPrompt:     s.VideoPrompt,
			Speech:          s.VoiceScript,
			Status:          model.StepIdle,
		}
	}

	log.Printf("[Planner] Generated %d scenes (requested %d)", len(scenes), sceneCount)

	return &model.CreativeAssets{
		CharacterPrompt: plan.CharacterPrompt,
		OverallPrompt:   plan.VideoPrompt,
		VoiceScript:     plan.VoiceScript,
		Scenes:          scenes,
	}, nil
}

// buildPlannerPrompt constructs the single structured-output instruction
func buildPlannerPrompt(req *PlanRequest, sceneCount int) string {
	script := req.Script
	if script == "" {
		script = "Not provided"
	}
	language := model.LanguageNames[req.Config.Language]
	style := req.Config.StyleText()

	return fmt.Sprintf(`Based on the following idea, generate a set of creative assets for a video.

User's idea: "%s"
User provided script: "%s"

Video Configuration:
- Style: %s
- Language: %s
- Number of scenes: %d
- Duration per scene: %d seconds (fixed)
- Total duration: ~%g minute(s)

Your tasks:
1. "characterPrompt": Create a detailed, visually rich prompt for an image generation model to create the main character. The character should fit the "%s" style. Describe appearance, clothing, and setting.
2. "scenes": Generate %d distinct scenes. For each scene:
   - videoPrompt: Describe an %d-second cinematic scene in "%s" style
   - voiceScript: Write dialogue/narration in %s
   - Ensure continuity between scenes
3. "voiceScript": If the user provided a script, use it. Otherwise, create an overall narration.

Return the response in JSON format with these fields:
{
  "characterPrompt": "string",
  "videoPrompt": "string",
  "voiceScript": "string",
  "scenes": [
    { "videoPrompt": "string", "voiceScript": "string" }
  ]
}`,
		req.Idea, script, style, language, sceneCount,
		model.SceneLengthSeconds, req.Config.DurationMinutes,
		style, sceneCount, model.SceneLengthSeconds, style, language)
}
