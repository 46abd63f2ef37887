package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// GenerateSpeech synthesizes one audio clip for the given script using the
// configured voice preset.
func (c *GenAIClient) GenerateSpeech(ctx context.Context, script string, auth AuthContext) (*SpeechResult, error) {
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": script}}},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"AUDIO"},
			"speechConfig": map[string]interface{}{
				"voiceConfig": map[string]interface{}{
					"prebuiltVoiceConfig": map[string]string{"voiceName": c.cfg.TTSVoice},
				},
			},
		},
	}

	endpoint := fmt.Sprintf("/models/%s:generateContent", c.cfg.TTSModel)

	raw, err := c.transport.Send(ctx, http.MethodPost, endpoint, body, auth)
	if err != nil {
		return nil, err
	}

	var resp generateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal speech response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &TTSError{Message: "no audio data in response"}
	}

	part := resp.Candidates[0].Content.Parts[0]
	if part.InlineData == nil || part.InlineData.Data == "" {
		return nil, &TTSError{Message: "no audio data in response"}
	}

	log.Printf("[TTS] Generated speech (%d KB)", len(part.InlineData.Data)/1024)

	return &SpeechResult{
		Data:     part.InlineData.Data,
		MimeType: part.InlineData.MimeType,
	}, nil
}
