package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ideareel/api/internal/model"
)

// MockGenerator is a deterministic MediaGenerator used when the provider is
// not configured and in tests.
type MockGenerator struct{}

// NewMockGenerator creates a mock generator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateCreativeAssets returns a deterministic plan with the configured
// number of scenes.
func (m *MockGenerator) GenerateCreativeAssets(_ context.Context, req *PlanRequest, _ AuthContext) (*model.CreativeAssets, error) {
	sceneCount := req.Config.SceneCount()
	characterPrompt := fmt.Sprintf("A %s style protagonist inspired by: %s", req.Config.StyleText(), req.Idea)

	scenes := make([]model.Scene, sceneCount)
	for i := range scenes {
		scenes[i] = model.Scene{
			ID:              uuid.New().String(),
			Index:           i,
			CharacterPrompt: characterPrompt,
			VideoPrompt:     fmt.Sprintf("Scene %d: %s, %s style", i+1, req.Idea, req.Config.StyleText()),
			Speech:          fmt.Sprintf("Narration for scene %d.", i+1),
			Status:          model.StepIdle,
		}
	}

	return &model.CreativeAssets{
		CharacterPrompt: characterPrompt,
		OverallPrompt:   fmt.Sprintf("A short video about: %s", req.Idea),
		VoiceScript:     fmt.Sprintf("This is the story of %s.", req.Idea),
		Scenes:          scenes,
	}, nil
}

// GenerateCharacterImage returns a tiny placeholder image payload
func (m *MockGenerator) GenerateCharacterImage(_ context.Context, _ string, _ AuthContext) (*model.ImageRef, error) {
	return &model.ImageRef{
		// 1x1 transparent PNG
		Data:     "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
		MimeType: "image/png",
	}, nil
}

// GenerateSpeech returns a placeholder audio payload
func (m *MockGenerator) GenerateSpeech(_ context.Context, _ string, _ AuthContext) (*SpeechResult, error) {
	return &SpeechResult{
		Data:     "UklGRiQAAABXQVZFZm10IBAAAAABAAEAQB8AAIA+AAACABAAZGF0YQAAAAA=",
		MimeType: "audio/wav",
	}, nil
}

// GenerateVideo returns a placeholder video payload without polling
func (m *MockGenerator) GenerateVideo(_ context.Context, _ *VideoRequest, _ AuthContext) (*VideoResult, error) {
	return &VideoResult{
		Data:     []byte("mock-video-payload"),
		MimeType: "video/mp4",
	}, nil
}
