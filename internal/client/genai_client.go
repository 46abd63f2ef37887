package client

import (
	"context"

	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
)

// MediaGenerator defines the interface for generation provider operations
type MediaGenerator interface {
	GenerateCreativeAssets(ctx context.Context, req *PlanRequest, auth AuthContext) (*model.CreativeAssets, error)
	GenerateCharacterImage(ctx context.Context, prompt string, auth AuthContext) (*model.ImageRef, error)
	GenerateSpeech(ctx context.Context, script string, auth AuthContext) (*SpeechResult, error)
	GenerateVideo(ctx context.Context, req *VideoRequest, auth AuthContext) (*VideoResult, error)
}

// PlanRequest is the input to the creative planner
type PlanRequest struct {
	Idea   string
	Script string
	Config model.VideoConfig
}

// SpeechResult is a synthesized audio payload
type SpeechResult struct {
	Data     string // base64
	MimeType string
}

// VideoRequest is the input for one video generation job
type VideoRequest struct {
	Prompt         string
	ReferenceImage *model.ImageRef
	AspectRatio    model.AspectRatio
	NumberOfVideos int
	Model          string // optional model variant override
}

// VideoResult is a completed video payload
type VideoResult struct {
	Data     []byte
	MimeType string
}

// GenAIClient implements MediaGenerator against the provider's REST API
type GenAIClient struct {
	transport *Transport
	cfg       *config.GenAIConfig
}

// NewGenAIClient creates a new generation provider client
func NewGenAIClient(cfg *config.GenAIConfig) *GenAIClient {
	return &GenAIClient{
		transport: NewTransport(cfg),
		cfg:       cfg,
	}
}
