package model

import "time"

// Stage is the pipeline's authoritative run state
type Stage string

const (
	StageAwaitingCredentials Stage = "awaiting_credentials"
	StagePlanning            Stage = "planning"
	StageCharacter           Stage = "character_generation"
	StageReviewPending       Stage = "review_pending"
	StageBatch               Stage = "batch_processing"
	StageComplete            Stage = "complete"
)

// Job represents a background job in the system
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	UserID      string     `json:"userId"`
	Status      JobStatus  `json:"status"`
	Stage       Stage      `json:"stage"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	ErrorCode   string     `json:"errorCode,omitempty"`
	Payload     []byte     `json:"payload,omitempty"`    // JSON-encoded PipelineJobPayload
	Checkpoint  []byte     `json:"checkpoint,omitempty"` // JSON-encoded PipelineCheckpoint, set while suspended for review
	Result      []byte     `json:"result,omitempty"`     // JSON-encoded PipelineResult
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Job types
const (
	JobTypePipeline = "pipeline"
)

// PipelineJobPayload contains the data for a pipeline run
type PipelineJobPayload struct {
	UserID string      `json:"userId"`
	Idea   string      `json:"idea"`
	Script string      `json:"script,omitempty"`
	Config VideoConfig `json:"config"`
}

// PipelineCheckpoint is the suspended state persisted while a run awaits review.
// Resumption re-enters at the batch stage with whatever scene edits and
// variation selection the approval call supplies.
type PipelineCheckpoint struct {
	Payload    PipelineJobPayload   `json:"payload"`
	Assets     CreativeAssets       `json:"assets"`
	Variations []CharacterVariation `json:"variations,omitempty"`
	AuthMode   AuthMode             `json:"authMode"`
}

// PipelineResult is the terminal output of a run
type PipelineResult struct {
	Idea      string           `json:"idea"`
	Script    string           `json:"script,omitempty"`
	Config    VideoConfig      `json:"config"`
	Generated GeneratedData    `json:"generatedData"`
	Status    GenerationStatus `json:"status"`
	Failed    int              `json:"failedScenes"`
	Succeeded int              `json:"succeededScenes"`
}
