package model

// CredentialsRequest represents the request body for storing credentials
type CredentialsRequest struct {
	APIKey  string   `json:"apiKey" validate:"omitempty,min=10,max=300"`
	Cookies []Cookie `json:"cookies" validate:"omitempty,max=100,dive"`
}

// CredentialsStatusResponse reports what credentials are on file without
// echoing secret material back to the client.
type CredentialsStatusResponse struct {
	HasAPIKey   bool `json:"hasApiKey"`
	CookieCount int  `json:"cookieCount"`
}

// PipelineStartRequest represents the request body for starting a run
type PipelineStartRequest struct {
	Idea   string      `json:"idea" validate:"required,min=1,max=2000"`
	Script string      `json:"script" validate:"omitempty,max=20000"`
	Config VideoConfig `json:"config" validate:"required"`
}

// PipelineStartResponse is returned when a run is accepted
type PipelineStartResponse struct {
	JobID      string `json:"jobId"`
	Status     string `json:"status"`
	SceneCount int    `json:"sceneCount"`
}

// PipelineApproveRequest carries the review-stage approval: the selected
// character variation and any scene edits made during suspension.
type PipelineApproveRequest struct {
	SelectedVariationID string  `json:"selectedVariationId" validate:"omitempty,uuid4"`
	Scenes              []Scene `json:"scenes" validate:"omitempty,max=100,dive"`
}

// SceneRegenerateRequest optionally overrides the prompt for a single scene
type SceneRegenerateRequest struct {
	VideoPrompt string `json:"videoPrompt" validate:"omitempty,max=4000"`
	Speech      string `json:"speech" validate:"omitempty,max=4000"`
}

// ProjectSaveRequest represents the request body for saving a project
type ProjectSaveRequest struct {
	Name      string         `json:"name" validate:"required,min=1,max=200"`
	Idea      string         `json:"idea" validate:"required,min=1,max=2000"`
	Script    string         `json:"script" validate:"omitempty,max=20000"`
	Config    VideoConfig    `json:"config" validate:"required"`
	Generated *GeneratedData `json:"generatedData" validate:"omitempty"`
}

// FormSaveRequest persists the last-used form input
type FormSaveRequest struct {
	Idea   string      `json:"idea" validate:"omitempty,max=2000"`
	Script string      `json:"script" validate:"omitempty,max=20000"`
	Config VideoConfig `json:"config" validate:"required"`
}
