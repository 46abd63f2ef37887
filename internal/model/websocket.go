package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeScene    = "scene"
	WSMessageTypeReview   = "review"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage represents a progress update
type WSProgressMessage struct {
	Type        string    `json:"type"`
	JobID       string    `json:"jobId"`
	Progress    int       `json:"progress"`
	Status      JobStatus `json:"status"`
	Stage       Stage     `json:"stage,omitempty"`
	CurrentStep string    `json:"currentStep,omitempty"`
}

// WSSceneMessage represents a per-scene status change during batch processing
type WSSceneMessage struct {
	Type    string     `json:"type"`
	JobID   string     `json:"jobId"`
	SceneID string     `json:"sceneId"`
	Status  StepStatus `json:"status"`
	Scene   *Scene     `json:"scene,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// WSReviewMessage signals that a run is suspended awaiting approval
type WSReviewMessage struct {
	Type       string               `json:"type"`
	JobID      string               `json:"jobId"`
	Variations []CharacterVariation `json:"characterVariations,omitempty"`
	Scenes     []Scene              `json:"scenes"`
}

// WSCompleteMessage represents job completion
type WSCompleteMessage struct {
	Type   string      `json:"type"`
	JobID  string      `json:"jobId"`
	Result interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"jobId"`
	Error WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
