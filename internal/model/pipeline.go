package model

import "math"

// SceneLengthSeconds is the fixed duration each generated clip covers.
const SceneLengthSeconds = 8

// VideoConfig holds the per-run generation settings
type VideoConfig struct {
	Style             VideoStyle     `json:"style" validate:"required,oneof=cinematic documentary cartoon realistic anime custom"`
	CustomStyle       string         `json:"customStyle" validate:"omitempty,max=200"`
	Language          Language       `json:"language" validate:"required,oneof=en vi ja ko zh fr es"`
	DurationMinutes   float64        `json:"durationMinutes" validate:"required,gt=0,lte=10"`
	AspectRatio       AspectRatio    `json:"aspectRatio" validate:"required,oneof=16:9 9:16"`
	ModelVariant      string         `json:"modelVariant" validate:"omitempty,max=100"`
	VideosPerPrompt   int            `json:"videosPerPrompt" validate:"omitempty,min=1,max=4"`
	Mode              GenerationMode `json:"mode" validate:"required,oneof=auto review"`
	UseCharacterImage bool           `json:"useCharacterImage"`
	UseCookieAuth     bool           `json:"useCookieAuth"`
}

// SceneCount derives the number of scenes from the target duration.
// It is always recomputed, never stored independently.
func (c VideoConfig) SceneCount() int {
	return int(math.Ceil(c.DurationMinutes * 60 / SceneLengthSeconds))
}

// StyleText returns the style string used in prompts, resolving custom styles.
func (c VideoConfig) StyleText() string {
	if c.Style == StyleCustom && c.CustomStyle != "" {
		return c.CustomStyle
	}
	return string(c.Style)
}

// Cookie is a single browser session cookie supplied by the user.
// Only Domain, Name and Value are read; other flags are carried opaquely.
type Cookie struct {
	Domain   string `json:"domain" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Value    string `json:"value" validate:"required"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
}

// Credentials holds the user-supplied provider credentials
type Credentials struct {
	APIKey  string   `json:"apiKey,omitempty"`
	Cookies []Cookie `json:"cookies,omitempty"`
}

// ImageRef is an inline image payload (raw base64, no data-URL prefix)
type ImageRef struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Scene is one clip of the final video
type Scene struct {
	ID              string     `json:"id"`
	Index           int        `json:"index"`
	CharacterPrompt string     `json:"characterPrompt,omitempty"`
	VideoPrompt     string     `json:"videoPrompt"`
	Speech          string     `json:"speech"`
	CharacterImage  *ImageRef  `json:"characterImage,omitempty"`
	AudioURL        *string    `json:"audioUrl,omitempty"`
	VideoURL        *string    `json:"videoUrl,omitempty"`
	Status          StepStatus `json:"status"`
	Error           *string    `json:"error,omitempty"`
}

// CreativeAssets is the planner output: prompts plus scene stubs.
// Immutable after planning except for scene materialization.
type CreativeAssets struct {
	CharacterPrompt string  `json:"characterPrompt"`
	OverallPrompt   string  `json:"overallPrompt"`
	VoiceScript     string  `json:"voiceScript"`
	Scenes          []Scene `json:"scenes"`
}

// CharacterVariation is one candidate reference image
type CharacterVariation struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Image    ImageRef `json:"image"`
	Selected bool     `json:"selected"`
}

// GenerationStatus exposes coarse per-step progress to observers.
// The pipeline's own stage variable is authoritative for control flow.
type GenerationStatus struct {
	Planning  StepStatus `json:"planning"`
	Character StepStatus `json:"character"`
	Voice     StepStatus `json:"voice"`
	Video     StepStatus `json:"video"`
}

// GeneratedData is everything a finished (or partially finished) run produced
type GeneratedData struct {
	Assets     CreativeAssets       `json:"assets"`
	Variations []CharacterVariation `json:"characterVariations,omitempty"`
	Scenes     []Scene              `json:"scenes"`
}

// FormState is the last-used form input, persisted for convenience
type FormState struct {
	Idea   string      `json:"idea"`
	Script string      `json:"script"`
	Config VideoConfig `json:"config"`
}
