package model

// Video styles
type VideoStyle string

const (
	StyleCinematic   VideoStyle = "cinematic"
	StyleDocumentary VideoStyle = "documentary"
	StyleCartoon     VideoStyle = "cartoon"
	StyleRealistic   VideoStyle = "realistic"
	StyleAnime       VideoStyle = "anime"
	StyleCustom      VideoStyle = "custom"
)

var ValidStyles = []VideoStyle{
	StyleCinematic, StyleDocumentary, StyleCartoon,
	StyleRealistic, StyleAnime, StyleCustom,
}

// Language
type Language string

const (
	LanguageEN Language = "en"
	LanguageVI Language = "vi"
	LanguageJA Language = "ja"
	LanguageKO Language = "ko"
	LanguageZH Language = "zh"
	LanguageFR Language = "fr"
	LanguageES Language = "es"
)

var ValidLanguages = []Language{
	LanguageEN, LanguageVI, LanguageJA, LanguageKO,
	LanguageZH, LanguageFR, LanguageES,
}

// LanguageNames maps language codes to the names used in generation prompts.
var LanguageNames = map[Language]string{
	LanguageEN: "English",
	LanguageVI: "Vietnamese",
	LanguageJA: "Japanese",
	LanguageKO: "Korean",
	LanguageZH: "Chinese",
	LanguageFR: "French",
	LanguageES: "Spanish",
}

// Generation modes
type GenerationMode string

const (
	ModeAuto   GenerationMode = "auto"
	ModeReview GenerationMode = "review"
)

// Aspect ratios
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// Step status (per-scene and per-asset lifecycle)
type StepStatus string

const (
	StepIdle    StepStatus = "idle"
	StepPending StepStatus = "pending"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// AuthMode selects how requests to the generation provider are signed.
type AuthMode string

const (
	AuthModeCookie AuthMode = "cookie"
	AuthModeAPIKey AuthMode = "apikey"
	AuthModeNone   AuthMode = "none"
)

// Job status
type JobStatus string

const (
	JobStatusQueued         JobStatus = "queued"
	JobStatusRunning        JobStatus = "running"
	JobStatusAwaitingReview JobStatus = "awaiting_review"
	JobStatusSucceeded      JobStatus = "succeeded"
	JobStatusFailed         JobStatus = "failed"
	JobStatusCanceled       JobStatus = "canceled"
)
