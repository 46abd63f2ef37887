package model

import "time"

// Project is a named snapshot of a run: inputs, config and produced assets
type Project struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Name      string         `json:"name"`
	Idea      string         `json:"idea"`
	Script    string         `json:"script,omitempty"`
	Config    VideoConfig    `json:"config"`
	Generated *GeneratedData `json:"generatedData,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
