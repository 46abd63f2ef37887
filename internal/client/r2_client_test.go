package client

import "testing"

func TestAssetKey(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		mimeType string
		want     string
	}{
		{"audio wav", "audio", "audio/wav", "jobs/job-1/audio/scene-1.wav"},
		{"audio with codec params", "audio", "audio/L16;codec=pcm;rate=24000", "jobs/job-1/audio/scene-1.L16"},
		{"video mp4", "video", "video/mp4", "jobs/job-1/video/scene-1.mp4"},
		{"image png", "image", "image/png", "jobs/job-1/image/scene-1.png"},
		{"unknown type", "video", "application/octet-stream", "jobs/job-1/video/scene-1.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssetKey("job-1", "scene-1", tt.kind, tt.mimeType); got != tt.want {
				t.Errorf("AssetKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
