package service

import (
	"testing"
	"time"

	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
)

func TestResolveAuthMode(t *testing.T) {
	cookie := model.Cookie{Domain: ".google.com", Name: "SAPISID", Value: "abc"}

	tests := []struct {
		name  string
		cfg   model.VideoConfig
		creds model.Credentials
		want  model.AuthMode
	}{
		{
			"cookie auth requested with cookies on file",
			model.VideoConfig{UseCookieAuth: true},
			model.Credentials{Cookies: []model.Cookie{cookie}},
			model.AuthModeCookie,
		},
		{
			"cookie auth requested but no cookies falls back to key",
			model.VideoConfig{UseCookieAuth: true},
			model.Credentials{APIKey: "key-123"},
			model.AuthModeAPIKey,
		},
		{
			"cookies present but not requested uses key",
			model.VideoConfig{UseCookieAuth: false},
			model.Credentials{APIKey: "key-123", Cookies: []model.Cookie{cookie}},
			model.AuthModeAPIKey,
		},
		{
			"cookies present but not requested and no key",
			model.VideoConfig{UseCookieAuth: false},
			model.Credentials{Cookies: []model.Cookie{cookie}},
			model.AuthModeNone,
		},
		{
			"nothing on file",
			model.VideoConfig{UseCookieAuth: true},
			model.Credentials{},
			model.AuthModeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveAuthMode(tt.cfg, tt.creds); got != tt.want {
				t.Errorf("ResolveAuthMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestDelay(t *testing.T) {
	cfg := &config.GenAIConfig{
		CookieDelay: 5 * time.Second,
		KeyDelay:    12 * time.Second,
	}

	if got := RequestDelay(model.AuthModeCookie, cfg); got != 5*time.Second {
		t.Errorf("cookie delay = %v, want 5s", got)
	}
	if got := RequestDelay(model.AuthModeAPIKey, cfg); got != 12*time.Second {
		t.Errorf("apikey delay = %v, want 12s", got)
	}
	if got := RequestDelay(model.AuthModeNone, cfg); got != 12*time.Second {
		t.Errorf("none delay = %v, want 12s", got)
	}
}
