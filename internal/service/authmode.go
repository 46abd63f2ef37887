package service

import (
	"time"

	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
)

// ResolveAuthMode selects the auth strategy for a run. Cookie auth wins when
// the run requests it and at least one cookie is on file; otherwise the API
// key is used if present. AuthModeNone is a fatal pre-condition for any run.
func ResolveAuthMode(cfg model.VideoConfig, creds model.Credentials) model.AuthMode {
	if cfg.UseCookieAuth && len(creds.Cookies) > 0 {
		return model.AuthModeCookie
	}
	if creds.APIKey != "" {
		return model.AuthModeAPIKey
	}
	return model.AuthModeNone
}

// RequestDelay returns the inter-request pacing for a resolved auth mode.
// Cookie sessions tolerate a higher request rate than keyed quota.
func RequestDelay(mode model.AuthMode, cfg *config.GenAIConfig) time.Duration {
	if mode == model.AuthModeCookie {
		return cfg.CookieDelay
	}
	return cfg.KeyDelay
}
