package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ideareel/api/internal/model"
)

// credentialTTL bounds how long stored provider credentials live.
// Session cookies go stale anyway; expiring the record forces re-upload.
const credentialTTL = 24 * time.Hour

// CredentialService stores per-user provider credentials
type CredentialService struct {
	redis *redis.Client
}

func NewCredentialService(redisClient *redis.Client) *CredentialService {
	return &CredentialService{redis: redisClient}
}

// Save stores the user's credentials, replacing any existing record
func (s *CredentialService) Save(ctx context.Context, userID string, creds *model.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := s.redis.Set(ctx, credentialKey(userID), data, credentialTTL).Err(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Get returns the user's stored credentials, or an empty set if none exist
func (s *CredentialService) Get(ctx context.Context, userID string) (*model.Credentials, error) {
	data, err := s.redis.Get(ctx, credentialKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &model.Credentials{}, nil
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds model.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// Status reports what credentials are on file without exposing them
func (s *CredentialService) Status(ctx context.Context, userID string) (*model.CredentialsStatusResponse, error) {
	creds, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.CredentialsStatusResponse{
		HasAPIKey:   creds.APIKey != "",
		CookieCount: len(creds.Cookies),
	}, nil
}

// Delete removes the user's stored credentials
func (s *CredentialService) Delete(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, credentialKey(userID)).Err()
}

func credentialKey(userID string) string {
	return fmt.Sprintf("credentials:%s", userID)
}
