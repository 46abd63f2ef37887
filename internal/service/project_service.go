package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ideareel/api/internal/model"
)

// ProjectService stores named run snapshots and the last-used form input
type ProjectService struct {
	redis *redis.Client
}

func NewProjectService(redisClient *redis.Client) *ProjectService {
	return &ProjectService{redis: redisClient}
}

// List returns the user's projects, newest first
func (s *ProjectService) List(ctx context.Context, userID string) ([]model.Project, error) {
	entries, err := s.redis.HGetAll(ctx, projectsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]model.Project, 0, len(entries))
	for _, raw := range entries {
		var p model.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		projects = append(projects, p)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

// Get returns a single project
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	raw, err := s.redis.HGet(ctx, projectsKey(userID), projectID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("project not found")
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	var p model.Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

// Create saves a new project snapshot
func (s *ProjectService) Create(ctx context.Context, userID string, req *model.ProjectSaveRequest) (*model.Project, error) {
	now := time.Now()
	p := &model.Project{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      req.Name,
		Idea:      req.Idea,
		Script:    req.Script,
		Config:    req.Config,
		Generated: req.Generated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, userID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces an existing project snapshot
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, req *model.ProjectSaveRequest) (*model.Project, error) {
	p, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	p.Name = req.Name
	p.Idea = req.Idea
	p.Script = req.Script
	p.Config = req.Config
	p.Generated = req.Generated
	p.UpdatedAt = time.Now()

	if err := s.save(ctx, userID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a project
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	removed, err := s.redis.HDel(ctx, projectsKey(userID), projectID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("project not found")
	}
	return nil
}

// SaveFromRun persists a run's output as a project snapshot (called by worker)
func (s *ProjectService) SaveFromRun(ctx context.Context, userID, name string, result *model.PipelineResult) (*model.Project, error) {
	return s.Create(ctx, userID, &model.ProjectSaveRequest{
		Name:      name,
		Idea:      result.Idea,
		Script:    result.Script,
		Config:    result.Config,
		Generated: &result.Generated,
	})
}

// SaveFormState persists the last-used form input
func (s *ProjectService) SaveFormState(ctx context.Context, userID string, state *model.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal form state: %w", err)
	}
	if err := s.redis.Set(ctx, formKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save form state: %w", err)
	}
	return nil
}

// GetFormState returns the last-used form input, or nil if none was saved
func (s *ProjectService) GetFormState(ctx context.Context, userID string) (*model.FormState, error) {
	data, err := s.redis.Get(ctx, formKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load form state: %w", err)
	}

	var state model.FormState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form state: %w", err)
	}
	return &state, nil
}

func (s *ProjectService) save(ctx context.Context, userID string, p *model.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := s.redis.HSet(ctx, projectsKey(userID), p.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func projectsKey(userID string) string {
	return fmt.Sprintf("projects:%s", userID)
}

func formKey(userID string) string {
	return fmt.Sprintf("form:last:%s", userID)
}
