package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/ideareel/api/internal/model"
)

const (
	TaskTypePipeline       = "pipeline:run"
	TaskTypePipelineResume = "pipeline:resume"
	TaskTypeSceneRegen     = "scene:regenerate"
)

// jobTTL is how long finished job records stay readable
const jobTTL = 24 * time.Hour

// PipelineService manages pipeline job lifecycle and queueing
type PipelineService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewPipelineService(redisClient *redis.Client, asynqClient *asynq.Client) *PipelineService {
	return &PipelineService{
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// StartPipeline queues a new pipeline run
func (s *PipelineService) StartPipeline(ctx context.Context, userID string, req *model.PipelineStartRequest) (*model.PipelineStartResponse, error) {
	jobID := uuid.New().String()
	now := time.Now()

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypePipeline,
		UserID:    userID,
		Status:    model.JobStatusQueued,
		Stage:     model.StageAwaitingCredentials,
		Progress:  0,
		CreatedAt: now,
	}

	payload := &model.PipelineJobPayload{
		UserID: userID,
		Idea:   req.Idea,
		Script: req.Script,
		Config: req.Config,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	job.Payload = payloadBytes

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newPipelineTask(TaskTypePipeline, jobID, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// Generation calls are not idempotent; a failed run must not be retried
	// by the queue.
	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("pipeline"),
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Hour),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.PipelineStartResponse{
		JobID:      jobID,
		Status:     string(model.JobStatusQueued),
		SceneCount: req.Config.SceneCount(),
	}, nil
}

// GetStatus returns the current status of a pipeline job
func (s *PipelineService) GetStatus(ctx context.Context, userID, jobID string) (*model.Job, error) {
	return s.getOwnedJob(ctx, userID, jobID)
}

// GetResult returns the result of a completed pipeline job
func (s *PipelineService) GetResult(ctx context.Context, userID, jobID string) (*model.PipelineResult, error) {
	job, err := s.getOwnedJob(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusSucceeded {
		return nil, fmt.Errorf("job not completed")
	}

	var result model.PipelineResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// GetReview returns the suspended checkpoint of a job awaiting review
func (s *PipelineService) GetReview(ctx context.Context, userID, jobID string) (*model.PipelineCheckpoint, error) {
	job, err := s.getOwnedJob(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusAwaitingReview {
		return nil, fmt.Errorf("job not awaiting review")
	}

	var checkpoint model.PipelineCheckpoint
	if err := json.Unmarshal(job.Checkpoint, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// Approve resumes a job suspended for review, applying the supplied variation
// selection and scene edits, and re-enters the pipeline at the batch stage.
func (s *PipelineService) Approve(ctx context.Context, userID, jobID string, req *model.PipelineApproveRequest) error {
	job, err := s.getOwnedJob(ctx, userID, jobID)
	if err != nil {
		return err
	}
	if job.Status != model.JobStatusAwaitingReview {
		return fmt.Errorf("job not awaiting review")
	}

	var checkpoint model.PipelineCheckpoint
	if err := json.Unmarshal(job.Checkpoint, &checkpoint); err != nil {
		return fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	if len(req.Scenes) > 0 {
		checkpoint.Assets.Scenes = req.Scenes
	}
	if req.SelectedVariationID != "" {
		found := false
		for i := range checkpoint.Variations {
			selected := checkpoint.Variations[i].ID == req.SelectedVariationID
			checkpoint.Variations[i].Selected = selected
			if selected {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("variation not found")
		}
	}

	checkpointBytes, err := json.Marshal(&checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	job.Checkpoint = checkpointBytes
	job.Status = model.JobStatusQueued
	job.Stage = model.StageBatch
	job.CurrentStep = "approved, resuming batch"
	if err := s.saveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newPipelineTask(TaskTypePipelineResume, jobID, checkpointBytes)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("pipeline"),
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Hour),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// RegenerateScene queues a single-scene regeneration on a completed job
func (s *PipelineService) RegenerateScene(ctx context.Context, userID, jobID, sceneID string, req *model.SceneRegenerateRequest) error {
	job, err := s.getOwnedJob(ctx, userID, jobID)
	if err != nil {
		return err
	}
	if job.Status != model.JobStatusSucceeded {
		return fmt.Errorf("job not completed")
	}

	var result model.PipelineResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	found := false
	for _, scene := range result.Generated.Scenes {
		if scene.ID == sceneID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("scene not found")
	}

	payload, err := json.Marshal(map[string]string{
		"sceneId":     sceneID,
		"videoPrompt": req.VideoPrompt,
		"speech":      req.Speech,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task, err := newPipelineTask(TaskTypeSceneRegen, jobID, payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("pipeline"),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Cancel marks a running job as canceled. The worker observes this between
// scenes; in-flight provider calls are not preempted.
func (s *PipelineService) Cancel(ctx context.Context, userID, jobID string) error {
	job, err := s.getOwnedJob(ctx, userID, jobID)
	if err != nil {
		return err
	}
	if job.Status == model.JobStatusSucceeded || job.Status == model.JobStatusFailed || job.Status == model.JobStatusCanceled {
		return fmt.Errorf("job already completed")
	}

	job.Status = model.JobStatusCanceled
	now := time.Now()
	job.CompletedAt = &now
	return s.saveJob(ctx, job)
}

// LoadJob returns a job record without an ownership check (called by worker)
func (s *PipelineService) LoadJob(ctx context.Context, jobID string) (*model.Job, error) {
	return s.getJob(ctx, jobID)
}

// IsCanceled reports whether a job has been canceled (called by worker)
func (s *PipelineService) IsCanceled(ctx context.Context, jobID string) bool {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return false
	}
	return job.Status == model.JobStatusCanceled
}

// UpdateJobStage updates job stage and progress (called by worker)
func (s *PipelineService) UpdateJobStage(ctx context.Context, jobID string, stage model.Stage, progress int, step string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Stage = stage
	job.Progress = progress
	job.CurrentStep = step

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}

	return s.saveJob(ctx, job)
}

// SuspendForReview persists the checkpoint and parks the job until approval.
// The suspension is indefinite; the record outlives the worker process.
func (s *PipelineService) SuspendForReview(ctx context.Context, jobID string, checkpoint *model.PipelineCheckpoint) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	checkpointBytes, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	job.Status = model.JobStatusAwaitingReview
	job.Stage = model.StageReviewPending
	job.Checkpoint = checkpointBytes
	job.CurrentStep = "awaiting review"
	return s.saveJob(ctx, job)
}

// CompleteJob marks job as completed (called by worker)
func (s *PipelineService) CompleteJob(ctx context.Context, jobID string, result *model.PipelineResult) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusSucceeded
	job.Stage = model.StageComplete
	job.Progress = 100
	job.Result = resultBytes
	job.Checkpoint = nil
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// UpdateResult replaces the stored result of a completed job (scene regen)
func (s *PipelineService) UpdateResult(ctx context.Context, jobID string, result *model.PipelineResult) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}
	job.Result = resultBytes
	return s.saveJob(ctx, job)
}

// FailJob marks job as failed with a routing code (called by worker)
func (s *PipelineService) FailJob(ctx context.Context, jobID, errCode, errMsg string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.ErrorCode = errCode
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// ResetToCredentials routes an auth-failed job back to credential entry
func (s *PipelineService) ResetToCredentials(ctx context.Context, jobID, errMsg string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Stage = model.StageAwaitingCredentials
	job.ErrorCode = "AUTH_ERROR"
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// Helper methods

func (s *PipelineService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fmt.Sprintf("job:%s", job.ID), data, jobTTL).Err()
}

func (s *PipelineService) getJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("job:%s", jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("job not found")
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *PipelineService) getOwnedJob(ctx context.Context, userID, jobID string) (*model.Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, fmt.Errorf("job not found")
	}
	return job, nil
}

func newPipelineTask(taskType, jobID string, payload []byte) (*asynq.Task, error) {
	taskPayload := map[string]interface{}{
		"jobId":   jobID,
		"payload": json.RawMessage(payload),
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}
