package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/ideareel/api/internal/client"
	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/model"
	"github.com/ideareel/api/internal/service"
	"github.com/ideareel/api/internal/websocket"
)

// variationCount is how many candidate character images one run produces
const variationCount = 3

// PipelineWorker drives a run through its stages: credentials, planning,
// character generation, the review fork, batch processing and completion.
type PipelineWorker struct {
	pipelineService   *service.PipelineService
	credentialService *service.CredentialService
	projectService    *service.ProjectService
	characterService  *service.CharacterService
	batch             *service.BatchOrchestrator
	generator         client.MediaGenerator
	genCfg            *config.GenAIConfig
	hub               *websocket.Hub
}

// NewPipelineWorker creates a new pipeline worker
func NewPipelineWorker(
	pipelineService *service.PipelineService,
	credentialService *service.CredentialService,
	projectService *service.ProjectService,
	characterService *service.CharacterService,
	batch *service.BatchOrchestrator,
	generator client.MediaGenerator,
	genCfg *config.GenAIConfig,
	hub *websocket.Hub,
) *PipelineWorker {
	return &PipelineWorker{
		pipelineService:   pipelineService,
		credentialService: credentialService,
		projectService:    projectService,
		characterService:  characterService,
		batch:             batch,
		generator:         generator,
		genCfg:            genCfg,
		hub:               hub,
	}
}

// ProcessTask handles a full pipeline run from the planning stage
func (w *PipelineWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting pipeline job: %s", jobID)

	var payload model.PipelineJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "PIPELINE_ERROR", "Invalid payload")
		return fmt.Errorf("failed to unmarshal pipeline payload: %w", err)
	}

	// Resolve credentials. AuthModeNone is a fatal pre-condition; nothing
	// is generated before it is ruled out.
	creds, err := w.credentialService.Get(ctx, payload.UserID)
	if err != nil {
		w.failJob(ctx, jobID, "PIPELINE_ERROR", "Failed to load credentials")
		return err
	}

	mode := service.ResolveAuthMode(payload.Config, *creds)
	if mode == model.AuthModeNone {
		err := &client.AuthError{Message: "no usable credentials: provide an API key or session cookies"}
		w.routeError(ctx, jobID, err)
		return err
	}

	auth := client.AuthContext{Mode: mode, Credentials: *creds}
	delay := service.RequestDelay(mode, w.genCfg)

	// Planning stage
	w.updateStage(ctx, jobID, model.StagePlanning, 10, "Planning scenes...")
	assets, err := w.generator.GenerateCreativeAssets(ctx, &client.PlanRequest{
		Idea:   payload.Idea,
		Script: payload.Script,
		Config: payload.Config,
	}, auth)
	if err != nil {
		w.routeError(ctx, jobID, err)
		return err
	}

	// Character stage, skipped in prompt-only mode
	var variations []model.CharacterVariation
	if payload.Config.UseCharacterImage {
		w.updateStage(ctx, jobID, model.StageCharacter, 30, "Generating character variations...")
		variations, err = w.characterService.GenerateVariations(ctx, assets.CharacterPrompt, variationCount, delay, auth)
		if err != nil {
			w.routeError(ctx, jobID, err)
			return err
		}
	}

	// Review fork: suspend indefinitely and wait for an approval call
	if payload.Config.Mode == model.ModeReview {
		checkpoint := &model.PipelineCheckpoint{
			Payload:    payload,
			Assets:     *assets,
			Variations: variations,
			AuthMode:   mode,
		}
		if err := w.pipelineService.SuspendForReview(ctx, jobID, checkpoint); err != nil {
			w.failJob(ctx, jobID, "PIPELINE_ERROR", "Failed to suspend for review")
			return err
		}
		w.hub.BroadcastReview(jobID, variations, assets.Scenes)
		log.Printf("Pipeline job %s suspended for review", jobID)
		return nil
	}

	// Auto mode: the first variation is the implicit selection
	if len(variations) > 0 {
		variations[0].Selected = true
	}

	return w.runBatch(ctx, jobID, &payload, assets, variations, auth, delay)
}

// ProcessResumeTask re-enters a reviewed run at the batch stage
func (w *PipelineWorker) ProcessResumeTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Resuming pipeline job: %s", jobID)

	var checkpoint model.PipelineCheckpoint
	if err := json.Unmarshal(taskPayload.Payload, &checkpoint); err != nil {
		w.failJob(ctx, jobID, "PIPELINE_ERROR", "Invalid checkpoint")
		return fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	// Credentials are re-resolved at resumption; the suspension may have
	// outlived the originally stored ones.
	creds, err := w.credentialService.Get(ctx, checkpoint.Payload.UserID)
	if err != nil {
		w.failJob(ctx, jobID, "PIPELINE_ERROR", "Failed to load credentials")
		return err
	}
	mode := service.ResolveAuthMode(checkpoint.Payload.Config, *creds)
	if mode == model.AuthModeNone {
		err := &client.AuthError{Message: "no usable credentials: provide an API key or session cookies"}
		w.routeError(ctx, jobID, err)
		return err
	}

	auth := client.AuthContext{Mode: mode, Credentials: *creds}
	delay := service.RequestDelay(mode, w.genCfg)

	return w.runBatch(ctx, jobID, &checkpoint.Payload, &checkpoint.Assets, checkpoint.Variations, auth, delay)
}

// ProcessSceneRegenTask regenerates a single scene of a completed run
func (w *PipelineWorker) ProcessSceneRegenTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	var regen struct {
		SceneID     string `json:"sceneId"`
		VideoPrompt string `json:"videoPrompt"`
		Speech      string `json:"speech"`
	}
	if err := json.Unmarshal(taskPayload.Payload, &regen); err != nil {
		return fmt.Errorf("failed to unmarshal regen payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Regenerating scene %s of job %s", regen.SceneID, jobID)

	job, err := w.pipelineService.LoadJob(ctx, jobID)
	if err != nil {
		return err
	}
	var result model.PipelineResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}

	idx := -1
	for i := range result.Generated.Scenes {
		if result.Generated.Scenes[i].ID == regen.SceneID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("scene not found")
	}

	creds, err := w.credentialService.Get(ctx, job.UserID)
	if err != nil {
		return err
	}
	mode := service.ResolveAuthMode(result.Config, *creds)
	if mode == model.AuthModeNone {
		err := &client.AuthError{Message: "no usable credentials: provide an API key or session cookies"}
		w.hub.BroadcastError(jobID, "AUTH_ERROR", err.Error())
		return err
	}

	scene := result.Generated.Scenes[idx]
	if regen.VideoPrompt != "" {
		scene.VideoPrompt = regen.VideoPrompt
	}
	if regen.Speech != "" {
		scene.Speech = regen.Speech
	}
	scene.Status = model.StepIdle
	scene.AudioURL = nil
	scene.VideoURL = nil
	scene.Error = nil

	processed := w.batch.ProcessAll(ctx, &service.BatchInput{
		JobID:          jobID,
		Scenes:         []model.Scene{scene},
		ReferenceImage: scene.CharacterImage,
		AspectRatio:    result.Config.AspectRatio,
		ModelVariant:   result.Config.ModelVariant,
		VideosPerScene: result.Config.VideosPerPrompt,
		Auth:           client.AuthContext{Mode: mode, Credentials: *creds},
		Delay:          service.RequestDelay(mode, w.genCfg),
	}, func(sceneID string, status model.StepStatus, s *model.Scene, err error) {
		w.broadcastScene(jobID, sceneID, status, s, err)
	})

	result.Generated.Scenes[idx] = processed[0]
	result.Succeeded, result.Failed = countScenes(result.Generated.Scenes)

	if err := w.pipelineService.UpdateResult(ctx, jobID, &result); err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	log.Printf("Scene %s of job %s regenerated (status=%s)", regen.SceneID, jobID, processed[0].Status)
	return nil
}

// runBatch executes the batch stage and completes the job. The auth mode and
// delay are snapshotted here and stay fixed for the whole batch.
func (w *PipelineWorker) runBatch(
	ctx context.Context,
	jobID string,
	payload *model.PipelineJobPayload,
	assets *model.CreativeAssets,
	variations []model.CharacterVariation,
	auth client.AuthContext,
	delay time.Duration,
) error {
	w.updateStage(ctx, jobID, model.StageBatch, 50, "Processing scenes...")

	var reference *model.ImageRef
	if payload.Config.UseCharacterImage {
		if v := selectedVariation(variations); v != nil {
			reference = &v.Image
		}
	}

	total := len(assets.Scenes)
	completed := 0

	scenes := w.batch.ProcessAll(ctx, &service.BatchInput{
		JobID:          jobID,
		Scenes:         assets.Scenes,
		ReferenceImage: reference,
		AspectRatio:    payload.Config.AspectRatio,
		ModelVariant:   payload.Config.ModelVariant,
		VideosPerScene: payload.Config.VideosPerPrompt,
		Auth:           auth,
		Delay:          delay,
		Canceled:       func(ctx context.Context) bool { return w.pipelineService.IsCanceled(ctx, jobID) },
	}, func(sceneID string, status model.StepStatus, scene *model.Scene, err error) {
		w.broadcastScene(jobID, sceneID, status, scene, err)
		if status == model.StepSuccess || status == model.StepError {
			completed++
			progress := 50 + 45*completed/total
			w.updateStage(ctx, jobID, model.StageBatch, progress, fmt.Sprintf("Processed scene %d/%d", completed, total))
		}
	})

	succeeded, failed := countScenes(scenes)

	result := &model.PipelineResult{
		Idea:   payload.Idea,
		Script: payload.Script,
		Config: payload.Config,
		Generated: model.GeneratedData{
			Assets:     *assets,
			Variations: variations,
			Scenes:     scenes,
		},
		Status:    buildStatus(payload.Config, succeeded),
		Succeeded: succeeded,
		Failed:    failed,
	}

	// The run reaches complete even with partial scene failures; per-scene
	// statuses carry the detail.
	if err := w.pipelineService.CompleteJob(ctx, jobID, result); err != nil {
		w.failJob(ctx, jobID, "PIPELINE_ERROR", "Failed to save result")
		return err
	}

	if _, err := w.projectService.SaveFromRun(ctx, payload.UserID, projectName(payload.Idea), result); err != nil {
		log.Printf("Failed to save project snapshot for job %s: %v", jobID, err)
	}

	w.hub.BroadcastComplete(jobID, result)
	log.Printf("Pipeline job %s completed (%d succeeded, %d failed)", jobID, succeeded, failed)
	return nil
}

// routeError decides user-facing routing by error type: credential-shaped
// errors send the run back to credential entry, rate limits carry a
// mode-switch hint, everything else is a generic pipeline failure.
func (w *PipelineWorker) routeError(ctx context.Context, jobID string, err error) {
	var authErr *client.AuthError
	var rateErr *client.RateLimitError
	var noVar *service.NoVariationsError

	switch {
	case errors.As(err, &authErr):
		if e := w.pipelineService.ResetToCredentials(ctx, jobID, authErr.Message); e != nil {
			log.Printf("Failed to reset job %s to credentials: %v", jobID, e)
		}
		w.hub.BroadcastError(jobID, "AUTH_ERROR", authErr.Message)
	case errors.As(err, &rateErr):
		msg := rateErr.Message + " (hint: enable cookie authentication for higher throughput)"
		w.failJob(ctx, jobID, "RATE_LIMITED", msg)
	case errors.As(err, &noVar):
		msg := fmt.Sprintf("%v (hints: %v)", noVar, noVar.Hints)
		w.failJob(ctx, jobID, "NO_VARIATIONS", msg)
	default:
		w.failJob(ctx, jobID, "PIPELINE_ERROR", err.Error())
	}
}

func (w *PipelineWorker) updateStage(ctx context.Context, jobID string, stage model.Stage, progress int, step string) {
	if err := w.pipelineService.UpdateJobStage(ctx, jobID, stage, progress, step); err != nil {
		log.Printf("Failed to update stage: %v", err)
	}
	w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, stage, step)
}

func (w *PipelineWorker) failJob(ctx context.Context, jobID, errCode, errMsg string) {
	if err := w.pipelineService.FailJob(ctx, jobID, errCode, errMsg); err != nil {
		log.Printf("Failed to mark job as failed: %v", err)
	}
	w.hub.BroadcastError(jobID, errCode, errMsg)
}

func (w *PipelineWorker) broadcastScene(jobID, sceneID string, status model.StepStatus, scene *model.Scene, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	w.hub.BroadcastScene(jobID, sceneID, status, scene, errMsg)
}

func selectedVariation(variations []model.CharacterVariation) *model.CharacterVariation {
	for i := range variations {
		if variations[i].Selected {
			return &variations[i]
		}
	}
	if len(variations) > 0 {
		return &variations[0]
	}
	return nil
}

func countScenes(scenes []model.Scene) (succeeded, failed int) {
	for _, s := range scenes {
		switch s.Status {
		case model.StepSuccess:
			succeeded++
		default:
			failed++
		}
	}
	return succeeded, failed
}

func buildStatus(cfg model.VideoConfig, succeeded int) model.GenerationStatus {
	status := model.GenerationStatus{
		Planning:  model.StepSuccess,
		Character: model.StepIdle,
		Voice:     model.StepError,
		Video:     model.StepError,
	}
	if cfg.UseCharacterImage {
		status.Character = model.StepSuccess
	}
	if succeeded > 0 {
		status.Voice = model.StepSuccess
		status.Video = model.StepSuccess
	}
	return status
}

func projectName(idea string) string {
	name := idea
	if len(name) > 50 {
		name = name[:50]
	}
	return fmt.Sprintf("%s (%s)", name, time.Now().Format("2006-01-02 15:04"))
}
