package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/ideareel/api/internal/client"
	"github.com/ideareel/api/internal/model"
)

// ProgressFunc receives per-scene status changes during batch processing
type ProgressFunc func(sceneID string, status model.StepStatus, scene *model.Scene, err error)

// BatchInput carries the read-only configuration one batch run operates on.
// Auth mode and delay are snapshotted at batch start and never change
// mid-batch.
type BatchInput struct {
	JobID          string
	Scenes         []model.Scene
	ReferenceImage *model.ImageRef
	AspectRatio    model.AspectRatio
	ModelVariant   string
	VideosPerScene int
	Auth           client.AuthContext
	Delay          time.Duration
	// Canceled, when set, is consulted between scenes; no further scenes
	// are scheduled once it reports true.
	Canceled func(ctx context.Context) bool
}

// BatchOrchestrator sequences speech and video generation across an ordered
// scene list with per-scene failure isolation.
type BatchOrchestrator struct {
	generator client.MediaGenerator
	store     client.StorageClient
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewBatchOrchestrator creates an orchestrator. store may be nil, in which
// case media is returned inline as data URLs.
func NewBatchOrchestrator(generator client.MediaGenerator, store client.StorageClient) *BatchOrchestrator {
	return &BatchOrchestrator{
		generator: generator,
		store:     store,
		sleep:     sleepContext,
	}
}

// ProcessAll processes every scene in index order and always returns a list
// of the same length and order as the input, each scene terminal. One scene's
// failure never aborts the batch.
func (o *BatchOrchestrator) ProcessAll(ctx context.Context, in *BatchInput, onProgress ProgressFunc) []model.Scene {
	out := make([]model.Scene, len(in.Scenes))
	copy(out, in.Scenes)

	for i := range out {
		if in.Canceled != nil && in.Canceled(ctx) {
			log.Printf("[Batch] Run canceled, skipping remaining %d scene(s)", len(out)-i)
			for j := i; j < len(out); j++ {
				markSceneError(&out[j], fmt.Errorf("run canceled"), onProgress)
			}
			break
		}

		o.processScene(ctx, in, &out[i], onProgress)

		if i < len(out)-1 {
			if err := o.sleep(ctx, in.Delay); err != nil {
				// context gone; remaining scenes are marked, not processed
				for j := i + 1; j < len(out); j++ {
					markSceneError(&out[j], err, onProgress)
				}
				break
			}
		}
	}

	return out
}

// processScene runs speech then video for a single scene. Any error leaves
// media fields null and the scene in error state.
func (o *BatchOrchestrator) processScene(ctx context.Context, in *BatchInput, scene *model.Scene, onProgress ProgressFunc) {
	scene.Status = model.StepPending
	if onProgress != nil {
		onProgress(scene.ID, model.StepPending, nil, nil)
	}

	log.Printf("[Batch] Scene %d/%d (id=%s) — generating speech", scene.Index+1, len(in.Scenes), scene.ID)

	speech, err := o.generator.GenerateSpeech(ctx, scene.Speech, in.Auth)
	if err != nil {
		markSceneError(scene, err, onProgress)
		return
	}

	audioURL, err := o.storeAudio(ctx, in.JobID, scene.ID, speech)
	if err != nil {
		markSceneError(scene, err, onProgress)
		return
	}

	// pacing before the heavier video call
	if err := o.sleep(ctx, in.Delay); err != nil {
		markSceneError(scene, err, onProgress)
		return
	}

	log.Printf("[Batch] Scene %d/%d (id=%s) — generating video", scene.Index+1, len(in.Scenes), scene.ID)

	video, err := o.generator.GenerateVideo(ctx, &client.VideoRequest{
		Prompt:         scene.VideoPrompt,
		ReferenceImage: in.ReferenceImage,
		AspectRatio:    in.AspectRatio,
		NumberOfVideos: in.VideosPerScene,
		Model:          in.ModelVariant,
	}, in.Auth)
	if err != nil {
		markSceneError(scene, err, onProgress)
		return
	}

	videoURL, err := o.storeVideo(ctx, in.JobID, scene.ID, video)
	if err != nil {
		markSceneError(scene, err, onProgress)
		return
	}

	scene.AudioURL = &audioURL
	scene.VideoURL = &videoURL
	scene.CharacterImage = in.ReferenceImage
	scene.Status = model.StepSuccess
	scene.Error = nil
	if onProgress != nil {
		onProgress(scene.ID, model.StepSuccess, scene, nil)
	}
}

// storeAudio uploads the audio payload or falls back to an inline data URL
func (o *BatchOrchestrator) storeAudio(ctx context.Context, jobID, sceneID string, speech *client.SpeechResult) (string, error) {
	if o.store == nil {
		return fmt.Sprintf("data:%s;base64,%s", speech.MimeType, speech.Data), nil
	}
	raw, err := base64.StdEncoding.DecodeString(speech.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode audio payload: %w", err)
	}
	key := client.AssetKey(jobID, sceneID, "audio", speech.MimeType)
	return o.store.Upload(ctx, key, bytes.NewReader(raw), speech.MimeType)
}

// storeVideo uploads the video payload or falls back to an inline data URL
func (o *BatchOrchestrator) storeVideo(ctx context.Context, jobID, sceneID string, video *client.VideoResult) (string, error) {
	if o.store == nil {
		return fmt.Sprintf("data:%s;base64,%s", video.MimeType, base64.StdEncoding.EncodeToString(video.Data)), nil
	}
	key := client.AssetKey(jobID, sceneID, "video", video.MimeType)
	return o.store.Upload(ctx, key, bytes.NewReader(video.Data), video.MimeType)
}

func markSceneError(scene *model.Scene, err error, onProgress ProgressFunc) {
	msg := err.Error()
	scene.Status = model.StepError
	scene.Error = &msg
	scene.AudioURL = nil
	scene.VideoURL = nil
	if onProgress != nil {
		onProgress(scene.ID, model.StepError, nil, err)
	}
}
