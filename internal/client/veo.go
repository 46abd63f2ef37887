package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// videoOperation is the long-running operation handle returned by the
// video submission endpoint and refreshed by polling.
type videoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GeneratedVideos []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedVideos"`
	} `json:"response"`
}

// GenerateVideo submits a video generation job, polls the returned operation
// until completion or the poll budget is exhausted, then downloads the result.
func (c *GenAIClient) GenerateVideo(ctx context.Context, req *VideoRequest, auth AuthContext) (*VideoResult, error) {
	numberOfVideos := req.NumberOfVideos
	if numberOfVideos == 0 {
		numberOfVideos = 1
	}

	videoConfig := map[string]interface{}{
		"numberOfVideos": numberOfVideos,
		"resolution":     "720p",
		"aspectRatio":    string(req.AspectRatio),
	}
	if req.ReferenceImage != nil {
		videoConfig["referenceImages"] = []map[string]interface{}{
			{"image": map[string]string{
				"imageBytes": req.ReferenceImage.Data,
				"mimeType":   req.ReferenceImage.MimeType,
			}},
		}
	}

	body := map[string]interface{}{
		"prompt": req.Prompt,
		"config": videoConfig,
	}

	videoModel := req.Model
	if videoModel == "" {
		videoModel = c.cfg.VideoModel
	}
	endpoint := fmt.Sprintf("/models/%s:generateVideos", videoModel)

	raw, err := c.transport.Send(ctx, http.MethodPost, endpoint, body, auth)
	if err != nil {
		return nil, err
	}

	var op videoOperation
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}

	log.Printf("[Veo] Video job submitted (operation=%s)", op.Name)

	op, err = c.pollOperation(ctx, op, auth)
	if err != nil {
		return nil, err
	}

	if len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video.URI == "" {
		return nil, &DownloadError{Message: "no download link in completed operation"}
	}

	data, contentType, err := c.transport.Download(ctx, op.Response.GeneratedVideos[0].Video.URI, auth)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "video/mp4"
	}

	return &VideoResult{Data: data, MimeType: contentType}, nil
}

// pollOperation re-fetches the operation at a fixed interval until it reports
// done, up to MaxPolls attempts.
func (c *GenAIClient) pollOperation(ctx context.Context, op videoOperation, auth AuthContext) (videoOperation, error) {
	polls := 0
	for !op.Done {
		polls++
		if polls > c.cfg.MaxPolls {
			return op, &VideoTimeoutError{Polls: c.cfg.MaxPolls}
		}

		select {
		case <-ctx.Done():
			return op, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}

		raw, err := c.transport.Send(ctx, http.MethodGet, "/"+op.Name, nil, auth)
		if err != nil {
			return op, err
		}
		if err := json.Unmarshal(raw, &op); err != nil {
			return op, fmt.Errorf("failed to unmarshal operation: %w", err)
		}

		log.Printf("[Veo] Poll #%d/%d (operation=%s) — done: %t", polls, c.cfg.MaxPolls, op.Name, op.Done)
	}
	return op, nil
}
