package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ideareel/api/internal/model"
)

// generateImagesResponse is the subset of the image generation response we read
type generateImagesResponse struct {
	GeneratedImages []struct {
		Image struct {
			ImageBytes string `json:"imageBytes"`
			MimeType   string `json:"mimeType"`
		} `json:"image"`
	} `json:"generatedImages"`
}

// GenerateCharacterImage requests exactly one 1:1 image for the given prompt
func (c *GenAIClient) GenerateCharacterImage(ctx context.Context, prompt string, auth AuthContext) (*model.ImageRef, error) {
	body := map[string]interface{}{
		"prompt": prompt,
		"config": map[string]interface{}{
			"numberOfImages": 1,
			"aspectRatio":    "1:1",
			"outputMimeType": "image/png",
		},
	}

	endpoint := fmt.Sprintf("/models/%s:generateImages", c.cfg.ImageModel)

	raw, err := c.transport.Send(ctx, http.MethodPost, endpoint, body, auth)
	if err != nil {
		return nil, err
	}

	var resp generateImagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image response: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image.ImageBytes == "" {
		return nil, &ImageGenError{Message: "no images generated"}
	}

	img := resp.GeneratedImages[0].Image
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	log.Printf("[Imagen] Generated character image (%d KB)", len(img.ImageBytes)/1024)

	return &model.ImageRef{
		Data:     img.ImageBytes,
		MimeType: mimeType,
	}, nil
}
