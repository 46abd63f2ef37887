package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ideareel/api/internal/client"
	"github.com/ideareel/api/internal/model"
)

// NoVariationsError means every variation attempt, including the first-slot
// retry, failed. Hints carry actionable guidance for the user.
type NoVariationsError struct {
	Attempts int
	LastErr  error
	Hints    []string
}

func (e *NoVariationsError) Error() string {
	return fmt.Sprintf("failed to generate any character variations after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *NoVariationsError) Unwrap() error {
	return e.LastErr
}

// CharacterService drives the image generator to produce candidate reference
// images for the main character.
type CharacterService struct {
	generator client.MediaGenerator
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewCharacterService(generator client.MediaGenerator) *CharacterService {
	return &CharacterService{
		generator: generator,
		sleep:     sleepContext,
	}
}

// GenerateVariations invokes the image generator up to count times
// sequentially with the run's inter-request delay between attempts. A partial
// result is accepted: once at least one variation exists, a failure stops the
// loop early instead of erroring. A first-slot failure gets exactly one
// extended-delay retry before the slot is abandoned.
func (s *CharacterService) GenerateVariations(ctx context.Context, prompt string, count int, delay time.Duration, auth client.AuthContext) ([]model.CharacterVariation, error) {
	var variations []model.CharacterVariation
	var lastErr error
	attempts := 0

	for i := 0; i < count; i++ {
		attempts++
		img, err := s.generator.GenerateCharacterImage(ctx, prompt, auth)
		if err != nil {
			lastErr = err
			log.Printf("[Character] Variation %d/%d failed: %v", i+1, count, err)

			if len(variations) > 0 {
				log.Printf("[Character] Stopping with %d successful variation(s)", len(variations))
				break
			}
			if i == 0 {
				// one extended-delay retry for the first slot
				if err := s.sleep(ctx, 2*delay); err != nil {
					return nil, err
				}
				attempts++
				img, err = s.generator.GenerateCharacterImage(ctx, prompt, auth)
				if err != nil {
					lastErr = err
					log.Printf("[Character] First-slot retry failed: %v", err)
					continue
				}
			} else {
				continue
			}
		}

		variations = append(variations, model.CharacterVariation{
			ID:     uuid.New().String(),
			Prompt: prompt,
			Image:  *img,
		})

		if i < count-1 {
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	if len(variations) == 0 {
		return nil, &NoVariationsError{
			Attempts: attempts,
			LastErr:  lastErr,
			Hints: []string{
				"verify the API key has access to the image generation model",
				"check remaining quota for the selected auth mode",
				"try enabling cookie authentication as an alternative",
			},
		}
	}

	return variations, nil
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
