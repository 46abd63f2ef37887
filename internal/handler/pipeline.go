package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/ideareel/api/internal/middleware"
	"github.com/ideareel/api/internal/model"
	"github.com/ideareel/api/internal/service"
	"github.com/ideareel/api/pkg/response"
)

type PipelineHandler struct {
	service   *service.PipelineService
	validator *validator.Validate
}

func NewPipelineHandler(svc *service.PipelineService, v *validator.Validate) *PipelineHandler {
	return &PipelineHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/pipeline/start
// @Summary      Start pipeline run
// @Description  Queue an asynchronous video generation run for an idea
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        request body model.PipelineStartRequest true "Pipeline start request"
// @Success      202 {object} model.PipelineStartResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/start [post]
func (h *PipelineHandler) Start(c *fiber.Ctx) error {
	var req model.PipelineStartRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartPipeline(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/pipeline/status/:jobId
// @Summary      Get pipeline job status
// @Description  Get the current status, stage and progress of a pipeline run
// @Tags         Pipeline
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.Job
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/status/{jobId} [get]
func (h *PipelineHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.service.GetStatus(c.Context(), middleware.GetUserID(c), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	// payload/checkpoint/result stay server-side
	job.Payload = nil
	job.Checkpoint = nil
	job.Result = nil

	return response.OK(c, job)
}

// Result handles GET /api/pipeline/result/:jobId
// @Summary      Get pipeline job result
// @Description  Get the generated assets of a completed pipeline run
// @Tags         Pipeline
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.PipelineResult
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/result/{jobId} [get]
func (h *PipelineHandler) Result(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetResult(c.Context(), middleware.GetUserID(c), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		if err.Error() == "job not completed" {
			return response.ValidationError(c, "Job not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Review handles GET /api/pipeline/review/:jobId
// @Summary      Get pending review state
// @Description  Get the character variations and scene stubs of a run suspended for review
// @Tags         Pipeline
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.PipelineCheckpoint
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/review/{jobId} [get]
func (h *PipelineHandler) Review(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	checkpoint, err := h.service.GetReview(c.Context(), middleware.GetUserID(c), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		if err.Error() == "job not awaiting review" {
			return response.ValidationError(c, "Job not awaiting review", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{
		"jobId":               jobID,
		"characterVariations": checkpoint.Variations,
		"scenes":              checkpoint.Assets.Scenes,
	})
}

// Approve handles POST /api/pipeline/approve/:jobId
// @Summary      Approve a suspended run
// @Description  Resume a run awaiting review with the selected character variation and optional scene edits
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Param        request body model.PipelineApproveRequest true "Approval request"
// @Success      202 {object} map[string]string
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/approve/{jobId} [post]
func (h *PipelineHandler) Approve(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	var req model.PipelineApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if err := h.service.Approve(c.Context(), middleware.GetUserID(c), jobID, &req); err != nil {
		switch err.Error() {
		case "job not found":
			return response.NotFound(c, "Job not found")
		case "job not awaiting review":
			return response.ValidationError(c, "Job not awaiting review", nil)
		case "variation not found":
			return response.NotFound(c, "Variation not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, fiber.Map{"jobId": jobID, "status": string(model.JobStatusQueued)})
}

// RegenerateScene handles POST /api/pipeline/scene/:jobId/:sceneId/regenerate
// @Summary      Regenerate a single scene
// @Description  Queue regeneration of one scene of a completed run, optionally with edited prompts
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Param        sceneId path string true "Scene ID"
// @Param        request body model.SceneRegenerateRequest false "Prompt overrides"
// @Success      202 {object} map[string]string
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/scene/{jobId}/{sceneId}/regenerate [post]
func (h *PipelineHandler) RegenerateScene(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	sceneID := c.Params("sceneId")
	if jobID == "" || sceneID == "" {
		return response.ValidationError(c, "Job ID and scene ID are required", nil)
	}

	var req model.SceneRegenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
		if err := h.validator.Struct(&req); err != nil {
			return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
		}
	}

	if err := h.service.RegenerateScene(c.Context(), middleware.GetUserID(c), jobID, sceneID, &req); err != nil {
		switch err.Error() {
		case "job not found":
			return response.NotFound(c, "Job not found")
		case "scene not found":
			return response.NotFound(c, "Scene not found")
		case "job not completed":
			return response.ValidationError(c, "Job not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, fiber.Map{"jobId": jobID, "sceneId": sceneID})
}

// Cancel handles POST /api/pipeline/cancel/:jobId
// @Summary      Cancel pipeline run
// @Description  Cancel a queued or running pipeline run; no further scenes are scheduled
// @Tags         Pipeline
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} map[string]string
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/cancel/{jobId} [post]
func (h *PipelineHandler) Cancel(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	if err := h.service.Cancel(c.Context(), middleware.GetUserID(c), jobID); err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		if err.Error() == "job already completed" {
			return response.ValidationError(c, "Job already completed", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"jobId": jobID, "status": string(model.JobStatusCanceled)})
}
