package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/ideareel/api/internal/middleware"
	"github.com/ideareel/api/internal/model"
	"github.com/ideareel/api/internal/service"
	"github.com/ideareel/api/pkg/response"
)

type ProjectHandler struct {
	service   *service.ProjectService
	validator *validator.Validate
}

func NewProjectHandler(svc *service.ProjectService, v *validator.Validate) *ProjectHandler {
	return &ProjectHandler{
		service:   svc,
		validator: v,
	}
}

// List handles GET /api/projects
// @Summary      List projects
// @Tags         Projects
// @Produce      json
// @Success      200 {array} model.Project
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.service.List(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, projects)
}

// Get handles GET /api/projects/:projectId
// @Summary      Get project
// @Tags         Projects
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} model.Project
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	projectID := c.Params("projectId")
	if projectID == "" {
		return response.ValidationError(c, "Project ID is required", nil)
	}

	project, err := h.service.Get(c.Context(), middleware.GetUserID(c), projectID)
	if err != nil {
		if err.Error() == "project not found" {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, project)
}

// Create handles POST /api/projects
// @Summary      Save a project snapshot
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body model.ProjectSaveRequest true "Project"
// @Success      201 {object} model.Project
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [post]
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req model.ProjectSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	project, err := h.service.Create(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.Created(c, project)
}

// Update handles PUT /api/projects/:projectId
// @Summary      Update a project snapshot
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Param        request body model.ProjectSaveRequest true "Project"
// @Success      200 {object} model.Project
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId} [put]
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	projectID := c.Params("projectId")
	if projectID == "" {
		return response.ValidationError(c, "Project ID is required", nil)
	}

	var req model.ProjectSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	project, err := h.service.Update(c.Context(), middleware.GetUserID(c), projectID, &req)
	if err != nil {
		if err.Error() == "project not found" {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, project)
}

// Delete handles DELETE /api/projects/:projectId
// @Summary      Delete a project
// @Tags         Projects
// @Param        projectId path string true "Project ID"
// @Success      204
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId} [delete]
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	projectID := c.Params("projectId")
	if projectID == "" {
		return response.ValidationError(c, "Project ID is required", nil)
	}

	if err := h.service.Delete(c.Context(), middleware.GetUserID(c), projectID); err != nil {
		if err.Error() == "project not found" {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.NoContent(c)
}

// GetFormState handles GET /api/form/last
// @Summary      Get last-used form input
// @Tags         Projects
// @Produce      json
// @Success      200 {object} model.FormState
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/form/last [get]
func (h *ProjectHandler) GetFormState(c *fiber.Ctx) error {
	state, err := h.service.GetFormState(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if state == nil {
		return response.NotFound(c, "No saved form input")
	}
	return response.OK(c, state)
}

// SaveFormState handles PUT /api/form/last
// @Summary      Save last-used form input
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body model.FormSaveRequest true "Form input"
// @Success      200 {object} model.FormState
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/form/last [put]
func (h *ProjectHandler) SaveFormState(c *fiber.Ctx) error {
	var req model.FormSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	state := &model.FormState{
		Idea:   req.Idea,
		Script: req.Script,
		Config: req.Config,
	}
	if err := h.service.SaveFormState(c.Context(), middleware.GetUserID(c), state); err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, state)
}
