package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/ideareel/api/internal/middleware"
	"github.com/ideareel/api/internal/model"
	"github.com/ideareel/api/internal/service"
	"github.com/ideareel/api/pkg/response"
)

type CredentialsHandler struct {
	service   *service.CredentialService
	validator *validator.Validate
}

func NewCredentialsHandler(svc *service.CredentialService, v *validator.Validate) *CredentialsHandler {
	return &CredentialsHandler{
		service:   svc,
		validator: v,
	}
}

// Save handles POST /api/credentials
// @Summary      Store provider credentials
// @Description  Store an API key and/or exported session cookies for generation runs
// @Tags         Credentials
// @Accept       json
// @Produce      json
// @Param        request body model.CredentialsRequest true "Credentials"
// @Success      200 {object} model.CredentialsStatusResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/credentials [post]
func (h *CredentialsHandler) Save(c *fiber.Ctx) error {
	var req model.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	if req.APIKey == "" && len(req.Cookies) == 0 {
		return response.ValidationError(c, "Provide an API key or at least one cookie", nil)
	}

	userID := middleware.GetUserID(c)
	creds := &model.Credentials{
		APIKey:  req.APIKey,
		Cookies: req.Cookies,
	}
	if err := h.service.Save(c.Context(), userID, creds); err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.CredentialsStatusResponse{
		HasAPIKey:   creds.APIKey != "",
		CookieCount: len(creds.Cookies),
	})
}

// Status handles GET /api/credentials
// @Summary      Get credential status
// @Description  Report what credentials are on file without exposing them
// @Tags         Credentials
// @Produce      json
// @Success      200 {object} model.CredentialsStatusResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/credentials [get]
func (h *CredentialsHandler) Status(c *fiber.Ctx) error {
	status, err := h.service.Status(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, status)
}

// Delete handles DELETE /api/credentials
// @Summary      Delete stored credentials
// @Tags         Credentials
// @Success      204
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/credentials [delete]
func (h *CredentialsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), middleware.GetUserID(c)); err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.NoContent(c)
}
