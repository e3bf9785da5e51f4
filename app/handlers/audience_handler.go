// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/textpulse/campaign-console/app/dto"
	businessflow "github.com/textpulse/campaign-console/business_flow"
	"github.com/textpulse/campaign-console/utils"
)

// AudienceHandlerInterface defines the contract for audience handlers
type AudienceHandlerInterface interface {
	ResolveAudience(c fiber.Ctx) error
	PreviewAudience(c fiber.Ctx) error
}

// AudienceHandler handles audience resolution HTTP requests
type AudienceHandler struct {
	audienceFlow businessflow.AudienceFlow
	validator    *validator.Validate
}

// NewAudienceHandler creates a new audience handler
func NewAudienceHandler(audienceFlow businessflow.AudienceFlow) *AudienceHandler {
	return &AudienceHandler{
		audienceFlow: audienceFlow,
		validator:    validator.New(),
	}
}

func (h *AudienceHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AudienceHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ResolveAudience handles POST /api/v1/audience/resolve. The operation is
// read-only; it never mutates campaign or contact state.
func (h *AudienceHandler) ResolveAudience(c fiber.Ctx) error {
	var req dto.ResolveAudienceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.audienceFlow.ResolveAudience(h.createRequestContext(c, "/api/v1/audience/resolve"), &req)
	if err != nil {
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, err.Error(), "NOT_FOUND", nil)
		}

		log.Println("Audience resolution failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve audience", "AUDIENCE_RESOLVE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Audience resolved successfully", result)
}

// PreviewAudience handles GET /api/v1/audience/preview/:listUUID
func (h *AudienceHandler) PreviewAudience(c fiber.Ctx) error {
	listUUID := c.Params("listUUID")

	result, err := h.audienceFlow.PreviewAudience(h.createRequestContext(c, "/api/v1/audience/preview/"+listUUID), listUUID)
	if err != nil {
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Mailing list not found", "MAILING_LIST_NOT_FOUND", nil)
		}

		log.Println("Audience preview failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to preview audience", "AUDIENCE_PREVIEW_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Audience preview retrieved", result)
}

func (h *AudienceHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
