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

// TemplateHandlerInterface defines the contract for message template handlers
type TemplateHandlerInterface interface {
	GetTemplate(c fiber.Ctx) error
	ListTemplates(c fiber.Ctx) error
}

// TemplateHandler handles message template HTTP requests
type TemplateHandler struct {
	templateFlow businessflow.TemplateFlow
	validator    *validator.Validate
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateFlow businessflow.TemplateFlow) *TemplateHandler {
	return &TemplateHandler{
		templateFlow: templateFlow,
		validator:    validator.New(),
	}
}

func (h *TemplateHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TemplateHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetTemplate handles GET /api/v1/message-templates/:uuid
func (h *TemplateHandler) GetTemplate(c fiber.Ctx) error {
	templateUUID := c.Params("uuid")

	result, err := h.templateFlow.GetTemplate(h.createRequestContext(c, "/api/v1/message-templates/"+templateUUID), templateUUID)
	if err != nil {
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Message template not found", "TEMPLATE_NOT_FOUND", nil)
		}

		log.Println("Template retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve message template", "TEMPLATE_GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Message template retrieved successfully", result)
}

// ListTemplates handles GET /api/v1/message-templates
func (h *TemplateHandler) ListTemplates(c fiber.Ctx) error {
	var req dto.ListTemplatesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.templateFlow.ListTemplates(h.createRequestContext(c, "/api/v1/message-templates"), &req)
	if err != nil {
		log.Println("Template listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list message templates", "TEMPLATE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Message templates retrieved successfully", result)
}

func (h *TemplateHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
