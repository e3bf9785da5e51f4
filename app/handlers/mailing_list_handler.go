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

// MailingListHandlerInterface defines the contract for mailing list handlers
type MailingListHandlerInterface interface {
	CreateMailingList(c fiber.Ctx) error
	GetMailingList(c fiber.Ctx) error
	ListMailingLists(c fiber.Ctx) error
}

// MailingListHandler handles mailing list HTTP requests
type MailingListHandler struct {
	mailingListFlow businessflow.MailingListFlow
	validator       *validator.Validate
}

// NewMailingListHandler creates a new mailing list handler
func NewMailingListHandler(mailingListFlow businessflow.MailingListFlow) *MailingListHandler {
	return &MailingListHandler{
		mailingListFlow: mailingListFlow,
		validator:       validator.New(),
	}
}

func (h *MailingListHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MailingListHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateMailingList handles POST /api/v1/mailing-lists
func (h *MailingListHandler) CreateMailingList(c fiber.Ctx) error {
	var req dto.CreateMailingListRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.mailingListFlow.CreateMailingList(h.createRequestContext(c, "/api/v1/mailing-lists"), &req)
	if err != nil {
		log.Println("Mailing list creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Mailing list creation failed", "MAILING_LIST_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Mailing list created successfully", result)
}

// GetMailingList handles GET /api/v1/mailing-lists/:uuid
func (h *MailingListHandler) GetMailingList(c fiber.Ctx) error {
	listUUID := c.Params("uuid")

	result, err := h.mailingListFlow.GetMailingList(h.createRequestContext(c, "/api/v1/mailing-lists/"+listUUID), listUUID)
	if err != nil {
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Mailing list not found", "MAILING_LIST_NOT_FOUND", nil)
		}

		log.Println("Mailing list retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve mailing list", "MAILING_LIST_GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Mailing list retrieved successfully", result)
}

// ListMailingLists handles GET /api/v1/mailing-lists
func (h *MailingListHandler) ListMailingLists(c fiber.Ctx) error {
	var req dto.ListMailingListsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.mailingListFlow.ListMailingLists(h.createRequestContext(c, "/api/v1/mailing-lists"), &req)
	if err != nil {
		log.Println("Mailing list listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list mailing lists", "MAILING_LIST_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Mailing lists retrieved successfully", result)
}

func (h *MailingListHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
