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

// ContactHandlerInterface defines the contract for contact handlers
type ContactHandlerInterface interface {
	CreateContact(c fiber.Ctx) error
	GetContact(c fiber.Ctx) error
	ListContacts(c fiber.Ctx) error
}

// ContactHandler handles contact directory HTTP requests
type ContactHandler struct {
	contactFlow businessflow.ContactFlow
	validator   *validator.Validate
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactFlow businessflow.ContactFlow) *ContactHandler {
	return &ContactHandler{
		contactFlow: contactFlow,
		validator:   validator.New(),
	}
}

func (h *ContactHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ContactHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateContact handles POST /api/v1/contacts
func (h *ContactHandler) CreateContact(c fiber.Ctx) error {
	var req dto.CreateContactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.contactFlow.CreateContact(h.createRequestContext(c, "/api/v1/contacts"), &req)
	if err != nil {
		log.Println("Contact creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Contact creation failed", "CONTACT_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Contact created successfully", result)
}

// GetContact handles GET /api/v1/contacts/:uuid
func (h *ContactHandler) GetContact(c fiber.Ctx) error {
	contactUUID := c.Params("uuid")

	result, err := h.contactFlow.GetContact(h.createRequestContext(c, "/api/v1/contacts/"+contactUUID), contactUUID)
	if err != nil {
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND", nil)
		}

		log.Println("Contact retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve contact", "CONTACT_GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contact retrieved successfully", result)
}

// ListContacts handles GET /api/v1/contacts
func (h *ContactHandler) ListContacts(c fiber.Ctx) error {
	var req dto.ListContactsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.contactFlow.ListContacts(h.createRequestContext(c, "/api/v1/contacts"), &req)
	if err != nil {
		log.Println("Contact listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list contacts", "CONTACT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contacts retrieved successfully", result)
}

func (h *ContactHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
