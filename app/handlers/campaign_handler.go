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

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	UpdateCampaign(c fiber.Ctx) error
	DeleteCampaign(c fiber.Ctx) error
	PauseCampaign(c fiber.Ctx) error
	ResumeCampaign(c fiber.Ctx) error
	StopCampaign(c fiber.Ctx) error
	ReactivateCampaign(c fiber.Ctx) error
	CancelCampaign(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateCampaign handles POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.CreateCampaign(h.createRequestContext(c, "/api/v1/campaigns"), &req, metadata)
	if err != nil {
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Referenced resource not found", "NOT_FOUND", nil)
		}
		if businessflow.IsValidationFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}

		log.Println("Campaign creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", result)
}

// GetCampaign handles GET /api/v1/campaigns/:uuid
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	result, err := h.campaignFlow.GetCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID), campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Campaign retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve campaign", "CAMPAIGN_GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", result)
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	var req dto.ListCampaignsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.campaignFlow.ListCampaigns(h.createRequestContext(c, "/api/v1/campaigns"), &req)
	if err != nil {
		if businessflow.IsValidationFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}

		log.Println("Campaign listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", "CAMPAIGN_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", result)
}

// UpdateCampaign handles PUT /api/v1/campaigns/:uuid
func (h *CampaignHandler) UpdateCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	var req dto.UpdateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.UpdateCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID), campaignUUID, &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Referenced resource not found", "NOT_FOUND", nil)
		}
		if businessflow.IsValidationFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), "TEMPLATE_IMMUTABLE", nil)
		}

		log.Println("Campaign update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign update failed", "CAMPAIGN_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign updated successfully", result)
}

// DeleteCampaign handles DELETE /api/v1/campaigns/:uuid. Deleting an unknown
// campaign succeeds.
func (h *CampaignHandler) DeleteCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	err := h.campaignFlow.DeleteCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID), campaignUUID, metadata)
	if err != nil {
		log.Println("Campaign deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign deletion failed", "CAMPAIGN_DELETE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign deleted successfully", nil)
}

// PauseCampaign handles POST /api/v1/campaigns/:uuid/pause
func (h *CampaignHandler) PauseCampaign(c fiber.Ctx) error {
	return h.handleStatusChange(c, "pause", func(ctx context.Context, campaignUUID string, metadata *businessflow.ClientMetadata) (*dto.CampaignResponse, error) {
		return h.campaignFlow.PauseCampaign(ctx, campaignUUID, metadata)
	})
}

// ResumeCampaign handles POST /api/v1/campaigns/:uuid/resume
func (h *CampaignHandler) ResumeCampaign(c fiber.Ctx) error {
	return h.handleStatusChange(c, "resume", func(ctx context.Context, campaignUUID string, metadata *businessflow.ClientMetadata) (*dto.CampaignResponse, error) {
		return h.campaignFlow.ResumeCampaign(ctx, campaignUUID, metadata)
	})
}

// StopCampaign handles POST /api/v1/campaigns/:uuid/stop. The request body
// must confirm the destructive action.
func (h *CampaignHandler) StopCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	var req dto.StopCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.StopCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/stop"), campaignUUID, &req, metadata)
	if err != nil {
		return h.statusChangeError(c, "stop", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign stopped successfully", result)
}

// ReactivateCampaign handles POST /api/v1/campaigns/:uuid/reactivate
func (h *CampaignHandler) ReactivateCampaign(c fiber.Ctx) error {
	return h.handleStatusChange(c, "reactivate", func(ctx context.Context, campaignUUID string, metadata *businessflow.ClientMetadata) (*dto.CampaignResponse, error) {
		return h.campaignFlow.ReactivateCampaign(ctx, campaignUUID, metadata)
	})
}

// CancelCampaign handles POST /api/v1/campaigns/:uuid/cancel
func (h *CampaignHandler) CancelCampaign(c fiber.Ctx) error {
	return h.handleStatusChange(c, "cancel", func(ctx context.Context, campaignUUID string, metadata *businessflow.ClientMetadata) (*dto.CampaignResponse, error) {
		return h.campaignFlow.CancelCampaign(ctx, campaignUUID, metadata)
	})
}

func (h *CampaignHandler) handleStatusChange(c fiber.Ctx, action string, fn func(context.Context, string, *businessflow.ClientMetadata) (*dto.CampaignResponse, error)) error {
	campaignUUID := c.Params("uuid")
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := fn(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/"+action), campaignUUID, metadata)
	if err != nil {
		return h.statusChangeError(c, action, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign status changed successfully", result)
}

func (h *CampaignHandler) statusChangeError(c fiber.Ctx, action string, err error) error {
	if businessflow.IsCampaignNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	}
	if businessflow.IsInvalidTransition(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), "INVALID_STATUS_TRANSITION", nil)
	}
	if businessflow.IsConfirmationMismatch(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "CONFIRMATION_REQUIRED", nil)
	}

	log.Println("Campaign status change failed", action, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign status change failed", "STATUS_CHANGE_FAILED", nil)
}

func (h *CampaignHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *CampaignHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
