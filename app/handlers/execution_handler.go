// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/app/middleware"
	businessflow "github.com/textpulse/campaign-console/business_flow"
	"github.com/textpulse/campaign-console/utils"
)

// ExecutionHandlerInterface defines the contract for execution wizard handlers
type ExecutionHandlerInterface interface {
	OpenExecution(c fiber.Ctx) error
	SubmitReport(c fiber.Ctx) error
	GetReport(c fiber.Ctx) error
	ProceedToSend(c fiber.Ctx) error
	Send(c fiber.Ctx) error
	ListExecutions(c fiber.Ctx) error
}

// ExecutionHandler handles execution wizard HTTP requests
type ExecutionHandler struct {
	executionFlow businessflow.ExecutionFlow
	reportFlow    businessflow.ReportFlow
	validator     *validator.Validate
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(executionFlow businessflow.ExecutionFlow, reportFlow businessflow.ReportFlow) *ExecutionHandler {
	return &ExecutionHandler{
		executionFlow: executionFlow,
		reportFlow:    reportFlow,
		validator:     validator.New(),
	}
}

func (h *ExecutionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ExecutionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// OpenExecution handles POST /api/v1/campaigns/:uuid/execution
func (h *ExecutionHandler) OpenExecution(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.executionFlow.OpenExecution(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/execution"), campaignUUID, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Execution open failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open campaign execution", "EXECUTION_OPEN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign execution opened", result)
}

// SubmitReport handles POST /api/v1/campaigns/:uuid/execution/report
func (h *ExecutionHandler) SubmitReport(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	var req dto.SubmitReportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.reportFlow.SubmitReport(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/execution/report"), campaignUUID, &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsValidationFailed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), "REPORT_OUT_OF_SEQUENCE", nil)
		}

		log.Println("Report submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit campaign report", "REPORT_SUBMIT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign report submitted", result)
}

// GetReport handles GET /api/v1/campaigns/:uuid/execution/report
func (h *ExecutionHandler) GetReport(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	result, err := h.reportFlow.GetReport(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/execution/report"), campaignUUID)
	if err != nil {
		if businessflow.IsNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, err.Error(), "NOT_FOUND", nil)
		}

		log.Println("Report retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve campaign report", "REPORT_GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign report retrieved", result)
}

// ProceedToSend handles POST /api/v1/campaigns/:uuid/execution/proceed
func (h *ExecutionHandler) ProceedToSend(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.executionFlow.ProceedToSend(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/execution/proceed"), campaignUUID, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), "REPORT_NOT_SUBMITTED", nil)
		}

		log.Println("Execution proceed failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to advance campaign execution", "EXECUTION_PROCEED_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign ready to send", result)
}

// Send handles POST /api/v1/campaigns/:uuid/execution/send
func (h *ExecutionHandler) Send(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")

	var req dto.SendCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.executionFlow.Send(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/execution/send"), campaignUUID, &req, metadata)
	if err != nil {
		middleware.RecordCampaignSend(false, 0)
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsConfirmationMismatch(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "CONFIRMATION_MISMATCH", nil)
		}
		if businessflow.IsExecutionInProgress(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), "EXECUTION_IN_PROGRESS", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), "REPORT_NOT_SUBMITTED", nil)
		}
		if businessflow.IsEmptyAudience(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), "EMPTY_AUDIENCE", nil)
		}

		log.Println("Campaign send failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign send failed", "SEND_FAILED", nil)
	}

	middleware.RecordCampaignSend(true, result.TotalRecipients)
	return h.SuccessResponse(c, fiber.StatusOK, "Campaign sent successfully", result)
}

// ListExecutions handles GET /api/v1/campaigns/:uuid/executions
func (h *ExecutionHandler) ListExecutions(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	result, err := h.executionFlow.ListExecutions(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/executions"), campaignUUID, page, limit)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Execution listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list executions", "EXECUTION_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Executions retrieved successfully", result)
}

func (h *ExecutionHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
