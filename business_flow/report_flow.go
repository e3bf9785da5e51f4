package businessflow

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// ReportFlow handles the pre-send report gate
type ReportFlow interface {
	SubmitReport(ctx context.Context, campaignUUID string, req *dto.SubmitReportRequest, metadata *ClientMetadata) (*dto.ReportResponse, error)
	GetReport(ctx context.Context, campaignUUID string) (*dto.ReportResponse, error)
}

// ReportFlowImpl implements the report flow
type ReportFlowImpl struct {
	campaignRepo repository.CampaignRepository
	reportRepo   repository.CampaignReportRepository
	audienceFlow AudienceFlow
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewReportFlow creates a new report flow instance
func NewReportFlow(
	campaignRepo repository.CampaignRepository,
	reportRepo repository.CampaignReportRepository,
	audienceFlow AudienceFlow,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) ReportFlow {
	return &ReportFlowImpl{
		campaignRepo: campaignRepo,
		reportRepo:   reportRepo,
		audienceFlow: audienceFlow,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// SubmitReport validates and stores the pre-send report, deriving the
// estimate fields from the resolved audience, and advances the wizard to
// reporting_complete. Resubmission overwrites the prior report.
func (f *ReportFlowImpl) SubmitReport(ctx context.Context, campaignUUID string, req *dto.SubmitReportRequest, metadata *ClientMetadata) (*dto.ReportResponse, error) {
	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to look up campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
	}

	if err := validateReport(req); err != nil {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionReportRejected,
			"report rejected by validation", false, err.Error(), metadata)
		return nil, err
	}

	if !campaign.ExecutionStep.CanAdvanceTo(models.ExecutionStepReportingComplete) {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionReportRejected,
			fmt.Sprintf("report submitted at step %s", campaign.ExecutionStep), false,
			ErrInvalidStatusTransition.Error(), metadata)
		return nil, NewBusinessError("REPORT_OUT_OF_SEQUENCE",
			fmt.Sprintf("report cannot be submitted at step %s", campaign.ExecutionStep),
			ErrInvalidStatusTransition)
	}

	audience, err := f.audienceFlow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		CampaignUUID:   &campaignUUID,
		ContactIDs:     req.ContactIDs,
		MailingListIDs: req.MailingListIDs,
	})
	if err != nil {
		return nil, err
	}

	report := deriveReport(campaign.ID, req, audience.Size)

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.reportRepo.Upsert(txCtx, report); err != nil {
			return err
		}
		return f.campaignRepo.UpdateExecutionStep(txCtx, campaign.ID, models.ExecutionStepReportingComplete)
	})
	if err != nil {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionReportRejected,
			"failed to store report", false, err.Error(), metadata)
		return nil, NewBusinessError("REPORT_SUBMIT_FAILED", "failed to store campaign report", err)
	}

	f.createAuditLog(ctx, &campaign.ID, models.AuditActionReportSubmitted,
		fmt.Sprintf("report submitted for campaign %q, reach %d", campaign.Name, report.EstimatedReach),
		true, "", metadata)

	return toReportResponse(campaignUUID, report), nil
}

// GetReport retrieves the report for a campaign
func (f *ReportFlowImpl) GetReport(ctx context.Context, campaignUUID string) (*dto.ReportResponse, error) {
	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to look up campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
	}

	report, err := f.reportRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("REPORT_LOOKUP_FAILED", "failed to look up campaign report", err)
	}
	if report == nil {
		return nil, NewBusinessError("REPORT_NOT_FOUND", "campaign report not found", ErrReportNotFound)
	}

	return toReportResponse(campaignUUID, report), nil
}

func validateReport(req *dto.SubmitReportRequest) error {
	if strings.TrimSpace(req.Goal) == "" {
		return NewBusinessError("REPORT_GOAL_REQUIRED", "report goal is required", ErrReportGoalRequired)
	}
	if strings.TrimSpace(req.TargetAudience) == "" {
		return NewBusinessError("REPORT_AUDIENCE_REQUIRED", "report target audience is required", ErrReportAudienceRequired)
	}
	if req.Budget < 0 || math.IsNaN(req.Budget) || math.IsInf(req.Budget, 0) {
		return NewBusinessError("REPORT_BUDGET_INVALID", "report budget must be a non-negative finite amount", ErrBudgetInvalid)
	}
	return nil
}

// deriveReport computes the estimate fields from the audience size
func deriveReport(campaignID uint, req *dto.SubmitReportRequest, reach int) *models.CampaignReport {
	cost := float64(reach) * utils.UnitSMSPrice
	delivered := int(math.Round(float64(reach) * utils.DeliveryRate))
	opens := int(math.Round(float64(delivered) * utils.OpenRate))

	roi := 0.0
	if cost > 0 {
		roi = (float64(opens) * utils.ClickRate * utils.AvgConversionValue) / cost * 100
	}

	return &models.CampaignReport{
		CampaignID:         campaignID,
		Goal:               strings.TrimSpace(req.Goal),
		TargetAudience:     strings.TrimSpace(req.TargetAudience),
		ExpectedResults:    req.ExpectedResults,
		Budget:             req.Budget,
		Notes:              req.Notes,
		EstimatedReach:     reach,
		EstimatedCost:      cost,
		EstimatedDelivered: delivered,
		EstimatedOpens:     opens,
		ROIProjection:      roi,
		BudgetWarning:      req.Budget < cost,
	}
}

func toReportResponse(campaignUUID string, report *models.CampaignReport) *dto.ReportResponse {
	return &dto.ReportResponse{
		CampaignUUID:       campaignUUID,
		Goal:               report.Goal,
		TargetAudience:     report.TargetAudience,
		ExpectedResults:    report.ExpectedResults,
		Budget:             report.Budget,
		Notes:              report.Notes,
		EstimatedReach:     report.EstimatedReach,
		EstimatedCost:      report.EstimatedCost,
		EstimatedDelivered: report.EstimatedDelivered,
		EstimatedOpens:     report.EstimatedOpens,
		ROIProjection:      report.ROIProjection,
		BudgetWarning:      report.BudgetWarning,
		CreatedAt:          report.CreatedAt,
		UpdatedAt:          report.UpdatedAt,
	}
}

func (f *ReportFlowImpl) createAuditLog(ctx context.Context, campaignID *uint, action, description string, success bool, errorMessage string, metadata *ClientMetadata) {
	auditLog := &models.AuditLog{
		CampaignID:  campaignID,
		Action:      action,
		Description: &description,
		RequestID:   getRequestIDFromContext(ctx),
		Success:     &success,
	}
	if errorMessage != "" {
		auditLog.ErrorMessage = &errorMessage
	}
	if metadata != nil {
		auditLog.IPAddress = getStringPtr(metadata.IPAddress)
		auditLog.UserAgent = getStringPtr(metadata.UserAgent)
	}

	_ = f.auditRepo.Save(ctx, auditLog)
}
