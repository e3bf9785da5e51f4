package businessflow

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// ExecutionFlow drives the execution wizard: open, report (see ReportFlow),
// proceed, send
type ExecutionFlow interface {
	OpenExecution(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.ExecutionStateResponse, error)
	ProceedToSend(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.ExecutionStateResponse, error)
	Send(ctx context.Context, campaignUUID string, req *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendResponse, error)
	ListExecutions(ctx context.Context, campaignUUID string, page, limit int) (*dto.ListExecutionsResponse, error)
}

// ExecutionFlowImpl implements the execution flow
type ExecutionFlowImpl struct {
	campaignRepo  repository.CampaignRepository
	reportRepo    repository.CampaignReportRepository
	executionRepo repository.ExecutionRecordRepository
	audienceFlow  AudienceFlow
	auditRepo     repository.AuditLogRepository
	locker        *executionLocker
	db            *gorm.DB
}

// NewExecutionFlow creates a new execution flow instance. The redis client is
// optional; without it send locks are process-local.
func NewExecutionFlow(
	campaignRepo repository.CampaignRepository,
	reportRepo repository.CampaignReportRepository,
	executionRepo repository.ExecutionRecordRepository,
	audienceFlow AudienceFlow,
	auditRepo repository.AuditLogRepository,
	redisClient *redis.Client,
	db *gorm.DB,
) ExecutionFlow {
	return &ExecutionFlowImpl{
		campaignRepo:  campaignRepo,
		reportRepo:    reportRepo,
		executionRepo: executionRepo,
		audienceFlow:  audienceFlow,
		auditRepo:     auditRepo,
		locker:        newExecutionLocker(redisClient),
		db:            db,
	}
}

// OpenExecution puts the campaign at the start of the wizard. Reopening from
// any step restarts the pass.
func (f *ExecutionFlowImpl) OpenExecution(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.ExecutionStateResponse, error) {
	campaign, err := f.findCampaign(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.campaignRepo.UpdateExecutionStep(txCtx, campaign.ID, models.ExecutionStepReportingPending)
	})
	if err != nil {
		return nil, NewBusinessError("EXECUTION_OPEN_FAILED", "failed to open campaign execution", err)
	}

	campaign.ExecutionStep = models.ExecutionStepReportingPending
	f.createAuditLog(ctx, &campaign.ID, models.AuditActionExecutionOpened,
		fmt.Sprintf("execution opened for campaign %q", campaign.Name), true, "", metadata)

	return f.toStateResponse(ctx, campaign), nil
}

// ProceedToSend advances the wizard from reporting_complete to sending
func (f *ExecutionFlowImpl) ProceedToSend(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.ExecutionStateResponse, error) {
	campaign, err := f.findCampaign(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	if campaign.ExecutionStep != models.ExecutionStepReportingComplete {
		return nil, NewBusinessError("REPORT_NOT_SUBMITTED",
			fmt.Sprintf("cannot proceed to send at step %s", campaign.ExecutionStep),
			ErrReportNotSubmitted)
	}

	report, err := f.reportRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("REPORT_LOOKUP_FAILED", "failed to look up campaign report", err)
	}
	if report == nil {
		return nil, NewBusinessError("REPORT_NOT_SUBMITTED", "campaign report has not been submitted", ErrReportNotSubmitted)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.campaignRepo.UpdateExecutionStep(txCtx, campaign.ID, models.ExecutionStepSending)
	})
	if err != nil {
		return nil, NewBusinessError("EXECUTION_PROCEED_FAILED", "failed to advance campaign execution", err)
	}

	campaign.ExecutionStep = models.ExecutionStepSending
	return f.toStateResponse(ctx, campaign), nil
}

// Send performs the confirmed send: deterministic delivery accounting over
// the resolved audience, one new execution record, campaign activation.
// There is no telephony dispatch.
func (f *ExecutionFlowImpl) Send(ctx context.Context, campaignUUID string, req *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendResponse, error) {
	campaign, err := f.findCampaign(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	// Wrong phrase leaves every piece of state untouched
	if !strings.EqualFold(strings.TrimSpace(req.Confirmation), utils.SendConfirmationPhrase) {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionSendFailed,
			"send rejected, confirmation phrase mismatch", false, ErrConfirmationMismatch.Error(), metadata)
		return nil, NewBusinessError("CONFIRMATION_MISMATCH",
			fmt.Sprintf("confirmation must read %q", utils.SendConfirmationPhrase),
			ErrConfirmationMismatch)
	}

	release, err := f.locker.acquire(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("EXECUTION_IN_PROGRESS",
			"another execution of this campaign is in progress", err)
	}
	defer release()

	if campaign.ExecutionStep != models.ExecutionStepSending {
		return nil, NewBusinessError("REPORT_NOT_SUBMITTED",
			fmt.Sprintf("cannot send at step %s", campaign.ExecutionStep),
			ErrReportNotSubmitted)
	}

	report, err := f.reportRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("REPORT_LOOKUP_FAILED", "failed to look up campaign report", err)
	}
	if report == nil {
		return nil, NewBusinessError("REPORT_NOT_SUBMITTED", "campaign report has not been submitted", ErrReportNotSubmitted)
	}

	audience, err := f.audienceFlow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		CampaignUUID:   &campaignUUID,
		ContactIDs:     req.ContactIDs,
		MailingListIDs: req.MailingListIDs,
	})
	if err != nil {
		return nil, err
	}
	if audience.Size == 0 {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionSendFailed,
			"send rejected, resolved audience is empty", false, ErrEmptyAudience.Error(), metadata)
		return nil, NewBusinessError("EMPTY_AUDIENCE", "resolved audience is empty", ErrEmptyAudience)
	}

	recipients := audience.Size
	cost := float64(recipients) * utils.UnitSMSPrice
	delivered := int(math.Round(float64(recipients) * utils.DeliveryRate))
	now := utils.UTCNow()

	var messagePreview *string
	if campaign.PersonalizationEnabled && len(audience.Recipients) > 0 {
		preview := renderMessage(campaign.MessageTemplate, audience.Recipients[0], campaign.StartDate, campaign.EndDate)
		messagePreview = &preview
	}

	record := &models.ExecutionRecord{
		CampaignID:         campaign.ID,
		ReportID:           report.ID,
		ExecutedAt:         now,
		TotalRecipients:    recipients,
		EstimatedCost:      cost,
		EstimatedDelivered: delivered,
		Durable:            true,
	}

	campaign.LastSentAt = &now
	campaign.ExecutionStep = models.ExecutionStepCompleted
	if campaign.Status == models.CampaignStatusDraft {
		campaign.Status = models.CampaignStatusActive
	}

	persist := func(txCtx context.Context) error {
		if err := f.campaignRepo.Update(txCtx, *campaign); err != nil {
			return err
		}
		// An update absorbed by the replica means the record is not durable yet
		if f.storeDegraded() {
			record.Durable = false
		}
		return f.executionRepo.Save(txCtx, record)
	}

	err = repository.WithTransaction(ctx, f.db, persist)
	if err != nil {
		// A primary outage aborts the transaction before the replicated
		// repositories can absorb anything; retry the writes without one.
		err = persist(ctx)
	}
	if err != nil {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionSendFailed,
			"failed to record campaign send", false, err.Error(), metadata)
		return nil, NewBusinessError("SEND_FAILED", "failed to record campaign send", err)
	}

	f.createAuditLog(ctx, &campaign.ID, models.AuditActionSendCompleted,
		fmt.Sprintf("campaign %q sent to %d recipients", campaign.Name, recipients), true, "", metadata)

	return &dto.SendResponse{
		CampaignUUID:       campaignUUID,
		Status:             campaign.Status.String(),
		ExecutionStep:      campaign.ExecutionStep.String(),
		TotalRecipients:    recipients,
		EstimatedCost:      cost,
		EstimatedDelivered: delivered,
		MessagePreview:     messagePreview,
		ExecutedAt:         now,
		Durable:            record.Durable,
	}, nil
}

// ListExecutions retrieves the execution history of a campaign, newest first
func (f *ExecutionFlowImpl) ListExecutions(ctx context.Context, campaignUUID string, page, limit int) (*dto.ListExecutionsResponse, error) {
	campaign, err := f.findCampaign(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	records, err := f.executionRepo.ListByCampaignID(ctx, campaign.ID, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("EXECUTION_LIST_FAILED", "failed to list executions", err)
	}

	total, err := f.executionRepo.Count(ctx, models.ExecutionRecordFilter{CampaignID: &campaign.ID})
	if err != nil {
		return nil, NewBusinessError("EXECUTION_LIST_FAILED", "failed to count executions", err)
	}

	items := make([]dto.ExecutionRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.ExecutionRecordResponse{
			UUID:               record.UUID.String(),
			ExecutedAt:         record.ExecutedAt,
			TotalRecipients:    record.TotalRecipients,
			EstimatedCost:      record.EstimatedCost,
			EstimatedDelivered: record.EstimatedDelivered,
			Durable:            record.Durable,
		})
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &dto.ListExecutionsResponse{
		Items: items,
		Pagination: dto.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (f *ExecutionFlowImpl) findCampaign(ctx context.Context, campaignUUID string) (*models.Campaign, error) {
	if _, err := utils.ParseUUID(campaignUUID); err != nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
	}

	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to look up campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
	}
	return campaign, nil
}

// storeDegraded reports whether the campaign store is currently serving from
// its replica
func (f *ExecutionFlowImpl) storeDegraded() bool {
	if reporter, ok := f.campaignRepo.(DegradedReporter); ok {
		return reporter.Degraded()
	}
	return false
}

func (f *ExecutionFlowImpl) toStateResponse(ctx context.Context, campaign *models.Campaign) *dto.ExecutionStateResponse {
	reportSubmitted := false
	if report, err := f.reportRepo.ByCampaignID(ctx, campaign.ID); err == nil && report != nil {
		reportSubmitted = true
	}

	return &dto.ExecutionStateResponse{
		CampaignUUID:    campaign.UUID.String(),
		Status:          campaign.Status.String(),
		ExecutionStep:   campaign.ExecutionStep.String(),
		ReportSubmitted: reportSubmitted,
	}
}

// renderMessage substitutes the personalization placeholders with values from
// the given recipient and campaign dates
func renderMessage(template string, recipient dto.RecipientResponse, startDate, endDate *time.Time) string {
	start, end := "", ""
	if startDate != nil {
		start = startDate.Format("2006-01-02")
	}
	if endDate != nil {
		end = endDate.Format("2006-01-02")
	}

	return strings.NewReplacer(
		models.PlaceholderFirstName, recipient.FirstName,
		models.PlaceholderLastName, recipient.LastName,
		models.PlaceholderCity, derefString(recipient.City),
		models.PlaceholderStartDate, start,
		models.PlaceholderEndDate, end,
	).Replace(template)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (f *ExecutionFlowImpl) createAuditLog(ctx context.Context, campaignID *uint, action, description string, success bool, errorMessage string, metadata *ClientMetadata) {
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
