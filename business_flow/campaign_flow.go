package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// CampaignFlow handles campaign store and lifecycle business logic
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error)
	UpdateCampaign(ctx context.Context, campaignUUID string, req *dto.UpdateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	DeleteCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) error
	PauseCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	ResumeCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	StopCampaign(ctx context.Context, campaignUUID string, req *dto.StopCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	ReactivateCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	CancelCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error)
}

// DegradedReporter is implemented by repositories that can serve from a
// non-durable replica while the primary store is unreachable
type DegradedReporter interface {
	Degraded() bool
}

// CampaignFlowImpl implements the campaign flow
type CampaignFlowImpl struct {
	campaignRepo    repository.CampaignRepository
	mailingListRepo repository.MailingListRepository
	templateRepo    repository.MessageTemplateRepository
	executionRepo   repository.ExecutionRecordRepository
	auditRepo       repository.AuditLogRepository
	db              *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	mailingListRepo repository.MailingListRepository,
	templateRepo repository.MessageTemplateRepository,
	executionRepo repository.ExecutionRecordRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo:    campaignRepo,
		mailingListRepo: mailingListRepo,
		templateRepo:    templateRepo,
		executionRepo:   executionRepo,
		auditRepo:       auditRepo,
		db:              db,
	}
}

func (f *CampaignFlowImpl) isDegraded() bool {
	if reporter, ok := f.campaignRepo.(DegradedReporter); ok {
		return reporter.Degraded()
	}
	return false
}

// CreateCampaign creates a new draft campaign
func (f *CampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewBusinessError("CAMPAIGN_NAME_REQUIRED", "campaign name is required", ErrCampaignNameRequired)
	}

	campaignType := models.CampaignType(req.Type)
	if !campaignType.Valid() {
		return nil, NewBusinessError("INVALID_CAMPAIGN_TYPE", fmt.Sprintf("unknown campaign type %q", req.Type), ErrInvalidCampaignType)
	}

	campaign := &models.Campaign{
		Name:                   strings.TrimSpace(req.Name),
		Type:                   campaignType,
		Status:                 models.CampaignStatusDraft,
		ExecutionStep:          models.ExecutionStepNone,
		MessageTemplate:        req.MessageTemplate,
		TargetSegment:          req.TargetSegment,
		PersonalizationEnabled: req.PersonalizationEnabled,
		StartDate:              utils.TimeToUTCPtr(req.StartDate),
		EndDate:                utils.TimeToUTCPtr(req.EndDate),
	}

	// A template reference copies the content; the campaign never links back
	if req.TemplateUUID != nil {
		template, err := f.templateRepo.ByUUID(ctx, *req.TemplateUUID)
		if err != nil {
			return nil, NewBusinessError("TEMPLATE_LOOKUP_FAILED", "failed to look up message template", err)
		}
		if template == nil {
			return nil, NewBusinessError("TEMPLATE_NOT_FOUND", "message template not found", ErrTemplateNotFound)
		}
		campaign.MessageTemplate = template.Content
	}

	if req.MailingListUUID != nil {
		list, err := f.mailingListRepo.ByUUID(ctx, *req.MailingListUUID)
		if err != nil {
			return nil, NewBusinessError("MAILING_LIST_LOOKUP_FAILED", "failed to look up mailing list", err)
		}
		if list == nil {
			return nil, NewBusinessError("MAILING_LIST_NOT_FOUND", "mailing list not found", ErrMailingListNotFound)
		}
		campaign.MailingListID = &list.ID
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.campaignRepo.Save(txCtx, campaign)
	})
	if err != nil {
		f.createAuditLog(ctx, nil, models.AuditActionCampaignCreationFailed,
			fmt.Sprintf("failed to create campaign %q", req.Name), false, err.Error(), metadata)
		return nil, NewBusinessError("CAMPAIGN_CREATE_FAILED", "failed to create campaign", err)
	}

	f.createAuditLog(ctx, &campaign.ID, models.AuditActionCampaignCreated,
		fmt.Sprintf("campaign %q created", campaign.Name), true, "", metadata)

	return f.toResponse(campaign), nil
}

// GetCampaign retrieves a single campaign by UUID
func (f *CampaignFlowImpl) GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error) {
	campaign, err := f.findCampaign(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}
	return f.toResponse(campaign), nil
}

// ListCampaigns retrieves campaigns with pagination and filtering
func (f *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	filter := models.CampaignFilter{}
	if req.Status != nil {
		status := models.CampaignStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("INVALID_STATUS_FILTER", fmt.Sprintf("unknown status %q", *req.Status), ErrInvalidStatusTransition)
		}
		filter.Status = &status
	}
	if req.Type != nil {
		campaignType := models.CampaignType(*req.Type)
		if !campaignType.Valid() {
			return nil, NewBusinessError("INVALID_CAMPAIGN_TYPE", fmt.Sprintf("unknown campaign type %q", *req.Type), ErrInvalidCampaignType)
		}
		filter.Type = &campaignType
	}
	if req.Name != nil && *req.Name != "" {
		filter.NameContains = req.Name
	}

	orderBy := "created_at DESC"
	if req.OrderBy == "oldest" {
		orderBy = "created_at ASC"
	}

	total, err := f.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "failed to count campaigns", err)
	}

	campaigns, err := f.campaignRepo.ByFilter(ctx, filter, orderBy, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "failed to list campaigns", err)
	}

	items := make([]dto.CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, *f.toResponse(c))
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &dto.ListCampaignsResponse{
		Items: items,
		Pagination: dto.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// UpdateCampaign applies a partial update to a campaign
func (f *CampaignFlowImpl) UpdateCampaign(ctx context.Context, campaignUUID string, req *dto.UpdateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	campaign, err := f.findCampaign(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, NewBusinessError("CAMPAIGN_NAME_REQUIRED", "campaign name is required", ErrCampaignNameRequired)
		}
		campaign.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		campaignType := models.CampaignType(*req.Type)
		if !campaignType.Valid() {
			return nil, NewBusinessError("INVALID_CAMPAIGN_TYPE", fmt.Sprintf("unknown campaign type %q", *req.Type), ErrInvalidCampaignType)
		}
		campaign.Type = campaignType
	}
	if req.MessageTemplate != nil && *req.MessageTemplate != campaign.MessageTemplate {
		locked, lockErr := f.templateLocked(ctx, campaign)
		if lockErr != nil {
			return nil, lockErr
		}
		if locked {
			f.createAuditLog(ctx, &campaign.ID, models.AuditActionCampaignUpdateFailed,
				"rejected message template change after send", false, ErrTemplateImmutable.Error(), metadata)
			return nil, NewBusinessError("TEMPLATE_IMMUTABLE", "message template cannot change after a send", ErrTemplateImmutable)
		}
		campaign.MessageTemplate = *req.MessageTemplate
	}
	if req.TargetSegment != nil {
		campaign.TargetSegment = req.TargetSegment
	}
	if req.PersonalizationEnabled != nil {
		campaign.PersonalizationEnabled = *req.PersonalizationEnabled
	}
	if req.MailingListUUID != nil {
		if *req.MailingListUUID == "" {
			campaign.MailingListID = nil
		} else {
			list, listErr := f.mailingListRepo.ByUUID(ctx, *req.MailingListUUID)
			if listErr != nil {
				return nil, NewBusinessError("MAILING_LIST_LOOKUP_FAILED", "failed to look up mailing list", listErr)
			}
			if list == nil {
				return nil, NewBusinessError("MAILING_LIST_NOT_FOUND", "mailing list not found", ErrMailingListNotFound)
			}
			campaign.MailingListID = &list.ID
		}
	}
	if req.StartDate != nil {
		campaign.StartDate = utils.TimeToUTCPtr(req.StartDate)
	}
	if req.EndDate != nil {
		campaign.EndDate = utils.TimeToUTCPtr(req.EndDate)
	}

	now := utils.UTCNow()
	campaign.UpdatedAt = &now

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.campaignRepo.Update(txCtx, *campaign)
	})
	if err != nil {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionCampaignUpdateFailed,
			fmt.Sprintf("failed to update campaign %q", campaign.Name), false, err.Error(), metadata)
		return nil, NewBusinessError("CAMPAIGN_UPDATE_FAILED", "failed to update campaign", err)
	}

	f.createAuditLog(ctx, &campaign.ID, models.AuditActionCampaignUpdated,
		fmt.Sprintf("campaign %q updated", campaign.Name), true, "", metadata)

	return f.toResponse(campaign), nil
}

// DeleteCampaign removes a campaign. Deleting an unknown UUID succeeds, the
// operation is idempotent.
func (f *CampaignFlowImpl) DeleteCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) error {
	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to look up campaign", err)
	}
	if campaign == nil {
		return nil
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.campaignRepo.Delete(txCtx, campaign.ID)
	})
	if err != nil {
		return NewBusinessError("CAMPAIGN_DELETE_FAILED", "failed to delete campaign", err)
	}

	f.createAuditLog(ctx, &campaign.ID, models.AuditActionCampaignDeleted,
		fmt.Sprintf("campaign %q deleted", campaign.Name), true, "", metadata)

	return nil
}

// PauseCampaign moves an active campaign to paused
func (f *CampaignFlowImpl) PauseCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	return f.changeStatus(ctx, campaignUUID, models.CampaignStatusPaused, metadata)
}

// ResumeCampaign moves a paused campaign back to active
func (f *CampaignFlowImpl) ResumeCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	return f.changeStatus(ctx, campaignUUID, models.CampaignStatusActive, metadata)
}

// StopCampaign stops an active or paused campaign. The request must carry an
// explicit confirmation flag.
func (f *CampaignFlowImpl) StopCampaign(ctx context.Context, campaignUUID string, req *dto.StopCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	if req == nil || !req.Confirm {
		return nil, NewBusinessError("CONFIRMATION_REQUIRED", "stopping a campaign requires confirmation", ErrConfirmationMismatch)
	}
	return f.changeStatus(ctx, campaignUUID, models.CampaignStatusStopped, metadata)
}

// ReactivateCampaign moves a stopped campaign back to active, never to draft
func (f *CampaignFlowImpl) ReactivateCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	return f.changeStatus(ctx, campaignUUID, models.CampaignStatusActive, metadata)
}

// CancelCampaign cancels a draft campaign
func (f *CampaignFlowImpl) CancelCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	return f.changeStatus(ctx, campaignUUID, models.CampaignStatusCancelled, metadata)
}

// changeStatus applies a guarded lifecycle transition. A rejected transition
// leaves the campaign untouched.
func (f *CampaignFlowImpl) changeStatus(ctx context.Context, campaignUUID string, newStatus models.CampaignStatus, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	campaign, err := f.findCampaign(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	if !campaign.CanTransitionTo(newStatus) {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionStatusChangeFailed,
			fmt.Sprintf("rejected transition %s -> %s", campaign.Status, newStatus), false,
			ErrInvalidStatusTransition.Error(), metadata)
		return nil, NewBusinessError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("cannot move campaign from %s to %s", campaign.Status, newStatus),
			ErrInvalidStatusTransition)
	}

	previous := campaign.Status
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.campaignRepo.UpdateStatus(txCtx, campaign.ID, newStatus)
	})
	if err != nil {
		f.createAuditLog(ctx, &campaign.ID, models.AuditActionStatusChangeFailed,
			fmt.Sprintf("failed transition %s -> %s", previous, newStatus), false, err.Error(), metadata)
		return nil, NewBusinessError("STATUS_CHANGE_FAILED", "failed to change campaign status", err)
	}

	campaign.Status = newStatus
	f.createAuditLog(ctx, &campaign.ID, models.AuditActionStatusChanged,
		fmt.Sprintf("campaign %q moved %s -> %s", campaign.Name, previous, newStatus), true, "", metadata)

	return f.toResponse(campaign), nil
}

// findCampaign looks up a campaign by UUID, mapping missing rows to the
// not-found sentinel
func (f *CampaignFlowImpl) findCampaign(ctx context.Context, campaignUUID string) (*models.Campaign, error) {
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

// templateLocked reports whether the campaign's message template is frozen.
// A completed send freezes the template until the wizard is reopened, which
// starts a new pass.
func (f *CampaignFlowImpl) templateLocked(ctx context.Context, campaign *models.Campaign) (bool, error) {
	if campaign.LastSentAt == nil {
		return false, nil
	}
	if campaign.ExecutionStep != models.ExecutionStepCompleted &&
		campaign.ExecutionStep != models.ExecutionStepSending {
		return false, nil
	}

	record, err := f.executionRepo.LatestByCampaignID(ctx, campaign.ID)
	if err != nil {
		return false, NewBusinessError("EXECUTION_LOOKUP_FAILED", "failed to look up execution records", err)
	}
	return record != nil, nil
}

func (f *CampaignFlowImpl) toResponse(campaign *models.Campaign) *dto.CampaignResponse {
	resp := &dto.CampaignResponse{
		UUID:                   campaign.UUID.String(),
		Name:                   campaign.Name,
		Type:                   campaign.Type.String(),
		Status:                 campaign.Status.String(),
		StatusDisplay:          campaign.GetStatusDisplayName(),
		ExecutionStep:          campaign.ExecutionStep.String(),
		MessageTemplate:        campaign.MessageTemplate,
		TargetSegment:          campaign.TargetSegment,
		PersonalizationEnabled: campaign.PersonalizationEnabled,
		StartDate:              campaign.StartDate,
		EndDate:                campaign.EndDate,
		CreatedAt:              campaign.CreatedAt,
		UpdatedAt:              campaign.UpdatedAt,
		LastSentAt:             campaign.LastSentAt,
		Degraded:               f.isDegraded(),
	}
	if campaign.MailingList != nil {
		listUUID := campaign.MailingList.UUID.String()
		resp.MailingListUUID = &listUUID
	}
	return resp
}

// createAuditLog records an audit entry. Audit failures are swallowed, they
// must never fail the operation being audited.
func (f *CampaignFlowImpl) createAuditLog(ctx context.Context, campaignID *uint, action, description string, success bool, errorMessage string, metadata *ClientMetadata) {
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
