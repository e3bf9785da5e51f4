// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/textpulse/campaign-console/models"
)

// contextKey is the context key type for transactions
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	Update(ctx context.Context, campaign models.Campaign) error
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
	UpdateExecutionStep(ctx context.Context, id uint, step models.ExecutionStep) error
	Delete(ctx context.Context, id uint) error
}

// ContactRepository defines operations for contacts
type ContactRepository interface {
	Repository[models.Contact, models.ContactFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Contact, error)
	ByIDs(ctx context.Context, ids []uint) ([]*models.Contact, error)
	ListOptedIn(ctx context.Context, limit, offset int) ([]*models.Contact, error)
}

// MailingListRepository defines operations for mailing lists
type MailingListRepository interface {
	Repository[models.MailingList, models.MailingListFilter]
	ByUUID(ctx context.Context, uuid string) (*models.MailingList, error)
	ByIDs(ctx context.Context, ids []uint) ([]*models.MailingList, error)
	MemberContactIDs(ctx context.Context, listID uint) ([]uint, error)
	ReplaceMembers(ctx context.Context, listID uint, contactIDs []uint) error
	Update(ctx context.Context, list models.MailingList) error
}

// CampaignReportRepository defines operations for campaign reports
type CampaignReportRepository interface {
	Repository[models.CampaignReport, models.CampaignReportFilter]
	ByCampaignID(ctx context.Context, campaignID uint) (*models.CampaignReport, error)
	Upsert(ctx context.Context, report *models.CampaignReport) error
}

// ExecutionRecordRepository defines operations for execution records
type ExecutionRecordRepository interface {
	Repository[models.ExecutionRecord, models.ExecutionRecordFilter]
	LatestByCampaignID(ctx context.Context, campaignID uint) (*models.ExecutionRecord, error)
	ListByCampaignID(ctx context.Context, campaignID uint, limit, offset int) ([]*models.ExecutionRecord, error)
}

// MessageTemplateRepository defines operations for message templates
type MessageTemplateRepository interface {
	Repository[models.MessageTemplate, models.MessageTemplateFilter]
	ByUUID(ctx context.Context, uuid string) (*models.MessageTemplate, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
