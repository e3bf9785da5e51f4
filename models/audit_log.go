// Package models contains domain entities and business models for the campaign console
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CampaignID   *uint           `gorm:"index:idx_audit_campaign_id" json:"campaign_id,omitempty"`
	Campaign     *Campaign       `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Action       string          `gorm:"size:100;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionCampaignCreated        = "campaign_created"
	AuditActionCampaignCreationFailed = "campaign_creation_failed"
	AuditActionCampaignUpdated        = "campaign_updated"
	AuditActionCampaignUpdateFailed   = "campaign_update_failed"
	AuditActionCampaignDeleted        = "campaign_deleted"
	AuditActionStatusChanged          = "campaign_status_changed"
	AuditActionStatusChangeFailed     = "campaign_status_change_failed"
	AuditActionReportSubmitted        = "campaign_report_submitted"
	AuditActionReportRejected         = "campaign_report_rejected"
	AuditActionExecutionOpened        = "campaign_execution_opened"
	AuditActionSendCompleted          = "campaign_send_completed"
	AuditActionSendFailed             = "campaign_send_failed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	CampaignID    *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
