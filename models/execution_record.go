package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// ExecutionRecord is the accounting snapshot produced by a confirmed send.
// Records are append-only: a re-send creates a new row and the newest row is
// the display slot. Rows are immutable after creation.
type ExecutionRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_execution_records_uuid" json:"uuid"`
	CampaignID uint      `gorm:"not null;index:idx_execution_records_campaign_id" json:"campaign_id"`
	ReportID   uint      `gorm:"not null" json:"report_id"`
	ExecutedAt time.Time `gorm:"not null" json:"executed_at"`

	TotalRecipients    int     `gorm:"not null" json:"total_recipients"`
	EstimatedCost      float64 `gorm:"not null" json:"estimated_cost"`
	EstimatedDelivered int     `gorm:"not null" json:"estimated_delivered"`

	// Durable is false when the record was accepted into the in-memory
	// replica because the primary store was unreachable.
	Durable bool `gorm:"not null;default:true" json:"durable"`

	// Relations
	Campaign *Campaign       `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Report   *CampaignReport `gorm:"foreignKey:ReportID;references:ID" json:"report,omitempty"`
}

// TableName returns the table name for the model
func (ExecutionRecord) TableName() string {
	return "execution_records"
}

// BeforeCreate is called before creating a new record
func (e *ExecutionRecord) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = utils.UTCNow()
	}
	return nil
}

// ExecutionRecordFilter represents filter criteria for execution records
type ExecutionRecordFilter struct {
	ID             *uint      `json:"id,omitempty"`
	UUID           *uuid.UUID `json:"uuid,omitempty"`
	CampaignID     *uint      `json:"campaign_id,omitempty"`
	Durable        *bool      `json:"durable,omitempty"`
	ExecutedAfter  *time.Time `json:"executed_after,omitempty"`
	ExecutedBefore *time.Time `json:"executed_before,omitempty"`
}
