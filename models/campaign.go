package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// CampaignStatus represents the operator-visible status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusStopped   CampaignStatus = "stopped"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused,
		CampaignStatusStopped, CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// CampaignType represents the kind of campaign
type CampaignType string

const (
	CampaignTypePromotional  CampaignType = "promotional"
	CampaignTypeWelcome      CampaignType = "welcome"
	CampaignTypeReminder     CampaignType = "reminder"
	CampaignTypeNotification CampaignType = "notification"
)

// String returns the string representation of the type
func (t CampaignType) String() string {
	return string(t)
}

// Valid checks if the type is valid
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignTypePromotional, CampaignTypeWelcome,
		CampaignTypeReminder, CampaignTypeNotification:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignType
func (t *CampaignType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = CampaignType(v)
	case []byte:
		*t = CampaignType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignType
func (t CampaignType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid CampaignType: %s", t)
	}
	return string(t), nil
}

// ExecutionStep represents the position of a campaign inside the execution
// wizard. It is orthogonal to CampaignStatus: a send leaves the step at
// "completed" while the backing status becomes "active".
type ExecutionStep string

const (
	ExecutionStepNone              ExecutionStep = "none"
	ExecutionStepReportingPending  ExecutionStep = "reporting_pending"
	ExecutionStepReportingComplete ExecutionStep = "reporting_complete"
	ExecutionStepSending           ExecutionStep = "sending"
	ExecutionStepCompleted         ExecutionStep = "completed"
)

// String returns the string representation of the step
func (e ExecutionStep) String() string {
	return string(e)
}

// Valid checks if the step is valid
func (e ExecutionStep) Valid() bool {
	switch e {
	case ExecutionStepNone, ExecutionStepReportingPending,
		ExecutionStepReportingComplete, ExecutionStepSending, ExecutionStepCompleted:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ExecutionStep
func (e *ExecutionStep) Scan(value any) error {
	if value == nil {
		*e = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*e = ExecutionStep(v)
	case []byte:
		*e = ExecutionStep(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ExecutionStep", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ExecutionStep
func (e ExecutionStep) Value() (driver.Value, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid ExecutionStep: %s", e)
	}
	return string(e), nil
}

// CanAdvanceTo checks if the wizard can move to the given step. Opening the
// execution view restarts the wizard, so reporting_pending is reachable from
// any step.
func (e ExecutionStep) CanAdvanceTo(next ExecutionStep) bool {
	if next == ExecutionStepReportingPending {
		return true
	}
	switch e {
	case ExecutionStepReportingPending:
		return next == ExecutionStepReportingComplete
	case ExecutionStepReportingComplete:
		// Report resubmission overwrites the prior report (last-write-wins)
		return next == ExecutionStepSending || next == ExecutionStepReportingComplete
	case ExecutionStepSending:
		return next == ExecutionStepCompleted
	default:
		return false
	}
}

// Campaign represents an SMS campaign in the database
type Campaign struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	UUID                   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	Name                   string         `gorm:"size:150;not null" json:"name"`
	Type                   CampaignType   `gorm:"type:campaign_type;not null;default:'promotional'" json:"type"`
	Status                 CampaignStatus `gorm:"type:campaign_status;not null;default:'draft';index:idx_campaigns_status" json:"status"`
	ExecutionStep          ExecutionStep  `gorm:"type:execution_step;not null;default:'none'" json:"execution_step"`
	CreatedAt              time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt              *time.Time     `json:"updated_at,omitempty"`
	StartDate              *time.Time     `json:"start_date,omitempty"`
	EndDate                *time.Time     `json:"end_date,omitempty"`
	MessageTemplate        string         `gorm:"type:text" json:"message_template"`
	TargetSegment          *string        `gorm:"size:255" json:"target_segment,omitempty"`
	PersonalizationEnabled bool           `gorm:"not null;default:false" json:"personalization_enabled"`
	MailingListID          *uint          `gorm:"index:idx_campaigns_mailing_list_id" json:"mailing_list_id,omitempty"`
	LastSentAt             *time.Time     `json:"last_sent_at,omitempty"`

	// Relations
	MailingList *MailingList `gorm:"foreignKey:MailingListID;references:ID" json:"mailing_list,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.ExecutionStep == "" {
		c.ExecutionStep = ExecutionStepNone
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsEditable checks if the campaign fields can still be edited
func (c *Campaign) IsEditable() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusActive ||
		c.Status == CampaignStatusPaused
}

// CanTransitionTo checks if the campaign can move to the given operator status.
// The table deliberately has no terminal state: even "stopped" campaigns can be
// reactivated, matching the reference behavior.
func (c *Campaign) CanTransitionTo(newStatus CampaignStatus) bool {
	switch c.Status {
	case CampaignStatusDraft:
		return newStatus == CampaignStatusActive || newStatus == CampaignStatusCancelled
	case CampaignStatusActive:
		return newStatus == CampaignStatusPaused || newStatus == CampaignStatusStopped
	case CampaignStatusPaused:
		return newStatus == CampaignStatusActive || newStatus == CampaignStatusStopped
	case CampaignStatusStopped:
		return newStatus == CampaignStatusActive
	default:
		return false
	}
}

// GetStatusDisplayName returns a human-readable status name
func (c *Campaign) GetStatusDisplayName() string {
	switch c.Status {
	case CampaignStatusDraft:
		return "Draft"
	case CampaignStatusActive:
		return "Active"
	case CampaignStatusPaused:
		return "Paused"
	case CampaignStatusStopped:
		return "Stopped"
	case CampaignStatusCompleted:
		return "Completed"
	case CampaignStatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	NameContains  *string         `json:"name_contains,omitempty"`
	Type          *CampaignType   `json:"type,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	ExecutionStep *ExecutionStep  `json:"execution_step,omitempty"`
	MailingListID *uint           `json:"mailing_list_id,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}
