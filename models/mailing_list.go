package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// MailingListStatus represents the status of a mailing list
type MailingListStatus string

const (
	MailingListStatusActive   MailingListStatus = "active"
	MailingListStatusPaused   MailingListStatus = "paused"
	MailingListStatusArchived MailingListStatus = "archived"
)

// String returns the string representation of the status
func (s MailingListStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s MailingListStatus) Valid() bool {
	switch s {
	case MailingListStatusActive, MailingListStatusPaused, MailingListStatusArchived:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for MailingListStatus
func (s *MailingListStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = MailingListStatus(v)
	case []byte:
		*s = MailingListStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MailingListStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for MailingListStatus
func (s MailingListStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid MailingListStatus: %s", s)
	}
	return string(s), nil
}

// MailingList represents a named set of contacts. Membership is an unordered
// set; contact references that no longer resolve are tolerated and dropped by
// the audience resolver instead of failing the operation.
type MailingList struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uk_mailing_lists_uuid" json:"uuid"`
	Name        string            `gorm:"size:100;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Status      MailingListStatus `gorm:"type:mailing_list_status;not null;default:'active'" json:"status"`
	CampaignID  *uint             `gorm:"index:idx_mailing_lists_campaign_id" json:"campaign_id,omitempty"`
	CreatedAt   time.Time         `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`

	// Relations
	Contacts []Contact `gorm:"many2many:mailing_list_contacts" json:"contacts,omitempty"`
}

// TableName returns the table name for the model
func (MailingList) TableName() string {
	return "mailing_lists"
}

// BeforeCreate is called before creating a new record
func (m *MailingList) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == uuid.Nil {
		m.UUID = uuid.New()
	}
	if m.Status == "" {
		m.Status = MailingListStatusActive
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (m *MailingList) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	m.UpdatedAt = &now
	return nil
}

// ContactIDs returns the identifiers of the loaded member contacts
func (m *MailingList) ContactIDs() []uint {
	ids := make([]uint, 0, len(m.Contacts))
	for _, c := range m.Contacts {
		ids = append(ids, c.ID)
	}
	return ids
}

// MailingListFilter represents filter criteria for mailing lists
type MailingListFilter struct {
	ID           *uint              `json:"id,omitempty"`
	UUID         *uuid.UUID         `json:"uuid,omitempty"`
	NameContains *string            `json:"name_contains,omitempty"`
	Status       *MailingListStatus `json:"status,omitempty"`
	CampaignID   *uint              `json:"campaign_id,omitempty"`
}
