package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// Placeholder tokens substituted into template content when personalization
// is enabled. The tokens are part of the external data format.
const (
	PlaceholderFirstName = "{prenom}"
	PlaceholderLastName  = "{nom}"
	PlaceholderCity      = "{ville}"
	PlaceholderStartDate = "{date_debut}"
	PlaceholderEndDate   = "{date_fin}"
)

// MessageTemplate is reusable SMS copy. Templates are a read-only collaborator
// of the campaign store: creating a campaign from a template copies the
// content, it does not link to it.
type MessageTemplate struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_message_templates_uuid" json:"uuid"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Category  string     `gorm:"size:100" json:"category"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (MessageTemplate) TableName() string {
	return "message_templates"
}

// BeforeCreate is called before creating a new record
func (t *MessageTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (t *MessageTemplate) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	t.UpdatedAt = &now
	return nil
}

// MessageTemplateFilter represents filter criteria for message templates
type MessageTemplateFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Name     *string    `json:"name,omitempty"`
	Category *string    `json:"category,omitempty"`
}
