package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// ContactTier represents the client tier of a contact
type ContactTier string

const (
	ContactTierPremium  ContactTier = "premium"
	ContactTierStandard ContactTier = "standard"
	ContactTierBasic    ContactTier = "basic"
)

// String returns the string representation of the tier
func (t ContactTier) String() string {
	return string(t)
}

// Valid checks if the tier is valid
func (t ContactTier) Valid() bool {
	switch t {
	case ContactTierPremium, ContactTierStandard, ContactTierBasic:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ContactTier
func (t *ContactTier) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = ContactTier(v)
	case []byte:
		*t = ContactTier(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ContactTier", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ContactTier
func (t ContactTier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ContactTier: %s", t)
	}
	return string(t), nil
}

// Contact represents an SMS recipient in the database. The phone number is the
// SMS destination and is required; everything else is descriptive.
type Contact struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_contacts_uuid" json:"uuid"`
	FirstName  string      `gorm:"size:100;not null" json:"first_name"`
	LastName   string      `gorm:"size:100;not null" json:"last_name"`
	Phone      string      `gorm:"size:50;not null;index:idx_contacts_phone" json:"phone"`
	Email      *string     `gorm:"size:100" json:"email,omitempty"`
	City       *string     `gorm:"size:100" json:"city,omitempty"`
	Region     *string     `gorm:"size:100" json:"region,omitempty"`
	PostalCode *string     `gorm:"size:20" json:"postal_code,omitempty"`
	Tier       ContactTier `gorm:"type:contact_tier;not null;default:'standard'" json:"tier"`
	OptIn      *bool       `gorm:"not null;default:true" json:"opt_in"`
	CreatedAt  time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`

	// Relations
	MailingLists []MailingList `gorm:"many2many:mailing_list_contacts" json:"mailing_lists,omitempty"`
}

// TableName returns the table name for the model
func (Contact) TableName() string {
	return "contacts"
}

// BeforeCreate is called before creating a new record
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Tier == "" {
		c.Tier = ContactTierStandard
	}
	if c.OptIn == nil {
		c.OptIn = utils.ToPtr(true)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Contact) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsReachable checks whether the contact may be included in a send audience
func (c *Contact) IsReachable() bool {
	return utils.IsTrue(c.OptIn) && c.Phone != ""
}

// FullName returns the display name of the contact
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ContactFilter represents filter criteria for contacts
type ContactFilter struct {
	ID           *uint        `json:"id,omitempty"`
	UUID         *uuid.UUID   `json:"uuid,omitempty"`
	Phone        *string      `json:"phone,omitempty"`
	Email        *string      `json:"email,omitempty"`
	City         *string      `json:"city,omitempty"`
	Region       *string      `json:"region,omitempty"`
	Tier         *ContactTier `json:"tier,omitempty"`
	OptIn        *bool        `json:"opt_in,omitempty"`
	NameContains *string      `json:"name_contains,omitempty"`
}
