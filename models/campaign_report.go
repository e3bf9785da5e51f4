package models

import (
	"time"

	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// CampaignReport is the pre-send planning record gating progression to the
// send step. One mutable row per campaign: resubmission overwrites the prior
// report (last-write-wins, no audit trail).
type CampaignReport struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CampaignID      uint       `gorm:"not null;uniqueIndex:uk_campaign_reports_campaign_id" json:"campaign_id"`
	Goal            string     `gorm:"type:text;not null" json:"goal"`
	TargetAudience  string     `gorm:"size:255;not null" json:"target_audience"`
	ExpectedResults string     `gorm:"type:text" json:"expected_results"`
	Budget          float64    `gorm:"not null" json:"budget"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`

	// Derived fields, computed by the report gate at submission time
	EstimatedReach     int     `gorm:"not null;default:0" json:"estimated_reach"`
	EstimatedCost      float64 `gorm:"not null;default:0" json:"estimated_cost"`
	EstimatedDelivered int     `gorm:"not null;default:0" json:"estimated_delivered"`
	EstimatedOpens     int     `gorm:"not null;default:0" json:"estimated_opens"`
	ROIProjection      float64 `gorm:"not null;default:0" json:"roi_projection"`
	BudgetWarning      bool    `gorm:"not null;default:false" json:"budget_warning"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (CampaignReport) TableName() string {
	return "campaign_reports"
}

// BeforeCreate is called before creating a new record
func (r *CampaignReport) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *CampaignReport) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// IsOverBudget reports whether the planned budget does not cover the
// estimated cost. This is a warning, never a rejection.
func (r *CampaignReport) IsOverBudget() bool {
	return r.Budget < r.EstimatedCost
}

// CampaignReportFilter represents filter criteria for campaign reports
type CampaignReportFilter struct {
	ID            *uint   `json:"id,omitempty"`
	CampaignID    *uint   `json:"campaign_id,omitempty"`
	BudgetWarning *bool   `json:"budget_warning,omitempty"`
	Goal          *string `json:"goal,omitempty"`
}
