// Package dto contains request and response data transfer objects for the API
package dto

import "time"

// APIResponse is the standard envelope of every endpoint
type APIResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries machine-readable error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// PaginationInfo describes the page window of a list response
type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Campaign DTOs

// CreateCampaignRequest creates a new draft campaign. template_uuid copies
// the template content into message_template at creation time.
type CreateCampaignRequest struct {
	Name                   string     `json:"name" validate:"required,min=1,max=150"`
	Type                   string     `json:"type" validate:"required,oneof=promotional welcome reminder notification"`
	MessageTemplate        string     `json:"message_template" validate:"omitempty,max=1600"`
	TemplateUUID           *string    `json:"template_uuid" validate:"omitempty,uuid"`
	TargetSegment          *string    `json:"target_segment" validate:"omitempty,max=255"`
	PersonalizationEnabled bool       `json:"personalization_enabled"`
	MailingListUUID        *string    `json:"mailing_list_uuid" validate:"omitempty,uuid"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
}

// UpdateCampaignRequest applies a partial update; nil fields are untouched.
// An empty mailing_list_uuid detaches the list.
type UpdateCampaignRequest struct {
	Name                   *string    `json:"name" validate:"omitempty,min=1,max=150"`
	Type                   *string    `json:"type" validate:"omitempty,oneof=promotional welcome reminder notification"`
	MessageTemplate        *string    `json:"message_template" validate:"omitempty,max=1600"`
	TargetSegment          *string    `json:"target_segment" validate:"omitempty,max=255"`
	PersonalizationEnabled *bool      `json:"personalization_enabled"`
	MailingListUUID        *string    `json:"mailing_list_uuid" validate:"omitempty"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
}

// ListCampaignsRequest filters and paginates the campaign list
type ListCampaignsRequest struct {
	Page    int     `query:"page" validate:"omitempty,min=1"`
	Limit   int     `query:"limit" validate:"omitempty,min=1,max=100"`
	Status  *string `query:"status" validate:"omitempty,oneof=draft active paused stopped completed cancelled"`
	Type    *string `query:"type" validate:"omitempty,oneof=promotional welcome reminder notification"`
	Name    *string `query:"name" validate:"omitempty,max=150"`
	OrderBy string  `query:"order_by" validate:"omitempty,oneof=newest oldest"`
}

// StopCampaignRequest carries the destructive-action confirmation flag
type StopCampaignRequest struct {
	Confirm bool `json:"confirm"`
}

// CampaignResponse is the external representation of a campaign
type CampaignResponse struct {
	UUID                   string     `json:"uuid"`
	Name                   string     `json:"name"`
	Type                   string     `json:"type"`
	Status                 string     `json:"status"`
	StatusDisplay          string     `json:"status_display"`
	ExecutionStep          string     `json:"execution_step"`
	MessageTemplate        string     `json:"message_template"`
	TargetSegment          *string    `json:"target_segment,omitempty"`
	PersonalizationEnabled bool       `json:"personalization_enabled"`
	MailingListUUID        *string    `json:"mailing_list_uuid,omitempty"`
	StartDate              *time.Time `json:"start_date,omitempty"`
	EndDate                *time.Time `json:"end_date,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              *time.Time `json:"updated_at,omitempty"`
	LastSentAt             *time.Time `json:"last_sent_at,omitempty"`
	Degraded               bool       `json:"degraded,omitempty"`
}

// ListCampaignsResponse is a paginated campaign list
type ListCampaignsResponse struct {
	Items      []CampaignResponse `json:"items"`
	Pagination PaginationInfo     `json:"pagination"`
}

// Audience DTOs

// ResolveAudienceRequest selects recipients. Explicit contact IDs win over
// mailing lists; with neither, the campaign's linked list is used.
type ResolveAudienceRequest struct {
	CampaignUUID   *string `json:"campaign_uuid" validate:"omitempty,uuid"`
	ContactIDs     []uint  `json:"contact_ids" validate:"omitempty,max=10000"`
	MailingListIDs []uint  `json:"mailing_list_ids" validate:"omitempty,max=100"`
}

// RecipientResponse is one resolved recipient
type RecipientResponse struct {
	ID        uint    `json:"id"`
	UUID      string  `json:"uuid"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     string  `json:"phone"`
	City      *string `json:"city,omitempty"`
	Tier      string  `json:"tier"`
}

// AudienceResponse is the resolved recipient set
type AudienceResponse struct {
	Recipients    []RecipientResponse `json:"recipients"`
	Size          int                 `json:"size"`
	EstimatedCost float64             `json:"estimated_cost"`
}

// AudiencePreviewResponse is a cached size and cost summary for a mailing list
type AudiencePreviewResponse struct {
	MailingListUUID string  `json:"mailing_list_uuid"`
	MailingListName string  `json:"mailing_list_name"`
	Size            int     `json:"size"`
	EstimatedCost   float64 `json:"estimated_cost"`
	Cached          bool    `json:"cached"`
}

// Report DTOs

// SubmitReportRequest is the pre-send planning report
type SubmitReportRequest struct {
	Goal            string  `json:"goal" validate:"required,min=1"`
	TargetAudience  string  `json:"target_audience" validate:"required,min=1,max=255"`
	ExpectedResults string  `json:"expected_results" validate:"omitempty"`
	Budget          float64 `json:"budget" validate:"min=0"`
	Notes           string  `json:"notes" validate:"omitempty"`
	ContactIDs      []uint  `json:"contact_ids" validate:"omitempty,max=10000"`
	MailingListIDs  []uint  `json:"mailing_list_ids" validate:"omitempty,max=100"`
}

// ReportResponse is the stored report with its derived estimates
type ReportResponse struct {
	CampaignUUID       string     `json:"campaign_uuid"`
	Goal               string     `json:"goal"`
	TargetAudience     string     `json:"target_audience"`
	ExpectedResults    string     `json:"expected_results"`
	Budget             float64    `json:"budget"`
	Notes              string     `json:"notes"`
	EstimatedReach     int        `json:"estimated_reach"`
	EstimatedCost      float64    `json:"estimated_cost"`
	EstimatedDelivered int        `json:"estimated_delivered"`
	EstimatedOpens     int        `json:"estimated_opens"`
	ROIProjection      float64    `json:"roi_projection"`
	BudgetWarning      bool       `json:"budget_warning"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Execution DTOs

// SendCampaignRequest is the confirmed send request
type SendCampaignRequest struct {
	Confirmation   string `json:"confirmation" validate:"required"`
	ContactIDs     []uint `json:"contact_ids" validate:"omitempty,max=10000"`
	MailingListIDs []uint `json:"mailing_list_ids" validate:"omitempty,max=100"`
}

// ExecutionStateResponse is the wizard position of a campaign
type ExecutionStateResponse struct {
	CampaignUUID    string `json:"campaign_uuid"`
	Status          string `json:"status"`
	ExecutionStep   string `json:"execution_step"`
	ReportSubmitted bool   `json:"report_submitted"`
}

// SendResponse summarizes a completed send
type SendResponse struct {
	CampaignUUID       string    `json:"campaign_uuid"`
	Status             string    `json:"status"`
	ExecutionStep      string    `json:"execution_step"`
	TotalRecipients    int       `json:"total_recipients"`
	EstimatedCost      float64   `json:"estimated_cost"`
	EstimatedDelivered int       `json:"estimated_delivered"`
	MessagePreview     *string   `json:"message_preview,omitempty"`
	ExecutedAt         time.Time `json:"executed_at"`
	Durable            bool      `json:"durable"`
}

// ExecutionRecordResponse is one entry of the execution history
type ExecutionRecordResponse struct {
	UUID               string    `json:"uuid"`
	ExecutedAt         time.Time `json:"executed_at"`
	TotalRecipients    int       `json:"total_recipients"`
	EstimatedCost      float64   `json:"estimated_cost"`
	EstimatedDelivered int       `json:"estimated_delivered"`
	Durable            bool      `json:"durable"`
}

// ListExecutionsResponse is a paginated execution history
type ListExecutionsResponse struct {
	Items      []ExecutionRecordResponse `json:"items"`
	Pagination PaginationInfo            `json:"pagination"`
}

// Contact DTOs

// CreateContactRequest adds a contact to the directory
type CreateContactRequest struct {
	FirstName  string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName   string  `json:"last_name" validate:"required,min=1,max=100"`
	Phone      string  `json:"phone" validate:"required,min=6,max=20"`
	Email      *string `json:"email" validate:"omitempty,email"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	Region     *string `json:"region" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" validate:"omitempty,max=20"`
	Tier       *string `json:"tier" validate:"omitempty,oneof=premium standard basic"`
	OptIn      *bool   `json:"opt_in"`
}

// ListContactsRequest filters and paginates the contact directory
type ListContactsRequest struct {
	Page  int     `query:"page" validate:"omitempty,min=1"`
	Limit int     `query:"limit" validate:"omitempty,min=1,max=100"`
	City  *string `query:"city" validate:"omitempty,max=100"`
	Tier  *string `query:"tier" validate:"omitempty,oneof=premium standard basic"`
	OptIn *bool   `query:"opt_in"`
	Name  *string `query:"name" validate:"omitempty,max=200"`
}

// ContactResponse is the external representation of a contact
type ContactResponse struct {
	UUID       string    `json:"uuid"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone"`
	Email      *string   `json:"email,omitempty"`
	City       *string   `json:"city,omitempty"`
	Region     *string   `json:"region,omitempty"`
	PostalCode *string   `json:"postal_code,omitempty"`
	Tier       string    `json:"tier"`
	OptIn      bool      `json:"opt_in"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListContactsResponse is a paginated contact list
type ListContactsResponse struct {
	Items      []ContactResponse `json:"items"`
	Pagination PaginationInfo    `json:"pagination"`
}

// Mailing list DTOs

// CreateMailingListRequest creates a mailing list with an optional initial
// membership
type CreateMailingListRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	ContactIDs  []uint `json:"contact_ids" validate:"omitempty,max=10000"`
}

// ListMailingListsRequest filters and paginates mailing lists
type ListMailingListsRequest struct {
	Page   int     `query:"page" validate:"omitempty,min=1"`
	Limit  int     `query:"limit" validate:"omitempty,min=1,max=100"`
	Status *string `query:"status" validate:"omitempty,oneof=active paused archived"`
	Name   *string `query:"name" validate:"omitempty,max=100"`
}

// MailingListResponse is the external representation of a mailing list
type MailingListResponse struct {
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	ContactCount int       `json:"contact_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListMailingListsResponse is a paginated mailing list collection
type ListMailingListsResponse struct {
	Items      []MailingListResponse `json:"items"`
	Pagination PaginationInfo        `json:"pagination"`
}

// Template DTOs

// ListTemplatesRequest filters and paginates the template catalog
type ListTemplatesRequest struct {
	Page     int     `query:"page" validate:"omitempty,min=1"`
	Limit    int     `query:"limit" validate:"omitempty,min=1,max=100"`
	Category *string `query:"category" validate:"omitempty,max=100"`
	Name     *string `query:"name" validate:"omitempty,max=100"`
}

// TemplateResponse is the external representation of a message template
type TemplateResponse struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTemplatesResponse is a paginated template catalog
type ListTemplatesResponse struct {
	Items      []TemplateResponse `json:"items"`
	Pagination PaginationInfo     `json:"pagination"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Cache     string    `json:"cache"`
}
