// Package businessflow contains business logic orchestration for campaign lifecycle operations
package businessflow

import (
	"errors"
	"fmt"
)

// BusinessError represents a business logic error with context
type BusinessError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common business errors
var (
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrContactNotFound         = errors.New("contact not found")
	ErrMailingListNotFound     = errors.New("mailing list not found")
	ErrTemplateNotFound        = errors.New("message template not found")
	ErrReportNotFound          = errors.New("campaign report not found")
	ErrCampaignNameRequired    = errors.New("campaign name is required")
	ErrInvalidCampaignType     = errors.New("invalid campaign type")
	ErrInvalidContactTier      = errors.New("invalid contact tier")
	ErrCampaignNotEditable     = errors.New("campaign is not editable in its current status")
	ErrInvalidStatusTransition = errors.New("invalid campaign status transition")
	ErrReportGoalRequired      = errors.New("report goal is required")
	ErrReportAudienceRequired  = errors.New("report target audience is required")
	ErrBudgetInvalid           = errors.New("report budget must be a non-negative finite amount")
	ErrReportNotSubmitted      = errors.New("campaign report has not been submitted")
	ErrConfirmationMismatch    = errors.New("confirmation phrase does not match")
	ErrExecutionInProgress     = errors.New("campaign execution is already in progress")
	ErrEmptyAudience           = errors.New("resolved audience is empty")
	ErrTemplateImmutable       = errors.New("message template cannot change after a send")
	ErrRemoteUnavailable       = errors.New("campaign store is unreachable")
)

// IsCampaignNotFound checks if the error indicates a missing campaign
func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

// IsNotFound checks if the error indicates any missing entity
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrContactNotFound) ||
		errors.Is(err, ErrMailingListNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrReportNotFound)
}

// IsValidationFailed checks if the error indicates rejected input
func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrCampaignNameRequired) ||
		errors.Is(err, ErrInvalidCampaignType) ||
		errors.Is(err, ErrInvalidContactTier) ||
		errors.Is(err, ErrReportGoalRequired) ||
		errors.Is(err, ErrReportAudienceRequired) ||
		errors.Is(err, ErrBudgetInvalid)
}

// IsInvalidTransition checks if the error indicates a rejected lifecycle move
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition) ||
		errors.Is(err, ErrCampaignNotEditable) ||
		errors.Is(err, ErrReportNotSubmitted) ||
		errors.Is(err, ErrTemplateImmutable)
}

// IsConfirmationMismatch checks if the error indicates a wrong confirmation phrase
func IsConfirmationMismatch(err error) bool {
	return errors.Is(err, ErrConfirmationMismatch)
}

// IsExecutionInProgress checks if the error indicates a held execution lock
func IsExecutionInProgress(err error) bool {
	return errors.Is(err, ErrExecutionInProgress)
}

// IsEmptyAudience checks if the error indicates an empty resolved audience
func IsEmptyAudience(err error) bool {
	return errors.Is(err, ErrEmptyAudience)
}

// IsRemoteUnavailable checks if the error indicates an unreachable datastore
func IsRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}
