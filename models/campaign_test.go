package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignStatusValid(t *testing.T) {
	valid := []CampaignStatus{
		CampaignStatusDraft,
		CampaignStatusActive,
		CampaignStatusPaused,
		CampaignStatusStopped,
		CampaignStatusCompleted,
		CampaignStatusCancelled,
	}
	for _, status := range valid {
		assert.True(t, status.Valid(), "expected %s to be valid", status)
	}

	assert.False(t, CampaignStatus("archived").Valid())
	assert.False(t, CampaignStatus("").Valid())
}

func TestCampaignStatusValue(t *testing.T) {
	value, err := CampaignStatusActive.Value()
	assert.NoError(t, err)
	assert.Equal(t, "active", value)

	_, err = CampaignStatus("bogus").Value()
	assert.Error(t, err)
}

func TestCampaignTypeValid(t *testing.T) {
	valid := []CampaignType{
		CampaignTypePromotional,
		CampaignTypeWelcome,
		CampaignTypeReminder,
		CampaignTypeNotification,
	}
	for _, campaignType := range valid {
		assert.True(t, campaignType.Valid(), "expected %s to be valid", campaignType)
	}

	assert.False(t, CampaignType("transactional").Valid())
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    CampaignStatus
		to      CampaignStatus
		allowed bool
	}{
		{"draft to active", CampaignStatusDraft, CampaignStatusActive, true},
		{"draft to cancelled", CampaignStatusDraft, CampaignStatusCancelled, true},
		{"draft to paused", CampaignStatusDraft, CampaignStatusPaused, false},
		{"draft to stopped", CampaignStatusDraft, CampaignStatusStopped, false},
		{"active to paused", CampaignStatusActive, CampaignStatusPaused, true},
		{"active to stopped", CampaignStatusActive, CampaignStatusStopped, true},
		{"active to draft", CampaignStatusActive, CampaignStatusDraft, false},
		{"active to cancelled", CampaignStatusActive, CampaignStatusCancelled, false},
		{"paused to active", CampaignStatusPaused, CampaignStatusActive, true},
		{"paused to stopped", CampaignStatusPaused, CampaignStatusStopped, true},
		{"paused to draft", CampaignStatusPaused, CampaignStatusDraft, false},
		{"stopped to active", CampaignStatusStopped, CampaignStatusActive, true},
		{"stopped to draft", CampaignStatusStopped, CampaignStatusDraft, false},
		{"stopped to paused", CampaignStatusStopped, CampaignStatusPaused, false},
		{"completed is terminal", CampaignStatusCompleted, CampaignStatusActive, false},
		{"cancelled is terminal", CampaignStatusCancelled, CampaignStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := &Campaign{Status: tt.from}
			assert.Equal(t, tt.allowed, campaign.CanTransitionTo(tt.to))
		})
	}
}

func TestExecutionStepCanAdvanceTo(t *testing.T) {
	allSteps := []ExecutionStep{
		ExecutionStepNone,
		ExecutionStepReportingPending,
		ExecutionStepReportingComplete,
		ExecutionStepSending,
		ExecutionStepCompleted,
	}

	// Reopening the wizard is allowed from every step
	for _, from := range allSteps {
		assert.True(t, from.CanAdvanceTo(ExecutionStepReportingPending),
			"reporting_pending should be reachable from %s", from)
	}

	tests := []struct {
		name    string
		from    ExecutionStep
		to      ExecutionStep
		allowed bool
	}{
		{"pending to complete", ExecutionStepReportingPending, ExecutionStepReportingComplete, true},
		{"pending to sending", ExecutionStepReportingPending, ExecutionStepSending, false},
		{"complete to sending", ExecutionStepReportingComplete, ExecutionStepSending, true},
		{"complete resubmission", ExecutionStepReportingComplete, ExecutionStepReportingComplete, true},
		{"complete to completed", ExecutionStepReportingComplete, ExecutionStepCompleted, false},
		{"sending to completed", ExecutionStepSending, ExecutionStepCompleted, true},
		{"sending to complete", ExecutionStepSending, ExecutionStepReportingComplete, false},
		{"none to complete", ExecutionStepNone, ExecutionStepReportingComplete, false},
		{"none to sending", ExecutionStepNone, ExecutionStepSending, false},
		{"completed to sending", ExecutionStepCompleted, ExecutionStepSending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

func TestIsEditable(t *testing.T) {
	editable := []CampaignStatus{CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused}
	for _, status := range editable {
		campaign := &Campaign{Status: status}
		assert.True(t, campaign.IsEditable(), "expected %s to be editable", status)
	}

	frozen := []CampaignStatus{CampaignStatusStopped, CampaignStatusCompleted, CampaignStatusCancelled}
	for _, status := range frozen {
		campaign := &Campaign{Status: status}
		assert.False(t, campaign.IsEditable(), "expected %s to be frozen", status)
	}
}

func TestGetStatusDisplayName(t *testing.T) {
	campaign := &Campaign{Status: CampaignStatusPaused}
	assert.Equal(t, "Paused", campaign.GetStatusDisplayName())

	campaign.Status = CampaignStatus("bogus")
	assert.Equal(t, "Unknown", campaign.GetStatusDisplayName())
}

func TestReportIsOverBudget(t *testing.T) {
	report := &CampaignReport{Budget: 0.10, EstimatedCost: 0.15}
	assert.True(t, report.IsOverBudget())

	report.Budget = 0.15
	assert.False(t, report.IsOverBudget())
}
