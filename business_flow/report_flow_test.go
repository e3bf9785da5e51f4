package businessflow

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	testhelpers "github.com/textpulse/campaign-console/testing"
	"github.com/textpulse/campaign-console/utils"
)

func newReportFlowForTest(stores *testhelpers.Stores) ReportFlow {
	audienceFlow := NewAudienceFlow(stores.Campaigns, stores.Contacts, stores.MailingLists, nil)
	return NewReportFlow(stores.Campaigns, stores.Reports, audienceFlow, stores.AuditLogs, nil)
}

func validReportRequest() *dto.SubmitReportRequest {
	return &dto.SubmitReportRequest{
		Goal:           "Augmenter les ventes d'ete",
		TargetAudience: "Clients Lyon",
		Budget:         10,
	}
}

func TestSubmitReportDerivesEstimates(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newReportFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateCampaignAtStep("Estimable", models.CampaignStatusDraft, models.ExecutionStepReportingPending, &list.ID)
	require.NoError(t, err)

	resp, err := flow.SubmitReport(ctx, campaign.UUID.String(), validReportRequest(), testMetadata())
	require.NoError(t, err)

	// Three reachable recipients out of four members
	assert.Equal(t, 3, resp.EstimatedReach)
	assert.InDelta(t, 3*utils.UnitSMSPrice, resp.EstimatedCost, 1e-9)

	delivered := int(math.Round(3 * utils.DeliveryRate))
	assert.Equal(t, delivered, resp.EstimatedDelivered)

	opens := int(math.Round(float64(delivered) * utils.OpenRate))
	assert.Equal(t, opens, resp.EstimatedOpens)

	expectedROI := (float64(opens) * utils.ClickRate * utils.AvgConversionValue) / (3 * utils.UnitSMSPrice) * 100
	assert.InDelta(t, expectedROI, resp.ROIProjection, 1e-6)

	assert.False(t, resp.BudgetWarning)

	// The wizard advanced to reporting_complete
	stored, err := stores.Campaigns.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStepReportingComplete, stored.ExecutionStep)
}

func TestSubmitReportBudgetWarningIsAccepted(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newReportFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateCampaignAtStep("Tight budget", models.CampaignStatusDraft, models.ExecutionStepReportingPending, &list.ID)
	require.NoError(t, err)

	req := validReportRequest()
	req.Budget = 0.10 // below the 0.15 estimated cost

	resp, err := flow.SubmitReport(ctx, campaign.UUID.String(), req, testMetadata())
	require.NoError(t, err)
	assert.True(t, resp.BudgetWarning)

	// The report was stored despite the warning
	stored, err := stores.Reports.ByCampaignID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.BudgetWarning)
}

func TestSubmitReportValidation(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newReportFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateCampaignAtStep("Strict", models.CampaignStatusDraft, models.ExecutionStepReportingPending, nil)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	tests := []struct {
		name   string
		mutate func(*dto.SubmitReportRequest)
	}{
		{"blank goal", func(r *dto.SubmitReportRequest) { r.Goal = "   " }},
		{"blank audience", func(r *dto.SubmitReportRequest) { r.TargetAudience = "" }},
		{"negative budget", func(r *dto.SubmitReportRequest) { r.Budget = -1 }},
		{"nan budget", func(r *dto.SubmitReportRequest) { r.Budget = math.NaN() }},
		{"infinite budget", func(r *dto.SubmitReportRequest) { r.Budget = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validReportRequest()
			tt.mutate(req)

			_, err := flow.SubmitReport(ctx, campaignUUID, req, testMetadata())
			assert.True(t, IsValidationFailed(err))
		})
	}

	// Zero budget is allowed
	req := validReportRequest()
	req.Budget = 0
	_, err = flow.SubmitReport(ctx, campaignUUID, req, testMetadata())
	assert.NoError(t, err)
}

func TestSubmitReportOutOfSequence(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newReportFlowForTest(stores)
	ctx := context.Background()

	// The wizard has not been opened
	campaign, err := fixtures.CreateDraftCampaign("Unopened", nil)
	require.NoError(t, err)

	_, err = flow.SubmitReport(ctx, campaign.UUID.String(), validReportRequest(), testMetadata())
	assert.True(t, IsInvalidTransition(err))

	stored, err := stores.Reports.ByCampaignID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSubmitReportResubmissionOverwrites(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newReportFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateCampaignAtStep("Twice", models.CampaignStatusDraft, models.ExecutionStepReportingPending, nil)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	_, err = flow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)

	// Resubmission from reporting_complete overwrites, last write wins
	second := validReportRequest()
	second.Goal = "Objectif revise"
	second.Budget = 42
	_, err = flow.SubmitReport(ctx, campaignUUID, second, testMetadata())
	require.NoError(t, err)

	resp, err := flow.GetReport(ctx, campaignUUID)
	require.NoError(t, err)
	assert.Equal(t, "Objectif revise", resp.Goal)
	assert.Equal(t, 42.0, resp.Budget)

	count, err := stores.Reports.Count(ctx, models.CampaignReportFilter{CampaignID: &campaign.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetReportNotFound(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newReportFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateDraftCampaign("Reportless", nil)
	require.NoError(t, err)

	_, err = flow.GetReport(ctx, campaign.UUID.String())
	assert.True(t, IsNotFound(err))
}
