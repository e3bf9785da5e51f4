package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	testhelpers "github.com/textpulse/campaign-console/testing"
	"github.com/textpulse/campaign-console/utils"
)

func newCampaignFlowForTest(stores *testhelpers.Stores) CampaignFlow {
	return NewCampaignFlow(
		stores.Campaigns,
		stores.MailingLists,
		stores.Templates,
		stores.Executions,
		stores.AuditLogs,
		nil,
	)
}

func testMetadata() *ClientMetadata {
	return NewClientMetadata("192.0.2.1", "test-agent")
}

func TestCreateCampaign(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	resp, err := flow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
		Name:            "Soldes ete",
		Type:            "promotional",
		MessageTemplate: "Bonjour {prenom}!",
	}, testMetadata())
	require.NoError(t, err)

	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "none", resp.ExecutionStep)
	assert.Equal(t, "Soldes ete", resp.Name)
	assert.NotEmpty(t, resp.UUID)
	assert.Nil(t, resp.LastSentAt)

	assert.Contains(t, stores.AuditLogs.Actions(), models.AuditActionCampaignCreated)
}

func TestCreateCampaignFromTemplate(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	template, err := fixtures.CreateTemplate("Relance", "Bonjour {prenom}, revenez nous voir a {ville}!")
	require.NoError(t, err)

	templateUUID := template.UUID.String()
	resp, err := flow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
		Name:         "Relance clients",
		Type:         "reminder",
		TemplateUUID: &templateUUID,
	}, testMetadata())
	require.NoError(t, err)

	// The content is copied; the campaign never links back to the template
	assert.Equal(t, template.Content, resp.MessageTemplate)
}

func TestCreateCampaignValidation(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	_, err := flow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
		Name: "   ",
		Type: "promotional",
	}, testMetadata())
	assert.True(t, IsValidationFailed(err))

	_, err = flow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
		Name: "Bad type",
		Type: "carrier_pigeon",
	}, testMetadata())
	assert.True(t, IsValidationFailed(err))

	assert.Equal(t, 0, stores.Campaigns.Len())
}

func TestLifecycleTransitions(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateCampaignAtStep("Lifecycle", models.CampaignStatusActive, models.ExecutionStepNone, nil)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	resp, err := flow.PauseCampaign(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "paused", resp.Status)

	resp, err = flow.ResumeCampaign(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)

	resp, err = flow.StopCampaign(ctx, campaignUUID, &dto.StopCampaignRequest{Confirm: true}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "stopped", resp.Status)

	// Reactivation always lands on active, never back on draft
	resp, err = flow.ReactivateCampaign(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)
}

func TestInvalidTransitionLeavesCampaignUntouched(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateDraftCampaign("Draft only", nil)
	require.NoError(t, err)

	_, err = flow.PauseCampaign(ctx, campaign.UUID.String(), testMetadata())
	assert.True(t, IsInvalidTransition(err))

	stored, err := stores.Campaigns.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusDraft, stored.Status)

	failed, err := stores.AuditLogs.ListFailedActions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.AuditActionStatusChangeFailed, failed[0].Action)
}

func TestStopRequiresConfirmation(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateCampaignAtStep("Running", models.CampaignStatusActive, models.ExecutionStepNone, nil)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	_, err = flow.StopCampaign(ctx, campaignUUID, &dto.StopCampaignRequest{Confirm: false}, testMetadata())
	assert.True(t, IsConfirmationMismatch(err))

	_, err = flow.StopCampaign(ctx, campaignUUID, nil, testMetadata())
	assert.True(t, IsConfirmationMismatch(err))

	stored, err := stores.Campaigns.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, stored.Status)
}

func TestCancelDraftCampaign(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateDraftCampaign("Abandoned", nil)
	require.NoError(t, err)

	resp, err := flow.CancelCampaign(ctx, campaign.UUID.String(), testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)

	// Cancelled is terminal
	_, err = flow.ReactivateCampaign(ctx, campaign.UUID.String(), testMetadata())
	assert.True(t, IsInvalidTransition(err))
}

func TestDeleteCampaignIsIdempotent(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateDraftCampaign("Ephemeral", nil)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	require.NoError(t, flow.DeleteCampaign(ctx, campaignUUID, testMetadata()))
	assert.Equal(t, 0, stores.Campaigns.Len())

	// Deleting again succeeds without a second audit entry
	require.NoError(t, flow.DeleteCampaign(ctx, campaignUUID, testMetadata()))

	deleted := 0
	for _, action := range stores.AuditLogs.Actions() {
		if action == models.AuditActionCampaignDeleted {
			deleted++
		}
	}
	assert.Equal(t, 1, deleted)
}

func TestGetCampaignNotFound(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	_, err := flow.GetCampaign(ctx, "1b671a64-40d5-491e-99b0-da01ff1f3341")
	assert.True(t, IsCampaignNotFound(err))

	// Malformed UUIDs map to not-found as well
	_, err = flow.GetCampaign(ctx, "not-a-uuid")
	assert.True(t, IsCampaignNotFound(err))
}

func TestListCampaignsPaginationClamps(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := fixtures.CreateDraftCampaign("Campagne", nil)
		require.NoError(t, err)
	}

	// Out-of-range values fall back to the defaults
	resp, err := flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.Limit)
	assert.Equal(t, int64(5), resp.Pagination.Total)
	assert.Len(t, resp.Items, 5)

	resp, err = flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Page: 1, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Pagination.Limit)

	resp, err = flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestListCampaignsStatusFilter(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	_, err := fixtures.CreateDraftCampaign("Draft", nil)
	require.NoError(t, err)
	_, err = fixtures.CreateCampaignAtStep("Running", models.CampaignStatusActive, models.ExecutionStepNone, nil)
	require.NoError(t, err)

	status := "active"
	resp, err := flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Status: &status})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Running", resp.Items[0].Name)

	bad := "archived"
	_, err = flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Status: &bad})
	assert.Error(t, err)
}

func TestUpdateCampaignTemplateImmutableAfterSend(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateCampaignAtStep("Sent", models.CampaignStatusActive, models.ExecutionStepCompleted, nil)
	require.NoError(t, err)

	now := utils.UTCNow()
	campaign.LastSentAt = &now
	require.NoError(t, stores.Campaigns.Update(ctx, *campaign))
	require.NoError(t, stores.Executions.Save(ctx, &models.ExecutionRecord{
		CampaignID:      campaign.ID,
		ReportID:        1,
		TotalRecipients: 3,
		Durable:         true,
	}))

	newTemplate := "Nouveau message"
	_, err = flow.UpdateCampaign(ctx, campaign.UUID.String(), &dto.UpdateCampaignRequest{
		MessageTemplate: &newTemplate,
	}, testMetadata())
	assert.True(t, IsInvalidTransition(err))

	// Other fields stay editable
	newName := "Sent and renamed"
	resp, err := flow.UpdateCampaign(ctx, campaign.UUID.String(), &dto.UpdateCampaignRequest{
		Name: &newName,
	}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, newName, resp.Name)

	// Reopening the wizard starts a new pass and unlocks the template
	require.NoError(t, stores.Campaigns.UpdateExecutionStep(ctx, campaign.ID, models.ExecutionStepReportingPending))
	resp, err = flow.UpdateCampaign(ctx, campaign.UUID.String(), &dto.UpdateCampaignRequest{
		MessageTemplate: &newTemplate,
	}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, newTemplate, resp.MessageTemplate)
}

func TestUpdateCampaignDetachesMailingList(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newCampaignFlowForTest(stores)
	ctx := context.Background()

	list, err := fixtures.CreateMailingList("Clients")
	require.NoError(t, err)
	campaign, err := fixtures.CreateDraftCampaign("Linked", &list.ID)
	require.NoError(t, err)

	empty := ""
	_, err = flow.UpdateCampaign(ctx, campaign.UUID.String(), &dto.UpdateCampaignRequest{
		MailingListUUID: &empty,
	}, testMetadata())
	require.NoError(t, err)

	stored, err := stores.Campaigns.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.MailingListID)
}
