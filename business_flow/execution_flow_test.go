package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	testhelpers "github.com/textpulse/campaign-console/testing"
	"github.com/textpulse/campaign-console/utils"
)

func newExecutionFlowForTest(stores *testhelpers.Stores) (ExecutionFlow, ReportFlow) {
	audienceFlow := NewAudienceFlow(stores.Campaigns, stores.Contacts, stores.MailingLists, nil)
	reportFlow := NewReportFlow(stores.Campaigns, stores.Reports, audienceFlow, stores.AuditLogs, nil)
	executionFlow := NewExecutionFlow(stores.Campaigns, stores.Reports, stores.Executions, audienceFlow, stores.AuditLogs, nil, nil)
	return executionFlow, reportFlow
}

func sendRequest(confirmation string) *dto.SendCampaignRequest {
	return &dto.SendCampaignRequest{Confirmation: confirmation}
}

func TestFullWizardRoundTrip(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, reportFlow := newExecutionFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateDraftCampaign("Grand lancement", &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	state, err := executionFlow.OpenExecution(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "reporting_pending", state.ExecutionStep)
	assert.False(t, state.ReportSubmitted)

	_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)

	state, err = executionFlow.ProceedToSend(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "sending", state.ExecutionStep)
	assert.True(t, state.ReportSubmitted)

	// The confirmation phrase is case-insensitive
	resp, err := executionFlow.Send(ctx, campaignUUID, sendRequest("Confirm Send"), testMetadata())
	require.NoError(t, err)

	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "completed", resp.ExecutionStep)
	assert.Equal(t, 3, resp.TotalRecipients)
	assert.InDelta(t, 3*utils.UnitSMSPrice, resp.EstimatedCost, 1e-9)
	assert.Equal(t, 3, resp.EstimatedDelivered)
	assert.True(t, resp.Durable)

	stored, err := stores.Campaigns.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, stored.Status)
	assert.Equal(t, models.ExecutionStepCompleted, stored.ExecutionStep)
	require.NotNil(t, stored.LastSentAt)

	// Exactly one execution record was appended
	records, err := stores.Executions.ListByCampaignID(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].TotalRecipients)
	assert.True(t, records[0].Durable)
}

func TestSendConfirmationMismatchLeavesStateUntouched(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, reportFlow := newExecutionFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateCampaignAtStep("Guarded", models.CampaignStatusDraft, models.ExecutionStepReportingPending, &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)
	_, err = executionFlow.ProceedToSend(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)

	_, err = executionFlow.Send(ctx, campaignUUID, sendRequest("send it"), testMetadata())
	assert.True(t, IsConfirmationMismatch(err))

	// Zero state changed: step, status, last-sent, record count
	stored, err := stores.Campaigns.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusDraft, stored.Status)
	assert.Equal(t, models.ExecutionStepSending, stored.ExecutionStep)
	assert.Nil(t, stored.LastSentAt)

	records, err := stores.Executions.ListByCampaignID(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	// The rejected attempt was audited
	failed, err := stores.AuditLogs.ListFailedActions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, models.AuditActionSendFailed, failed[0].Action)
}

func TestSendRequiresSendingStep(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, reportFlow := newExecutionFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateCampaignAtStep("Eager", models.CampaignStatusDraft, models.ExecutionStepReportingPending, &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)

	// Report submitted but proceed was skipped
	_, err = executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
	assert.True(t, IsInvalidTransition(err))
}

func TestProceedRequiresSubmittedReport(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, _ := newExecutionFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateCampaignAtStep("Pending", models.CampaignStatusDraft, models.ExecutionStepReportingPending, nil)
	require.NoError(t, err)

	_, err = executionFlow.ProceedToSend(ctx, campaign.UUID.String(), testMetadata())
	assert.True(t, IsInvalidTransition(err))
}

func TestSendRejectsEmptyAudience(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, reportFlow := newExecutionFlowForTest(stores)
	ctx := context.Background()

	// Every member of the list is opted out
	optedOut, err := fixtures.CreateContact("Lucas", "Moreau", false)
	require.NoError(t, err)
	list, err := fixtures.CreateMailingList("Silencieux", optedOut.ID)
	require.NoError(t, err)
	campaign, err := fixtures.CreateCampaignAtStep("Nobody", models.CampaignStatusDraft, models.ExecutionStepReportingPending, &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)
	_, err = executionFlow.ProceedToSend(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)

	_, err = executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
	assert.True(t, IsEmptyAudience(err))

	records, err := stores.Executions.ListByCampaignID(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSendLockContention(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, reportFlow := newExecutionFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateCampaignAtStep("Contended", models.CampaignStatusDraft, models.ExecutionStepReportingPending, &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)
	_, err = executionFlow.ProceedToSend(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)

	impl, ok := executionFlow.(*ExecutionFlowImpl)
	require.True(t, ok)

	// Simulate another in-flight send of the same campaign
	release, err := impl.locker.acquire(ctx, campaign.ID)
	require.NoError(t, err)

	_, err = executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
	assert.True(t, IsExecutionInProgress(err))

	release()

	_, err = executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
	assert.NoError(t, err)
}

func TestSendPersonalizationPreview(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, reportFlow := newExecutionFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateCampaignAtStep("Personal", models.CampaignStatusDraft, models.ExecutionStepReportingPending, &list.ID)
	require.NoError(t, err)

	start := utils.UTCNow()
	campaign.PersonalizationEnabled = true
	campaign.MessageTemplate = "Bonjour {prenom} {nom} de {ville}, offre du {date_debut}!"
	campaign.StartDate = &start
	require.NoError(t, stores.Campaigns.Update(ctx, *campaign))
	campaignUUID := campaign.UUID.String()

	_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)
	_, err = executionFlow.ProceedToSend(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)

	resp, err := executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
	require.NoError(t, err)

	require.NotNil(t, resp.MessagePreview)
	assert.Equal(t, "Bonjour Claire Martin de Lyon, offre du "+start.Format("2006-01-02")+"!", *resp.MessagePreview)
}

func TestResendAppendsNewRecord(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, reportFlow := newExecutionFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateDraftCampaign("Encore", &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	runWizard := func() {
		_, err := executionFlow.OpenExecution(ctx, campaignUUID, testMetadata())
		require.NoError(t, err)
		_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
		require.NoError(t, err)
		_, err = executionFlow.ProceedToSend(ctx, campaignUUID, testMetadata())
		require.NoError(t, err)
		_, err = executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
		require.NoError(t, err)
	}

	runWizard()
	runWizard()

	resp, err := executionFlow.ListExecutions(ctx, campaignUUID, 1, 10)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(2), resp.Pagination.Total)

	// Newest first
	assert.False(t, resp.Items[0].ExecutedAt.Before(resp.Items[1].ExecutedAt))

	// The campaign stays active after a re-send
	stored, err := stores.Campaigns.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, stored.Status)
}

// newOutageExecutionFlow wires the flows over replicated repositories so tests
// can take the backing stores down mid-wizard
func newOutageExecutionFlow(stores *testhelpers.Stores, campaignRepo repository.CampaignRepository, executionRepo repository.ExecutionRecordRepository) (ExecutionFlow, ReportFlow) {
	audienceFlow := NewAudienceFlow(campaignRepo, stores.Contacts, stores.MailingLists, nil)
	reportFlow := NewReportFlow(campaignRepo, stores.Reports, audienceFlow, stores.AuditLogs, nil)
	executionFlow := NewExecutionFlow(campaignRepo, stores.Reports, executionRepo, audienceFlow, stores.AuditLogs, nil, nil)
	return executionFlow, reportFlow
}

func runWizardToSending(t *testing.T, executionFlow ExecutionFlow, reportFlow ReportFlow, campaignUUID string) {
	t.Helper()
	ctx := context.Background()

	_, err := executionFlow.OpenExecution(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)
	_, err = reportFlow.SubmitReport(ctx, campaignUUID, validReportRequest(), testMetadata())
	require.NoError(t, err)
	_, err = executionFlow.ProceedToSend(ctx, campaignUUID, testMetadata())
	require.NoError(t, err)
}

func TestSendDuringOutageStoresRecordAsNotDurable(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	campaignRepo := repository.NewReplicatedCampaignRepository(stores.Campaigns)
	executionFlow, reportFlow := newOutageExecutionFlow(stores, campaignRepo, stores.Executions)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateDraftCampaign("Fragile", &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	runWizardToSending(t, executionFlow, reportFlow, campaignUUID)

	// The campaign store goes down between proceed and send
	stores.Campaigns.UpdateErr = errors.New("connection refused")

	resp, err := executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
	require.NoError(t, err)
	assert.False(t, resp.Durable)
	assert.True(t, campaignRepo.Degraded())

	// The stored record agrees with the response about durability
	records, err := stores.Executions.ListByCampaignID(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Durable)
}

func TestSendAbsorbsExecutionStoreOutage(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	campaignRepo := repository.NewReplicatedCampaignRepository(stores.Campaigns)
	executionRepo := repository.NewReplicatedExecutionRecordRepository(stores.Executions)
	executionFlow, reportFlow := newOutageExecutionFlow(stores, campaignRepo, executionRepo)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateDraftCampaign("Panne totale", &list.ID)
	require.NoError(t, err)
	campaignUUID := campaign.UUID.String()

	runWizardToSending(t, executionFlow, reportFlow, campaignUUID)

	// Both backing stores reject writes
	stores.Campaigns.UpdateErr = errors.New("connection refused")
	stores.Executions.SaveErr = errors.New("connection refused")

	resp, err := executionFlow.Send(ctx, campaignUUID, sendRequest(utils.SendConfirmationPhrase), testMetadata())
	require.NoError(t, err)
	assert.False(t, resp.Durable)
	assert.True(t, campaignRepo.Degraded())
	assert.True(t, executionRepo.Degraded())

	// Nothing reached the primary record store
	count, err := stores.Executions.Count(ctx, models.ExecutionRecordFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListExecutionsPaginationClamps(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	executionFlow, _ := newExecutionFlowForTest(stores)
	ctx := context.Background()

	campaign, err := fixtures.CreateDraftCampaign("History", nil)
	require.NoError(t, err)

	resp, err := executionFlow.ListExecutions(ctx, campaign.UUID.String(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.Limit)
	assert.Empty(t, resp.Items)
}
