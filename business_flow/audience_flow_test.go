package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textpulse/campaign-console/app/dto"
	testhelpers "github.com/textpulse/campaign-console/testing"
	"github.com/textpulse/campaign-console/utils"
)

func newAudienceFlowForTest(stores *testhelpers.Stores) AudienceFlow {
	return NewAudienceFlow(stores.Campaigns, stores.Contacts, stores.MailingLists, nil)
}

func TestResolveAudienceExcludesOptedOut(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newAudienceFlowForTest(stores)
	ctx := context.Background()

	list, contacts, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	require.Len(t, contacts, 4)

	resp, err := flow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		MailingListIDs: []uint{list.ID},
	})
	require.NoError(t, err)

	// Four members, one opted out
	assert.Equal(t, 3, resp.Size)
	assert.InDelta(t, 3*utils.UnitSMSPrice, resp.EstimatedCost, 1e-9)
	for _, recipient := range resp.Recipients {
		assert.NotEqual(t, contacts[3].ID, recipient.ID)
	}
}

func TestResolveAudienceExplicitContactsWin(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newAudienceFlowForTest(stores)
	ctx := context.Background()

	list, contacts, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)

	// Explicit contact IDs override the mailing list entirely
	resp, err := flow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		ContactIDs:     []uint{contacts[0].ID, contacts[0].ID, contacts[1].ID},
		MailingListIDs: []uint{list.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Size)
}

func TestResolveAudienceDropsDanglingReferences(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newAudienceFlowForTest(stores)
	ctx := context.Background()

	contact, err := fixtures.CreateContact("Claire", "Martin", true)
	require.NoError(t, err)

	// The second member ID does not resolve to any contact
	list, err := fixtures.CreateMailingList("Stale", contact.ID, 9999)
	require.NoError(t, err)

	resp, err := flow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		MailingListIDs: []uint{list.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Size)
}

func TestResolveAudienceUnionsListsWithoutDuplicates(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newAudienceFlowForTest(stores)
	ctx := context.Background()

	shared, err := fixtures.CreateContact("Claire", "Martin", true)
	require.NoError(t, err)
	only, err := fixtures.CreateContact("Julien", "Bernard", true)
	require.NoError(t, err)

	listA, err := fixtures.CreateMailingList("A", shared.ID, only.ID)
	require.NoError(t, err)
	listB, err := fixtures.CreateMailingList("B", shared.ID)
	require.NoError(t, err)

	resp, err := flow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		MailingListIDs: []uint{listA.ID, listB.ID, listA.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Size)
}

func TestResolveAudienceFallsBackToCampaignList(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newAudienceFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)
	campaign, err := fixtures.CreateDraftCampaign("Linked", &list.ID)
	require.NoError(t, err)

	campaignUUID := campaign.UUID.String()
	resp, err := flow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		CampaignUUID: &campaignUUID,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Size)
}

func TestResolveAudienceEmptyWithoutSelection(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newAudienceFlowForTest(stores)
	ctx := context.Background()

	// Campaign without a linked list resolves to nobody
	campaign, err := fixtures.CreateDraftCampaign("Unlinked", nil)
	require.NoError(t, err)

	campaignUUID := campaign.UUID.String()
	resp, err := flow.ResolveAudience(ctx, &dto.ResolveAudienceRequest{
		CampaignUUID: &campaignUUID,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Size)
	assert.Zero(t, resp.EstimatedCost)
}

func TestPreviewAudience(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newAudienceFlowForTest(stores)
	ctx := context.Background()

	list, _, err := fixtures.SeedSmallAudience()
	require.NoError(t, err)

	preview, err := flow.PreviewAudience(ctx, list.UUID.String())
	require.NoError(t, err)

	assert.Equal(t, list.Name, preview.MailingListName)
	assert.Equal(t, 3, preview.Size)
	assert.InDelta(t, 3*utils.UnitSMSPrice, preview.EstimatedCost, 1e-9)
	// No cache client wired, previews are always computed
	assert.False(t, preview.Cached)
}

func TestPreviewAudienceUnknownList(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newAudienceFlowForTest(stores)

	_, err := flow.PreviewAudience(context.Background(), "1b671a64-40d5-491e-99b0-da01ff1f3341")
	assert.True(t, IsNotFound(err))
}
