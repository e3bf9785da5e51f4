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

func newContactFlowForTest(stores *testhelpers.Stores) ContactFlow {
	return NewContactFlow(stores.Contacts, nil)
}

func TestCreateContactDefaults(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newContactFlowForTest(stores)

	resp, err := flow.CreateContact(context.Background(), &dto.CreateContactRequest{
		FirstName: "Claire",
		LastName:  "Martin",
		Phone:     "+33600001234",
	})
	require.NoError(t, err)
	assert.Equal(t, "standard", resp.Tier)
	assert.True(t, resp.OptIn)
	assert.Equal(t, "Claire Martin", resp.FullName)
}

func TestCreateContactRejectsUnknownTier(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newContactFlowForTest(stores)

	_, err := flow.CreateContact(context.Background(), &dto.CreateContactRequest{
		FirstName: "Julien",
		LastName:  "Bernard",
		Phone:     "+33600001235",
		Tier:      utils.ToPtr("platinum"),
	})

	// A bad tier is rejected input, not a missing entity
	assert.True(t, IsValidationFailed(err))
	assert.False(t, IsNotFound(err))

	assert.Equal(t, int64(0), mustCount(t, stores))
}

func TestListContactsRejectsUnknownTierFilter(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newContactFlowForTest(stores)

	_, err := flow.ListContacts(context.Background(), &dto.ListContactsRequest{Tier: utils.ToPtr("gold")})
	assert.True(t, IsValidationFailed(err))
	assert.False(t, IsNotFound(err))
}

func mustCount(t *testing.T, stores *testhelpers.Stores) int64 {
	t.Helper()
	count, err := stores.Contacts.Count(context.Background(), models.ContactFilter{})
	require.NoError(t, err)
	return count
}
