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

func newTemplateFlowForTest(stores *testhelpers.Stores) TemplateFlow {
	return NewTemplateFlow(stores.Templates)
}

func TestGetTemplate(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newTemplateFlowForTest(stores)

	created, err := fixtures.CreateTemplate("Bienvenue", "Bonjour {prenom}, bienvenue chez nous!")
	require.NoError(t, err)

	resp, err := flow.GetTemplate(context.Background(), created.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, "Bienvenue", resp.Name)
	assert.Equal(t, "Bonjour {prenom}, bienvenue chez nous!", resp.Content)
}

func TestGetTemplateNotFound(t *testing.T) {
	stores := testhelpers.NewStores()
	flow := newTemplateFlowForTest(stores)

	_, err := flow.GetTemplate(context.Background(), "1b671a64-40d5-491e-99b0-da01ff1f3341")
	assert.True(t, IsNotFound(err))

	_, err = flow.GetTemplate(context.Background(), "not-a-uuid")
	assert.True(t, IsNotFound(err))
}

func TestListTemplatesPagination(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newTemplateFlowForTest(stores)
	ctx := context.Background()

	for _, name := range []string{"Bienvenue", "Relance", "Notification"} {
		_, err := fixtures.CreateTemplate(name, "Bonjour {prenom}!")
		require.NoError(t, err)
	}

	resp, err := flow.ListTemplates(ctx, &dto.ListTemplatesRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)

	resp, err = flow.ListTemplates(ctx, &dto.ListTemplatesRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	// Defaults apply when the window is unset
	resp, err = flow.ListTemplates(ctx, &dto.ListTemplatesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.Limit)
	assert.Len(t, resp.Items, 3)
}

func TestListTemplatesCategoryFilter(t *testing.T) {
	stores := testhelpers.NewStores()
	fixtures := testhelpers.NewTestFixtures(stores)
	flow := newTemplateFlowForTest(stores)
	ctx := context.Background()

	_, err := fixtures.CreateTemplate("Bienvenue", "Bonjour {prenom}!")
	require.NoError(t, err)

	resp, err := flow.ListTemplates(ctx, &dto.ListTemplatesRequest{Category: utils.ToPtr("promotional")})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	resp, err = flow.ListTemplates(ctx, &dto.ListTemplatesRequest{Category: utils.ToPtr("transactional")})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(0), resp.Pagination.Total)
}
