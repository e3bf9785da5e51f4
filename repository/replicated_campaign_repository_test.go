package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textpulse/campaign-console/models"
)

var errPrimaryDown = errors.New("connection refused")

// flakyPrimary is a minimal CampaignRepository whose operations fail while
// down is set
type flakyPrimary struct {
	down   bool
	byID   map[uint]models.Campaign
	nextID uint
}

func newFlakyPrimary() *flakyPrimary {
	return &flakyPrimary{byID: make(map[uint]models.Campaign)}
}

func (p *flakyPrimary) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	if p.down {
		return nil, errPrimaryDown
	}
	if c, ok := p.byID[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (p *flakyPrimary) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	if p.down {
		return nil, errPrimaryDown
	}
	for _, c := range p.byID {
		if c.UUID.String() == uuid {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (p *flakyPrimary) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	if p.down {
		return nil, errPrimaryDown
	}
	var out []*models.Campaign
	for _, c := range p.byID {
		if matchesFilter(c, filter) {
			copied := c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (p *flakyPrimary) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	if p.down {
		return 0, errPrimaryDown
	}
	campaigns, _ := p.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(campaigns)), nil
}

func (p *flakyPrimary) Save(ctx context.Context, campaign *models.Campaign) error {
	if p.down {
		return errPrimaryDown
	}
	if campaign.ID == 0 {
		p.nextID++
		campaign.ID = p.nextID
	}
	p.byID[campaign.ID] = *campaign
	return nil
}

func (p *flakyPrimary) SaveBatch(ctx context.Context, campaigns []*models.Campaign) error {
	for _, c := range campaigns {
		if err := p.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *flakyPrimary) Update(ctx context.Context, campaign models.Campaign) error {
	if p.down {
		return errPrimaryDown
	}
	p.byID[campaign.ID] = campaign
	return nil
}

func (p *flakyPrimary) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	if p.down {
		return errPrimaryDown
	}
	if c, ok := p.byID[id]; ok {
		c.Status = status
		p.byID[id] = c
	}
	return nil
}

func (p *flakyPrimary) UpdateExecutionStep(ctx context.Context, id uint, step models.ExecutionStep) error {
	if p.down {
		return errPrimaryDown
	}
	if c, ok := p.byID[id]; ok {
		c.ExecutionStep = step
		p.byID[id] = c
	}
	return nil
}

func (p *flakyPrimary) Delete(ctx context.Context, id uint) error {
	if p.down {
		return errPrimaryDown
	}
	delete(p.byID, id)
	return nil
}

func TestReplicatedRepositoryServesReplicaDuringOutage(t *testing.T) {
	primary := newFlakyPrimary()
	repo := NewReplicatedCampaignRepository(primary)
	ctx := context.Background()

	campaign := &models.Campaign{Name: "Replicated", Status: models.CampaignStatusDraft}
	require.NoError(t, campaign.BeforeCreate(nil))
	require.NoError(t, repo.Save(ctx, campaign))
	assert.False(t, repo.Degraded())

	// Reads pass through the replica once the primary goes down
	primary.down = true

	found, err := repo.ByUUID(ctx, campaign.UUID.String())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, campaign.ID, found.ID)
	assert.True(t, repo.Degraded())

	// Recovery clears the degraded flag
	primary.down = false
	_, err = repo.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.False(t, repo.Degraded())
}

func TestReplicatedRepositoryAcceptsWritesDuringOutage(t *testing.T) {
	primary := newFlakyPrimary()
	repo := NewReplicatedCampaignRepository(primary)
	ctx := context.Background()

	primary.down = true

	campaign := &models.Campaign{Name: "Outage write", Status: models.CampaignStatusDraft}
	require.NoError(t, campaign.BeforeCreate(nil))
	require.NoError(t, repo.Save(ctx, campaign))

	// A local ID was assigned and the write is readable
	assert.NotZero(t, campaign.ID)
	assert.True(t, repo.Degraded())

	found, err := repo.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Outage write", found.Name)

	// Status updates also land on the replica
	require.NoError(t, repo.UpdateStatus(ctx, campaign.ID, models.CampaignStatusActive))
	found, err = repo.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, found.Status)
}

func TestReplicatedRepositoryFilterFallback(t *testing.T) {
	primary := newFlakyPrimary()
	repo := NewReplicatedCampaignRepository(primary)
	ctx := context.Background()

	draft := &models.Campaign{Name: "Draft one", Status: models.CampaignStatusDraft}
	require.NoError(t, draft.BeforeCreate(nil))
	require.NoError(t, repo.Save(ctx, draft))

	active := &models.Campaign{Name: "Active one", Status: models.CampaignStatusActive}
	require.NoError(t, active.BeforeCreate(nil))
	require.NoError(t, repo.Save(ctx, active))

	primary.down = true

	status := models.CampaignStatusActive
	campaigns, err := repo.ByFilter(ctx, models.CampaignFilter{Status: &status}, "created_at DESC", 10, 0)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Active one", campaigns[0].Name)

	count, err := repo.Count(ctx, models.CampaignFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
