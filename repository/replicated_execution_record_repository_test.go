package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textpulse/campaign-console/models"
)

// flakyRecordPrimary is a minimal ExecutionRecordRepository whose operations
// fail while down is set
type flakyRecordPrimary struct {
	down    bool
	records []models.ExecutionRecord
	nextID  uint
}

func newFlakyRecordPrimary() *flakyRecordPrimary {
	return &flakyRecordPrimary{}
}

func (p *flakyRecordPrimary) ByID(ctx context.Context, id uint) (*models.ExecutionRecord, error) {
	if p.down {
		return nil, errPrimaryDown
	}
	for _, rec := range p.records {
		if rec.ID == id {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (p *flakyRecordPrimary) ByFilter(ctx context.Context, filter models.ExecutionRecordFilter, orderBy string, limit, offset int) ([]*models.ExecutionRecord, error) {
	if p.down {
		return nil, errPrimaryDown
	}
	var out []*models.ExecutionRecord
	for _, rec := range p.records {
		if matchesRecordFilter(rec, filter) {
			copied := rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (p *flakyRecordPrimary) Count(ctx context.Context, filter models.ExecutionRecordFilter) (int64, error) {
	if p.down {
		return 0, errPrimaryDown
	}
	records, _ := p.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(records)), nil
}

func (p *flakyRecordPrimary) Save(ctx context.Context, record *models.ExecutionRecord) error {
	if p.down {
		return errPrimaryDown
	}
	if record.ID == 0 {
		p.nextID++
		record.ID = p.nextID
	}
	p.records = append(p.records, *record)
	return nil
}

func (p *flakyRecordPrimary) SaveBatch(ctx context.Context, records []*models.ExecutionRecord) error {
	for _, rec := range records {
		if err := p.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (p *flakyRecordPrimary) LatestByCampaignID(ctx context.Context, campaignID uint) (*models.ExecutionRecord, error) {
	if p.down {
		return nil, errPrimaryDown
	}
	var latest *models.ExecutionRecord
	for i := range p.records {
		if p.records[i].CampaignID != campaignID {
			continue
		}
		if latest == nil || p.records[i].ID > latest.ID {
			rec := p.records[i]
			latest = &rec
		}
	}
	return latest, nil
}

func (p *flakyRecordPrimary) ListByCampaignID(ctx context.Context, campaignID uint, limit, offset int) ([]*models.ExecutionRecord, error) {
	return p.ByFilter(ctx, models.ExecutionRecordFilter{CampaignID: &campaignID}, "", limit, offset)
}

func TestReplicatedExecutionRecordsAbsorbWritesDuringOutage(t *testing.T) {
	primary := newFlakyRecordPrimary()
	repo := NewReplicatedExecutionRecordRepository(primary)
	ctx := context.Background()

	primary.down = true

	record := &models.ExecutionRecord{CampaignID: 7, TotalRecipients: 3, Durable: true}
	require.NoError(t, repo.Save(ctx, record))

	// The replica assigned a local ID and flagged the record not durable
	assert.NotZero(t, record.ID)
	assert.False(t, record.Durable)
	assert.True(t, repo.Degraded())

	records, err := repo.ListByCampaignID(ctx, 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Durable)

	latest, err := repo.LatestByCampaignID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, record.ID, latest.ID)

	count, err := repo.Count(ctx, models.ExecutionRecordFilter{CampaignID: &record.CampaignID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReplicatedExecutionRecordsServeReplicaDuringOutage(t *testing.T) {
	primary := newFlakyRecordPrimary()
	repo := NewReplicatedExecutionRecordRepository(primary)
	ctx := context.Background()

	record := &models.ExecutionRecord{CampaignID: 3, TotalRecipients: 2, Durable: true}
	require.NoError(t, record.BeforeCreate(nil))
	require.NoError(t, repo.Save(ctx, record))
	assert.False(t, repo.Degraded())

	// Reads pass through the replica once the primary goes down
	primary.down = true

	records, err := repo.ListByCampaignID(ctx, 3, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Durable)
	assert.True(t, repo.Degraded())

	// Recovery clears the degraded flag
	primary.down = false
	_, err = repo.ByID(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, repo.Degraded())
}
