package repository

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/utils"
)

// ReplicatedExecutionRecordRepository decorates a primary execution record
// repository with an in-memory replica. When the primary is unreachable the
// replica accepts the write and the record is flagged Durable=false, so the
// send history stays available and honest during a datastore outage.
type ReplicatedExecutionRecordRepository struct {
	primary ExecutionRecordRepository

	mu       sync.RWMutex
	byID     map[uint]models.ExecutionRecord
	nextID   uint
	degraded bool
}

// NewReplicatedExecutionRecordRepository creates a replicated execution record
// repository around the given primary
func NewReplicatedExecutionRecordRepository(primary ExecutionRecordRepository) *ReplicatedExecutionRecordRepository {
	return &ReplicatedExecutionRecordRepository{
		primary: primary,
		byID:    make(map[uint]models.ExecutionRecord),
		nextID:  1,
	}
}

// Degraded reports whether the last primary operation failed and the replica
// is currently serving
func (r *ReplicatedExecutionRecordRepository) Degraded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.degraded
}

func (r *ReplicatedExecutionRecordRepository) markDegraded(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.degraded {
		log.Printf("execution record store unreachable, serving from replica: %v", err)
	}
	r.degraded = true
}

func (r *ReplicatedExecutionRecordRepository) markHealthy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.degraded {
		log.Printf("execution record store reachable again")
	}
	r.degraded = false
}

// replicate stores a copy of the record in the replica
func (r *ReplicatedExecutionRecordRepository) replicate(record *models.ExecutionRecord) {
	if record == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[record.ID] = *record
	if record.ID >= r.nextID {
		r.nextID = record.ID + 1
	}
}

// ByID retrieves a record, falling back to the replica when the primary fails
func (r *ReplicatedExecutionRecordRepository) ByID(ctx context.Context, id uint) (*models.ExecutionRecord, error) {
	record, err := r.primary.ByID(ctx, id)
	if err != nil {
		r.markDegraded(err)
		r.mu.RLock()
		defer r.mu.RUnlock()
		if rec, ok := r.byID[id]; ok {
			copied := rec
			return &copied, nil
		}
		return nil, nil
	}

	r.markHealthy()
	r.replicate(record)
	return record, nil
}

func matchesRecordFilter(record models.ExecutionRecord, filter models.ExecutionRecordFilter) bool {
	if filter.ID != nil && record.ID != *filter.ID {
		return false
	}
	if filter.UUID != nil && record.UUID != *filter.UUID {
		return false
	}
	if filter.CampaignID != nil && record.CampaignID != *filter.CampaignID {
		return false
	}
	if filter.Durable != nil && record.Durable != *filter.Durable {
		return false
	}
	if filter.ExecutedAfter != nil && record.ExecutedAt.Before(*filter.ExecutedAfter) {
		return false
	}
	if filter.ExecutedBefore != nil && record.ExecutedAt.After(*filter.ExecutedBefore) {
		return false
	}
	return true
}

func (r *ReplicatedExecutionRecordRepository) replicaByFilter(filter models.ExecutionRecordFilter, limit, offset int) []*models.ExecutionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*models.ExecutionRecord
	for _, rec := range r.byID {
		if matchesRecordFilter(rec, filter) {
			copied := rec
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ExecutedAt.Equal(records[j].ExecutedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].ExecutedAt.After(records[j].ExecutedAt)
	})

	if offset > 0 {
		if offset >= len(records) {
			return nil
		}
		records = records[offset:]
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

// ByFilter retrieves records matching the filter, falling back to the replica
// when the primary fails. Replica results ignore orderBy and are sorted newest
// first.
func (r *ReplicatedExecutionRecordRepository) ByFilter(ctx context.Context, filter models.ExecutionRecordFilter, orderBy string, limit, offset int) ([]*models.ExecutionRecord, error) {
	records, err := r.primary.ByFilter(ctx, filter, orderBy, limit, offset)
	if err != nil {
		r.markDegraded(err)
		return r.replicaByFilter(filter, limit, offset), nil
	}

	r.markHealthy()
	for _, rec := range records {
		r.replicate(rec)
	}
	return records, nil
}

// Count returns the number of matching records, falling back to the replica
// when the primary fails
func (r *ReplicatedExecutionRecordRepository) Count(ctx context.Context, filter models.ExecutionRecordFilter) (int64, error) {
	count, err := r.primary.Count(ctx, filter)
	if err != nil {
		r.markDegraded(err)
		return int64(len(r.replicaByFilter(filter, 0, 0))), nil
	}

	r.markHealthy()
	return count, nil
}

// Save inserts a record. When the primary is unreachable the record is
// accepted into the replica with a locally assigned ID and flagged not durable.
func (r *ReplicatedExecutionRecordRepository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	err := r.primary.Save(ctx, record)
	if err != nil {
		r.markDegraded(err)
		r.mu.Lock()
		if record.ID == 0 {
			record.ID = r.nextID
			r.nextID++
		}
		if record.UUID == uuid.Nil {
			record.UUID = uuid.New()
		}
		if record.ExecutedAt.IsZero() {
			record.ExecutedAt = utils.UTCNow()
		}
		record.Durable = false
		r.byID[record.ID] = *record
		r.mu.Unlock()
		return nil
	}

	r.markHealthy()
	r.replicate(record)
	return nil
}

// SaveBatch inserts multiple records
func (r *ReplicatedExecutionRecordRepository) SaveBatch(ctx context.Context, records []*models.ExecutionRecord) error {
	for _, rec := range records {
		if err := r.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// LatestByCampaignID retrieves the most recent record for a campaign, falling
// back to the replica when the primary fails
func (r *ReplicatedExecutionRecordRepository) LatestByCampaignID(ctx context.Context, campaignID uint) (*models.ExecutionRecord, error) {
	record, err := r.primary.LatestByCampaignID(ctx, campaignID)
	if err != nil {
		r.markDegraded(err)
		records := r.replicaByFilter(models.ExecutionRecordFilter{CampaignID: &campaignID}, 1, 0)
		if len(records) == 0 {
			return nil, nil
		}
		return records[0], nil
	}

	r.markHealthy()
	r.replicate(record)
	return record, nil
}

// ListByCampaignID retrieves the execution history of a campaign, newest
// first, falling back to the replica when the primary fails
func (r *ReplicatedExecutionRecordRepository) ListByCampaignID(ctx context.Context, campaignID uint, limit, offset int) ([]*models.ExecutionRecord, error) {
	records, err := r.primary.ListByCampaignID(ctx, campaignID, limit, offset)
	if err != nil {
		r.markDegraded(err)
		return r.replicaByFilter(models.ExecutionRecordFilter{CampaignID: &campaignID}, limit, offset), nil
	}

	r.markHealthy()
	for _, rec := range records {
		r.replicate(rec)
	}
	return records, nil
}
