package repository

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/textpulse/campaign-console/models"
)

// ReplicatedCampaignRepository decorates a primary campaign repository with an
// in-memory replica. Reads and writes go to the primary; when the primary is
// unreachable the replica answers instead, so the console stays usable during
// a datastore outage. Writes accepted by the replica alone are not durable
// and are flagged as such on the records they produce.
type ReplicatedCampaignRepository struct {
	primary CampaignRepository

	mu       sync.RWMutex
	byID     map[uint]models.Campaign
	nextID   uint
	degraded bool
}

// NewReplicatedCampaignRepository creates a replicated campaign repository
// around the given primary
func NewReplicatedCampaignRepository(primary CampaignRepository) *ReplicatedCampaignRepository {
	return &ReplicatedCampaignRepository{
		primary: primary,
		byID:    make(map[uint]models.Campaign),
		nextID:  1,
	}
}

// Degraded reports whether the last primary operation failed and the replica
// is currently serving
func (r *ReplicatedCampaignRepository) Degraded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.degraded
}

func (r *ReplicatedCampaignRepository) markDegraded(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.degraded {
		log.Printf("campaign store unreachable, serving from replica: %v", err)
	}
	r.degraded = true
}

func (r *ReplicatedCampaignRepository) markHealthy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.degraded {
		log.Printf("campaign store reachable again")
	}
	r.degraded = false
}

// replicate stores a copy of the campaign in the replica
func (r *ReplicatedCampaignRepository) replicate(campaign *models.Campaign) {
	if campaign == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[campaign.ID] = *campaign
	if campaign.ID >= r.nextID {
		r.nextID = campaign.ID + 1
	}
}

// ByID retrieves a campaign, falling back to the replica when the primary fails
func (r *ReplicatedCampaignRepository) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	campaign, err := r.primary.ByID(ctx, id)
	if err != nil {
		r.markDegraded(err)
		r.mu.RLock()
		defer r.mu.RUnlock()
		if c, ok := r.byID[id]; ok {
			copied := c
			return &copied, nil
		}
		return nil, nil
	}

	r.markHealthy()
	r.replicate(campaign)
	return campaign, nil
}

// ByUUID retrieves a campaign by UUID, falling back to the replica when the
// primary fails
func (r *ReplicatedCampaignRepository) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	campaign, err := r.primary.ByUUID(ctx, uuid)
	if err != nil {
		r.markDegraded(err)
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, c := range r.byID {
			if c.UUID.String() == uuid {
				copied := c
				return &copied, nil
			}
		}
		return nil, nil
	}

	r.markHealthy()
	r.replicate(campaign)
	return campaign, nil
}

func matchesFilter(c models.Campaign, filter models.CampaignFilter) bool {
	if filter.ID != nil && c.ID != *filter.ID {
		return false
	}
	if filter.UUID != nil && c.UUID != *filter.UUID {
		return false
	}
	if filter.Status != nil && c.Status != *filter.Status {
		return false
	}
	if filter.Type != nil && c.Type != *filter.Type {
		return false
	}
	if filter.ExecutionStep != nil && c.ExecutionStep != *filter.ExecutionStep {
		return false
	}
	if filter.MailingListID != nil {
		if c.MailingListID == nil || *c.MailingListID != *filter.MailingListID {
			return false
		}
	}
	if filter.NameContains != nil &&
		!strings.Contains(strings.ToLower(c.Name), strings.ToLower(*filter.NameContains)) {
		return false
	}
	if filter.CreatedAfter != nil && c.CreatedAt.Before(*filter.CreatedAfter) {
		return false
	}
	if filter.CreatedBefore != nil && c.CreatedAt.After(*filter.CreatedBefore) {
		return false
	}
	return true
}

func (r *ReplicatedCampaignRepository) replicaByFilter(filter models.CampaignFilter, limit, offset int) []*models.Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var campaigns []*models.Campaign
	for _, c := range r.byID {
		if matchesFilter(c, filter) {
			copied := c
			campaigns = append(campaigns, &copied)
		}
	}
	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(campaigns) {
			return nil
		}
		campaigns = campaigns[offset:]
	}
	if limit > 0 && limit < len(campaigns) {
		campaigns = campaigns[:limit]
	}
	return campaigns
}

// ByFilter retrieves campaigns matching the filter, falling back to the
// replica when the primary fails. Replica results ignore orderBy and are
// sorted newest first.
func (r *ReplicatedCampaignRepository) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	campaigns, err := r.primary.ByFilter(ctx, filter, orderBy, limit, offset)
	if err != nil {
		r.markDegraded(err)
		return r.replicaByFilter(filter, limit, offset), nil
	}

	r.markHealthy()
	for _, c := range campaigns {
		r.replicate(c)
	}
	return campaigns, nil
}

// Count returns the number of matching campaigns, falling back to the replica
// when the primary fails
func (r *ReplicatedCampaignRepository) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	count, err := r.primary.Count(ctx, filter)
	if err != nil {
		r.markDegraded(err)
		return int64(len(r.replicaByFilter(filter, 0, 0))), nil
	}

	r.markHealthy()
	return count, nil
}

// Save inserts a campaign. When the primary is unreachable the campaign is
// accepted into the replica with a locally assigned ID.
func (r *ReplicatedCampaignRepository) Save(ctx context.Context, campaign *models.Campaign) error {
	err := r.primary.Save(ctx, campaign)
	if err != nil {
		r.markDegraded(err)
		r.mu.Lock()
		if campaign.ID == 0 {
			campaign.ID = r.nextID
			r.nextID++
		}
		r.byID[campaign.ID] = *campaign
		r.mu.Unlock()
		return nil
	}

	r.markHealthy()
	r.replicate(campaign)
	return nil
}

// SaveBatch inserts multiple campaigns
func (r *ReplicatedCampaignRepository) SaveBatch(ctx context.Context, campaigns []*models.Campaign) error {
	for _, c := range campaigns {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Update persists all mutable fields, falling back to the replica when the
// primary fails
func (r *ReplicatedCampaignRepository) Update(ctx context.Context, campaign models.Campaign) error {
	err := r.primary.Update(ctx, campaign)
	if err != nil {
		r.markDegraded(err)
		r.mu.Lock()
		r.byID[campaign.ID] = campaign
		r.mu.Unlock()
		return nil
	}

	r.markHealthy()
	r.replicate(&campaign)
	return nil
}

// UpdateStatus updates only the lifecycle status, falling back to the replica
// when the primary fails
func (r *ReplicatedCampaignRepository) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	err := r.primary.UpdateStatus(ctx, id, status)
	if err != nil {
		r.markDegraded(err)
		r.mu.Lock()
		if c, ok := r.byID[id]; ok {
			c.Status = status
			r.byID[id] = c
		}
		r.mu.Unlock()
		return nil
	}

	r.markHealthy()
	return nil
}

// UpdateExecutionStep updates only the execution wizard step, falling back to
// the replica when the primary fails
func (r *ReplicatedCampaignRepository) UpdateExecutionStep(ctx context.Context, id uint, step models.ExecutionStep) error {
	err := r.primary.UpdateExecutionStep(ctx, id, step)
	if err != nil {
		r.markDegraded(err)
		r.mu.Lock()
		if c, ok := r.byID[id]; ok {
			c.ExecutionStep = step
			r.byID[id] = c
		}
		r.mu.Unlock()
		return nil
	}

	r.markHealthy()
	return nil
}

// Delete removes a campaign from the primary and the replica
func (r *ReplicatedCampaignRepository) Delete(ctx context.Context, id uint) error {
	err := r.primary.Delete(ctx, id)
	if err != nil {
		r.markDegraded(err)
	} else {
		r.markHealthy()
	}

	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
	return nil
}
