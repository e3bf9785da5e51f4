package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/textpulse/campaign-console/models"
	"gorm.io/gorm"
)

type campaignRepository struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository instance
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

func (r *campaignRepository) applyFilter(query *gorm.DB, filter models.CampaignFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ExecutionStep != nil {
		query = query.Where("execution_step = ?", *filter.ExecutionStep)
	}
	if filter.MailingListID != nil {
		query = query.Where("mailing_list_id = ?", *filter.MailingListID)
	}
	if filter.NameContains != nil {
		query = query.Where("name ILIKE ?", "%"+*filter.NameContains+"%")
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves campaigns matching the filter criteria
func (r *campaignRepository) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.Campaign{}), filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("created_at DESC")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var campaigns []*models.Campaign
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to find campaigns by filter: %w", err)
	}

	return campaigns, nil
}

// Count returns the number of campaigns matching the filter criteria
func (r *campaignRepository) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Campaign{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	return count, nil
}

// ByUUID retrieves a campaign by its UUID
func (r *campaignRepository) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Where("uuid = ?", uuid).Last(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find campaign by UUID %s: %w", uuid, err)
	}

	return &campaign, nil
}

// Update persists all mutable fields of the campaign
func (r *campaignRepository) Update(ctx context.Context, campaign models.Campaign) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Save(&campaign).Error
	if err != nil {
		return fmt.Errorf("failed to update campaign %d: %w", campaign.ID, err)
	}

	return nil
}

// UpdateStatus updates only the lifecycle status of a campaign
func (r *campaignRepository) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Campaign{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update campaign %d status: %w", id, err)
	}

	return nil
}

// UpdateExecutionStep updates only the execution wizard step of a campaign
func (r *campaignRepository) UpdateExecutionStep(ctx context.Context, id uint, step models.ExecutionStep) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Campaign{}).Where("id = ?", id).Update("execution_step", step).Error
	if err != nil {
		return fmt.Errorf("failed to update campaign %d execution step: %w", id, err)
	}

	return nil
}

// Delete removes a campaign row
func (r *campaignRepository) Delete(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(&models.Campaign{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete campaign %d: %w", id, err)
	}

	return nil
}
