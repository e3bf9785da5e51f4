package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/textpulse/campaign-console/models"
	"gorm.io/gorm"
)

type executionRecordRepository struct {
	*BaseRepository[models.ExecutionRecord, models.ExecutionRecordFilter]
}

// NewExecutionRecordRepository creates a new execution record repository instance
func NewExecutionRecordRepository(db *gorm.DB) ExecutionRecordRepository {
	return &executionRecordRepository{
		BaseRepository: NewBaseRepository[models.ExecutionRecord, models.ExecutionRecordFilter](db),
	}
}

func (r *executionRecordRepository) applyFilter(query *gorm.DB, filter models.ExecutionRecordFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Durable != nil {
		query = query.Where("durable = ?", *filter.Durable)
	}
	if filter.ExecutedAfter != nil {
		query = query.Where("executed_at >= ?", *filter.ExecutedAfter)
	}
	if filter.ExecutedBefore != nil {
		query = query.Where("executed_at <= ?", *filter.ExecutedBefore)
	}
	return query
}

// ByFilter retrieves execution records matching the filter criteria
func (r *executionRecordRepository) ByFilter(ctx context.Context, filter models.ExecutionRecordFilter, orderBy string, limit, offset int) ([]*models.ExecutionRecord, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.ExecutionRecord{}), filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("executed_at DESC")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []*models.ExecutionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to find execution records by filter: %w", err)
	}

	return records, nil
}

// Count returns the number of execution records matching the filter criteria
func (r *executionRecordRepository) Count(ctx context.Context, filter models.ExecutionRecordFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ExecutionRecord{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count execution records: %w", err)
	}

	return count, nil
}

// LatestByCampaignID retrieves the most recent execution record for a campaign
func (r *executionRecordRepository) LatestByCampaignID(ctx context.Context, campaignID uint) (*models.ExecutionRecord, error) {
	db := r.getDB(ctx)

	var record models.ExecutionRecord
	err := db.Where("campaign_id = ?", campaignID).Order("executed_at DESC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest execution record for campaign %d: %w", campaignID, err)
	}

	return &record, nil
}

// ListByCampaignID retrieves the execution history for a campaign, newest first
func (r *executionRecordRepository) ListByCampaignID(ctx context.Context, campaignID uint, limit, offset int) ([]*models.ExecutionRecord, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.ExecutionRecord{}).
		Where("campaign_id = ?", campaignID).
		Order("executed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []*models.ExecutionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list execution records for campaign %d: %w", campaignID, err)
	}

	return records, nil
}
