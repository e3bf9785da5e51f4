package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/textpulse/campaign-console/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type campaignReportRepository struct {
	*BaseRepository[models.CampaignReport, models.CampaignReportFilter]
}

// NewCampaignReportRepository creates a new campaign report repository instance
func NewCampaignReportRepository(db *gorm.DB) CampaignReportRepository {
	return &campaignReportRepository{
		BaseRepository: NewBaseRepository[models.CampaignReport, models.CampaignReportFilter](db),
	}
}

func (r *campaignReportRepository) applyFilter(query *gorm.DB, filter models.CampaignReportFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.BudgetWarning != nil {
		query = query.Where("budget_warning = ?", *filter.BudgetWarning)
	}
	if filter.Goal != nil {
		query = query.Where("goal ILIKE ?", "%"+*filter.Goal+"%")
	}
	return query
}

// ByFilter retrieves campaign reports matching the filter criteria
func (r *campaignReportRepository) ByFilter(ctx context.Context, filter models.CampaignReportFilter, orderBy string, limit, offset int) ([]*models.CampaignReport, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.CampaignReport{}), filter)

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

	var reports []*models.CampaignReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to find campaign reports by filter: %w", err)
	}

	return reports, nil
}

// Count returns the number of campaign reports matching the filter criteria
func (r *campaignReportRepository) Count(ctx context.Context, filter models.CampaignReportFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CampaignReport{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaign reports: %w", err)
	}

	return count, nil
}

// ByCampaignID retrieves the single report row belonging to a campaign
func (r *campaignReportRepository) ByCampaignID(ctx context.Context, campaignID uint) (*models.CampaignReport, error) {
	db := r.getDB(ctx)

	var report models.CampaignReport
	err := db.Where("campaign_id = ?", campaignID).Last(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find report for campaign %d: %w", campaignID, err)
	}

	return &report, nil
}

// Upsert inserts the report or overwrites the existing row for the same
// campaign. Resubmission is last-write-wins.
func (r *campaignReportRepository) Upsert(ctx context.Context, report *models.CampaignReport) error {
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

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"goal", "target_audience", "expected_results", "budget", "notes",
			"estimated_reach", "estimated_cost", "estimated_delivered",
			"estimated_opens", "roi_projection", "budget_warning", "updated_at",
		}),
	}).Create(report).Error
	if err != nil {
		return fmt.Errorf("failed to upsert report for campaign %d: %w", report.CampaignID, err)
	}

	return nil
}
