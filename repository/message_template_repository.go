package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/textpulse/campaign-console/models"
	"gorm.io/gorm"
)

type messageTemplateRepository struct {
	*BaseRepository[models.MessageTemplate, models.MessageTemplateFilter]
}

// NewMessageTemplateRepository creates a new message template repository instance
func NewMessageTemplateRepository(db *gorm.DB) MessageTemplateRepository {
	return &messageTemplateRepository{
		BaseRepository: NewBaseRepository[models.MessageTemplate, models.MessageTemplateFilter](db),
	}
}

func (r *messageTemplateRepository) applyFilter(query *gorm.DB, filter models.MessageTemplateFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		query = query.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	return query
}

// ByFilter retrieves message templates matching the filter criteria
func (r *messageTemplateRepository) ByFilter(ctx context.Context, filter models.MessageTemplateFilter, orderBy string, limit, offset int) ([]*models.MessageTemplate, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.MessageTemplate{}), filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("name ASC")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var templates []*models.MessageTemplate
	if err := query.Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to find message templates by filter: %w", err)
	}

	return templates, nil
}

// Count returns the number of message templates matching the filter criteria
func (r *messageTemplateRepository) Count(ctx context.Context, filter models.MessageTemplateFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.MessageTemplate{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count message templates: %w", err)
	}

	return count, nil
}

// ByUUID retrieves a message template by its UUID
func (r *messageTemplateRepository) ByUUID(ctx context.Context, uuid string) (*models.MessageTemplate, error) {
	db := r.getDB(ctx)

	var template models.MessageTemplate
	err := db.Where("uuid = ?", uuid).Last(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find message template by UUID %s: %w", uuid, err)
	}

	return &template, nil
}
