package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/textpulse/campaign-console/models"
	"gorm.io/gorm"
)

type contactRepository struct {
	*BaseRepository[models.Contact, models.ContactFilter]
}

// NewContactRepository creates a new contact repository instance
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{
		BaseRepository: NewBaseRepository[models.Contact, models.ContactFilter](db),
	}
}

func (r *contactRepository) applyFilter(query *gorm.DB, filter models.ContactFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Phone != nil {
		query = query.Where("phone = ?", *filter.Phone)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.City != nil {
		query = query.Where("city = ?", *filter.City)
	}
	if filter.Tier != nil {
		query = query.Where("tier = ?", *filter.Tier)
	}
	if filter.OptIn != nil {
		query = query.Where("opt_in = ?", *filter.OptIn)
	}
	if filter.NameContains != nil {
		pattern := "%" + *filter.NameContains + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern)
	}
	return query
}

// ByFilter retrieves contacts matching the filter criteria
func (r *contactRepository) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.Contact{}), filter)

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

	var contacts []*models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to find contacts by filter: %w", err)
	}

	return contacts, nil
}

// Count returns the number of contacts matching the filter criteria
func (r *contactRepository) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Contact{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	return count, nil
}

// ByUUID retrieves a contact by its UUID
func (r *contactRepository) ByUUID(ctx context.Context, uuid string) (*models.Contact, error) {
	db := r.getDB(ctx)

	var contact models.Contact
	err := db.Where("uuid = ?", uuid).Last(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find contact by UUID %s: %w", uuid, err)
	}

	return &contact, nil
}

// ByIDs retrieves contacts for the given IDs. Unknown IDs are silently
// absent from the result, the caller decides how to treat the gap.
func (r *contactRepository) ByIDs(ctx context.Context, ids []uint) ([]*models.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var contacts []*models.Contact
	if err := db.Where("id IN ?", ids).Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to find contacts by IDs: %w", err)
	}

	return contacts, nil
}

// ListOptedIn retrieves contacts that have not opted out of SMS messaging
func (r *contactRepository) ListOptedIn(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Contact{}).Where("opt_in = ?", true).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var contacts []*models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list opted-in contacts: %w", err)
	}

	return contacts, nil
}
