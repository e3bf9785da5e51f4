package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/textpulse/campaign-console/models"
	"gorm.io/gorm"
)

type mailingListRepository struct {
	*BaseRepository[models.MailingList, models.MailingListFilter]
}

// NewMailingListRepository creates a new mailing list repository instance
func NewMailingListRepository(db *gorm.DB) MailingListRepository {
	return &mailingListRepository{
		BaseRepository: NewBaseRepository[models.MailingList, models.MailingListFilter](db),
	}
}

func (r *mailingListRepository) applyFilter(query *gorm.DB, filter models.MailingListFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.NameContains != nil {
		query = query.Where("name ILIKE ?", "%"+*filter.NameContains+"%")
	}
	return query
}

// ByFilter retrieves mailing lists matching the filter criteria
func (r *mailingListRepository) ByFilter(ctx context.Context, filter models.MailingListFilter, orderBy string, limit, offset int) ([]*models.MailingList, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.MailingList{}), filter)

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

	var lists []*models.MailingList
	if err := query.Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to find mailing lists by filter: %w", err)
	}

	return lists, nil
}

// Count returns the number of mailing lists matching the filter criteria
func (r *mailingListRepository) Count(ctx context.Context, filter models.MailingListFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.MailingList{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count mailing lists: %w", err)
	}

	return count, nil
}

// ByUUID retrieves a mailing list by its UUID
func (r *mailingListRepository) ByUUID(ctx context.Context, uuid string) (*models.MailingList, error) {
	db := r.getDB(ctx)

	var list models.MailingList
	err := db.Where("uuid = ?", uuid).Last(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find mailing list by UUID %s: %w", uuid, err)
	}

	return &list, nil
}

// ByIDs retrieves mailing lists for the given IDs
func (r *mailingListRepository) ByIDs(ctx context.Context, ids []uint) ([]*models.MailingList, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var lists []*models.MailingList
	if err := db.Where("id IN ?", ids).Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to find mailing lists by IDs: %w", err)
	}

	return lists, nil
}

// MemberContactIDs returns the contact IDs attached to a mailing list. IDs of
// contacts that were deleted after attachment are still returned, the
// audience resolver drops them.
func (r *mailingListRepository) MemberContactIDs(ctx context.Context, listID uint) ([]uint, error) {
	db := r.getDB(ctx)

	var ids []uint
	err := db.Table("mailing_list_contacts").
		Where("mailing_list_id = ?", listID).
		Pluck("contact_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list member contact IDs for mailing list %d: %w", listID, err)
	}

	return ids, nil
}

// ReplaceMembers replaces the membership of a mailing list with the given
// contact IDs
func (r *mailingListRepository) ReplaceMembers(ctx context.Context, listID uint, contactIDs []uint) error {
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

	err = db.Table("mailing_list_contacts").Where("mailing_list_id = ?", listID).Delete(nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear mailing list %d members: %w", listID, err)
	}

	for _, contactID := range contactIDs {
		err = db.Exec("INSERT INTO mailing_list_contacts (mailing_list_id, contact_id) VALUES (?, ?)", listID, contactID).Error
		if err != nil {
			return fmt.Errorf("failed to add contact %d to mailing list %d: %w", contactID, listID, err)
		}
	}

	return nil
}

// Update persists all mutable fields of the mailing list
func (r *mailingListRepository) Update(ctx context.Context, list models.MailingList) error {
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

	err = db.Save(&list).Error
	if err != nil {
		return fmt.Errorf("failed to update mailing list %d: %w", list.ID, err)
	}

	return nil
}
