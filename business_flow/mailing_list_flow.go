package businessflow

import (
	"context"
	"strings"

	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// MailingListFlow handles mailing list management
type MailingListFlow interface {
	CreateMailingList(ctx context.Context, req *dto.CreateMailingListRequest) (*dto.MailingListResponse, error)
	GetMailingList(ctx context.Context, listUUID string) (*dto.MailingListResponse, error)
	ListMailingLists(ctx context.Context, req *dto.ListMailingListsRequest) (*dto.ListMailingListsResponse, error)
}

// MailingListFlowImpl implements the mailing list flow
type MailingListFlowImpl struct {
	mailingListRepo repository.MailingListRepository
	db              *gorm.DB
}

// NewMailingListFlow creates a new mailing list flow instance
func NewMailingListFlow(mailingListRepo repository.MailingListRepository, db *gorm.DB) MailingListFlow {
	return &MailingListFlowImpl{
		mailingListRepo: mailingListRepo,
		db:              db,
	}
}

// CreateMailingList creates a mailing list, optionally with an initial
// membership. Contact IDs are stored as given; dangling references are
// tolerated and dropped at resolution time.
func (f *MailingListFlowImpl) CreateMailingList(ctx context.Context, req *dto.CreateMailingListRequest) (*dto.MailingListResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewBusinessError("MAILING_LIST_NAME_REQUIRED", "mailing list name is required", ErrMailingListNotFound)
	}

	list := &models.MailingList{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      models.MailingListStatusActive,
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.mailingListRepo.Save(txCtx, list); err != nil {
			return err
		}
		if len(req.ContactIDs) > 0 {
			return f.mailingListRepo.ReplaceMembers(txCtx, list.ID, dedupIDs(req.ContactIDs))
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("MAILING_LIST_CREATE_FAILED", "failed to create mailing list", err)
	}

	return f.toResponse(ctx, list), nil
}

// GetMailingList retrieves a mailing list by UUID
func (f *MailingListFlowImpl) GetMailingList(ctx context.Context, listUUID string) (*dto.MailingListResponse, error) {
	if _, err := utils.ParseUUID(listUUID); err != nil {
		return nil, NewBusinessError("MAILING_LIST_NOT_FOUND", "mailing list not found", ErrMailingListNotFound)
	}

	list, err := f.mailingListRepo.ByUUID(ctx, listUUID)
	if err != nil {
		return nil, NewBusinessError("MAILING_LIST_LOOKUP_FAILED", "failed to look up mailing list", err)
	}
	if list == nil {
		return nil, NewBusinessError("MAILING_LIST_NOT_FOUND", "mailing list not found", ErrMailingListNotFound)
	}

	return f.toResponse(ctx, list), nil
}

// ListMailingLists retrieves mailing lists with pagination and filtering
func (f *MailingListFlowImpl) ListMailingLists(ctx context.Context, req *dto.ListMailingListsRequest) (*dto.ListMailingListsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	filter := models.MailingListFilter{}
	if req.Status != nil && *req.Status != "" {
		status := models.MailingListStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("INVALID_MAILING_LIST_STATUS", "unknown mailing list status", ErrMailingListNotFound)
		}
		filter.Status = &status
	}
	if req.Name != nil && *req.Name != "" {
		filter.NameContains = req.Name
	}

	total, err := f.mailingListRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("MAILING_LIST_LIST_FAILED", "failed to count mailing lists", err)
	}

	lists, err := f.mailingListRepo.ByFilter(ctx, filter, "created_at DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("MAILING_LIST_LIST_FAILED", "failed to list mailing lists", err)
	}

	items := make([]dto.MailingListResponse, 0, len(lists))
	for _, list := range lists {
		items = append(items, *f.toResponse(ctx, list))
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &dto.ListMailingListsResponse{
		Items: items,
		Pagination: dto.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (f *MailingListFlowImpl) toResponse(ctx context.Context, list *models.MailingList) *dto.MailingListResponse {
	contactCount := len(list.Contacts)
	if contactCount == 0 {
		if ids, err := f.mailingListRepo.MemberContactIDs(ctx, list.ID); err == nil {
			contactCount = len(ids)
		}
	}

	return &dto.MailingListResponse{
		UUID:         list.UUID.String(),
		Name:         list.Name,
		Description:  list.Description,
		Status:       list.Status.String(),
		ContactCount: contactCount,
		CreatedAt:    list.CreatedAt,
	}
}
