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

// ContactFlow handles the contact directory
type ContactFlow interface {
	CreateContact(ctx context.Context, req *dto.CreateContactRequest) (*dto.ContactResponse, error)
	GetContact(ctx context.Context, contactUUID string) (*dto.ContactResponse, error)
	ListContacts(ctx context.Context, req *dto.ListContactsRequest) (*dto.ListContactsResponse, error)
}

// ContactFlowImpl implements the contact flow
type ContactFlowImpl struct {
	contactRepo repository.ContactRepository
	db          *gorm.DB
}

// NewContactFlow creates a new contact flow instance
func NewContactFlow(contactRepo repository.ContactRepository, db *gorm.DB) ContactFlow {
	return &ContactFlowImpl{
		contactRepo: contactRepo,
		db:          db,
	}
}

// CreateContact adds a contact to the directory
func (f *ContactFlowImpl) CreateContact(ctx context.Context, req *dto.CreateContactRequest) (*dto.ContactResponse, error) {
	tier := models.ContactTierStandard
	if req.Tier != nil {
		tier = models.ContactTier(*req.Tier)
		if !tier.Valid() {
			return nil, NewBusinessError("INVALID_CONTACT_TIER", "unknown contact tier", ErrInvalidContactTier)
		}
	}

	optIn := true
	if req.OptIn != nil {
		optIn = *req.OptIn
	}

	contact := &models.Contact{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      req.Email,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Tier:       tier,
		OptIn:      &optIn,
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.contactRepo.Save(txCtx, contact)
	})
	if err != nil {
		return nil, NewBusinessError("CONTACT_CREATE_FAILED", "failed to create contact", err)
	}

	return toContactResponse(contact), nil
}

// GetContact retrieves a contact by UUID
func (f *ContactFlowImpl) GetContact(ctx context.Context, contactUUID string) (*dto.ContactResponse, error) {
	if _, err := utils.ParseUUID(contactUUID); err != nil {
		return nil, NewBusinessError("CONTACT_NOT_FOUND", "contact not found", ErrContactNotFound)
	}

	contact, err := f.contactRepo.ByUUID(ctx, contactUUID)
	if err != nil {
		return nil, NewBusinessError("CONTACT_LOOKUP_FAILED", "failed to look up contact", err)
	}
	if contact == nil {
		return nil, NewBusinessError("CONTACT_NOT_FOUND", "contact not found", ErrContactNotFound)
	}

	return toContactResponse(contact), nil
}

// ListContacts retrieves contacts with pagination and filtering
func (f *ContactFlowImpl) ListContacts(ctx context.Context, req *dto.ListContactsRequest) (*dto.ListContactsResponse, error) {
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

	filter := models.ContactFilter{
		OptIn: req.OptIn,
	}
	if req.City != nil && *req.City != "" {
		filter.City = req.City
	}
	if req.Tier != nil && *req.Tier != "" {
		tier := models.ContactTier(*req.Tier)
		if !tier.Valid() {
			return nil, NewBusinessError("INVALID_CONTACT_TIER", "unknown contact tier", ErrInvalidContactTier)
		}
		filter.Tier = &tier
	}
	if req.Name != nil && *req.Name != "" {
		filter.NameContains = req.Name
	}

	total, err := f.contactRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CONTACT_LIST_FAILED", "failed to count contacts", err)
	}

	contacts, err := f.contactRepo.ByFilter(ctx, filter, "last_name ASC, first_name ASC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("CONTACT_LIST_FAILED", "failed to list contacts", err)
	}

	items := make([]dto.ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		items = append(items, *toContactResponse(contact))
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &dto.ListContactsResponse{
		Items: items,
		Pagination: dto.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func toContactResponse(contact *models.Contact) *dto.ContactResponse {
	return &dto.ContactResponse{
		UUID:       contact.UUID.String(),
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		FullName:   contact.FullName(),
		Phone:      contact.Phone,
		Email:      contact.Email,
		City:       contact.City,
		Region:     contact.Region,
		PostalCode: contact.PostalCode,
		Tier:       contact.Tier.String(),
		OptIn:      utils.IsTrue(contact.OptIn),
		CreatedAt:  contact.CreatedAt,
	}
}
