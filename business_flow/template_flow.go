package businessflow

import (
	"context"

	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"github.com/textpulse/campaign-console/utils"
)

// TemplateFlow exposes the read-only message template catalog
type TemplateFlow interface {
	GetTemplate(ctx context.Context, templateUUID string) (*dto.TemplateResponse, error)
	ListTemplates(ctx context.Context, req *dto.ListTemplatesRequest) (*dto.ListTemplatesResponse, error)
}

// TemplateFlowImpl implements the template flow
type TemplateFlowImpl struct {
	templateRepo repository.MessageTemplateRepository
}

// NewTemplateFlow creates a new template flow instance
func NewTemplateFlow(templateRepo repository.MessageTemplateRepository) TemplateFlow {
	return &TemplateFlowImpl{
		templateRepo: templateRepo,
	}
}

// GetTemplate retrieves a message template by UUID
func (f *TemplateFlowImpl) GetTemplate(ctx context.Context, templateUUID string) (*dto.TemplateResponse, error) {
	if _, err := utils.ParseUUID(templateUUID); err != nil {
		return nil, NewBusinessError("TEMPLATE_NOT_FOUND", "message template not found", ErrTemplateNotFound)
	}

	template, err := f.templateRepo.ByUUID(ctx, templateUUID)
	if err != nil {
		return nil, NewBusinessError("TEMPLATE_LOOKUP_FAILED", "failed to look up message template", err)
	}
	if template == nil {
		return nil, NewBusinessError("TEMPLATE_NOT_FOUND", "message template not found", ErrTemplateNotFound)
	}

	return toTemplateResponse(template), nil
}

// ListTemplates retrieves message templates with pagination and filtering
func (f *TemplateFlowImpl) ListTemplates(ctx context.Context, req *dto.ListTemplatesRequest) (*dto.ListTemplatesResponse, error) {
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

	filter := models.MessageTemplateFilter{}
	if req.Category != nil && *req.Category != "" {
		filter.Category = req.Category
	}
	if req.Name != nil && *req.Name != "" {
		filter.Name = req.Name
	}

	total, err := f.templateRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("TEMPLATE_LIST_FAILED", "failed to count message templates", err)
	}

	templates, err := f.templateRepo.ByFilter(ctx, filter, "name ASC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("TEMPLATE_LIST_FAILED", "failed to list message templates", err)
	}

	items := make([]dto.TemplateResponse, 0, len(templates))
	for _, template := range templates {
		items = append(items, *toTemplateResponse(template))
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &dto.ListTemplatesResponse{
		Items: items,
		Pagination: dto.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func toTemplateResponse(template *models.MessageTemplate) *dto.TemplateResponse {
	return &dto.TemplateResponse{
		UUID:      template.UUID.String(),
		Name:      template.Name,
		Category:  template.Category,
		Content:   template.Content,
		CreatedAt: template.CreatedAt,
	}
}
