package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"github.com/textpulse/campaign-console/utils"
)

// AudienceFlow resolves campaign audiences into concrete recipient sets
type AudienceFlow interface {
	ResolveAudience(ctx context.Context, req *dto.ResolveAudienceRequest) (*dto.AudienceResponse, error)
	PreviewAudience(ctx context.Context, listUUID string) (*dto.AudiencePreviewResponse, error)
}

// AudienceFlowImpl implements the audience flow
type AudienceFlowImpl struct {
	campaignRepo    repository.CampaignRepository
	contactRepo     repository.ContactRepository
	mailingListRepo repository.MailingListRepository
	redisClient     *redis.Client
}

// NewAudienceFlow creates a new audience flow instance. The redis client is
// optional; without it previews are computed on every call.
func NewAudienceFlow(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	mailingListRepo repository.MailingListRepository,
	redisClient *redis.Client,
) AudienceFlow {
	return &AudienceFlowImpl{
		campaignRepo:    campaignRepo,
		contactRepo:     contactRepo,
		mailingListRepo: mailingListRepo,
		redisClient:     redisClient,
	}
}

// ResolveAudience computes the recipient set for a send. Explicit contact IDs
// win over mailing lists; otherwise the union of the referenced lists'
// members is used, falling back to the campaign's linked list. Opted-out
// contacts and dangling references are dropped silently, and the result is
// deduplicated by contact.
func (f *AudienceFlowImpl) ResolveAudience(ctx context.Context, req *dto.ResolveAudienceRequest) (*dto.AudienceResponse, error) {
	recipients, err := f.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RecipientResponse, 0, len(recipients))
	for _, contact := range recipients {
		items = append(items, toRecipientResponse(contact))
	}

	return &dto.AudienceResponse{
		Recipients:    items,
		Size:          len(items),
		EstimatedCost: float64(len(items)) * utils.UnitSMSPrice,
	}, nil
}

// resolve returns the deduplicated, reachable recipient set
func (f *AudienceFlowImpl) resolve(ctx context.Context, req *dto.ResolveAudienceRequest) ([]*models.Contact, error) {
	if len(req.ContactIDs) > 0 {
		contacts, err := f.contactRepo.ByIDs(ctx, dedupIDs(req.ContactIDs))
		if err != nil {
			return nil, NewBusinessError("AUDIENCE_RESOLVE_FAILED", "failed to load contacts", err)
		}
		return filterReachable(contacts), nil
	}

	listIDs := req.MailingListIDs
	if len(listIDs) == 0 && req.CampaignUUID != nil {
		campaign, err := f.campaignRepo.ByUUID(ctx, *req.CampaignUUID)
		if err != nil {
			return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to look up campaign", err)
		}
		if campaign == nil {
			return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
		}
		if campaign.MailingListID != nil {
			listIDs = []uint{*campaign.MailingListID}
		}
	}
	if len(listIDs) == 0 {
		return nil, nil
	}

	seen := make(map[uint]struct{})
	var memberIDs []uint
	for _, listID := range dedupIDs(listIDs) {
		ids, err := f.mailingListRepo.MemberContactIDs(ctx, listID)
		if err != nil {
			return nil, NewBusinessError("AUDIENCE_RESOLVE_FAILED", "failed to load mailing list members", err)
		}
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				memberIDs = append(memberIDs, id)
			}
		}
	}
	if len(memberIDs) == 0 {
		return nil, nil
	}

	// ByIDs drops IDs of deleted contacts, dangling list entries vanish here
	contacts, err := f.contactRepo.ByIDs(ctx, memberIDs)
	if err != nil {
		return nil, NewBusinessError("AUDIENCE_RESOLVE_FAILED", "failed to load contacts", err)
	}
	return filterReachable(contacts), nil
}

// PreviewAudience returns a cached size and cost summary for a mailing list
func (f *AudienceFlowImpl) PreviewAudience(ctx context.Context, listUUID string) (*dto.AudiencePreviewResponse, error) {
	cacheKey := fmt.Sprintf("%s:%s", utils.AudiencePreviewKeyPrefix, listUUID)

	if f.redisClient != nil {
		if cached, err := f.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var preview dto.AudiencePreviewResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &preview); unmarshalErr == nil {
				preview.Cached = true
				return &preview, nil
			}
		}
	}

	list, err := f.mailingListRepo.ByUUID(ctx, listUUID)
	if err != nil {
		return nil, NewBusinessError("MAILING_LIST_LOOKUP_FAILED", "failed to look up mailing list", err)
	}
	if list == nil {
		return nil, NewBusinessError("MAILING_LIST_NOT_FOUND", "mailing list not found", ErrMailingListNotFound)
	}

	recipients, err := f.resolve(ctx, &dto.ResolveAudienceRequest{MailingListIDs: []uint{list.ID}})
	if err != nil {
		return nil, err
	}

	preview := &dto.AudiencePreviewResponse{
		MailingListUUID: listUUID,
		MailingListName: list.Name,
		Size:            len(recipients),
		EstimatedCost:   float64(len(recipients)) * utils.UnitSMSPrice,
	}

	if f.redisClient != nil {
		if payload, marshalErr := json.Marshal(preview); marshalErr == nil {
			f.redisClient.Set(ctx, cacheKey, payload, utils.AudiencePreviewTTL)
		}
	}

	return preview, nil
}

// filterReachable keeps contacts that are opted in and have a phone number
func filterReachable(contacts []*models.Contact) []*models.Contact {
	reachable := make([]*models.Contact, 0, len(contacts))
	for _, contact := range contacts {
		if contact.IsReachable() {
			reachable = append(reachable, contact)
		}
	}
	return reachable
}

func dedupIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func toRecipientResponse(contact *models.Contact) dto.RecipientResponse {
	return dto.RecipientResponse{
		ID:        contact.ID,
		UUID:      contact.UUID.String(),
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Phone:     contact.Phone,
		City:      contact.City,
		Tier:      contact.Tier.String(),
	}
}
