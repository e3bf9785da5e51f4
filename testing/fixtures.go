package testing

import (
	"context"
	"fmt"

	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/utils"
)

// Stores bundles the in-memory repositories a flow test wires together
type Stores struct {
	Campaigns    *MemoryCampaignRepository
	Contacts     *MemoryContactRepository
	MailingLists *MemoryMailingListRepository
	Reports      *MemoryCampaignReportRepository
	Executions   *MemoryExecutionRecordRepository
	Templates    *MemoryMessageTemplateRepository
	AuditLogs    *MemoryAuditLogRepository
}

// NewStores creates a fresh set of empty in-memory repositories
func NewStores() *Stores {
	return &Stores{
		Campaigns:    NewMemoryCampaignRepository(),
		Contacts:     NewMemoryContactRepository(),
		MailingLists: NewMemoryMailingListRepository(),
		Reports:      NewMemoryCampaignReportRepository(),
		Executions:   NewMemoryExecutionRecordRepository(),
		Templates:    NewMemoryMessageTemplateRepository(),
		AuditLogs:    NewMemoryAuditLogRepository(),
	}
}

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	Stores *Stores
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(stores *Stores) *TestFixtures {
	return &TestFixtures{Stores: stores}
}

// CreateContact stores a reachable contact with a sequential phone number
func (tf *TestFixtures) CreateContact(firstName, lastName string, optIn bool) (*models.Contact, error) {
	city := "Lyon"
	contact := &models.Contact{
		FirstName: firstName,
		LastName:  lastName,
		Phone:     fmt.Sprintf("+3360000%04d", tf.Stores.Contacts.nextID+1),
		City:      &city,
		Tier:      models.ContactTierStandard,
		OptIn:     utils.ToPtr(optIn),
	}
	if err := tf.Stores.Contacts.Save(context.Background(), contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// CreateMailingList stores a mailing list with the given member contact IDs.
// The IDs are stored verbatim, so dangling references survive.
func (tf *TestFixtures) CreateMailingList(name string, contactIDs ...uint) (*models.MailingList, error) {
	list := &models.MailingList{
		Name:   name,
		Status: models.MailingListStatusActive,
	}
	if err := tf.Stores.MailingLists.Save(context.Background(), list); err != nil {
		return nil, err
	}
	if err := tf.Stores.MailingLists.ReplaceMembers(context.Background(), list.ID, contactIDs); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateDraftCampaign stores a draft campaign optionally linked to a mailing
// list
func (tf *TestFixtures) CreateDraftCampaign(name string, mailingListID *uint) (*models.Campaign, error) {
	campaign := &models.Campaign{
		Name:            name,
		Type:            models.CampaignTypePromotional,
		Status:          models.CampaignStatusDraft,
		ExecutionStep:   models.ExecutionStepNone,
		MessageTemplate: "Bonjour {prenom}, offre valable jusqu'au {date_fin}!",
		MailingListID:   mailingListID,
	}
	if err := tf.Stores.Campaigns.Save(context.Background(), campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// CreateCampaignAtStep stores a campaign positioned at the given lifecycle
// status and wizard step
func (tf *TestFixtures) CreateCampaignAtStep(name string, status models.CampaignStatus, step models.ExecutionStep, mailingListID *uint) (*models.Campaign, error) {
	campaign := &models.Campaign{
		Name:            name,
		Type:            models.CampaignTypePromotional,
		Status:          status,
		ExecutionStep:   step,
		MessageTemplate: "Bonjour {prenom}!",
		MailingListID:   mailingListID,
	}
	if err := tf.Stores.Campaigns.Save(context.Background(), campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// CreateTemplate stores a message template with personalization placeholders
func (tf *TestFixtures) CreateTemplate(name, content string) (*models.MessageTemplate, error) {
	template := &models.MessageTemplate{
		Name:     name,
		Category: "promotional",
		Content:  content,
	}
	if err := tf.Stores.Templates.Save(context.Background(), template); err != nil {
		return nil, err
	}
	return template, nil
}

// SeedSmallAudience creates the canonical four-contact scenario: three
// reachable contacts and one opted out, all members of one mailing list.
// Returns the list and the contacts in creation order.
func (tf *TestFixtures) SeedSmallAudience() (*models.MailingList, []*models.Contact, error) {
	names := [][2]string{
		{"Claire", "Martin"},
		{"Julien", "Bernard"},
		{"Amelie", "Petit"},
		{"Lucas", "Moreau"},
	}

	contacts := make([]*models.Contact, 0, len(names))
	ids := make([]uint, 0, len(names))
	for i, n := range names {
		// The last contact is opted out
		contact, err := tf.CreateContact(n[0], n[1], i != len(names)-1)
		if err != nil {
			return nil, nil, err
		}
		contacts = append(contacts, contact)
		ids = append(ids, contact.ID)
	}

	list, err := tf.CreateMailingList("Clients Lyon", ids...)
	if err != nil {
		return nil, nil, err
	}
	return list, contacts, nil
}
