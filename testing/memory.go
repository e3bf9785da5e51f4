// Package testing provides in-memory repository implementations and fixture
// helpers for exercising the business flows without a database
package testing

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"github.com/textpulse/campaign-console/utils"
)

// MemoryCampaignRepository is an in-memory repository.CampaignRepository
type MemoryCampaignRepository struct {
	mu     sync.RWMutex
	byID   map[uint]models.Campaign
	nextID uint

	// SaveErr and UpdateErr, when set, are returned by the corresponding
	// write operations to simulate storage failures
	SaveErr   error
	UpdateErr error
}

// NewMemoryCampaignRepository creates an empty campaign store
func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{byID: make(map[uint]models.Campaign)}
}

func (r *MemoryCampaignRepository) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byID[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *MemoryCampaignRepository) ByUUID(ctx context.Context, campaignUUID string) (*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byID {
		if c.UUID.String() == campaignUUID {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryCampaignRepository) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Campaign
	for _, c := range r.byID {
		if campaignMatches(c, filter) {
			matched = append(matched, c)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if strings.Contains(orderBy, "ASC") {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return pageCampaigns(matched, limit, offset), nil
}

func (r *MemoryCampaignRepository) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, c := range r.byID {
		if campaignMatches(c, filter) {
			total++
		}
	}
	return total, nil
}

func (r *MemoryCampaignRepository) Save(ctx context.Context, campaign *models.Campaign) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if campaign.ID == 0 {
		r.nextID++
		campaign.ID = r.nextID
	} else if campaign.ID > r.nextID {
		r.nextID = campaign.ID
	}
	applyCampaignDefaults(campaign)
	r.byID[campaign.ID] = *campaign
	return nil
}

func (r *MemoryCampaignRepository) SaveBatch(ctx context.Context, campaigns []*models.Campaign) error {
	for _, c := range campaigns {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryCampaignRepository) Update(ctx context.Context, campaign models.Campaign) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[campaign.ID] = campaign
	return nil
}

func (r *MemoryCampaignRepository) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.Status = status
		r.byID[id] = c
	}
	return nil
}

func (r *MemoryCampaignRepository) UpdateExecutionStep(ctx context.Context, id uint, step models.ExecutionStep) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.ExecutionStep = step
		r.byID[id] = c
	}
	return nil
}

func (r *MemoryCampaignRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// Len returns the number of stored campaigns
func (r *MemoryCampaignRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func applyCampaignDefaults(c *models.Campaign) {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.CampaignStatusDraft
	}
	if c.ExecutionStep == "" {
		c.ExecutionStep = models.ExecutionStepNone
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
}

func campaignMatches(c models.Campaign, f models.CampaignFilter) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if f.UUID != nil && c.UUID != *f.UUID {
		return false
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Type != nil && c.Type != *f.Type {
		return false
	}
	if f.ExecutionStep != nil && c.ExecutionStep != *f.ExecutionStep {
		return false
	}
	if f.MailingListID != nil && (c.MailingListID == nil || *c.MailingListID != *f.MailingListID) {
		return false
	}
	if f.NameContains != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*f.NameContains)) {
		return false
	}
	if f.CreatedAfter != nil && c.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && c.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

func pageCampaigns(items []models.Campaign, limit, offset int) []*models.Campaign {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	out := make([]*models.Campaign, 0, len(items))
	for i := range items {
		c := items[i]
		out = append(out, &c)
	}
	return out
}

// MemoryContactRepository is an in-memory repository.ContactRepository
type MemoryContactRepository struct {
	mu     sync.RWMutex
	byID   map[uint]models.Contact
	nextID uint
}

// NewMemoryContactRepository creates an empty contact store
func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{byID: make(map[uint]models.Contact)}
}

func (r *MemoryContactRepository) ByID(ctx context.Context, id uint) (*models.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byID[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *MemoryContactRepository) ByUUID(ctx context.Context, contactUUID string) (*models.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byID {
		if c.UUID.String() == contactUUID {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

// ByIDs returns the contacts that exist, in ascending ID order. Unknown IDs
// are dropped silently, matching the database implementation.
func (r *MemoryContactRepository) ByIDs(ctx context.Context, ids []uint) ([]*models.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Contact, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.byID[id]; ok {
			contact := c
			out = append(out, &contact)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryContactRepository) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Contact
	for _, c := range r.byID {
		if contactMatches(c, filter) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.Contact, 0, len(matched))
	for i := range matched {
		c := matched[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *MemoryContactRepository) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, c := range r.byID {
		if contactMatches(c, filter) {
			total++
		}
	}
	return total, nil
}

func (r *MemoryContactRepository) ListOptedIn(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	optIn := true
	return r.ByFilter(ctx, models.ContactFilter{OptIn: &optIn}, "id ASC", limit, offset)
}

func (r *MemoryContactRepository) Save(ctx context.Context, contact *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if contact.ID == 0 {
		r.nextID++
		contact.ID = r.nextID
	} else if contact.ID > r.nextID {
		r.nextID = contact.ID
	}
	if contact.UUID == uuid.Nil {
		contact.UUID = uuid.New()
	}
	if contact.Tier == "" {
		contact.Tier = models.ContactTierStandard
	}
	if contact.OptIn == nil {
		contact.OptIn = utils.ToPtr(true)
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = utils.UTCNow()
	}
	r.byID[contact.ID] = *contact
	return nil
}

func (r *MemoryContactRepository) SaveBatch(ctx context.Context, contacts []*models.Contact) error {
	for _, c := range contacts {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func contactMatches(c models.Contact, f models.ContactFilter) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if f.UUID != nil && c.UUID != *f.UUID {
		return false
	}
	if f.Phone != nil && c.Phone != *f.Phone {
		return false
	}
	if f.Email != nil && (c.Email == nil || *c.Email != *f.Email) {
		return false
	}
	if f.City != nil && (c.City == nil || *c.City != *f.City) {
		return false
	}
	if f.Region != nil && (c.Region == nil || *c.Region != *f.Region) {
		return false
	}
	if f.Tier != nil && c.Tier != *f.Tier {
		return false
	}
	if f.OptIn != nil && utils.IsTrue(c.OptIn) != *f.OptIn {
		return false
	}
	if f.NameContains != nil {
		name := strings.ToLower(c.FirstName + " " + c.LastName)
		if !strings.Contains(name, strings.ToLower(*f.NameContains)) {
			return false
		}
	}
	return true
}

// MemoryMailingListRepository is an in-memory repository.MailingListRepository.
// Member IDs are stored as-is, so lists can reference deleted contacts the way
// production data does.
type MemoryMailingListRepository struct {
	mu      sync.RWMutex
	byID    map[uint]models.MailingList
	members map[uint][]uint
	nextID  uint
}

// NewMemoryMailingListRepository creates an empty mailing list store
func NewMemoryMailingListRepository() *MemoryMailingListRepository {
	return &MemoryMailingListRepository{
		byID:    make(map[uint]models.MailingList),
		members: make(map[uint][]uint),
	}
}

func (r *MemoryMailingListRepository) ByID(ctx context.Context, id uint) (*models.MailingList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.byID[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (r *MemoryMailingListRepository) ByUUID(ctx context.Context, listUUID string) (*models.MailingList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.byID {
		if l.UUID.String() == listUUID {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryMailingListRepository) ByIDs(ctx context.Context, ids []uint) ([]*models.MailingList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.MailingList, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.byID[id]; ok {
			list := l
			out = append(out, &list)
		}
	}
	return out, nil
}

func (r *MemoryMailingListRepository) ByFilter(ctx context.Context, filter models.MailingListFilter, orderBy string, limit, offset int) ([]*models.MailingList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.MailingList
	for _, l := range r.byID {
		if mailingListMatches(l, filter) {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.MailingList, 0, len(matched))
	for i := range matched {
		l := matched[i]
		out = append(out, &l)
	}
	return out, nil
}

func (r *MemoryMailingListRepository) Count(ctx context.Context, filter models.MailingListFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, l := range r.byID {
		if mailingListMatches(l, filter) {
			total++
		}
	}
	return total, nil
}

func (r *MemoryMailingListRepository) Save(ctx context.Context, list *models.MailingList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if list.ID == 0 {
		r.nextID++
		list.ID = r.nextID
	} else if list.ID > r.nextID {
		r.nextID = list.ID
	}
	if list.UUID == uuid.Nil {
		list.UUID = uuid.New()
	}
	if list.Status == "" {
		list.Status = models.MailingListStatusActive
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = utils.UTCNow()
	}
	r.byID[list.ID] = *list
	return nil
}

func (r *MemoryMailingListRepository) SaveBatch(ctx context.Context, lists []*models.MailingList) error {
	for _, l := range lists {
		if err := r.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryMailingListRepository) Update(ctx context.Context, list models.MailingList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[list.ID] = list
	return nil
}

func (r *MemoryMailingListRepository) MemberContactIDs(ctx context.Context, listID uint) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]uint(nil), r.members[listID]...), nil
}

func (r *MemoryMailingListRepository) ReplaceMembers(ctx context.Context, listID uint, contactIDs []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[listID] = append([]uint(nil), contactIDs...)
	return nil
}

func mailingListMatches(l models.MailingList, f models.MailingListFilter) bool {
	if f.ID != nil && l.ID != *f.ID {
		return false
	}
	if f.UUID != nil && l.UUID != *f.UUID {
		return false
	}
	if f.Status != nil && l.Status != *f.Status {
		return false
	}
	if f.CampaignID != nil && (l.CampaignID == nil || *l.CampaignID != *f.CampaignID) {
		return false
	}
	if f.NameContains != nil && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(*f.NameContains)) {
		return false
	}
	return true
}

// MemoryCampaignReportRepository is an in-memory
// repository.CampaignReportRepository. One row per campaign; Upsert is
// last-write-wins.
type MemoryCampaignReportRepository struct {
	mu         sync.RWMutex
	byCampaign map[uint]models.CampaignReport
	nextID     uint
}

// NewMemoryCampaignReportRepository creates an empty report store
func NewMemoryCampaignReportRepository() *MemoryCampaignReportRepository {
	return &MemoryCampaignReportRepository{byCampaign: make(map[uint]models.CampaignReport)}
}

func (r *MemoryCampaignReportRepository) ByID(ctx context.Context, id uint) (*models.CampaignReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, report := range r.byCampaign {
		if report.ID == id {
			out := report
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryCampaignReportRepository) ByCampaignID(ctx context.Context, campaignID uint) (*models.CampaignReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if report, ok := r.byCampaign[campaignID]; ok {
		return &report, nil
	}
	return nil, nil
}

func (r *MemoryCampaignReportRepository) ByFilter(ctx context.Context, filter models.CampaignReportFilter, orderBy string, limit, offset int) ([]*models.CampaignReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.CampaignReport
	for _, report := range r.byCampaign {
		if reportMatches(report, filter) {
			copied := report
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryCampaignReportRepository) Count(ctx context.Context, filter models.CampaignReportFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, report := range r.byCampaign {
		if reportMatches(report, filter) {
			total++
		}
	}
	return total, nil
}

func (r *MemoryCampaignReportRepository) Save(ctx context.Context, report *models.CampaignReport) error {
	return r.Upsert(ctx, report)
}

func (r *MemoryCampaignReportRepository) SaveBatch(ctx context.Context, reports []*models.CampaignReport) error {
	for _, report := range reports {
		if err := r.Upsert(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

// Upsert stores the report, overwriting any prior report for the campaign
// while preserving the original row identity and creation time
func (r *MemoryCampaignReportRepository) Upsert(ctx context.Context, report *models.CampaignReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byCampaign[report.CampaignID]; ok {
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
		now := utils.UTCNow()
		report.UpdatedAt = &now
	} else {
		r.nextID++
		report.ID = r.nextID
		if report.CreatedAt.IsZero() {
			report.CreatedAt = utils.UTCNow()
		}
	}
	r.byCampaign[report.CampaignID] = *report
	return nil
}

func reportMatches(report models.CampaignReport, f models.CampaignReportFilter) bool {
	if f.ID != nil && report.ID != *f.ID {
		return false
	}
	if f.CampaignID != nil && report.CampaignID != *f.CampaignID {
		return false
	}
	if f.BudgetWarning != nil && report.BudgetWarning != *f.BudgetWarning {
		return false
	}
	if f.Goal != nil && report.Goal != *f.Goal {
		return false
	}
	return true
}

// MemoryExecutionRecordRepository is an in-memory
// repository.ExecutionRecordRepository. Records are append-only.
type MemoryExecutionRecordRepository struct {
	mu      sync.RWMutex
	records []models.ExecutionRecord
	nextID  uint

	// SaveErr, when set, is returned by Save to simulate storage failures
	SaveErr error
}

// NewMemoryExecutionRecordRepository creates an empty execution record store
func NewMemoryExecutionRecordRepository() *MemoryExecutionRecordRepository {
	return &MemoryExecutionRecordRepository{}
}

func (r *MemoryExecutionRecordRepository) ByID(ctx context.Context, id uint) (*models.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, record := range r.records {
		if record.ID == id {
			out := record
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryExecutionRecordRepository) ByFilter(ctx context.Context, filter models.ExecutionRecordFilter, orderBy string, limit, offset int) ([]*models.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.ExecutionRecord
	for i := range r.records {
		if executionMatches(r.records[i], filter) {
			record := r.records[i]
			out = append(out, &record)
		}
	}
	return out, nil
}

func (r *MemoryExecutionRecordRepository) Count(ctx context.Context, filter models.ExecutionRecordFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for i := range r.records {
		if executionMatches(r.records[i], filter) {
			total++
		}
	}
	return total, nil
}

func (r *MemoryExecutionRecordRepository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	record.ID = r.nextID
	if record.UUID == uuid.Nil {
		record.UUID = uuid.New()
	}
	if record.ExecutedAt.IsZero() {
		record.ExecutedAt = utils.UTCNow()
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *MemoryExecutionRecordRepository) SaveBatch(ctx context.Context, records []*models.ExecutionRecord) error {
	for _, record := range records {
		if err := r.Save(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// LatestByCampaignID returns the newest record for the campaign
func (r *MemoryExecutionRecordRepository) LatestByCampaignID(ctx context.Context, campaignID uint) (*models.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.ExecutionRecord
	for i := range r.records {
		if r.records[i].CampaignID != campaignID {
			continue
		}
		if latest == nil || r.records[i].ID > latest.ID {
			record := r.records[i]
			latest = &record
		}
	}
	return latest, nil
}

// ListByCampaignID returns the campaign's records, newest first
func (r *MemoryExecutionRecordRepository) ListByCampaignID(ctx context.Context, campaignID uint, limit, offset int) ([]*models.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.ExecutionRecord
	for i := range r.records {
		if r.records[i].CampaignID == campaignID {
			matched = append(matched, r.records[i])
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.ExecutionRecord, 0, len(matched))
	for i := range matched {
		record := matched[i]
		out = append(out, &record)
	}
	return out, nil
}

func executionMatches(record models.ExecutionRecord, f models.ExecutionRecordFilter) bool {
	if f.ID != nil && record.ID != *f.ID {
		return false
	}
	if f.UUID != nil && record.UUID != *f.UUID {
		return false
	}
	if f.CampaignID != nil && record.CampaignID != *f.CampaignID {
		return false
	}
	if f.Durable != nil && record.Durable != *f.Durable {
		return false
	}
	if f.ExecutedAfter != nil && record.ExecutedAt.Before(*f.ExecutedAfter) {
		return false
	}
	if f.ExecutedBefore != nil && record.ExecutedAt.After(*f.ExecutedBefore) {
		return false
	}
	return true
}

// MemoryMessageTemplateRepository is an in-memory
// repository.MessageTemplateRepository
type MemoryMessageTemplateRepository struct {
	mu     sync.RWMutex
	byID   map[uint]models.MessageTemplate
	nextID uint
}

// NewMemoryMessageTemplateRepository creates an empty template store
func NewMemoryMessageTemplateRepository() *MemoryMessageTemplateRepository {
	return &MemoryMessageTemplateRepository{byID: make(map[uint]models.MessageTemplate)}
}

func (r *MemoryMessageTemplateRepository) ByID(ctx context.Context, id uint) (*models.MessageTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.byID[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *MemoryMessageTemplateRepository) ByUUID(ctx context.Context, templateUUID string) (*models.MessageTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.byID {
		if t.UUID.String() == templateUUID {
			out := t
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryMessageTemplateRepository) ByFilter(ctx context.Context, filter models.MessageTemplateFilter, orderBy string, limit, offset int) ([]*models.MessageTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.MessageTemplate
	for _, t := range r.byID {
		if templateMatches(t, filter) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.MessageTemplate, 0, len(matched))
	for i := range matched {
		t := matched[i]
		out = append(out, &t)
	}
	return out, nil
}

func (r *MemoryMessageTemplateRepository) Count(ctx context.Context, filter models.MessageTemplateFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, t := range r.byID {
		if templateMatches(t, filter) {
			total++
		}
	}
	return total, nil
}

func (r *MemoryMessageTemplateRepository) Save(ctx context.Context, template *models.MessageTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if template.ID == 0 {
		r.nextID++
		template.ID = r.nextID
	} else if template.ID > r.nextID {
		r.nextID = template.ID
	}
	if template.UUID == uuid.Nil {
		template.UUID = uuid.New()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = utils.UTCNow()
	}
	r.byID[template.ID] = *template
	return nil
}

func (r *MemoryMessageTemplateRepository) SaveBatch(ctx context.Context, templates []*models.MessageTemplate) error {
	for _, t := range templates {
		if err := r.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func templateMatches(t models.MessageTemplate, f models.MessageTemplateFilter) bool {
	if f.ID != nil && t.ID != *f.ID {
		return false
	}
	if f.UUID != nil && t.UUID != *f.UUID {
		return false
	}
	if f.Name != nil && t.Name != *f.Name {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	return true
}

// MemoryAuditLogRepository is an in-memory repository.AuditLogRepository
type MemoryAuditLogRepository struct {
	mu     sync.RWMutex
	logs   []models.AuditLog
	nextID uint
}

// NewMemoryAuditLogRepository creates an empty audit log store
func NewMemoryAuditLogRepository() *MemoryAuditLogRepository {
	return &MemoryAuditLogRepository{}
}

func (r *MemoryAuditLogRepository) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.logs {
		if r.logs[i].ID == id {
			out := r.logs[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryAuditLogRepository) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.AuditLog
	for i := range r.logs {
		if auditMatches(r.logs[i], filter) {
			entry := r.logs[i]
			out = append(out, &entry)
		}
	}
	return out, nil
}

func (r *MemoryAuditLogRepository) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for i := range r.logs {
		if auditMatches(r.logs[i], filter) {
			total++
		}
	}
	return total, nil
}

func (r *MemoryAuditLogRepository) Save(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = utils.UTCNow()
	}
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *MemoryAuditLogRepository) SaveBatch(ctx context.Context, entries []*models.AuditLog) error {
	for _, entry := range entries {
		if err := r.Save(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryAuditLogRepository) ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.ByFilter(ctx, models.AuditLogFilter{CampaignID: &campaignID}, "id ASC", limit, offset)
}

func (r *MemoryAuditLogRepository) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	success := false
	return r.ByFilter(ctx, models.AuditLogFilter{Success: &success}, "id ASC", limit, offset)
}

// Actions returns the recorded action names in insertion order
func (r *MemoryAuditLogRepository) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.logs))
	for i := range r.logs {
		out = append(out, r.logs[i].Action)
	}
	return out
}

func auditMatches(entry models.AuditLog, f models.AuditLogFilter) bool {
	if f.ID != nil && entry.ID != *f.ID {
		return false
	}
	if f.CampaignID != nil && (entry.CampaignID == nil || *entry.CampaignID != *f.CampaignID) {
		return false
	}
	if f.Action != nil && entry.Action != *f.Action {
		return false
	}
	if f.Success != nil && (entry.Success == nil || *entry.Success != *f.Success) {
		return false
	}
	if f.RequestID != nil && (entry.RequestID == nil || *entry.RequestID != *f.RequestID) {
		return false
	}
	if f.CreatedAfter != nil && entry.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && entry.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

// Interface conformance checks
var (
	_ repository.CampaignRepository        = (*MemoryCampaignRepository)(nil)
	_ repository.ContactRepository         = (*MemoryContactRepository)(nil)
	_ repository.MailingListRepository     = (*MemoryMailingListRepository)(nil)
	_ repository.CampaignReportRepository  = (*MemoryCampaignReportRepository)(nil)
	_ repository.ExecutionRecordRepository = (*MemoryExecutionRecordRepository)(nil)
	_ repository.MessageTemplateRepository = (*MemoryMessageTemplateRepository)(nil)
	_ repository.AuditLogRepository        = (*MemoryAuditLogRepository)(nil)
)
