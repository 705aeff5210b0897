package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
	pkgerrors "github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// memStore 内存存储：所有 mock repo 共享，RunInTx 以快照实现回滚
// ═══════════════════════════════════════════════════════════

type memStore struct {
	seq      int
	capacity map[string]model.CapacityAssignment
	clients  map[string]model.Client
	settings map[string]model.ProviderSettings
	changes  []model.ClientAssignmentChange
	entries  map[string]model.ScheduleEntry
	slots    map[string]model.SoftScheduleSlot

	// 故障注入
	failSetAssignment error
	failChangeCreate  error

	lockLog     []string // LockScope 调用顺序
	txCount     int
	clientQuery int // FilterAssignedInScope 调用次数
}

func newMemStore() *memStore {
	return &memStore{
		capacity: make(map[string]model.CapacityAssignment),
		clients:  make(map[string]model.Client),
		settings: make(map[string]model.ProviderSettings),
		entries:  make(map[string]model.ScheduleEntry),
		slots:    make(map[string]model.SoftScheduleSlot),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

type memSnapshot struct {
	seq      int
	capacity map[string]model.CapacityAssignment
	clients  map[string]model.Client
	settings map[string]model.ProviderSettings
	changes  []model.ClientAssignmentChange
	entries  map[string]model.ScheduleEntry
	slots    map[string]model.SoftScheduleSlot
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		seq:      s.seq,
		capacity: copyMap(s.capacity),
		clients:  copyMap(s.clients),
		settings: copyMap(s.settings),
		changes:  append([]model.ClientAssignmentChange(nil), s.changes...),
		entries:  copyMap(s.entries),
		slots:    copyMap(s.slots),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.seq = snap.seq
	s.capacity = snap.capacity
	s.clients = snap.clients
	s.settings = snap.settings
	s.changes = snap.changes
	s.entries = snap.entries
	s.slots = snap.slots
}

// newMemRepository 组装基于 memStore 的 Repository
func newMemRepository(store *memStore, caps repository.Capabilities) *repository.Repository {
	repo := &repository.Repository{
		Capabilities:     caps,
		Capacity:         &mockCapacityRepo{s: store},
		Client:           &mockClientRepo{s: store},
		ProviderSettings: &mockProviderSettingsRepo{s: store},
		AssignmentChange: &mockAssignmentChangeRepo{s: store},
		ScheduleEntry:    &mockScheduleEntryRepo{s: store},
		SoftSlot:         &mockSoftSlotRepo{s: store},
	}
	repo.RunInTx = func(ctx context.Context, fn func(txRepo *repository.Repository) error) error {
		store.txCount++
		snap := store.snapshot()
		if err := fn(repo); err != nil {
			store.restore(snap)
			return err
		}
		return nil
	}
	return repo
}

func scopeMatch(k model.ScopeKey, provider, school, day string) bool {
	return k.ProviderID == provider && k.SchoolID == school && k.Weekday == day
}

// ── Mock CapacityRepository ──

type mockCapacityRepo struct{ s *memStore }

func (m *mockCapacityRepo) find(key model.ScopeKey) (model.CapacityAssignment, bool) {
	for _, ca := range m.s.capacity {
		if scopeMatch(key, ca.ProviderID, ca.SchoolID, ca.Weekday) {
			return ca, true
		}
	}
	return model.CapacityAssignment{}, false
}

func (m *mockCapacityRepo) GetByScope(_ context.Context, key model.ScopeKey) (*model.CapacityAssignment, error) {
	ca, ok := m.find(key)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &ca, nil
}

func (m *mockCapacityRepo) GetActiveForUpdate(_ context.Context, key model.ScopeKey) (*model.CapacityAssignment, error) {
	ca, ok := m.find(key)
	if !ok || !ca.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return &ca, nil
}

func (m *mockCapacityRepo) LockScope(_ context.Context, key model.ScopeKey) (*model.CapacityAssignment, error) {
	m.s.lockLog = append(m.s.lockLog, key.String())
	ca, ok := m.find(key)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &ca, nil
}

func (m *mockCapacityRepo) ListByProvider(_ context.Context, providerID, schoolID string) ([]model.CapacityAssignment, error) {
	var rows []model.CapacityAssignment
	for _, ca := range m.s.capacity {
		if ca.ProviderID != providerID || (schoolID != "" && ca.SchoolID != schoolID) {
			continue
		}
		rows = append(rows, ca)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Scope().Less(rows[j].Scope()) })
	return rows, nil
}

func (m *mockCapacityRepo) Create(_ context.Context, ca *model.CapacityAssignment) error {
	if _, ok := m.find(ca.Scope()); ok {
		return errors.New("duplicate key value violates unique constraint \"uq_capacity_scope\"")
	}
	if ca.CapacityAssignmentID == "" {
		ca.CapacityAssignmentID = m.s.nextID("cap")
	}
	if ca.Version == 0 {
		ca.Version = 1
	}
	ca.CreatedAt = time.Now()
	ca.UpdatedAt = ca.CreatedAt
	m.s.capacity[ca.CapacityAssignmentID] = *ca
	return nil
}

func (m *mockCapacityRepo) Update(_ context.Context, ca *model.CapacityAssignment) error {
	cur, ok := m.s.capacity[ca.CapacityAssignmentID]
	if !ok || cur.Version != ca.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ca.Version++
	ca.UpdatedAt = time.Now()
	m.s.capacity[ca.CapacityAssignmentID] = *ca
	return nil
}

func (m *mockCapacityRepo) UpdateAvailable(_ context.Context, id string, available int, forcedAt *time.Time) error {
	ca, ok := m.s.capacity[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ca.SlotsAvailable = available
	if forcedAt != nil {
		ca.ForcedOverCapacityAt = forcedAt
	}
	m.s.capacity[id] = ca
	return nil
}

func (m *mockCapacityRepo) MarkSoftSlotsPersisted(_ context.Context, id string, at time.Time) error {
	ca, ok := m.s.capacity[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if ca.SoftSlotsPersistedAt == nil {
		ca.SoftSlotsPersistedAt = &at
		m.s.capacity[id] = ca
	}
	return nil
}

// ── Mock ClientRepository ──

type mockClientRepo struct{ s *memStore }

func (m *mockClientRepo) GetByID(_ context.Context, id string) (*model.Client, error) {
	c, ok := m.s.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *mockClientRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Client, error) {
	return m.GetByID(ctx, id)
}

func (m *mockClientRepo) ListByIDs(_ context.Context, ids []string) ([]model.Client, error) {
	var out []model.Client
	for _, id := range ids {
		if c, ok := m.s.clients[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockClientRepo) SetAssignment(_ context.Context, id string, providerID, serviceDay *string, updatedBy string) error {
	if m.s.failSetAssignment != nil {
		return m.s.failSetAssignment
	}
	c, ok := m.s.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.ProviderID, c.ServiceDay = providerID, serviceDay
	c.UpdatedBy = &updatedBy
	m.s.clients[id] = c
	return nil
}

func (m *mockClientRepo) inScope(c model.Client, key model.ScopeKey) bool {
	scope, ok := c.AssignedScope()
	return ok && scope == key
}

func (m *mockClientRepo) CountAssignedInScope(_ context.Context, key model.ScopeKey) (int64, error) {
	var n int64
	for _, c := range m.s.clients {
		if m.inScope(c, key) {
			n++
		}
	}
	return n, nil
}

func (m *mockClientRepo) FilterAssignedInScope(_ context.Context, key model.ScopeKey, ids []string) ([]string, error) {
	m.s.clientQuery++
	var out []string
	for _, id := range ids {
		if c, ok := m.s.clients[id]; ok && m.inScope(c, key) {
			out = append(out, id)
		}
	}
	return out, nil
}

// ── Mock ProviderSettingsRepository ──

type mockProviderSettingsRepo struct{ s *memStore }

func (m *mockProviderSettingsRepo) Get(_ context.Context, providerID string) (*model.ProviderSettings, error) {
	ps, ok := m.s.settings[providerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &ps, nil
}

func (m *mockProviderSettingsRepo) Upsert(_ context.Context, ps *model.ProviderSettings) error {
	m.s.settings[ps.ProviderID] = *ps
	return nil
}

// ── Mock AssignmentChangeRepository ──

type mockAssignmentChangeRepo struct{ s *memStore }

func (m *mockAssignmentChangeRepo) Create(_ context.Context, change *model.ClientAssignmentChange) error {
	if m.s.failChangeCreate != nil {
		return m.s.failChangeCreate
	}
	change.ChangeID = m.s.nextID("chg")
	change.CreatedAt = time.Now()
	m.s.changes = append(m.s.changes, *change)
	return nil
}

func (m *mockAssignmentChangeRepo) ListByClient(_ context.Context, clientID string, offset, limit int) ([]model.ClientAssignmentChange, int64, error) {
	var all []model.ClientAssignmentChange
	for i := len(m.s.changes) - 1; i >= 0; i-- {
		if m.s.changes[i].ClientID == clientID {
			all = append(all, m.s.changes[i])
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock ScheduleEntryRepository ──

type mockScheduleEntryRepo struct{ s *memStore }

func sortEntries(rows []model.ScheduleEntry) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ScheduleEntryID < b.ScheduleEntryID
	})
}

func (m *mockScheduleEntryRepo) ListByScope(_ context.Context, key model.ScopeKey) ([]model.ScheduleEntry, error) {
	var rows []model.ScheduleEntry
	for _, e := range m.s.entries {
		if scopeMatch(key, e.ProviderID, e.SchoolID, e.Weekday) {
			rows = append(rows, e)
		}
	}
	sortEntries(rows)
	return rows, nil
}

func (m *mockScheduleEntryRepo) LockByScope(ctx context.Context, key model.ScopeKey) ([]model.ScheduleEntry, error) {
	return m.ListByScope(ctx, key)
}

func (m *mockScheduleEntryRepo) ListByProvider(_ context.Context, providerID, schoolID string) ([]model.ScheduleEntry, error) {
	var rows []model.ScheduleEntry
	for _, e := range m.s.entries {
		if e.ProviderID == providerID && (schoolID == "" || e.SchoolID == schoolID) {
			rows = append(rows, e)
		}
	}
	sortEntries(rows)
	return rows, nil
}

func (m *mockScheduleEntryRepo) GetByID(_ context.Context, id string) (*model.ScheduleEntry, error) {
	e, ok := m.s.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (m *mockScheduleEntryRepo) MaxSortOrder(ctx context.Context, key model.ScopeKey) (int, error) {
	rows, _ := m.ListByScope(ctx, key)
	max := 0
	for _, r := range rows {
		if r.SortOrder > max {
			max = r.SortOrder
		}
	}
	return max, nil
}

func (m *mockScheduleEntryRepo) Create(_ context.Context, entry *model.ScheduleEntry) error {
	if entry.ScheduleEntryID == "" {
		entry.ScheduleEntryID = m.s.nextID("entry")
	}
	m.s.entries[entry.ScheduleEntryID] = *entry
	return nil
}

func (m *mockScheduleEntryRepo) Update(_ context.Context, entry *model.ScheduleEntry) error {
	cur, ok := m.s.entries[entry.ScheduleEntryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order := cur.SortOrder
	cur = *entry
	cur.SortOrder = order
	m.s.entries[entry.ScheduleEntryID] = cur
	return nil
}

func (m *mockScheduleEntryRepo) UpdateSortOrder(_ context.Context, id string, sortOrder int) error {
	cur, ok := m.s.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.SortOrder = sortOrder
	m.s.entries[id] = cur
	return nil
}

func (m *mockScheduleEntryRepo) Delete(_ context.Context, id string) error {
	delete(m.s.entries, id)
	return nil
}

// ── Mock SoftSlotRepository ──

type mockSoftSlotRepo struct{ s *memStore }

func (m *mockSoftSlotRepo) ListByScope(_ context.Context, key model.ScopeKey) ([]model.SoftScheduleSlot, error) {
	var rows []model.SoftScheduleSlot
	for _, sl := range m.s.slots {
		if scopeMatch(key, sl.ProviderID, sl.SchoolID, sl.Weekday) {
			rows = append(rows, sl)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SlotIndex != rows[j].SlotIndex {
			return rows[i].SlotIndex < rows[j].SlotIndex
		}
		return rows[i].SoftSlotID < rows[j].SoftSlotID
	})
	return rows, nil
}

func (m *mockSoftSlotRepo) LockByScope(ctx context.Context, key model.ScopeKey) ([]model.SoftScheduleSlot, error) {
	return m.ListByScope(ctx, key)
}

func (m *mockSoftSlotRepo) GetByID(_ context.Context, id string) (*model.SoftScheduleSlot, error) {
	sl, ok := m.s.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sl, nil
}

func (m *mockSoftSlotRepo) MaxSlotIndex(ctx context.Context, key model.ScopeKey) (int, error) {
	rows, _ := m.ListByScope(ctx, key)
	max := 0
	for _, r := range rows {
		if r.SlotIndex > max {
			max = r.SlotIndex
		}
	}
	return max, nil
}

func (m *mockSoftSlotRepo) Create(_ context.Context, slot *model.SoftScheduleSlot) error {
	if slot.SoftSlotID == "" {
		slot.SoftSlotID = m.s.nextID("slot")
	}
	m.s.slots[slot.SoftSlotID] = *slot
	return nil
}

func (m *mockSoftSlotRepo) BatchCreate(ctx context.Context, slots []model.SoftScheduleSlot) error {
	for i := range slots {
		if err := m.Create(ctx, &slots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockSoftSlotRepo) Update(_ context.Context, slot *model.SoftScheduleSlot) error {
	cur, ok := m.s.slots[slot.SoftSlotID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	idx := cur.SlotIndex
	cur = *slot
	cur.SlotIndex = idx
	m.s.slots[slot.SoftSlotID] = cur
	return nil
}

func (m *mockSoftSlotRepo) Overwrite(_ context.Context, slot *model.SoftScheduleSlot) error {
	if _, ok := m.s.slots[slot.SoftSlotID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.s.slots[slot.SoftSlotID] = *slot
	return nil
}

func (m *mockSoftSlotRepo) UpdateSlotIndex(_ context.Context, id string, slotIndex int) error {
	cur, ok := m.s.slots[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.SlotIndex = slotIndex
	m.s.slots[id] = cur
	return nil
}

func (m *mockSoftSlotRepo) Delete(_ context.Context, id string) error {
	delete(m.s.slots, id)
	return nil
}

func (m *mockSoftSlotRepo) DeleteByIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.s.slots, id)
	}
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
