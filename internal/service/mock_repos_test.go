package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"giveaway-rewards/backend/config"
	"giveaway-rewards/backend/internal/model"
	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/repository"
	pkgerrors "giveaway-rewards/backend/pkg/errors"
)

// ── 内存存储 ──

// mockStore 参与者与流水共用一把锁，模拟参与者行锁
type mockStore struct {
	mu           sync.Mutex
	participants map[string]*model.Participant
	entries      []model.LedgerEntry

	// 注入故障
	getErr      error
	snapshotErr error
	appendErr   error
	createErr   error
}

func newMockStore() *mockStore {
	return &mockStore{participants: make(map[string]*model.Participant)}
}

func (s *mockStore) add(id string, points int, createdAt time.Time) *model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Participant{
		ParticipantID: id,
		DisplayName:   "user-" + id,
		Role:          model.RoleParticipant,
		TotalPoints:   points,
	}
	p.CreatedAt = createdAt
	s.participants[id] = p
	return p
}

func (s *mockStore) entriesOf(id string) []model.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LedgerEntry
	for _, e := range s.entries {
		if e.ParticipantID == id {
			out = append(out, e)
		}
	}
	return out
}

// ── Mock ParticipantRepository ──

type mockParticipantRepo struct {
	store *mockStore
}

func (m *mockParticipantRepo) Create(_ context.Context, p *model.Participant) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.createErr != nil {
		return m.store.createErr
	}
	if p.ParticipantID == "" {
		p.ParticipantID = "p-" + p.DisplayName
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now().UTC()
	}
	cp := *p
	m.store.participants[p.ParticipantID] = &cp
	return nil
}

func (m *mockParticipantRepo) GetByID(_ context.Context, id string) (*model.Participant, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.getErr != nil {
		return nil, m.store.getErr
	}
	if p, ok := m.store.participants[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockParticipantRepo) Exists(_ context.Context, id string) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	_, ok := m.store.participants[id]
	return ok, nil
}

func (m *mockParticipantRepo) UpdateProfile(_ context.Context, p *model.Participant) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cur, ok := m.store.participants[p.ParticipantID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.DisplayName = p.DisplayName
	cur.AvatarRef = p.AvatarRef
	cur.UpdatedBy = p.UpdatedBy
	return nil
}

func (m *mockParticipantRepo) Activate(_ context.Context, id string, at time.Time, _ string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.participants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !p.Activated {
		p.Activated = true
		t := at.UTC()
		p.ActivatedAt = &t
	}
	return nil
}

func (m *mockParticipantRepo) SetRole(_ context.Context, id, role, _ string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.participants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Role = role
	return nil
}

func (m *mockParticipantRepo) Snapshot(_ context.Context) ([]model.Participant, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.snapshotErr != nil {
		return nil, m.store.snapshotErr
	}
	out := make([]model.Participant, 0, len(m.store.participants))
	for _, p := range m.store.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

// ── Mock LedgerRepository ──

type mockLedgerRepo struct {
	store *mockStore
}

func (m *mockLedgerRepo) sumLocked(id string, since *time.Time) int {
	sum := 0
	for _, e := range m.store.entries {
		if e.ParticipantID != id {
			continue
		}
		if since != nil && e.CreatedAt.Before(*since) {
			continue
		}
		sum += e.Points
	}
	return sum
}

func (m *mockLedgerRepo) AppendWithinCap(_ context.Context, entry *model.LedgerEntry, dailyCap int, since time.Time) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.appendErr != nil {
		return 0, m.store.appendErr
	}
	p, ok := m.store.participants[entry.ParticipantID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if entry.Points == 0 {
		return p.TotalPoints, nil
	}
	if err := policy.Decide(m.sumLocked(entry.ParticipantID, &since), entry.Points, dailyCap); err != nil {
		return p.TotalPoints, err
	}
	if entry.LedgerEntryID == "" {
		entry.LedgerEntryID = "le-" + time.Now().Format("150405.000000000")
	}
	m.store.entries = append(m.store.entries, *entry)
	p.TotalPoints += entry.Points
	return p.TotalPoints, nil
}

func (m *mockLedgerRepo) SumSince(_ context.Context, id string, since time.Time) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.sumLocked(id, &since), nil
}

func (m *mockLedgerRepo) SumAll(_ context.Context, id string) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.sumLocked(id, nil), nil
}

func (m *mockLedgerRepo) ListByParticipant(_ context.Context, id string, offset, limit int) ([]model.LedgerEntry, int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var list []model.LedgerEntry
	for i := len(m.store.entries) - 1; i >= 0; i-- {
		if m.store.entries[i].ParticipantID == id {
			list = append(list, m.store.entries[i])
		}
	}
	total := int64(len(list))
	if offset >= len(list) {
		return []model.LedgerEntry{}, total, nil
	}
	end := min(offset+limit, len(list))
	return list[offset:end], total, nil
}

func (m *mockLedgerRepo) Reconcile(_ context.Context, id string) (int, int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.participants[id]
	if !ok {
		return 0, 0, gorm.ErrRecordNotFound
	}
	before := p.TotalPoints
	p.TotalPoints = m.sumLocked(id, nil)
	return before, p.TotalPoints, nil
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct {
	mu     sync.Mutex
	row    *model.RewardSettings
	getErr error
	gets   int
}

func (m *mockSettingsRepo) Get(_ context.Context) (*model.RewardSettings, error) {
	m.mu.Lock()
	m.gets++
	m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.row
	return &cp, nil
}

func (m *mockSettingsRepo) Create(_ context.Context, s *model.RewardSettings) error {
	s.Singleton = true
	s.Version = 1
	cp := *s
	m.row = &cp
	return nil
}

func (m *mockSettingsRepo) Update(_ context.Context, s *model.RewardSettings) error {
	if m.row == nil || m.row.Version != s.Version {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version++
	cp := *s
	m.row = &cp
	return nil
}

// ── Mock DuplicateGuard ──

type mockDedup struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
	err      error
}

func newMockDedup() *mockDedup {
	return &mockDedup{claimed: make(map[string]bool)}
}

func (m *mockDedup) ClaimOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

func (m *mockDedup) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, key)
	m.released = append(m.released, key)
	return nil
}

// ── 测试辅助 ──

var testDay = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// freezeTime 固定 now()，测试结束后恢复
func freezeTime(t interface{ Cleanup(func()) }, at time.Time) {
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func testRewardsConfig() *config.RewardsConfig {
	return &config.RewardsConfig{
		LeaderboardCap: 60,
		DailyPointsCap: 100,
		Timezone:       "UTC",
		Actions: map[string]int{
			"share_native": 10,
			"share_copy":   5,
			"big_action":   60,
			"free":         0,
		},
	}
}

func newTestRepository() (*repository.Repository, *mockStore, *mockSettingsRepo) {
	store := newMockStore()
	settings := &mockSettingsRepo{}
	repo := &repository.Repository{
		Participant: &mockParticipantRepo{store: store},
		Ledger:      &mockLedgerRepo{store: store},
		Settings:    settings,
	}
	return repo, store, settings
}
