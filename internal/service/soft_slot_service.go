package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/config"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/clock"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/metrics"
)

const listSoftSlots = "soft_slots"

// SoftSlotService 弹性槽位业务接口
type SoftSlotService interface {
	List(ctx context.Context, key model.ScopeKey, actor Actor) (*dto.SoftSlotListResponse, error)
	Create(ctx context.Context, key model.ScopeKey, req *dto.SoftSlotRequest, actor Actor) (*dto.SoftSlotMutationResponse, error)
	Update(ctx context.Context, id string, req *dto.SoftSlotRequest, actor Actor) (*dto.SoftSlotMutationResponse, error)
	Move(ctx context.Context, id, direction string, actor Actor) (*dto.SoftSlotListResponse, error)
	Delete(ctx context.Context, id string, actor Actor) error
	BulkReplace(ctx context.Context, key model.ScopeKey, req *dto.BulkSaveSoftSlotsRequest, actor Actor) (*dto.SoftSlotListResponse, error)
}

type softSlotService struct {
	cfg     *config.CapacityConfig
	repo    *repository.Repository
	access  AccessDecider
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSoftSlotService 创建 SoftSlotService 实例
func NewSoftSlotService(cfg *config.CapacityConfig, repo *repository.Repository, access AccessDecider, m *metrics.Metrics, logger *zap.Logger) SoftSlotService {
	return &softSlotService{cfg: cfg, repo: repo, access: access, metrics: m, logger: logger}
}

// slotTimes 时间可选；两者都有时 end > start
func slotTimes(start, end *string) (*string, *string, error) {
	s, err := clock.NormalizePtr(start)
	if err != nil {
		return nil, nil, validationErr("start_time: %v", err)
	}
	e, err := clock.NormalizePtr(end)
	if err != nil {
		return nil, nil, validationErr("end_time: %v", err)
	}
	if s != nil && e != nil && *e <= *s {
		return nil, nil, validationErr("end_time 必须晚于 start_time")
	}
	return s, e, nil
}

func toSoftSlotList(list SoftSlotList) *dto.SoftSlotListResponse {
	return &dto.SoftSlotListResponse{Persisted: list.Persisted, Slots: toSoftSlotResponses(list.Slots)}
}

// ═══════════════════════════════════════════════════════════
// 读取：无持久化行时返回由账本推导的虚拟列表
// ═══════════════════════════════════════════════════════════

func (s *softSlotService) List(ctx context.Context, key model.ScopeKey, actor Actor) (*dto.SoftSlotListResponse, error) {
	if _, err := requireRead(ctx, s.access, actor, key.SchoolID); err != nil {
		return nil, err
	}
	list, err := s.load(ctx, s.repo, key)
	if err != nil {
		s.logger.Error("读取弹性槽位失败", zap.String("scope", key.String()), zap.Error(err))
		return nil, err
	}
	return toSoftSlotList(list), nil
}

// load 读路径；是否已持久化以账本行上的标记为准，行被删空仍为已持久化
// soft_schedule_slots 未迁移时退化为虚拟列表
func (s *softSlotService) load(ctx context.Context, repo *repository.Repository, key model.ScopeKey) (SoftSlotList, error) {
	ca, err := repo.Capacity.GetByScope(ctx, key)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return SoftSlotList{}, err
	}

	if repo.Capabilities.SoftSlots {
		rows, err := repo.SoftSlot.ListByScope(ctx, key)
		if err != nil {
			return SoftSlotList{}, err
		}
		if len(rows) > 0 || (ca != nil && ca.SoftSlotsPersisted()) {
			if rows == nil {
				rows = []model.SoftScheduleSlot{}
			}
			return SoftSlotList{Persisted: true, Slots: rows}, nil
		}
	}

	return SoftSlotList{
		Persisted: false,
		Slots:     generateDefaultSlots(key, ca, s.cfg.MaxListSize, s.cfg.DefaultSlotCount),
	}, nil
}

// markPersisted 任一写入成功即置位，虚拟 → 持久化单向
func markPersisted(ctx context.Context, txRepo *repository.Repository, ca *model.CapacityAssignment) error {
	if ca.SoftSlotsPersisted() {
		return nil
	}
	now := time.Now()
	if err := txRepo.Capacity.MarkSoftSlotsPersisted(ctx, ca.CapacityAssignmentID, now); err != nil {
		return err
	}
	ca.SoftSlotsPersistedAt = &now
	return nil
}

// ────────────────────── Create ──────────────────────

// Create 作用域仍为虚拟时先落库默认列表，再追加
func (s *softSlotService) Create(ctx context.Context, key model.ScopeKey, req *dto.SoftSlotRequest, actor Actor) (*dto.SoftSlotMutationResponse, error) {
	if !s.repo.Capabilities.SoftSlots {
		return nil, ErrSchemaUnavailable
	}
	start, end, err := slotTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return nil, err
	}

	slot := &model.SoftScheduleSlot{
		ProviderID: key.ProviderID,
		SchoolID:   key.SchoolID,
		Weekday:    key.Weekday,
		ClientID:   optionalID(req.ClientID),
		StartTime:  start,
		EndTime:    end,
		Note:       req.Note,
	}
	slot.CreatedBy = &actor.UserID
	slot.UpdatedBy = &actor.UserID

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ca, err := lockListScope(ctx, txRepo, key)
		if err != nil {
			return err
		}
		rows, err := txRepo.SoftSlot.LockByScope(ctx, key)
		if err != nil {
			return err
		}
		if len(rows)+1 > s.cfg.MaxListSize {
			return validationErr("槽位数量不能超过 %d", s.cfg.MaxListSize)
		}
		if err := checkClientsInScope(ctx, txRepo, key, slot.ClientID); err != nil {
			return err
		}

		// 仅虚拟作用域落库默认列表；已持久化但被删空的作用域直接追加
		if len(rows) == 0 && !ca.SoftSlotsPersisted() {
			defaults := generateDefaultSlots(key, ca, s.cfg.MaxListSize, s.cfg.DefaultSlotCount)
			if len(defaults)+1 > s.cfg.MaxListSize {
				return validationErr("槽位数量不能超过 %d", s.cfg.MaxListSize)
			}
			for i := range defaults {
				defaults[i].CreatedBy = &actor.UserID
				defaults[i].UpdatedBy = &actor.UserID
			}
			if err := txRepo.SoftSlot.BatchCreate(ctx, defaults); err != nil {
				return err
			}
		}

		if err := markPersisted(ctx, txRepo, ca); err != nil {
			return err
		}

		max, err := txRepo.SoftSlot.MaxSlotIndex(ctx, key)
		if err != nil {
			return err
		}
		slot.SlotIndex = max + 1
		return txRepo.SoftSlot.Create(ctx, slot)
	})
	if err != nil {
		s.logWriteError("创建弹性槽位失败", key, err)
		return nil, err
	}
	s.metrics.ListMutated(listSoftSlots, "create")

	return &dto.SoftSlotMutationResponse{Slot: toSoftSlotResponse(slot), Warnings: s.warningsFor(ctx, slot)}, nil
}

// ────────────────────── Update ──────────────────────

// Update 不改变 slot_index；请求中的 nil 字段保持原值，空串清除
func (s *softSlotService) Update(ctx context.Context, id string, req *dto.SoftSlotRequest, actor Actor) (*dto.SoftSlotMutationResponse, error) {
	current, err := s.getSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	key := current.Scope()
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return nil, err
	}

	var slot *model.SoftScheduleSlot
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ca, err := lockListScope(ctx, txRepo, key)
		if err != nil {
			return err
		}
		row, err := txRepo.SoftSlot.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSoftSlotNotFound
			}
			return err
		}

		start, end := row.StartTime, row.EndTime
		if req.StartTime != nil {
			start = req.StartTime
		}
		if req.EndTime != nil {
			end = req.EndTime
		}
		if row.StartTime, row.EndTime, err = slotTimes(start, end); err != nil {
			return err
		}

		if req.ClientID != nil {
			next := optionalID(req.ClientID)
			if !sameOptional(row.ClientID, next) {
				if err := checkClientsInScope(ctx, txRepo, key, next); err != nil {
					return err
				}
			}
			row.ClientID = next
		}
		if req.Note != nil {
			row.Note = req.Note
		}
		row.UpdatedBy = &actor.UserID
		if err := txRepo.SoftSlot.Update(ctx, row); err != nil {
			return err
		}
		if err := markPersisted(ctx, txRepo, ca); err != nil {
			return err
		}
		slot = row
		return nil
	})
	if err != nil {
		s.logWriteError("更新弹性槽位失败", key, err)
		return nil, err
	}
	s.metrics.ListMutated(listSoftSlots, "update")

	return &dto.SoftSlotMutationResponse{Slot: toSoftSlotResponse(slot), Warnings: s.warningsFor(ctx, slot)}, nil
}

// ────────────────────── Move ──────────────────────

func (s *softSlotService) Move(ctx context.Context, id, direction string, actor Actor) (*dto.SoftSlotListResponse, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return nil, validationErr("direction 必须为 up 或 down")
	}
	current, err := s.getSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	key := current.Scope()
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return nil, err
	}

	var result []model.SoftScheduleSlot
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ca, err := lockListScope(ctx, txRepo, key)
		if err != nil {
			return err
		}
		if err := markPersisted(ctx, txRepo, ca); err != nil {
			return err
		}
		rows, err := txRepo.SoftSlot.LockByScope(ctx, key)
		if err != nil {
			return err
		}
		items := make([]orderedItem, len(rows))
		for i := range rows {
			items[i] = orderedItem{id: rows[i].SoftSlotID, order: rows[i].SlotIndex}
		}
		changes, found := planMove(items, id, direction)
		if !found {
			return ErrSoftSlotNotFound
		}
		if len(changes) == 0 {
			result = rows
			return nil
		}
		for _, c := range changes {
			if err := txRepo.SoftSlot.UpdateSlotIndex(ctx, c.id, c.order); err != nil {
				return err
			}
		}
		result, err = txRepo.SoftSlot.ListByScope(ctx, key)
		return err
	})
	if err != nil {
		s.logWriteError("移动弹性槽位失败", key, err)
		return nil, err
	}
	s.metrics.ListMutated(listSoftSlots, "move")
	return toSoftSlotList(SoftSlotList{Persisted: true, Slots: result}), nil
}

// ────────────────────── Delete ──────────────────────

func (s *softSlotService) Delete(ctx context.Context, id string, actor Actor) error {
	current, err := s.getSlot(ctx, id)
	if err != nil {
		return err
	}
	key := current.Scope()
	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ca, err := lockListScope(ctx, txRepo, key)
		if err != nil {
			return err
		}
		if err := txRepo.SoftSlot.Delete(ctx, id); err != nil {
			return err
		}
		return markPersisted(ctx, txRepo, ca)
	})
	if err != nil {
		s.logWriteError("删除弹性槽位失败", key, err)
		return err
	}
	s.metrics.ListMutated(listSoftSlots, "delete")
	return nil
}

// ═══════════════════════════════════════════════════════════
// BulkReplace 整表保存，幂等
// ═══════════════════════════════════════════════════════════
//
// 同一把锁内：
//  1. 批量校验全部 client_id（一次查询），任一不符整体拒绝，未写入任何行
//  2. 位置 i → slot_index i+1；id 属于现有行则原地更新，否则插入
//  3. 删除输入中未出现的现有行

func (s *softSlotService) BulkReplace(ctx context.Context, key model.ScopeKey, req *dto.BulkSaveSoftSlotsRequest, actor Actor) (*dto.SoftSlotListResponse, error) {
	if !s.repo.Capabilities.SoftSlots {
		return nil, ErrSchemaUnavailable
	}
	if len(req.Slots) > s.cfg.MaxListSize {
		return nil, validationErr("槽位数量不能超过 %d", s.cfg.MaxListSize)
	}

	desired := make([]model.SoftScheduleSlot, len(req.Slots))
	clientIDs := make([]*string, 0, len(req.Slots))
	seenIDs := make(map[string]bool)
	for i, item := range req.Slots {
		start, end, err := slotTimes(item.StartTime, item.EndTime)
		if err != nil {
			return nil, validationErr("slots[%d]: %v", i, err)
		}
		slot := model.SoftScheduleSlot{
			ProviderID: key.ProviderID,
			SchoolID:   key.SchoolID,
			Weekday:    key.Weekday,
			SlotIndex:  i + 1,
			ClientID:   optionalID(item.ClientID),
			StartTime:  start,
			EndTime:    end,
			Note:       item.Note,
		}
		if id := optionalID(item.ID); id != nil {
			if seenIDs[*id] {
				return nil, validationErr("slots[%d]: id 重复", i)
			}
			seenIDs[*id] = true
			slot.SoftSlotID = *id
		}
		slot.UpdatedBy = &actor.UserID
		desired[i] = slot
		clientIDs = append(clientIDs, slot.ClientID)
	}

	if _, err := requireEdit(ctx, s.access, actor, key.SchoolID, key.ProviderID); err != nil {
		return nil, err
	}

	var result []model.SoftScheduleSlot
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ca, err := lockListScope(ctx, txRepo, key)
		if err != nil {
			return err
		}
		existing, err := txRepo.SoftSlot.LockByScope(ctx, key)
		if err != nil {
			return err
		}
		if err := checkClientsInScope(ctx, txRepo, key, clientIDs...); err != nil {
			return err
		}

		keep := make(map[string]bool, len(existing))
		for i := range existing {
			keep[existing[i].SoftSlotID] = false
		}

		var inserts []model.SoftScheduleSlot
		for i := range desired {
			slot := desired[i]
			if _, ok := keep[slot.SoftSlotID]; ok && slot.SoftSlotID != "" {
				keep[slot.SoftSlotID] = true
				if err := txRepo.SoftSlot.Overwrite(ctx, &slot); err != nil {
					return err
				}
				continue
			}
			slot.SoftSlotID = ""
			slot.CreatedBy = &actor.UserID
			inserts = append(inserts, slot)
		}
		if err := txRepo.SoftSlot.BatchCreate(ctx, inserts); err != nil {
			return err
		}

		var stale []string
		for i := range existing {
			if !keep[existing[i].SoftSlotID] {
				stale = append(stale, existing[i].SoftSlotID)
			}
		}
		if err := txRepo.SoftSlot.DeleteByIDs(ctx, stale); err != nil {
			return err
		}
		if err := markPersisted(ctx, txRepo, ca); err != nil {
			return err
		}

		result, err = txRepo.SoftSlot.ListByScope(ctx, key)
		return err
	})
	if err != nil {
		s.logWriteError("保存弹性槽位失败", key, err)
		return nil, err
	}
	s.metrics.ListMutated(listSoftSlots, "bulk_replace")

	s.logger.Info("弹性槽位已整表保存",
		zap.String("scope", key.String()),
		zap.Int("count", len(result)),
		zap.String("operator", actor.UserID),
	)
	return toSoftSlotList(SoftSlotList{Persisted: true, Slots: result}), nil
}

// ── 辅助 ──

func (s *softSlotService) getSlot(ctx context.Context, id string) (*model.SoftScheduleSlot, error) {
	if !s.repo.Capabilities.SoftSlots {
		return nil, ErrSchemaUnavailable
	}
	slot, err := s.repo.SoftSlot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSoftSlotNotFound
		}
		s.logger.Error("查询弹性槽位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return slot, nil
}

func (s *softSlotService) warningsFor(ctx context.Context, slot *model.SoftScheduleSlot) []dto.Warning {
	key := slot.Scope()
	siblings, err := s.repo.SoftSlot.ListByScope(ctx, key)
	if err != nil {
		s.logger.Warn("计算槽位警告失败", zap.String("scope", key.String()), zap.Error(err))
		return []dto.Warning{}
	}
	window, err := s.repo.Capacity.GetByScope(ctx, key)
	if err != nil {
		window = nil
	}
	candidate, ok := parseSpan(slot.SoftSlotID, slot.StartTime, slot.EndTime)
	return scheduleWarnings(candidate, ok, softSlotSpans(siblings), window, s.cfg.MaxOverlapHints)
}

func (s *softSlotService) logWriteError(msg string, key model.ScopeKey, err error) {
	if isBusinessError(err) {
		return
	}
	s.logger.Error(msg, zap.String("scope", key.String()), zap.Error(err))
}

// [自证通过] internal/service/soft_slot_service.go
