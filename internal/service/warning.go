package service

import (
	"fmt"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/clock"
)

// ── 冲突/警告引擎（只读、建议性） ──

// span 半开区间 [start, end)，单位：当日分钟
type span struct {
	id    string
	start int
	end   int
}

func parseSpan(id string, start, end *string) (span, bool) {
	if start == nil || end == nil {
		return span{}, false
	}
	s, err := clock.ParseMinutes(*start)
	if err != nil {
		return span{}, false
	}
	e, err := clock.ParseMinutes(*end)
	if err != nil {
		return span{}, false
	}
	return span{id: id, start: s, end: e}, true
}

func (a span) overlaps(b span) bool {
	return b.start < a.end && b.end > a.start
}

// overlapWarning 同作用域、不同 id 的相交行，最多列出 max 条
func overlapWarning(candidate span, siblings []span, max int) *dto.Warning {
	var refs []dto.OverlapRef
	total := 0
	for _, sib := range siblings {
		if sib.id == candidate.id || !candidate.overlaps(sib) {
			continue
		}
		total++
		if len(refs) < max {
			refs = append(refs, dto.OverlapRef{
				ID:        sib.id,
				StartTime: clock.FormatMinutes(sib.start),
				EndTime:   clock.FormatMinutes(sib.end),
			})
		}
	}
	if total == 0 {
		return nil
	}
	return &dto.Warning{
		Type:     dto.WarningOverlap,
		Message:  fmt.Sprintf("与同一作用域内 %d 条记录时间重叠", total),
		Overlaps: refs,
	}
}

// outsideHoursWarning 工作时段存在且候选区间未被完全包含
func outsideHoursWarning(candidate span, window *model.CapacityAssignment) *dto.Warning {
	if window == nil {
		return nil
	}
	w, ok := parseSpan("", window.StartTime, window.EndTime)
	if !ok || w.end <= w.start {
		return nil
	}
	if candidate.start >= w.start && candidate.end <= w.end {
		return nil
	}
	return &dto.Warning{
		Type:    dto.WarningOutsideHours,
		Message: fmt.Sprintf("超出该日工作时段 %s-%s", clock.FormatMinutes(w.start), clock.FormatMinutes(w.end)),
		Window: &dto.TimeWindow{
			StartTime: clock.FormatMinutes(w.start),
			EndTime:   clock.FormatMinutes(w.end),
		},
	}
}

// scheduleWarnings 计算写入后的建议性警告；candidate 无完整时间时返回空
func scheduleWarnings(candidate span, ok bool, siblings []span, window *model.CapacityAssignment, maxHints int) []dto.Warning {
	warnings := []dto.Warning{}
	if !ok {
		return warnings
	}
	if w := overlapWarning(candidate, siblings, maxHints); w != nil {
		warnings = append(warnings, *w)
	}
	if w := outsideHoursWarning(candidate, window); w != nil {
		warnings = append(warnings, *w)
	}
	return warnings
}

func entrySpans(rows []model.ScheduleEntry) []span {
	out := make([]span, 0, len(rows))
	for i := range rows {
		if sp, ok := parseSpan(rows[i].ScheduleEntryID, &rows[i].StartTime, &rows[i].EndTime); ok {
			out = append(out, sp)
		}
	}
	return out
}

func softSlotSpans(rows []model.SoftScheduleSlot) []span {
	out := make([]span, 0, len(rows))
	for i := range rows {
		if sp, ok := parseSpan(rows[i].SoftSlotID, rows[i].StartTime, rows[i].EndTime); ok {
			out = append(out, sp)
		}
	}
	return out
}

func forcedWarning(ca *model.CapacityAssignment) dto.Warning {
	avail := ca.SlotsAvailable
	return dto.Warning{
		Type:           dto.WarningForcedOverCapacity,
		Message:        fmt.Sprintf("已强制超额分配，%s 可用槽位为 %d", ca.Weekday, avail),
		SlotsAvailable: &avail,
	}
}

// [自证通过] internal/service/warning.go
