package dto

// ── 容量账本 DTO ──

// UpsertCapacityRequest 创建/更新容量账本
type UpsertCapacityRequest struct {
	SlotsTotal          int     `json:"slots_total"           binding:"min=0,max=1000"`
	StartTime           *string `json:"start_time"            binding:"omitempty,hhmm"`
	EndTime             *string `json:"end_time"              binding:"omitempty,hhmm"`
	IsActive            *bool   `json:"is_active"`
	AcceptingNewClients *bool   `json:"accepting_new_clients"`
	Version             *int    `json:"version"               binding:"omitempty,min=1"`
}

// CapacityListRequest 容量列表查询参数
type CapacityListRequest struct {
	ProviderID string `form:"provider_id" binding:"required,uuid"`
	SchoolID   string `form:"school_id"   binding:"omitempty,uuid"`
}

// CapacityResponse 容量账本响应
type CapacityResponse struct {
	ID                   string  `json:"id"`
	ProviderID           string  `json:"provider_id"`
	SchoolID             string  `json:"school_id"`
	Weekday              string  `json:"weekday"`
	SlotsTotal           int     `json:"slots_total"`
	SlotsAvailable       int     `json:"slots_available"`
	StartTime            *string `json:"start_time"`
	EndTime              *string `json:"end_time"`
	IsActive             bool    `json:"is_active"`
	AcceptingNewClients  *bool   `json:"accepting_new_clients,omitempty"`
	OverCapacity         bool    `json:"over_capacity"`
	ForcedOverCapacityAt *string `json:"forced_over_capacity_at,omitempty"`
	Version              int     `json:"version"`
	UpdatedAt            string  `json:"updated_at"`
}

// ProviderSettingsRequest provider 级设置
type ProviderSettingsRequest struct {
	AcceptingNewClients *bool `json:"accepting_new_clients" binding:"required"`
}

// ProviderSettingsResponse provider 级设置响应
type ProviderSettingsResponse struct {
	ProviderID          string `json:"provider_id"`
	AcceptingNewClients bool   `json:"accepting_new_clients"`
}

// [自证通过] internal/dto/capacity.go
