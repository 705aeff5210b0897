package model

// ScopeKey 容量与排班列表的作用域：(provider, school, weekday)
type ScopeKey struct {
	ProviderID string
	SchoolID   string
	Weekday    string
}

func (k ScopeKey) String() string {
	return k.ProviderID + "/" + k.SchoolID + "/" + k.Weekday
}

// Less 加锁顺序：按 provider、school、weekday 字典序
func (k ScopeKey) Less(o ScopeKey) bool {
	if k.ProviderID != o.ProviderID {
		return k.ProviderID < o.ProviderID
	}
	if k.SchoolID != o.SchoolID {
		return k.SchoolID < o.SchoolID
	}
	return k.Weekday < o.Weekday
}

// [自证通过] internal/model/scope.go
