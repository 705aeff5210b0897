package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/config"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(&config.LogConfig{Level: "verbose", Format: "json"})
	if err == nil {
		t.Error("无效日志级别应返回错误")
	}
}

func TestNewLogger_Console(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Error("debug 级别应启用")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger(&config.LogConfig{
		Level:  "info",
		Format: "json",
		File:   config.LogFileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
	})
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}

	l.Info("写入文件测试")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), "写入文件测试") {
		t.Errorf("日志文件中应包含消息，实际=%s", string(data))
	}
}
