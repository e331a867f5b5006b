package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/yuqie6/GitQuest/internal/bootstrap"
	"github.com/yuqie6/GitQuest/internal/httpapi"
	"github.com/yuqie6/GitQuest/internal/pkg/buildinfo"
	"github.com/yuqie6/GitQuest/internal/pkg/config"
)

func main() {
	// .env 可选，仅用于本地开发
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("GITQUEST_CONFIG")
	if cfgPath == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
				_ = config.WriteFile(p, config.Default())
			}
			cfgPath = p
		}
	}

	rt, err := bootstrap.NewAgentRuntime(ctx, cfgPath)
	if err != nil {
		slog.Error("启动 Agent 失败", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	slog.Info("GitQuest Agent 启动中...", "name", rt.Cfg.App.Name, "version", buildinfo.String(), "users", rt.Cfg.Sync.Users)

	srv, err := httpapi.Start(ctx, rt, httpapi.Options{ListenAddr: rt.Cfg.HTTP.ListenAddr})
	if err != nil {
		slog.Error("启动本地 API 失败", "error", err)
		os.Exit(1)
	}
	slog.Info("GitQuest Agent 已启动", "base_url", srv.BaseURL())

	<-ctx.Done()
	slog.Info("收到系统退出信号，正在关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = srv.Shutdown(shutdownCtx)
	cancel()
	rt.Wait()

	slog.Info("GitQuest Agent 已退出")
}
