package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/yuqie6/GitQuest/internal/service"
	"github.com/yuqie6/GitQuest/internal/source"
)

// AgentRuntime 包含 Agent 二进制需要启动的调度与文件监听
type AgentRuntime struct {
	*Core

	Scheduler *service.Scheduler
	Watcher   *source.Watcher

	done chan struct{}
}

// NewAgentRuntime 构建 Agent 运行时并启动后台任务
func NewAgentRuntime(ctx context.Context, cfgPath string) (*AgentRuntime, error) {
	core, err := newCore(cfgPath, true)
	if err != nil {
		return nil, err
	}

	rt := &AgentRuntime{Core: core, done: make(chan struct{})}

	if core.DB != nil && core.DB.SafeMode {
		// 安全模式：只读接口可用，不启动任何写库链路
		// 具体原因由 /health 展示
		close(rt.done)
		return rt, nil
	}

	rt.Scheduler = service.NewScheduler(core.Services.Sync, service.SchedulerConfig{
		Users:      core.Cfg.Sync.Users,
		Interval:   time.Duration(core.Cfg.Sync.IntervalSec) * time.Second,
		RatePerMin: core.Cfg.Sync.RatePerMin,
		Burst:      core.Cfg.Sync.Burst,
	})

	// 文件监听（optional）：外部抓取进程写入后立即触发同步
	if core.Cfg.Source.Watch {
		if err := os.MkdirAll(core.Cfg.Source.Dir, 0o755); err != nil {
			slog.Warn("创建数据目录失败", "dir", core.Cfg.Source.Dir, "error", err)
		}
		w, err := source.NewWatcher(core.Cfg.Source.Dir, time.Duration(core.Cfg.Source.DebounceSec)*time.Second)
		if err != nil {
			slog.Warn("启动文件监听失败，仅按定时同步", "dir", core.Cfg.Source.Dir, "error", err)
		} else if err := w.Start(ctx); err != nil {
			slog.Warn("启动文件监听失败，仅按定时同步", "dir", core.Cfg.Source.Dir, "error", err)
		} else {
			rt.Watcher = w
			go forwardTriggers(ctx, w.Events(), rt.Scheduler)
		}
	}

	go func() {
		defer close(rt.done)
		rt.Scheduler.Run(ctx)
	}()

	return rt, nil
}

// forwardTriggers 文件事件转为同步触发
func forwardTriggers(ctx context.Context, events <-chan string, s *service.Scheduler) {
	for {
		select {
		case <-ctx.Done():
			return
		case user, ok := <-events:
			if !ok {
				return
			}
			s.Trigger(user)
		}
	}
}

// Wait 等待调度退出（ctx 结束后）
func (rt *AgentRuntime) Wait() {
	<-rt.done
}

// Close 关闭 Agent 运行时资源
func (rt *AgentRuntime) Close() error {
	if rt == nil {
		return nil
	}
	if rt.Watcher != nil {
		_ = rt.Watcher.Stop()
	}
	return rt.Core.Close()
}
