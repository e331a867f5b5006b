package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听数据目录，文件写入后发出对应用户名
type Watcher struct {
	watcher     *fsnotify.Watcher
	dir         string
	eventChan   chan string
	stopChan    chan struct{}
	running     bool
	mu          sync.Mutex
	stopOnce    sync.Once
	debounceMap map[string]time.Time // 防抖：user -> lastWrite
	debounceDur time.Duration
}

// NewWatcher 创建目录监听器
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("添加监控目录失败: %w", err)
	}
	return &Watcher{
		watcher:     watcher,
		dir:         dir,
		eventChan:   make(chan string, 64),
		stopChan:    make(chan struct{}),
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
	}, nil
}

// Start 启动监听
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()
	slog.Info("数据目录监听启动", "dir", w.dir)

	go w.watchLoop(ctx)
	return nil
}

// Stop 停止监听
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		_ = w.watcher.Close()
		slog.Info("数据目录监听已停止")
	})
	return nil
}

// Events 用户名通道，监听结束后关闭
func (w *Watcher) Events() <-chan string {
	return w.eventChan
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.eventChan)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("文件监控错误", "error", err)
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	userID := UserIDFromPath(event.Name)
	if userID == "" {
		return
	}

	w.mu.Lock()
	last, exists := w.debounceMap[userID]
	now := time.Now()
	if exists && now.Sub(last) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.debounceMap[userID] = now
	w.mu.Unlock()

	select {
	case w.eventChan <- userID:
		slog.Debug("数据文件更新", "user", userID)
	default:
		slog.Warn("监听缓冲区已满，丢弃事件", "user", userID)
	}
}
