package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/GitQuest/internal/bootstrap"
	"github.com/yuqie6/GitQuest/internal/eventbus"
	"github.com/yuqie6/GitQuest/internal/pkg/buildinfo"
)

type LocalServer struct {
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

type Options struct {
	ListenAddr string // e.g. "127.0.0.1:8765"
}

// Start 基于 Agent 运行时启动本地 HTTP
func Start(ctx context.Context, rt *bootstrap.AgentRuntime, opts Options) (*LocalServer, error) {
	if rt == nil {
		return nil, fmt.Errorf("rt 不能为空")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}

	deps := Deps{
		Reader:  rt.Services.Sync,
		Hub:     rt.Hub,
		Metrics: rt.Metrics,
		Info: HealthInfo{
			Name:          rt.Cfg.App.Name,
			Version:       rt.Cfg.App.Version,
			Build:         buildinfo.String(),
			Users:         rt.Cfg.Sync.Users,
			SafeMode:      rt.DB.SafeMode,
			SafeReason:    rt.DB.MigrationError,
			SchemaVersion: rt.DB.SchemaVersion,
		},
	}
	// 安全模式下不接受同步请求
	if rt.Scheduler != nil {
		deps.Sync = rt.Scheduler
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           NewHandler(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ls := &LocalServer{
		ln:      ln,
		srv:     srv,
		baseURL: "http://" + ln.Addr().String(),
	}

	go func() {
		<-ctx.Done()
		_ = ls.Shutdown(context.Background())
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("本地 HTTP 已启动", "base_url", ls.baseURL)
	return ls, nil
}

func (s *LocalServer) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *LocalServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// NewHandler 组装路由；Metrics 为空时不挂 /metrics
func NewHandler(deps Deps) http.Handler {
	if deps.Hub == nil {
		deps.Hub = eventbus.NewHub()
	}
	api := newAPI(deps)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", api.handleHealth)
	mux.HandleFunc("GET /api/events", api.handleSSE)
	api.registerJSONRoutes(mux)

	if deps.Metrics == nil {
		return mux
	}
	mux.Handle("GET /metrics", deps.Metrics.Handler())
	return deps.Metrics.Middleware(mux)
}

func (a *apiServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	sub := a.hub.Subscribe(ctx, 32)
	user := strings.TrimSpace(r.URL.Query().Get("user"))

	// initial event
	_, _ = io.WriteString(w, "event: ready\n")
	_, _ = io.WriteString(w, "data: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(a.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, "event: ping\n")
			_, _ = io.WriteString(w, "data: {}\n\n")
			flusher.Flush()
		case evt, ok := <-sub:
			if !ok {
				return
			}
			if user != "" && evt.UserID != user {
				continue
			}
			b, _ := json.Marshal(evt)
			_, _ = io.WriteString(w, "event: "+sanitizeSSEName(evt.Type)+"\n")
			_, _ = io.WriteString(w, "data: ")
			_, _ = w.Write(b)
			_, _ = io.WriteString(w, "\n\n")
			flusher.Flush()
		}
	}
}

func sanitizeSSEName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	n = strings.ReplaceAll(n, "\r", "")
	return n
}
