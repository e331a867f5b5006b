package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/GitQuest/internal/dto"
	"github.com/yuqie6/GitQuest/internal/eventbus"
	"github.com/yuqie6/GitQuest/internal/observability"
	"github.com/yuqie6/GitQuest/internal/schema"
	"github.com/yuqie6/GitQuest/internal/service"
	"github.com/yuqie6/GitQuest/internal/source"
)

const (
	defaultSnapshotDays   = 30
	maxSnapshotDays       = 366
	defaultChallengeLimit = 50
	syncTimeout           = 30 * time.Second
)

// Reader 只读查询
type Reader interface {
	Dashboard(ctx context.Context, userID string) (*service.Dashboard, error)
	Challenges(ctx context.Context, userID string, limit int) ([]service.ChallengeView, error)
	Snapshots(ctx context.Context, userID string, days int) ([]schema.ActivitySnapshot, error)
	XPHistory(ctx context.Context, userID string, limit int) ([]schema.XPEntry, error)
}

// SyncTrigger 受限流约束的同步入口
type SyncTrigger interface {
	SyncNow(ctx context.Context, userID string) (*service.SyncResult, error)
}

// HealthInfo /health 的静态部分
type HealthInfo struct {
	Name          string
	Version       string
	Build         string
	Users         []string
	SafeMode      bool
	SafeReason    string
	SchemaVersion int
}

// Deps HTTP 层依赖；Sync 为空表示只读（安全模式）
type Deps struct {
	Reader  Reader
	Sync    SyncTrigger
	Hub     *eventbus.Hub
	Metrics *observability.Metrics
	Info    HealthInfo
}

type apiServer struct {
	reader       Reader
	sync         SyncTrigger
	hub          *eventbus.Hub
	info         HealthInfo
	startTime    time.Time
	pingInterval time.Duration
}

func newAPI(deps Deps) *apiServer {
	return &apiServer{
		reader:       deps.Reader,
		sync:         deps.Sync,
		hub:          deps.Hub,
		info:         deps.Info,
		startTime:    time.Now(),
		pingInterval: 15 * time.Second,
	}
}

func (a *apiServer) registerJSONRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/{user}/dashboard", a.withUser(a.getDashboard))
	mux.HandleFunc("POST /api/users/{user}/sync", a.withUser(a.postSync))
	mux.HandleFunc("GET /api/users/{user}/challenges", a.withUser(a.getChallenges))
	mux.HandleFunc("GET /api/users/{user}/snapshots", a.withUser(a.getSnapshots))
	mux.HandleFunc("GET /api/users/{user}/xp", a.withUser(a.getXPHistory))
}

// withUser 校验路径中的用户名
func (a *apiServer) withUser(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.PathValue("user"))
		if !validUserID(user) {
			writeError(w, http.StatusBadRequest, "非法用户名")
			return
		}
		fn(w, r, user)
	}
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	users := a.info.Users
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, dto.HealthDTO{
		OK:             !a.info.SafeMode,
		Name:           a.info.Name,
		Version:        a.info.Version,
		Build:          a.info.Build,
		StartedAt:      a.startTime.Format(time.RFC3339),
		UptimeSec:      int64(time.Since(a.startTime).Seconds()),
		SafeMode:       a.info.SafeMode,
		SafeModeReason: a.info.SafeReason,
		SchemaVersion:  a.info.SchemaVersion,
		Users:          users,
		Subscribers:    a.hub.Subscribers(),
	})
}

func (a *apiServer) getDashboard(w http.ResponseWriter, r *http.Request, user string) {
	dash, err := a.reader.Dashboard(r.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("读取看板失败", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "读取看板失败")
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (a *apiServer) postSync(w http.ResponseWriter, r *http.Request, user string) {
	if a.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "安全模式下不可同步")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), syncTimeout)
	defer cancel()

	res, err := a.sync.SyncNow(ctx, user)
	if err != nil {
		status, msg := syncErrorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("接口同步失败", "user", user, "error", err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSyncResponse(res))
}

// syncErrorStatus 错误映射为状态码，不向调用方暴露底层错误
func syncErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrThrottled):
		return http.StatusTooManyRequests, err.Error()
	case source.IsAuth(err):
		return http.StatusUnauthorized, "数据源身份校验失败"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "同步超时"
	case service.IsPersistence(err):
		return http.StatusInternalServerError, "保存同步结果失败"
	default:
		return http.StatusInternalServerError, "同步失败"
	}
}

func (a *apiServer) getChallenges(w http.ResponseWriter, r *http.Request, user string) {
	limit, err := parseIntQuery(r, "limit", defaultChallengeLimit, 1, 500)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := a.reader.Challenges(r.Context(), user, limit)
	if err != nil {
		slog.Error("读取挑战失败", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "读取挑战失败")
		return
	}
	writeJSON(w, http.StatusOK, dto.ChallengeListDTO{UserID: user, Challenges: list})
}

func (a *apiServer) getSnapshots(w http.ResponseWriter, r *http.Request, user string) {
	days, err := parseIntQuery(r, "days", defaultSnapshotDays, 1, maxSnapshotDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := a.reader.Snapshots(r.Context(), user, days)
	if err != nil {
		slog.Error("读取快照失败", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "读取快照失败")
		return
	}
	writeJSON(w, http.StatusOK, dto.SnapshotListDTO{UserID: user, Days: days, Snapshots: dto.NewSnapshots(list)})
}

func (a *apiServer) getXPHistory(w http.ResponseWriter, r *http.Request, user string) {
	limit, err := parseIntQuery(r, "limit", 50, 1, 500)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := a.reader.XPHistory(r.Context(), user, limit)
	if err != nil {
		slog.Error("读取经验流水失败", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "读取经验流水失败")
		return
	}
	writeJSON(w, http.StatusOK, dto.XPHistoryDTO{UserID: user, Entries: dto.NewXPEntries(list)})
}
