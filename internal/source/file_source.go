package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yuqie6/GitQuest/internal/model"
)

const fileExt = ".json"

// 上游在 error 字段里标记的失败类型
const (
	payloadErrUnauthorized = "unauthorized"
	payloadErrRateLimited  = "rate_limited"
)

// filePayload <dir>/<user>.json 的内容，由外部抓取进程写入
type filePayload struct {
	Counters model.Counters          `json:"counters"`
	Calendar []model.ContributionDay `json:"calendar"`
	Error    string                  `json:"error,omitempty"`
}

// FileSource 从目录读取外部抓取进程落地的 JSON
type FileSource struct {
	dir      string
	validate *validator.Validate
	now      func() time.Time
}

// NewFileSource 创建文件数据源
func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:      dir,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Dir 数据目录
func (s *FileSource) Dir() string {
	return s.dir
}

// Path 用户对应的文件路径
func (s *FileSource) Path(userID string) string {
	return filepath.Join(s.dir, userID+fileExt)
}

// UserIDFromPath 由文件路径反推用户名，非 .json 返回空
func UserIDFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), fileExt) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FetchActivity 读取并校验用户活动数据
func (s *FileSource) FetchActivity(ctx context.Context, userID string) (Activity, error) {
	if err := ctx.Err(); err != nil {
		return Activity{}, err
	}
	if userID == "" || strings.ContainsAny(userID, `/\`) || strings.HasPrefix(userID, ".") {
		return Activity{}, fmt.Errorf("非法用户名: %q", userID)
	}

	raw, err := os.ReadFile(s.Path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Activity{}, &AuthError{UserID: userID, Err: err}
		}
		return Activity{}, &FetchError{UserID: userID, Err: err}
	}

	var p filePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Activity{}, &FetchError{UserID: userID, Err: fmt.Errorf("解析数据失败: %w", err)}
	}

	switch p.Error {
	case "":
	case payloadErrUnauthorized:
		return Activity{}, &AuthError{UserID: userID, Err: errors.New(p.Error)}
	case payloadErrRateLimited:
		return Activity{}, &FetchError{UserID: userID, RateLimited: true, Err: errors.New(p.Error)}
	default:
		return Activity{}, &FetchError{UserID: userID, Err: errors.New(p.Error)}
	}

	if err := s.validate.Struct(p.Counters); err != nil {
		return Activity{}, &FetchError{UserID: userID, Err: fmt.Errorf("计数器不合法: %s", FormatValidationError(err))}
	}

	return Activity{
		UserID:    userID,
		Counters:  p.Counters,
		Calendar:  s.cleanCalendar(userID, p.Calendar),
		FetchedAt: s.now(),
	}, nil
}

// cleanCalendar 丢弃不合法条目并按日期倒序
func (s *FileSource) cleanCalendar(userID string, days []model.ContributionDay) []model.ContributionDay {
	out := make([]model.ContributionDay, 0, len(days))
	for i, d := range days {
		if err := s.validate.Struct(d); err != nil {
			slog.Warn("忽略无效日历条目", "user", userID, "error", &ValidationError{Index: i, Date: d.Date, Err: err})
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
