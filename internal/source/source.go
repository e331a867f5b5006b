package source

import (
	"context"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

// Activity 一次拉取得到的累计计数器与贡献日历
type Activity struct {
	UserID    string                  `json:"user_id"`
	Counters  model.Counters          `json:"counters"`
	Calendar  []model.ContributionDay `json:"calendar"` // 最近的在前
	FetchedAt time.Time               `json:"fetched_at"`
}

// ActivitySource 外部活动数据来源
// 返回的错误应归类为 *FetchError 或 *AuthError
type ActivitySource interface {
	FetchActivity(ctx context.Context, userID string) (Activity, error)
}
