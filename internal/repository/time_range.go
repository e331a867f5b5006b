package repository

import (
	"fmt"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

// DayWindow 返回以 date 结尾、共 days 天的闭区间 [from, date]（YYYY-MM-DD）。
func DayWindow(date string, days int) (from string, to string, err error) {
	t, err := model.ParseDay(date, time.Local)
	if err != nil {
		return "", "", fmt.Errorf("解析日期失败: %w", err)
	}
	if days < 1 {
		days = 1
	}
	return model.DayKey(t.AddDate(0, 0, -(days - 1))), date, nil
}
