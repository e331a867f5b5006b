package model

import "time"

// DayLayout 日期键格式
const DayLayout = "2006-01-02"

// DayKey 按 t 所在时区格式化为 YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay 在 loc 时区解析日期键
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayLayout, s, loc)
}

// StartOfDay 当天 00:00
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart 不晚于 t 的最近一个周一 00:00
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // 周一为 0
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// SameDay 是否为同一日历日（按 b 的时区比较）
func SameDay(a, b time.Time) bool {
	return DayKey(a.In(b.Location())) == DayKey(b)
}

// SameISOWeek 是否处于同一 ISO 周
func SameISOWeek(a, b time.Time) bool {
	ay, aw := a.In(b.Location()).ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}
