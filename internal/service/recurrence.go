package service

import (
	"time"

	"learning-circle/backend/internal/model"
)

// NextMeetupDate 按重复规则推算下一次聚会日期（UTC 零点）
//
// weekly: recurrence 为 ISO 星期（1=周一 … 7=周日）。
// 偏移量沿用既有数据口径：current = ISO 星期 + 2，超过 7 归 1；
// days = ((target - current + 7) % 7) + 1，取值 1-7。
//
// monthly: recurrence 为日（1-28），今天已到或超过该日则顺延到下月。
//
// 未知类型返回零值时间，调用方按“无日期”处理。
func NextMeetupDate(recurrenceType string, recurrence int, today time.Time) time.Time {
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	switch recurrenceType {
	case model.RecurrenceWeekly:
		current := isoWeekday(today) + 2
		if current > 7 {
			current = 1
		}
		days := (recurrence-current+7)%7 + 1
		return date.AddDate(0, 0, days)

	case model.RecurrenceMonthly:
		year, month := today.Year(), today.Month()
		if today.Day() >= recurrence {
			if month == time.December {
				month = time.January
				year++
			} else {
				month++
			}
		}
		return time.Date(year, month, recurrence, 0, 0, 0, 0, time.UTC)

	default:
		return time.Time{}
	}
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
