package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
)

const calendarProductID = "-//muLearn//Learning Circles//EN"

// isoByDay ISO 星期 → RRULE BYDAY
var isoByDay = map[int]string{1: "MO", 2: "TU", 3: "WE", 4: "TH", 5: "FR", 6: "SA", 7: "SU"}

// CalendarService 学习圈日历订阅
type CalendarService interface {
	// CircleCalendar 生成学习圈的 iCalendar 文本
	// 每次聚会一个 VEVENT；重复学习圈无未完成聚会时追加一个带 RRULE 的全天占位事件
	CircleCalendar(ctx context.Context, circleID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger, now: time.Now}
}

func (s *calendarService) CircleCalendar(ctx context.Context, circleID string) (string, error) {
	circle, err := s.repo.Circle.GetByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCircleNotFound
		}
		s.logger.Error("查询学习圈失败", zap.String("circle_id", circleID), zap.Error(err))
		return "", err
	}

	meetings, err := s.repo.Meeting.ListByCircle(ctx, circleID)
	if err != nil {
		s.logger.Error("列出聚会失败", zap.String("circle_id", circleID), zap.Error(err))
		return "", err
	}

	now := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(circle.Title)

	hasOpen := false
	for i := range meetings {
		m := &meetings[i]
		if !m.IsReportSubmitted {
			hasOpen = true
		}
		addMeetingEvent(cal, circle, m, now)
	}

	if !hasOpen && circle.IsRecurring && circle.RecurrenceType != nil && circle.Recurrence != nil {
		addRecurrenceEvent(cal, circle, now)
	}

	return cal.Serialize(), nil
}

func addMeetingEvent(cal *ics.Calendar, circle *model.LearningCircle, m *model.CircleMeeting, now time.Time) {
	event := cal.AddEvent(m.ID + "@learning-circle")
	event.SetDtStampTime(now.UTC())
	event.SetCreatedTime(m.CreatedAt.UTC())
	event.SetStartAt(m.MeetTime.UTC())
	event.SetEndAt(m.MeetTime.Add(time.Duration(m.Duration) * time.Hour).UTC())
	event.SetSummary(fmt.Sprintf("%s: %s", circle.Title, m.Title))
	event.SetLocation(m.MeetPlace)
	if m.Description != nil {
		event.SetDescription(*m.Description)
	}
	if m.Mode == model.MeetModeOnline && m.MeetLink != nil {
		event.SetURL(*m.MeetLink)
	}
}

func addRecurrenceEvent(cal *ics.Calendar, circle *model.LearningCircle, now time.Time) {
	date := seriesStartDate(*circle.RecurrenceType, *circle.Recurrence, now)
	if date.IsZero() {
		return
	}

	var rrule string
	switch *circle.RecurrenceType {
	case model.RecurrenceWeekly:
		rrule = "FREQ=WEEKLY;BYDAY=" + isoByDay[*circle.Recurrence]
	case model.RecurrenceMonthly:
		rrule = "FREQ=MONTHLY;BYMONTHDAY=" + strconv.Itoa(*circle.Recurrence)
	default:
		return
	}

	event := cal.AddEvent(circle.ID + "-next@learning-circle")
	event.SetDtStampTime(now.UTC())
	event.SetAllDayStartAt(date)
	event.SetAllDayEndAt(date.AddDate(0, 0, 1))
	event.SetSummary(circle.Title + " (待安排)")
	event.SetDescription(circle.Description)
	event.AddProperty(ics.ComponentPropertyRrule, rrule)
}

// seriesStartDate 返回今天起第一个满足 RRULE 的日期，DTSTART 必须落在规则上
// 与 NextMeetupDate 的展示口径不同
func seriesStartDate(recurrenceType string, recurrence int, today time.Time) time.Time {
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	switch recurrenceType {
	case model.RecurrenceWeekly:
		return date.AddDate(0, 0, (recurrence-isoWeekday(date)+7)%7)
	case model.RecurrenceMonthly:
		if date.Day() <= recurrence {
			return time.Date(date.Year(), date.Month(), recurrence, 0, 0, 0, 0, time.UTC)
		}
		return time.Date(date.Year(), date.Month()+1, recurrence, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}
