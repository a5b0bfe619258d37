package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learning-circle/backend/config"
	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
)

// ── 测试辅助 ──

const (
	userOwner = "u-owner"
	userAlice = "u-alice"
	userBob   = "u-bob"
	userCarol = "u-carol"

	igCoder = "ig-coder"
	igMaker = "ig-maker"
)

type testEnv struct {
	store      *mockStore
	repo       *repository.Repository
	cfg        *config.Config
	limiter    *mockLimiter
	karma      *karmaService
	circles    *circleService
	meetings   *meetingService
	attendance *attendanceService
	reports    *reportService
	calendar   *calendarService
	export     *exportService
	now        time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		Karma: config.KarmaConfig{
			CircleCreate:   config.KarmaActivity{Hashtag: "#lcmeetcreate", Amount: 20},
			MeetJoin:       config.KarmaActivity{Hashtag: "#lcmeetjoin", Amount: 10},
			AttendeeReport: config.KarmaActivity{Hashtag: "#lcattendeereport", Amount: 20},
			CircleReport:   config.KarmaActivity{Hashtag: "#lcreport", Amount: 30},
		},
		Meeting: config.MeetingConfig{
			JoinGraceHours:  2,
			CodeLength:      6,
			MaxCodeAttempts: 3,
			CodeAttemptTTL:  10 * time.Minute,
			BrowseLookback:  2 * time.Hour,
		},
	}
}

// newTestEnv 组装全部 Service；当前时间固定为 2026-10-18 10:00 UTC（周日）
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMockStore()
	for id, name := range map[string]string{userOwner: "Owner", userAlice: "Alice", userBob: "Bob", userCarol: "Carol"} {
		store.users[id] = &model.User{ID: id, FullName: name, Muid: id + "@mulearn"}
	}
	store.groups[igCoder] = &model.InterestGroup{ID: igCoder, Name: "Web Development", Category: "coder"}
	store.groups[igMaker] = &model.InterestGroup{ID: igMaker, Name: "IoT", Category: "maker"}

	cfg := testConfig()
	repo := store.repository()
	for _, act := range []config.KarmaActivity{cfg.Karma.CircleCreate, cfg.Karma.MeetJoin, cfg.Karma.AttendeeReport, cfg.Karma.CircleReport} {
		require.NoError(t, repo.Karma.UpsertActivity(context.Background(), &model.KarmaActivity{
			Hashtag: act.Hashtag, Title: act.Hashtag, Karma: act.Amount,
		}))
	}

	env := &testEnv{
		store:   store,
		repo:    repo,
		cfg:     cfg,
		limiter: newMockLimiter(),
		now:     time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC),
	}
	logger := zap.NewNop()
	clock := func() time.Time { return env.now }

	env.karma = NewKarmaService(repo, logger).(*karmaService)
	env.karma.now = clock
	env.circles = NewCircleService(cfg, repo, env.karma, logger).(*circleService)
	env.circles.now = clock
	env.meetings = NewMeetingService(cfg, repo, logger).(*meetingService)
	env.meetings.now = clock
	env.attendance = NewAttendanceService(cfg, repo, env.karma, env.limiter, logger).(*attendanceService)
	env.attendance.now = clock
	env.reports = NewReportService(cfg, repo, env.karma, logger).(*reportService)
	env.calendar = NewCalendarService(repo, logger).(*calendarService)
	env.calendar.now = clock
	env.export = NewExportService(repo, logger).(*exportService)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) walletKarma(userID string) int64 {
	if w, ok := e.store.wallets[userID]; ok {
		return w.Karma
	}
	return 0
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }
func boolPtr(b bool) *bool { return &b }

// createCircle 由 userOwner 创建一个非重复学习圈
func (e *testEnv) createCircle(t *testing.T) *dto.CircleResponse {
	t.Helper()
	resp, err := e.circles.Create(context.Background(), &dto.CreateCircleRequest{
		Title:       "Go Study",
		Description: "Learning Go together",
		IgID:        igCoder,
	}, userOwner)
	require.NoError(t, err)
	return resp
}

// createMeeting 在 circleID 下创建一个 offset 之后开始、时长 2 小时的线下聚会
func (e *testEnv) createMeeting(t *testing.T, circleID string, offset time.Duration) *dto.MeetingDetailResponse {
	t.Helper()
	resp, err := e.meetings.Create(context.Background(), circleID, &dto.CreateMeetingRequest{
		Title:             "Session",
		ReportDescription: strPtr("share what you learned"),
		MeetPlace:         "Library",
		MeetTime:          e.now.Add(offset),
		Duration:          2,
	}, userOwner)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) meetCode(meetID string) string {
	return e.store.meetings[meetID].MeetCode
}
