package repository_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

type fixture struct {
	db     *gorm.DB
	repo   *repository.Repository
	owner  *model.User
	member *model.User
	ig     *model.InterestGroup
	circle *model.LearningCircle
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		// 测试库只需表结构，外键由迁移脚本在 PostgreSQL 中维护
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.InterestGroup{},
		&model.UserInterest{},
		&model.LearningCircle{},
		&model.CircleMeeting{},
		&model.CircleMeetingAttendee{},
		&model.KarmaActivity{},
		&model.Wallet{},
		&model.KarmaActivityLog{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	f := &fixture{db: db, repo: repository.NewRepository(db)}

	f.owner = &model.User{FullName: "Owner", Muid: "owner@mulearn"}
	f.member = &model.User{FullName: "Member", Muid: "member@mulearn"}
	require.NoError(t, db.Create(f.owner).Error)
	require.NoError(t, db.Create(f.member).Error)

	f.ig = &model.InterestGroup{Name: "Web Development", Category: "coder"}
	require.NoError(t, db.Create(f.ig).Error)

	f.circle = &model.LearningCircle{
		IgID:        f.ig.ID,
		Title:       "Go Study",
		Description: "weekly go",
		CreatedBy:   f.owner.ID,
	}
	require.NoError(t, f.repo.Circle.Create(context.Background(), f.circle))
	return f
}

func (f *fixture) meeting(t *testing.T, circleID string, meetTime time.Time) *model.CircleMeeting {
	t.Helper()
	m := &model.CircleMeeting{
		CircleID:  circleID,
		MeetCode:  "ABC123",
		Title:     "Session",
		Mode:      model.MeetModeOffline,
		MeetPlace: "Library",
		MeetTime:  meetTime,
		Duration:  2,
		CreatedBy: f.owner.ID,
	}
	require.NoError(t, f.repo.Meeting.Create(context.Background(), m))
	return m
}

func baseTime() time.Time {
	return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
}

// ═══════════════════════════════════════════════════════════
// Attendee
// ═══════════════════════════════════════════════════════════

func TestAttendeeRepo_DuplicateInsertIsConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.meeting(t, f.circle.ID, baseTime())

	first := &model.CircleMeetingAttendee{MeetID: m.ID, UserID: f.member.ID}
	require.NoError(t, f.repo.Attendee.Create(ctx, first))

	dup := &model.CircleMeetingAttendee{MeetID: m.ID, UserID: f.member.ID}
	err := f.repo.Attendee.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, repository.IsDuplicateKey(err, repository.ConstraintAttendeeMeetUser))
}

func TestAttendeeRepo_MarkJoinedIsConditional(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.meeting(t, f.circle.ID, baseTime())

	a := &model.CircleMeetingAttendee{MeetID: m.ID, UserID: f.member.ID}
	require.NoError(t, f.repo.Attendee.Create(ctx, a))

	ok, err := f.repo.Attendee.MarkJoined(ctx, a.ID, baseTime())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.repo.Attendee.MarkJoined(ctx, a.ID, baseTime())
	require.NoError(t, err)
	assert.False(t, ok, "已加入的记录不应再次命中")

	got, err := f.repo.Attendee.GetByMeetAndUser(ctx, m.ID, f.member.ID)
	require.NoError(t, err)
	assert.True(t, got.IsJoined)
	require.NotNil(t, got.JoinedAt)
}

func TestAttendeeRepo_ApprovalsAndReset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.meeting(t, f.circle.ID, baseTime())

	now := baseTime()
	for _, u := range []*model.User{f.owner, f.member} {
		a := &model.CircleMeetingAttendee{MeetID: m.ID, UserID: u.ID, IsJoined: true, JoinedAt: &now}
		require.NoError(t, f.repo.Attendee.Create(ctx, a))
	}

	require.NoError(t, f.repo.Attendee.SetApproval(ctx, m.ID, []string{f.member.ID}, true))
	list, err := f.repo.Attendee.ListByMeet(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	approved := 0
	for _, a := range list {
		require.NotNil(t, a.User)
		if a.IsLcApproved {
			approved++
			assert.Equal(t, f.member.ID, a.UserID)
		}
	}
	assert.Equal(t, 1, approved)

	require.NoError(t, f.repo.Attendee.ResetApprovals(ctx, m.ID))
	list, err = f.repo.Attendee.ListByMeet(ctx, m.ID)
	require.NoError(t, err)
	for _, a := range list {
		assert.False(t, a.IsLcApproved)
	}
}

// ═══════════════════════════════════════════════════════════
// Meeting
// ═══════════════════════════════════════════════════════════

func TestMeetingRepo_MarkReportSubmittedIsConditional(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.meeting(t, f.circle.ID, baseTime())

	ok, err := f.repo.Meeting.MarkReportSubmitted(ctx, m.ID, "went well")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.repo.Meeting.MarkReportSubmitted(ctx, m.ID, "again")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.repo.Meeting.GetOpenByCircle(ctx, f.circle.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	reported, err := f.repo.Meeting.ListReportedByCircle(ctx, f.circle.ID)
	require.NoError(t, err)
	require.Len(t, reported, 1)
	require.NotNil(t, reported[0].ReportText)
	assert.Equal(t, "went well", *reported[0].ReportText)

	require.NoError(t, f.repo.Meeting.ClearReport(ctx, m.ID))
	open, err := f.repo.Meeting.GetOpenByCircle(ctx, f.circle.ID)
	require.NoError(t, err)
	assert.Nil(t, open.ReportText)
}

func TestMeetingRepo_Browse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := &model.InterestGroup{Name: "Robotics", Category: "maker"}
	require.NoError(t, f.db.Create(other).Error)
	makerCircle := &model.LearningCircle{IgID: other.ID, Title: "Bots", Description: "d", CreatedBy: f.owner.ID}
	require.NoError(t, f.repo.Circle.Create(ctx, makerCircle))

	now := baseTime()
	upcoming := f.meeting(t, f.circle.ID, now.Add(24*time.Hour))
	old := f.meeting(t, makerCircle.ID, now.Add(-72*time.Hour))
	makerSoon := f.meeting(t, makerCircle.ID, now.Add(time.Hour))

	// member 收藏 upcoming，加入 old（未提交报告）
	require.NoError(t, f.repo.Attendee.Create(ctx, &model.CircleMeetingAttendee{MeetID: upcoming.ID, UserID: f.member.ID}))
	require.NoError(t, f.repo.Attendee.Create(ctx, &model.CircleMeetingAttendee{MeetID: old.ID, UserID: f.member.ID, IsJoined: true, JoinedAt: &now}))

	since := now.Add(-2 * time.Hour)

	anon, err := f.repo.Meeting.Browse(ctx, repository.MeetingFilter{Since: since})
	require.NoError(t, err)
	require.Len(t, anon, 2)
	assert.Equal(t, makerSoon.ID, anon[0].ID, "按开始时间升序")
	assert.Equal(t, upcoming.ID, anon[1].ID)
	require.NotNil(t, anon[0].Circle)
	require.NotNil(t, anon[0].Circle.InterestGroup)
	assert.Equal(t, "maker", anon[0].Circle.InterestGroup.Category)

	withUser, err := f.repo.Meeting.Browse(ctx, repository.MeetingFilter{Since: since, UserID: f.member.ID})
	require.NoError(t, err)
	assert.Len(t, withUser, 3, "未提交报告的历史聚会也应出现")
	assert.Equal(t, old.ID, withUser[0].ID)

	coder, err := f.repo.Meeting.Browse(ctx, repository.MeetingFilter{Since: since, Categories: []string{"coder"}})
	require.NoError(t, err)
	require.Len(t, coder, 1)
	assert.Equal(t, upcoming.ID, coder[0].ID)

	saved, err := f.repo.Meeting.Browse(ctx, repository.MeetingFilter{UserID: f.member.ID, Saved: true})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, upcoming.ID, saved[0].ID)

	joined, err := f.repo.Meeting.Browse(ctx, repository.MeetingFilter{UserID: f.member.ID, Participated: true})
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, old.ID, joined[0].ID)
}

// ═══════════════════════════════════════════════════════════
// Circle
// ═══════════════════════════════════════════════════════════

func TestCircleRepo_DeleteCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.meeting(t, f.circle.ID, baseTime())
	require.NoError(t, f.repo.Attendee.Create(ctx, &model.CircleMeetingAttendee{MeetID: m.ID, UserID: f.member.ID}))

	require.NoError(t, f.repo.Circle.Delete(ctx, f.circle.ID))

	_, err := f.repo.Circle.GetByID(ctx, f.circle.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.repo.Meeting.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, f.db.Model(&model.CircleMeetingAttendee{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCircleRepo_ListByCreatorNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	newer := &model.LearningCircle{IgID: f.ig.ID, Title: "Newer", Description: "d", CreatedBy: f.owner.ID}
	newer.CreatedAt = time.Now().Add(time.Hour)
	require.NoError(t, f.repo.Circle.Create(ctx, newer))

	circles, err := f.repo.Circle.ListByCreator(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, circles, 2)
	assert.Equal(t, newer.ID, circles[0].ID)
	require.NotNil(t, circles[0].InterestGroup)

	none, err := f.repo.Circle.ListByCreator(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ═══════════════════════════════════════════════════════════
// Interest / Karma
// ═══════════════════════════════════════════════════════════

func TestInterestRepo_ChosenCategories(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cats, err := f.repo.Interest.ChosenCategories(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Empty(t, cats)

	require.NoError(t, f.db.Create(&model.UserInterest{
		UserID:          f.member.ID,
		ChosenInterests: datatypes.JSONSlice[string]{"coder", "maker"},
	}).Error)

	cats, err = f.repo.Interest.ChosenCategories(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"coder", "maker"}, cats)
}

func TestKarmaRepo_WalletLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ids := []string{f.owner.ID, f.member.ID}

	require.NoError(t, f.repo.Karma.EnsureWallets(ctx, ids))
	require.NoError(t, f.repo.Karma.EnsureWallets(ctx, ids), "重复补建应被忽略")
	require.NoError(t, f.repo.Karma.IncrementWallets(ctx, ids, 30, baseTime()))
	require.NoError(t, f.repo.Karma.IncrementWallets(ctx, []string{f.member.ID}, 10, baseTime()))

	w, err := f.repo.Karma.GetWallet(ctx, f.member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 40, w.Karma)
	require.NotNil(t, w.KarmaLastUpdatedAt)

	w, err = f.repo.Karma.GetWallet(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 30, w.Karma)
}

func TestKarmaRepo_UpsertActivity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Karma.UpsertActivity(ctx, &model.KarmaActivity{Hashtag: "#lcreport", Title: "Report", Karma: 30}))
	require.NoError(t, f.repo.Karma.UpsertActivity(ctx, &model.KarmaActivity{Hashtag: "#lcreport", Title: "Circle report", Karma: 35}))

	a, err := f.repo.Karma.GetActivityByHashtag(ctx, "#lcreport")
	require.NoError(t, err)
	assert.Equal(t, "Circle report", a.Title)
	assert.Equal(t, 35, a.Karma)
}

// ═══════════════════════════════════════════════════════════
// Transaction
// ═══════════════════════════════════════════════════════════

func TestRepository_TxRollback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tx, err := f.repo.BeginTx(ctx)
	require.NoError(t, err)
	txRepo := f.repo.WithTx(tx)

	m := &model.CircleMeeting{
		CircleID: f.circle.ID, MeetCode: "ZZZ999", Title: "tx", Mode: model.MeetModeOffline,
		MeetPlace: "Lab", MeetTime: baseTime(), Duration: 1, CreatedBy: f.owner.ID,
	}
	require.NoError(t, txRepo.Meeting.Create(ctx, m))
	require.NoError(t, tx.Rollback().Error)

	_, err = f.repo.Meeting.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_WithNilTxReturnsSelf(t *testing.T) {
	repo := &repository.Repository{}
	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tx)
	assert.Same(t, repo, repo.WithTx(nil))
}
