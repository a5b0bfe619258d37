package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
)

// mockStore 各 mock 仓储共享的内存数据，便于模拟级联删除等跨表行为
type mockStore struct {
	seq        int
	users      map[string]*model.User
	groups     map[string]*model.InterestGroup
	interests  map[string][]string
	circles    map[string]*model.LearningCircle
	meetings   map[string]*model.CircleMeeting
	attendees  map[string]*model.CircleMeetingAttendee
	activities map[string]*model.KarmaActivity
	wallets    map[string]*model.Wallet
	karmaLogs  []model.KarmaActivityLog
}

func newMockStore() *mockStore {
	return &mockStore{
		users:      make(map[string]*model.User),
		groups:     make(map[string]*model.InterestGroup),
		interests:  make(map[string][]string),
		circles:    make(map[string]*model.LearningCircle),
		meetings:   make(map[string]*model.CircleMeeting),
		attendees:  make(map[string]*model.CircleMeetingAttendee),
		activities: make(map[string]*model.KarmaActivity),
		wallets:    make(map[string]*model.Wallet),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *mockStore) repository() *repository.Repository {
	return &repository.Repository{
		User:     &mockUserRepo{s},
		Interest: &mockInterestRepo{s},
		Circle:   &mockCircleRepo{s},
		Meeting:  &mockMeetingRepo{s},
		Attendee: &mockAttendeeRepo{s},
		Karma:    &mockKarmaRepo{s},
	}
}

func (s *mockStore) attendee(meetID, userID string) *model.CircleMeetingAttendee {
	for _, a := range s.attendees {
		if a.MeetID == meetID && a.UserID == userID {
			return a
		}
	}
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *mockStore }

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.s.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock InterestRepository ──

type mockInterestRepo struct{ s *mockStore }

func (m *mockInterestRepo) GetGroupByID(_ context.Context, id string) (*model.InterestGroup, error) {
	if g, ok := m.s.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInterestRepo) ChosenCategories(_ context.Context, userID string) ([]string, error) {
	return append([]string{}, m.s.interests[userID]...), nil
}

// ── Mock CircleRepository ──

type mockCircleRepo struct{ s *mockStore }

func (m *mockCircleRepo) Create(_ context.Context, c *model.LearningCircle) error {
	if c.ID == "" {
		c.ID = m.s.nextID("circle")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
		c.UpdatedAt = c.CreatedAt
	}
	cp := *c
	m.s.circles[c.ID] = &cp
	return nil
}

func (m *mockCircleRepo) GetByID(_ context.Context, id string) (*model.LearningCircle, error) {
	c, ok := m.s.circles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	cp.InterestGroup = m.s.groups[c.IgID]
	return &cp, nil
}

func (m *mockCircleRepo) ListByCreator(_ context.Context, userID string) ([]model.LearningCircle, error) {
	var result []model.LearningCircle
	for _, c := range m.s.circles {
		if c.CreatedBy == userID {
			cp := *c
			cp.InterestGroup = m.s.groups[c.IgID]
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockCircleRepo) Update(_ context.Context, c *model.LearningCircle) error {
	cp := *c
	cp.InterestGroup, cp.Creator = nil, nil
	m.s.circles[c.ID] = &cp
	return nil
}

func (m *mockCircleRepo) Delete(ctx context.Context, id string) error {
	meetings := &mockMeetingRepo{m.s}
	for mid, mt := range m.s.meetings {
		if mt.CircleID == id {
			_ = meetings.Delete(ctx, mid)
		}
	}
	delete(m.s.circles, id)
	return nil
}

// ── Mock MeetingRepository ──

type mockMeetingRepo struct{ s *mockStore }

func (m *mockMeetingRepo) Create(_ context.Context, mt *model.CircleMeeting) error {
	for _, other := range m.s.meetings {
		if other.CircleID == mt.CircleID && !other.IsReportSubmitted {
			return gorm.ErrDuplicatedKey
		}
	}
	if mt.ID == "" {
		mt.ID = m.s.nextID("meet")
	}
	cp := *mt
	cp.Circle = nil
	m.s.meetings[mt.ID] = &cp
	return nil
}

func (m *mockMeetingRepo) withCircle(mt *model.CircleMeeting) model.CircleMeeting {
	cp := *mt
	if c, ok := m.s.circles[mt.CircleID]; ok {
		cc := *c
		cc.InterestGroup = m.s.groups[c.IgID]
		cp.Circle = &cc
	}
	return cp
}

func (m *mockMeetingRepo) GetByID(_ context.Context, id string) (*model.CircleMeeting, error) {
	mt, ok := m.s.meetings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withCircle(mt)
	return &cp, nil
}

func (m *mockMeetingRepo) GetOpenByCircle(_ context.Context, circleID string) (*model.CircleMeeting, error) {
	var found *model.CircleMeeting
	for _, mt := range m.s.meetings {
		if mt.CircleID == circleID && !mt.IsReportSubmitted {
			if found == nil || mt.MeetTime.After(found.MeetTime) {
				found = mt
			}
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockMeetingRepo) list(match func(*model.CircleMeeting) bool, desc bool) []model.CircleMeeting {
	var result []model.CircleMeeting
	for _, mt := range m.s.meetings {
		if match(mt) {
			result = append(result, m.withCircle(mt))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if desc {
			return result[i].MeetTime.After(result[j].MeetTime)
		}
		return result[i].MeetTime.Before(result[j].MeetTime)
	})
	return result
}

func (m *mockMeetingRepo) ListByCircle(_ context.Context, circleID string) ([]model.CircleMeeting, error) {
	return m.list(func(mt *model.CircleMeeting) bool { return mt.CircleID == circleID }, true), nil
}

func (m *mockMeetingRepo) ListReportedByCircle(_ context.Context, circleID string) ([]model.CircleMeeting, error) {
	return m.list(func(mt *model.CircleMeeting) bool {
		return mt.CircleID == circleID && mt.IsReportSubmitted
	}, true), nil
}

func (m *mockMeetingRepo) Browse(_ context.Context, f repository.MeetingFilter) ([]model.CircleMeeting, error) {
	cats := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		cats[c] = true
	}
	return m.list(func(mt *model.CircleMeeting) bool {
		if len(cats) > 0 {
			c := m.s.circles[mt.CircleID]
			if c == nil || m.s.groups[c.IgID] == nil || !cats[m.s.groups[c.IgID].Category] {
				return false
			}
		}
		a := m.s.attendee(mt.ID, f.UserID)
		switch {
		case f.Saved:
			return a != nil && !a.IsJoined
		case f.Participated:
			return a != nil && a.IsJoined
		default:
			return !mt.MeetTime.Before(f.Since) || (f.UserID != "" && a != nil && !a.IsReportSubmitted)
		}
	}, false), nil
}

func (m *mockMeetingRepo) Update(_ context.Context, mt *model.CircleMeeting) error {
	cp := *mt
	cp.Circle, cp.Creator, cp.Attendees = nil, nil, nil
	m.s.meetings[mt.ID] = &cp
	return nil
}

func (m *mockMeetingRepo) MarkReportSubmitted(_ context.Context, id, text string) (bool, error) {
	mt, ok := m.s.meetings[id]
	if !ok || mt.IsReportSubmitted {
		return false, nil
	}
	mt.IsReportSubmitted = true
	mt.ReportText = &text
	return true, nil
}

func (m *mockMeetingRepo) ClearReport(_ context.Context, id string) error {
	if mt, ok := m.s.meetings[id]; ok {
		mt.IsReportSubmitted = false
		mt.ReportText = nil
	}
	return nil
}

func (m *mockMeetingRepo) Delete(_ context.Context, id string) error {
	for aid, a := range m.s.attendees {
		if a.MeetID == id {
			delete(m.s.attendees, aid)
		}
	}
	delete(m.s.meetings, id)
	return nil
}

// ── Mock AttendeeRepository ──

type mockAttendeeRepo struct{ s *mockStore }

func (m *mockAttendeeRepo) Create(_ context.Context, a *model.CircleMeetingAttendee) error {
	if m.s.attendee(a.MeetID, a.UserID) != nil {
		return gorm.ErrDuplicatedKey
	}
	if a.ID == "" {
		a.ID = m.s.nextID("att")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	cp.User = nil
	m.s.attendees[a.ID] = &cp
	return nil
}

func (m *mockAttendeeRepo) GetByMeetAndUser(_ context.Context, meetID, userID string) (*model.CircleMeetingAttendee, error) {
	if a := m.s.attendee(meetID, userID); a != nil {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendeeRepo) ListByMeet(_ context.Context, meetID string) ([]model.CircleMeetingAttendee, error) {
	var result []model.CircleMeetingAttendee
	for _, a := range m.s.attendees {
		if a.MeetID == meetID {
			cp := *a
			cp.User = m.s.users[a.UserID]
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockAttendeeRepo) MarkJoined(_ context.Context, id string, joinedAt time.Time) (bool, error) {
	a, ok := m.s.attendees[id]
	if !ok || a.IsJoined {
		return false, nil
	}
	a.IsJoined = true
	a.JoinedAt = &joinedAt
	return true, nil
}

func (m *mockAttendeeRepo) UpdateReport(_ context.Context, id string, text, link *string, submitted bool) error {
	if a, ok := m.s.attendees[id]; ok {
		a.ReportText, a.ReportLink, a.IsReportSubmitted = text, link, submitted
	}
	return nil
}

func (m *mockAttendeeRepo) SetApproval(_ context.Context, meetID string, userIDs []string, approved bool) error {
	for _, uid := range userIDs {
		if a := m.s.attendee(meetID, uid); a != nil {
			a.IsLcApproved = approved
		}
	}
	return nil
}

func (m *mockAttendeeRepo) ResetApprovals(_ context.Context, meetID string) error {
	for _, a := range m.s.attendees {
		if a.MeetID == meetID && a.IsJoined {
			a.IsLcApproved = false
		}
	}
	return nil
}

func (m *mockAttendeeRepo) Delete(_ context.Context, id string) error {
	delete(m.s.attendees, id)
	return nil
}

// ── Mock KarmaRepository ──

type mockKarmaRepo struct{ s *mockStore }

func (m *mockKarmaRepo) GetActivityByHashtag(_ context.Context, hashtag string) (*model.KarmaActivity, error) {
	if a, ok := m.s.activities[hashtag]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockKarmaRepo) UpsertActivity(_ context.Context, a *model.KarmaActivity) error {
	if a.ID == "" {
		a.ID = m.s.nextID("act")
	}
	cp := *a
	m.s.activities[a.Hashtag] = &cp
	return nil
}

func (m *mockKarmaRepo) CreateLogs(_ context.Context, logs []model.KarmaActivityLog) error {
	m.s.karmaLogs = append(m.s.karmaLogs, logs...)
	return nil
}

func (m *mockKarmaRepo) EnsureWallets(_ context.Context, userIDs []string) error {
	for _, id := range userIDs {
		if _, ok := m.s.wallets[id]; !ok {
			m.s.wallets[id] = &model.Wallet{ID: m.s.nextID("wallet"), UserID: id}
		}
	}
	return nil
}

func (m *mockKarmaRepo) IncrementWallets(_ context.Context, userIDs []string, amount int, at time.Time) error {
	for _, id := range userIDs {
		if w, ok := m.s.wallets[id]; ok {
			w.Karma += int64(amount)
			t := at
			w.KarmaLastUpdatedAt = &t
		}
	}
	return nil
}

func (m *mockKarmaRepo) GetWallet(_ context.Context, userID string) (*model.Wallet, error) {
	if w, ok := m.s.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock JoinAttemptLimiter ──

type mockLimiter struct {
	attempts map[string]int
}

func newMockLimiter() *mockLimiter {
	return &mockLimiter{attempts: make(map[string]int)}
}

func (l *mockLimiter) JoinAttempts(_ context.Context, meetID, userID string) (int, error) {
	return l.attempts[meetID+":"+userID], nil
}

func (l *mockLimiter) RecordFailedJoin(_ context.Context, meetID, userID string, _ time.Duration) (int, error) {
	l.attempts[meetID+":"+userID]++
	return l.attempts[meetID+":"+userID], nil
}

func (l *mockLimiter) ResetJoinAttempts(_ context.Context, meetID, userID string) error {
	delete(l.attempts, meetID+":"+userID)
	return nil
}
