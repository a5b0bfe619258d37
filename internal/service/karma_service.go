package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
)

// ── Karma 模块业务错误 ──

var (
	ErrKarmaActivityUnknown = errors.New("karma 活动不存在")
	ErrKarmaApproverUnknown = errors.New("karma 审批人不存在")
	ErrKarmaUserUnknown     = errors.New("karma 接收用户不存在")
)

// KarmaService Karma 账本客户端
type KarmaService interface {
	// Award 为一组用户发放同一活动的 Karma；amount 为 nil 时使用活动默认值
	// 活动、审批人、全部用户校验通过后，在同一事务内写日志并累加余额
	Award(ctx context.Context, userIDs []string, hashtag, approverID string, amount *int) error
	// AddKarma 同 Award，失败时记录日志并返回 false
	AddKarma(ctx context.Context, userIDs []string, hashtag, approverID string, amount *int) bool
}

type karmaService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewKarmaService 创建 KarmaService 实例
func NewKarmaService(repo *repository.Repository, logger *zap.Logger) KarmaService {
	return &karmaService{repo: repo, logger: logger, now: time.Now}
}

func (s *karmaService) Award(ctx context.Context, userIDs []string, hashtag, approverID string, amount *int) error {
	ids := uniqueSorted(userIDs)
	if len(ids) == 0 {
		return nil
	}

	return withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		activity, err := txRepo.Karma.GetActivityByHashtag(ctx, hashtag)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrKarmaActivityUnknown, hashtag)
			}
			return err
		}

		if _, err := txRepo.User.GetByID(ctx, approverID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrKarmaApproverUnknown, approverID)
			}
			return err
		}

		users, err := txRepo.User.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(users) != len(ids) {
			return fmt.Errorf("%w: %v", ErrKarmaUserUnknown, missingUsers(ids, users))
		}

		karma := activity.Karma
		if amount != nil {
			karma = *amount
		}

		logs := make([]model.KarmaActivityLog, 0, len(ids))
		for _, id := range ids {
			logs = append(logs, model.KarmaActivityLog{
				UserID:     id,
				ActivityID: activity.ID,
				Karma:      karma,
				ApprovedBy: approverID,
			})
		}
		if err := txRepo.Karma.CreateLogs(ctx, logs); err != nil {
			return err
		}
		if err := txRepo.Karma.EnsureWallets(ctx, ids); err != nil {
			return err
		}
		return txRepo.Karma.IncrementWallets(ctx, ids, karma, s.now())
	})
}

func (s *karmaService) AddKarma(ctx context.Context, userIDs []string, hashtag, approverID string, amount *int) bool {
	if err := s.Award(ctx, userIDs, hashtag, approverID, amount); err != nil {
		s.logger.Error("发放 karma 失败",
			zap.Strings("user_ids", userIDs),
			zap.String("hashtag", hashtag),
			zap.String("approver", approverID),
			zap.Error(err))
		return false
	}
	return true
}

// ── 内部辅助方法 ──

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func missingUsers(ids []string, users []model.User) []string {
	found := make(map[string]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
