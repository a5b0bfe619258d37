package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learning-circle/backend/internal/model"
)

// KarmaRepository Karma 账本数据访问接口
type KarmaRepository interface {
	GetActivityByHashtag(ctx context.Context, hashtag string) (*model.KarmaActivity, error)
	// UpsertActivity 按 hashtag 插入或更新活动定义（seed 使用）
	UpsertActivity(ctx context.Context, activity *model.KarmaActivity) error
	CreateLogs(ctx context.Context, logs []model.KarmaActivityLog) error
	// EnsureWallets 为缺少钱包的用户补建余额为 0 的钱包
	EnsureWallets(ctx context.Context, userIDs []string) error
	IncrementWallets(ctx context.Context, userIDs []string, amount int, at time.Time) error
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
}

type karmaRepo struct {
	db *gorm.DB
}

// NewKarmaRepo 创建 KarmaRepository 实例
func NewKarmaRepo(db *gorm.DB) KarmaRepository {
	return &karmaRepo{db: db}
}

func (r *karmaRepo) GetActivityByHashtag(ctx context.Context, hashtag string) (*model.KarmaActivity, error) {
	var activity model.KarmaActivity
	err := r.db.WithContext(ctx).
		Where("hashtag = ?", hashtag).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *karmaRepo) UpsertActivity(ctx context.Context, activity *model.KarmaActivity) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hashtag"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "karma", "updated_at"}),
		}).
		Create(activity).Error
}

func (r *karmaRepo) CreateLogs(ctx context.Context, logs []model.KarmaActivityLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&logs).Error
}

func (r *karmaRepo) EnsureWallets(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	wallets := make([]model.Wallet, 0, len(userIDs))
	for _, id := range userIDs {
		wallets = append(wallets, model.Wallet{UserID: id})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&wallets).Error
}

func (r *karmaRepo) IncrementWallets(ctx context.Context, userIDs []string, amount int, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("user_id IN ?", userIDs).
		Updates(map[string]interface{}{
			"karma":                 gorm.Expr("karma + ?", amount),
			"karma_last_updated_at": at,
		}).Error
}

func (r *karmaRepo) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
