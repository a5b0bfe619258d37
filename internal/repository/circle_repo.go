package repository

import (
	"context"

	"gorm.io/gorm"

	"learning-circle/backend/internal/model"
)

// CircleRepository 学习圈数据访问接口
type CircleRepository interface {
	Create(ctx context.Context, circle *model.LearningCircle) error
	GetByID(ctx context.Context, id string) (*model.LearningCircle, error)
	ListByCreator(ctx context.Context, userID string) ([]model.LearningCircle, error)
	Update(ctx context.Context, circle *model.LearningCircle) error
	// Delete 删除学习圈及其全部聚会与参与记录
	Delete(ctx context.Context, id string) error
}

// circleRepo CircleRepository 的 GORM 实现
type circleRepo struct {
	db *gorm.DB
}

// NewCircleRepo 创建 CircleRepository 实例
func NewCircleRepo(db *gorm.DB) CircleRepository {
	return &circleRepo{db: db}
}

func (r *circleRepo) Create(ctx context.Context, circle *model.LearningCircle) error {
	return r.db.WithContext(ctx).Create(circle).Error
}

func (r *circleRepo) GetByID(ctx context.Context, id string) (*model.LearningCircle, error) {
	var circle model.LearningCircle
	err := r.db.WithContext(ctx).
		Preload("InterestGroup").
		Preload("Creator").
		Where("id = ?", id).
		First(&circle).Error
	if err != nil {
		return nil, err
	}
	return &circle, nil
}

func (r *circleRepo) ListByCreator(ctx context.Context, userID string) ([]model.LearningCircle, error) {
	var circles []model.LearningCircle
	err := r.db.WithContext(ctx).
		Preload("InterestGroup").
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Find(&circles).Error
	return circles, err
}

func (r *circleRepo) Update(ctx context.Context, circle *model.LearningCircle) error {
	return r.db.WithContext(ctx).
		Omit("InterestGroup", "Creator").
		Save(circle).Error
}

func (r *circleRepo) Delete(ctx context.Context, id string) error {
	// 外键已配置 ON DELETE CASCADE，这里仍显式按 参与者 → 聚会 → 学习圈 顺序删除
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meetIDs := tx.Model(&model.CircleMeeting{}).Select("id").Where("circle_id = ?", id)
		if err := tx.Where("meet_id IN (?)", meetIDs).
			Delete(&model.CircleMeetingAttendee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", id).
			Delete(&model.CircleMeeting{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.LearningCircle{}).Error
	})
}
