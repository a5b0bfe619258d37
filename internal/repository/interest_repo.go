package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"learning-circle/backend/internal/model"
)

// InterestRepository 兴趣组与用户兴趣偏好数据访问接口
type InterestRepository interface {
	GetGroupByID(ctx context.Context, id string) (*model.InterestGroup, error)
	// ChosenCategories 返回用户选择的兴趣类别；未设置偏好时返回空切片
	ChosenCategories(ctx context.Context, userID string) ([]string, error)
}

type interestRepo struct {
	db *gorm.DB
}

// NewInterestRepo 创建 InterestRepository 实例
func NewInterestRepo(db *gorm.DB) InterestRepository {
	return &interestRepo{db: db}
}

func (r *interestRepo) GetGroupByID(ctx context.Context, id string) (*model.InterestGroup, error) {
	var group model.InterestGroup
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *interestRepo) ChosenCategories(ctx context.Context, userID string) ([]string, error) {
	var interest model.UserInterest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&interest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return []string(interest.ChosenInterests), nil
}
