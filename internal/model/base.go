package model

import (
	"time"

	"github.com/google/uuid"
)

// Timestamps 通用时间戳字段（所有业务模型嵌入）
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ensureID 主键为空时生成 UUID（库表主键为 varchar(36)，不依赖数据库默认值）
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
