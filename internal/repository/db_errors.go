package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// 唯一约束名，与迁移脚本保持一致
const (
	ConstraintAttendeeMeetUser   = "uq_attendee_meet_user"
	ConstraintMeetingOpenCircle  = "uq_meeting_open_per_circle"
	ConstraintWalletUser         = "uq_wallets_user"
	ConstraintKarmaActivityTag   = "uq_karma_activities_hashtag"
	ConstraintUserInterestsOwner = "uq_user_interests_user"
)

// IsDuplicateKey 判断错误是否为唯一约束冲突
// constraint 非空时，若驱动保留了原始 PgError 则额外比对约束名
// 开启 TranslateError 后驱动只返回 gorm.ErrDuplicatedKey，此时无法区分约束，按冲突处理
func IsDuplicateKey(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation &&
			(constraint == "" || pgErr.ConstraintName == constraint)
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
