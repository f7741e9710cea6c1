package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

// LeaderboardQuery selects students ordered by xp desc, id asc.
type LeaderboardQuery struct {
	ClassID *uuid.UUID
	Limit   int
}

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(dbc dbctx.Context, emails []string) ([]*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UpdateName(dbc dbctx.Context, userID uuid.UUID, firstName, lastName string) error
	UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, avatarURL string) error

	// ApplyDelta adds xpDelta (floored at zero) and coinsDelta in one statement and
	// recomputes level from the new xp. It returns false when the user does not exist.
	ApplyDelta(dbc dbctx.Context, userID uuid.UUID, xpDelta, coinsDelta int) (bool, error)
	// DebitCoins subtracts cost only when the balance covers it.
	DebitCoins(dbc dbctx.Context, userID uuid.UUID, cost int) (bool, error)
	UpdateLoginStreak(dbc dbctx.Context, userID uuid.UUID, s user.Streak) error
	UpdateActivityStreak(dbc dbctx.Context, userID uuid.UUID, s user.Streak) error

	Leaderboard(dbc dbctx.Context, q LeaderboardQuery) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Email = user.NormalizeEmail(u.Email)
	}
	if err := dbc.DB(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(ur.db).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(dbc dbctx.Context, emails []string) ([]*types.User, error) {
	var results []*types.User
	if len(emails) == 0 {
		return results, nil
	}
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = user.NormalizeEmail(e); e != "" {
			normalized = append(normalized, e)
		}
	}
	if err := dbc.DB(ur.db).
		Where("email IN ?", normalized).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil, nil when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).Where("id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns nil, nil when no account has the email.
func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var u types.User
	err := dbc.DB(ur.db).Where("email = ?", email).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("email = ?", user.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UpdateName(dbc dbctx.Context, userID uuid.UUID, firstName, lastName string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"first_name": strings.TrimSpace(firstName),
			"last_name":  strings.TrimSpace(lastName),
		}).Error
}

func (ur *userRepo) UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, avatarURL string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"avatar_bucket_key": bucketKey,
			"avatar_url":        avatarURL,
		}).Error
}

func (ur *userRepo) ApplyDelta(dbc dbctx.Context, userID uuid.UUID, xpDelta, coinsDelta int) (bool, error) {
	res := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"xp":    gorm.Expr("CASE WHEN xp + ? < 0 THEN 0 ELSE xp + ? END", xpDelta, xpDelta),
			"level": gorm.Expr("CASE WHEN xp + ? < 0 THEN 1 ELSE ((xp + ?) / ?) + 1 END", xpDelta, xpDelta, user.XPPerLevel),
			"coins": gorm.Expr("coins + ?", coinsDelta),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (ur *userRepo) DebitCoins(dbc dbctx.Context, userID uuid.UUID, cost int) (bool, error) {
	res := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ? AND coins >= ?", userID, cost).
		Update("coins", gorm.Expr("coins - ?", cost))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (ur *userRepo) UpdateLoginStreak(dbc dbctx.Context, userID uuid.UUID, s user.Streak) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"login_streak":         s.Current,
			"longest_login_streak": s.Longest,
			"last_login_on":        s.LastDay,
		}).Error
}

func (ur *userRepo) UpdateActivityStreak(dbc dbctx.Context, userID uuid.UUID, s user.Streak) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"activity_streak":         s.Current,
			"longest_activity_streak": s.Longest,
			"last_active_on":          s.LastDay,
		}).Error
}

func (ur *userRepo) Leaderboard(dbc dbctx.Context, q LeaderboardQuery) ([]*types.User, error) {
	var results []*types.User
	tx := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("user_account.role = ?", types.RoleStudent)
	if q.ClassID != nil && *q.ClassID != uuid.Nil {
		tx = tx.Joins("JOIN class_member ON class_member.user_id = user_account.id AND class_member.class_id = ?", *q.ClassID)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.
		Order("user_account.xp DESC").
		Order("user_account.id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
