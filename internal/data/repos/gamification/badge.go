package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type BadgeRepo interface {
	// UpsertDefinitions seeds or refreshes the badge catalog.
	UpsertDefinitions(dbc dbctx.Context, defs []*types.BadgeDefinition) error
	ListDefinitions(dbc dbctx.Context) ([]*types.BadgeDefinition, error)
	GetDefinitionsByIDs(dbc dbctx.Context, ids []string) ([]*types.BadgeDefinition, error)

	// InsertIfAbsent grants a badge, returning false when the user already holds it.
	InsertIfAbsent(dbc dbctx.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserBadge, error)
	CountByUsers(dbc dbctx.Context, userIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) UpsertDefinitions(dbc dbctx.Context, defs []*types.BadgeDefinition) error {
	if len(defs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "updated_at"}),
	}).Create(&defs).Error
}

func (r *badgeRepo) ListDefinitions(dbc dbctx.Context) ([]*types.BadgeDefinition, error) {
	var out []*types.BadgeDefinition
	if err := dbc.DB(r.db).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *badgeRepo) GetDefinitionsByIDs(dbc dbctx.Context, ids []string) ([]*types.BadgeDefinition, error) {
	var out []*types.BadgeDefinition
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *badgeRepo) InsertIfAbsent(dbc dbctx.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error) {
	row := &types.UserBadge{UserID: userID, BadgeID: badgeID, EarnedAt: at.UTC()}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *badgeRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserBadge, error) {
	var out []*types.UserBadge
	if err := dbc.DB(r.db).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *badgeRepo) CountByUsers(dbc dbctx.Context, userIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		UserID uuid.UUID
		N      int
	}
	if err := dbc.DB(r.db).
		Model(&types.UserBadge{}).
		Select("user_id, COUNT(*) AS n").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row.N
	}
	return out, nil
}
