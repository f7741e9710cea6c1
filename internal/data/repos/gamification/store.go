package gamification

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type StoreRepo interface {
	UpsertItems(dbc dbctx.Context, items []*types.StoreItem) error
	ListItems(dbc dbctx.Context) ([]*types.StoreItem, error)
	GetItem(dbc dbctx.Context, id string) (*types.StoreItem, error)

	// Unlock records ownership, returning false when it already existed.
	Unlock(dbc dbctx.Context, userID uuid.UUID, item *types.StoreItem, at time.Time) (bool, error)
	ListUnlocked(dbc dbctx.Context, userID uuid.UUID) ([]*types.UnlockedReward, error)
}

type storeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoreRepo(db *gorm.DB, baseLog *logger.Logger) StoreRepo {
	return &storeRepo{db: db, log: baseLog.With("repo", "StoreRepo")}
}

func (r *storeRepo) UpsertItems(dbc dbctx.Context, items []*types.StoreItem) error {
	if len(items) == 0 {
		return nil
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "kind", "cost", "updated_at"}),
	}).Create(&items).Error
}

func (r *storeRepo) ListItems(dbc dbctx.Context) ([]*types.StoreItem, error) {
	var out []*types.StoreItem
	if err := dbc.DB(r.db).Order("cost ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetItem returns nil, nil for an unknown id.
func (r *storeRepo) GetItem(dbc dbctx.Context, id string) (*types.StoreItem, error) {
	var it types.StoreItem
	err := dbc.DB(r.db).Where("id = ?", id).Take(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *storeRepo) Unlock(dbc dbctx.Context, userID uuid.UUID, item *types.StoreItem, at time.Time) (bool, error) {
	row := &types.UnlockedReward{
		UserID:     userID,
		RewardID:   item.ID,
		CostPaid:   item.Cost,
		UnlockedAt: at.UTC(),
	}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "reward_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *storeRepo) ListUnlocked(dbc dbctx.Context, userID uuid.UUID) ([]*types.UnlockedReward, error) {
	var out []*types.UnlockedReward
	if err := dbc.DB(r.db).
		Preload("Item").
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
