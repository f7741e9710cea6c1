package gamification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type LedgerEntryRepo interface {
	Create(dbc dbctx.Context, entry *types.LedgerEntry) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LedgerEntry, error)
	KeyExists(dbc dbctx.Context, key string) (bool, error)
}

type ledgerEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerEntryRepo(db *gorm.DB, baseLog *logger.Logger) LedgerEntryRepo {
	return &ledgerEntryRepo{db: db, log: baseLog.With("repo", "LedgerEntryRepo")}
}

func (r *ledgerEntryRepo) Create(dbc dbctx.Context, entry *types.LedgerEntry) error {
	return dbc.DB(r.db).Create(entry).Error
}

func (r *ledgerEntryRepo) KeyExists(dbc dbctx.Context, key string) (bool, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.LedgerEntry{}).Where("idempotency_key = ?", key).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns the newest entries first.
func (r *ledgerEntryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var out []*types.LedgerEntry
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
