package hackathon

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type HackathonRepo interface {
	Create(dbc dbctx.Context, h *types.Hackathon) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Hackathon, error)
	List(dbc dbctx.Context, classIDs []uuid.UUID, creatorID *uuid.UUID) ([]*types.Hackathon, error)
}

type hackathonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHackathonRepo(db *gorm.DB, baseLog *logger.Logger) HackathonRepo {
	return &hackathonRepo{db: db, log: baseLog.With("repo", "HackathonRepo")}
}

func (r *hackathonRepo) Create(dbc dbctx.Context, h *types.Hackathon) error {
	return dbc.DB(r.db).Create(h).Error
}

func (r *hackathonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Hackathon, error) {
	var h types.Hackathon
	err := dbc.DB(r.db).Where("id = ?", id).Take(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// List returns open hackathons (no class), those scoped to classIDs, and
// those created by creatorID when set.
func (r *hackathonRepo) List(dbc dbctx.Context, classIDs []uuid.UUID, creatorID *uuid.UUID) ([]*types.Hackathon, error) {
	q := dbc.DB(r.db).Model(&types.Hackathon{})
	cond := r.db.Where("class_id IS NULL")
	if len(classIDs) > 0 {
		cond = cond.Or("class_id IN ?", classIDs)
	}
	if creatorID != nil {
		cond = cond.Or("creator_id = ?", *creatorID)
	}
	var out []*types.Hackathon
	if err := q.Where(cond).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
