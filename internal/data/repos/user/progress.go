package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type TopicProgressRepo interface {
	Upsert(dbc dbctx.Context, userID uuid.UUID, topic string, percent int) (*types.TopicProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.TopicProgress, error)
}

type topicProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicProgressRepo(db *gorm.DB, baseLog *logger.Logger) TopicProgressRepo {
	return &topicProgressRepo{db: db, log: baseLog.With("repo", "TopicProgressRepo")}
}

func (r *topicProgressRepo) Upsert(dbc dbctx.Context, userID uuid.UUID, topic string, percent int) (*types.TopicProgress, error) {
	row := &types.TopicProgress{
		UserID:    userID,
		Topic:     strings.TrimSpace(topic),
		Percent:   user.ClampPercent(percent),
		UpdatedAt: time.Now().UTC(),
	}
	err := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic"}},
		DoUpdates: clause.AssignmentColumns([]string{"percent", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *topicProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.TopicProgress, error) {
	var out []*types.TopicProgress
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("topic ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
