package hackathon

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type TeamRepo interface {
	Create(dbc dbctx.Context, team *types.Team, memberIDs []uuid.UUID, at time.Time) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Team, error)
	ListByHackathon(dbc dbctx.Context, hackathonID uuid.UUID) ([]*types.Team, error)
	GetForUser(dbc dbctx.Context, hackathonID, userID uuid.UUID) (*types.Team, error)
	// MembersInHackathon returns which of userIDs already belong to a team of the hackathon.
	MembersInHackathon(dbc dbctx.Context, hackathonID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type teamRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo {
	return &teamRepo{db: db, log: baseLog.With("repo", "TeamRepo")}
}

// Create stores the team and one member row per id. The leader must be in memberIDs.
func (r *teamRepo) Create(dbc dbctx.Context, team *types.Team, memberIDs []uuid.UUID, at time.Time) error {
	tx := dbc.DB(r.db)
	if err := tx.Omit("Members").Create(team).Error; err != nil {
		return err
	}
	if len(memberIDs) == 0 {
		return nil
	}
	rows := make([]*types.TeamMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		rows = append(rows, &types.TeamMember{
			TeamID:      team.ID,
			UserID:      id,
			HackathonID: team.HackathonID,
			JoinedAt:    at.UTC(),
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return err
	}
	team.Members = make([]types.TeamMember, 0, len(rows))
	for _, m := range rows {
		team.Members = append(team.Members, *m)
	}
	return nil
}

func (r *teamRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Team, error) {
	var t types.Team
	err := dbc.DB(r.db).
		Preload("Members").
		Preload("Members.User").
		Where("id = ?", id).
		Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teamRepo) ListByHackathon(dbc dbctx.Context, hackathonID uuid.UUID) ([]*types.Team, error) {
	var out []*types.Team
	if err := dbc.DB(r.db).
		Preload("Members").
		Preload("Members.User").
		Where("hackathon_id = ?", hackathonID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamRepo) GetForUser(dbc dbctx.Context, hackathonID, userID uuid.UUID) (*types.Team, error) {
	var m types.TeamMember
	err := dbc.DB(r.db).
		Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(dbc, m.TeamID)
}

func (r *teamRepo) MembersInHackathon(dbc dbctx.Context, hackathonID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.TeamMember{}).
		Where("hackathon_id = ? AND user_id IN ?", hackathonID, userIDs).
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Team{}).Where("id = ?", id).Updates(updates).Error
}

func (r *teamRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("team_id = ?", id).Delete(&types.TeamMember{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&types.Team{}).Error
}
