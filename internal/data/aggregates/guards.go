package aggregates

import (
	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/domain/hackathon"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// CASGuard applies conditional updates: a row changes only while it still
// holds the state the caller read inside the transaction.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// TeamFromStatus updates a team only while its status is still from. Losing
// the race to another writer (a grade landing during an edit) is a conflict.
func (g CASGuard) TeamFromStatus(dbc dbctx.Context, teamID uuid.UUID, from hackathon.TeamStatus, updates map[string]any) error {
	if dbc.Tx == nil && g.db == nil {
		return ValidationError("missing db transaction context")
	}
	if teamID == uuid.Nil || len(updates) == 0 {
		return ValidationError("team id and updates are required")
	}
	res := dbc.DB(g.db).Model(&hackathon.Team{}).
		Where("id = ? AND status = ?", teamID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError("team changed concurrently")
	}
	return nil
}

func statusIn(current hackathon.TeamStatus, allowed ...hackathon.TeamStatus) bool {
	for _, s := range allowed {
		if current == s {
			return true
		}
	}
	return false
}
