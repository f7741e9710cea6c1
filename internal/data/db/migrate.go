package db

import (
	"fmt"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates the read-path indexes gorm tags cannot express.
// The statements are valid on both postgres and sqlite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_user_account_leaderboard", `CREATE INDEX IF NOT EXISTS idx_user_account_leaderboard ON user_account(xp DESC, id ASC);`},
		{"idx_user_badge_user", `CREATE INDEX IF NOT EXISTS idx_user_badge_user ON user_badge(user_id);`},
		{"idx_unlocked_reward_user", `CREATE INDEX IF NOT EXISTS idx_unlocked_reward_user ON unlocked_reward(user_id);`},
		{"idx_team_hackathon_leader", `CREATE INDEX IF NOT EXISTS idx_team_hackathon_leader ON team(hackathon_id, leader_id);`},
		{"idx_submission_assignment", `CREATE INDEX IF NOT EXISTS idx_submission_assignment ON assignment_submission(assignment_id, submitted_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
