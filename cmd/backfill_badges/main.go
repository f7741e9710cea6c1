// Command backfill_badges repairs derived progression state: it rewrites
// levels that drifted from xp and grants level and streak badges that were
// earned before a threshold was added to the rules.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/app"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/user"
)

func main() {
	var dryRun bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", false, "print planned changes without writing")
	flag.IntVar(&limit, "limit", 0, "limit number of accounts processed")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	var rows []*types.User
	q := application.DB.WithContext(ctx).Where("role = ?", types.RoleStudent).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		fmt.Printf("load accounts: %v\n", err)
		os.Exit(1)
	}

	rules := application.Cfg.Rules
	levelsFixed, badgesAwarded := 0, 0
	for _, u := range rows {
		if u == nil || u.ID == uuid.Nil {
			continue
		}
		if want := user.LevelForXP(u.XP); u.Level != want {
			fmt.Printf("level %s: %d -> %d\n", u.Email, u.Level, want)
			if !dryRun {
				if err := application.DB.WithContext(ctx).Model(&types.User{}).
					Where("id = ?", u.ID).Update("level", want).Error; err != nil {
					fmt.Printf("update level %s: %v\n", u.ID, err)
					continue
				}
			}
			u.Level = want
			levelsFixed++
		}
		for _, badgeID := range rules.EarnedBadges(u) {
			if dryRun {
				fmt.Printf("badge %s: %s (if missing)\n", u.Email, badgeID)
				continue
			}
			res, err := application.Services.Ledger.AwardBadge(ctx, domainagg.AwardBadgeInput{UserID: u.ID, BadgeID: badgeID})
			if err != nil {
				fmt.Printf("award %s to %s: %v\n", badgeID, u.ID, err)
				continue
			}
			if res.Awarded {
				fmt.Printf("badge %s: %s\n", u.Email, badgeID)
				badgesAwarded++
			}
		}
	}
	fmt.Printf("done: accounts=%d levels_fixed=%d badges_awarded=%d dry_run=%v\n", len(rows), levelsFixed, badgesAwarded, dryRun)
}
