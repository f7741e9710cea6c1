package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

// Rules holds the tunable gamification amounts and catalogs.
type Rules struct {
	LessonXP            int `yaml:"lesson_xp"`
	QuizXPPerCorrect    int `yaml:"quiz_xp_per_correct"`
	QuizCoinsPerCorrect int `yaml:"quiz_coins_per_correct"`
	BattleWinXP         int `yaml:"battle_win_xp"`
	BattleWinCoins      int `yaml:"battle_win_coins"`
	BattleLossXP        int `yaml:"battle_loss_xp"`

	LevelBadges  []BadgeThreshold `yaml:"level_badges"`
	StreakBadges []BadgeThreshold `yaml:"streak_badges"`

	Badges     []BadgeSpec `yaml:"badges"`
	StoreItems []ItemSpec  `yaml:"store_items"`
}

// BadgeThreshold awards BadgeID once the tracked value reaches Min.
type BadgeThreshold struct {
	BadgeID string `yaml:"badge_id"`
	Min     int    `yaml:"min"`
}

type BadgeSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

type ItemSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	Cost        int    `yaml:"cost"`
}

func DefaultRules() Rules {
	return Rules{
		LessonXP:            10,
		QuizXPPerCorrect:    5,
		QuizCoinsPerCorrect: 1,
		BattleWinXP:         25,
		BattleWinCoins:      5,
		BattleLossXP:        5,
		LevelBadges: []BadgeThreshold{
			{BadgeID: "rising-star", Min: 2},
			{BadgeID: "scholar", Min: 5},
			{BadgeID: "legend", Min: 10},
		},
		StreakBadges: []BadgeThreshold{
			{BadgeID: "on-fire", Min: 3},
			{BadgeID: "week-warrior", Min: 7},
			{BadgeID: "unstoppable", Min: 30},
		},
		Badges: []BadgeSpec{
			{ID: "rising-star", Name: "Rising Star", Description: "Reach level 2", Icon: "star"},
			{ID: "scholar", Name: "Scholar", Description: "Reach level 5", Icon: "book"},
			{ID: "legend", Name: "Legend", Description: "Reach level 10", Icon: "crown"},
			{ID: "on-fire", Name: "On Fire", Description: "3 day streak", Icon: "flame"},
			{ID: "week-warrior", Name: "Week Warrior", Description: "7 day streak", Icon: "calendar"},
			{ID: "unstoppable", Name: "Unstoppable", Description: "30 day streak", Icon: "rocket"},
			{ID: "quiz-master", Name: "Quiz Master", Description: "Awarded by a teacher for quiz excellence", Icon: "brain"},
			{ID: "hackathon-hero", Name: "Hackathon Hero", Description: "Awarded for an outstanding hackathon project", Icon: "trophy"},
		},
		StoreItems: []ItemSpec{
			{ID: "hint-pack", Name: "Hint Pack", Description: "Three quiz hints", Kind: "consumable", Cost: 20},
			{ID: "theme-midnight", Name: "Midnight Theme", Description: "Dark profile theme", Kind: "theme", Cost: 30},
			{ID: "frame-gold", Name: "Gold Frame", Description: "Gold avatar frame", Kind: "cosmetic", Cost: 50},
			{ID: "title-scholar", Name: "Scholar Title", Description: "Profile title", Kind: "title", Cost: 100},
		},
	}
}

// Validate rejects amounts that would break ledger invariants.
func (r Rules) Validate() error {
	for name, v := range map[string]int{
		"lesson_xp":              r.LessonXP,
		"quiz_xp_per_correct":    r.QuizXPPerCorrect,
		"quiz_coins_per_correct": r.QuizCoinsPerCorrect,
		"battle_win_xp":          r.BattleWinXP,
		"battle_win_coins":       r.BattleWinCoins,
		"battle_loss_xp":         r.BattleLossXP,
	} {
		if v < 0 {
			return fmt.Errorf("rule %s must not be negative", name)
		}
	}
	known := map[string]bool{}
	for _, b := range r.Badges {
		if strings.TrimSpace(b.ID) == "" || strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("badge needs id and name")
		}
		known[b.ID] = true
	}
	for _, th := range append(append([]BadgeThreshold{}, r.LevelBadges...), r.StreakBadges...) {
		if !known[th.BadgeID] {
			return fmt.Errorf("threshold references unknown badge %q", th.BadgeID)
		}
	}
	for _, it := range r.StoreItems {
		if strings.TrimSpace(it.ID) == "" || it.Cost < 0 {
			return fmt.Errorf("store item %q needs an id and a non-negative cost", it.ID)
		}
	}
	return nil
}

// SeedCatalog upserts the badge and store catalogs from rules.
func SeedCatalog(ctx context.Context, log *logger.Logger, badges repos.BadgeRepo, store repos.StoreRepo, rules Rules) error {
	now := time.Now().UTC()
	dbc := dbctx.Context{Ctx: ctx}

	defs := make([]*types.BadgeDefinition, 0, len(rules.Badges))
	for _, b := range rules.Badges {
		defs = append(defs, &types.BadgeDefinition{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := badges.UpsertDefinitions(dbc, defs); err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}

	items := make([]*types.StoreItem, 0, len(rules.StoreItems))
	for _, it := range rules.StoreItems {
		items = append(items, &types.StoreItem{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Kind:        it.Kind,
			Cost:        it.Cost,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := store.UpsertItems(dbc, items); err != nil {
		return fmt.Errorf("seed store items: %w", err)
	}
	log.Info("catalog seeded", "badges", len(defs), "store_items", len(items))
	return nil
}

// EarnedBadges lists threshold badges the user qualifies for.
func (r Rules) EarnedBadges(u *types.User) []string {
	if u == nil {
		return nil
	}
	var out []string
	for _, th := range r.LevelBadges {
		if u.Level >= th.Min {
			out = append(out, th.BadgeID)
		}
	}
	best := u.LongestLoginStreak
	if u.LongestActivityStreak > best {
		best = u.LongestActivityStreak
	}
	for _, th := range r.StreakBadges {
		if best >= th.Min {
			out = append(out, th.BadgeID)
		}
	}
	return out
}
