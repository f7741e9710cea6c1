package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"gorm.io/gorm"
)

type UserOpt func(*types.User)

func WithXP(xp int) UserOpt {
	return func(u *types.User) {
		u.XP = xp
		u.Level = user.LevelForXP(xp)
	}
}

func WithCoins(coins int) UserOpt {
	return func(u *types.User) { u.Coins = coins }
}

func AsTeacher() UserOpt {
	return func(u *types.User) { u.Role = types.RoleTeacher }
}

func WithLoginStreak(current, longest int, lastDay string) UserOpt {
	return func(u *types.User) {
		u.LoginStreak, u.LongestLoginStreak, u.LastLoginOn = current, longest, lastDay
	}
}

func SeedUser(tb testing.TB, db *gorm.DB, email string, opts ...UserOpt) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RoleStudent,
		Level:     1,
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedBadge(tb testing.TB, db *gorm.DB, id, name string) *types.BadgeDefinition {
	tb.Helper()
	b := &types.BadgeDefinition{ID: id, Name: name}
	if err := db.Create(b).Error; err != nil {
		tb.Fatalf("seed badge: %v", err)
	}
	return b
}

func SeedStoreItem(tb testing.TB, db *gorm.DB, id string, cost int) *types.StoreItem {
	tb.Helper()
	it := &types.StoreItem{ID: id, Name: id, Cost: cost, Kind: "cosmetic"}
	if err := db.Create(it).Error; err != nil {
		tb.Fatalf("seed store item: %v", err)
	}
	return it
}

func SeedClass(tb testing.TB, db *gorm.DB, teacherID uuid.UUID, code string, studentIDs ...uuid.UUID) *types.Class {
	tb.Helper()
	c := &types.Class{ID: uuid.New(), TeacherID: teacherID, Name: "class " + code, JoinCode: code}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed class: %v", err)
	}
	for _, sid := range studentIDs {
		m := &types.ClassMember{ClassID: c.ID, UserID: sid, JoinedAt: time.Now().UTC()}
		if err := db.Create(m).Error; err != nil {
			tb.Fatalf("seed class member: %v", err)
		}
	}
	return c
}

func SeedHackathon(tb testing.TB, db *gorm.DB, creatorID uuid.UUID, minSize, maxSize int) *types.Hackathon {
	tb.Helper()
	h := &types.Hackathon{ID: uuid.New(), CreatorID: creatorID, Title: "hack", MinTeamSize: minSize, MaxTeamSize: maxSize}
	if err := db.Create(h).Error; err != nil {
		tb.Fatalf("seed hackathon: %v", err)
	}
	return h
}
