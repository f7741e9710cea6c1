package domain

import (
	"github.com/yungbote/levelup-backend/internal/domain/auth"
	"github.com/yungbote/levelup-backend/internal/domain/classroom"
	"github.com/yungbote/levelup-backend/internal/domain/gamification"
	"github.com/yungbote/levelup-backend/internal/domain/hackathon"
	"github.com/yungbote/levelup-backend/internal/domain/user"
)

type (
	User          = user.User
	Role          = user.Role
	TopicProgress = user.TopicProgress
	UserToken     = auth.UserToken

	BadgeDefinition  = gamification.BadgeDefinition
	UserBadge        = gamification.UserBadge
	StoreItem        = gamification.StoreItem
	UnlockedReward   = gamification.UnlockedReward
	LedgerEntry      = gamification.LedgerEntry
	LedgerKind       = gamification.LedgerKind
	LeaderboardEntry = gamification.LeaderboardEntry
	Leaderboard      = gamification.Leaderboard

	Class       = classroom.Class
	ClassMember = classroom.ClassMember
	Assignment  = classroom.Assignment
	Submission  = classroom.Submission

	Hackathon      = hackathon.Hackathon
	Team           = hackathon.Team
	TeamMember     = hackathon.TeamMember
	TeamStatus     = hackathon.TeamStatus
	SubmissionFile = hackathon.SubmissionFile
)

const (
	RoleStudent = user.RoleStudent
	RoleTeacher = user.RoleTeacher
)

// Models lists every persisted table in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&user.TopicProgress{},
		&auth.UserToken{},
		&gamification.BadgeDefinition{},
		&gamification.UserBadge{},
		&gamification.StoreItem{},
		&gamification.UnlockedReward{},
		&gamification.LedgerEntry{},
		&classroom.Class{},
		&classroom.ClassMember{},
		&classroom.Assignment{},
		&classroom.Submission{},
		&hackathon.Hackathon{},
		&hackathon.Team{},
		&hackathon.TeamMember{},
	}
}
