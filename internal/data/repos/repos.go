package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/levelup-backend/internal/data/repos/auth"
	"github.com/yungbote/levelup-backend/internal/data/repos/classroom"
	"github.com/yungbote/levelup-backend/internal/data/repos/gamification"
	"github.com/yungbote/levelup-backend/internal/data/repos/hackathon"
	"github.com/yungbote/levelup-backend/internal/data/repos/user"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type TopicProgressRepo = user.TopicProgressRepo
type LeaderboardQuery = user.LeaderboardQuery
type UserTokenRepo = auth.UserTokenRepo

type BadgeRepo = gamification.BadgeRepo
type StoreRepo = gamification.StoreRepo
type LedgerEntryRepo = gamification.LedgerEntryRepo

type ClassRepo = classroom.ClassRepo
type AssignmentRepo = classroom.AssignmentRepo

type HackathonRepo = hackathon.HackathonRepo
type TeamRepo = hackathon.TeamRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewTopicProgressRepo(db *gorm.DB, baseLog *logger.Logger) TopicProgressRepo {
	return user.NewTopicProgressRepo(db, baseLog)
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return gamification.NewBadgeRepo(db, baseLog)
}

func NewStoreRepo(db *gorm.DB, baseLog *logger.Logger) StoreRepo {
	return gamification.NewStoreRepo(db, baseLog)
}

func NewLedgerEntryRepo(db *gorm.DB, baseLog *logger.Logger) LedgerEntryRepo {
	return gamification.NewLedgerEntryRepo(db, baseLog)
}

func NewClassRepo(db *gorm.DB, baseLog *logger.Logger) ClassRepo {
	return classroom.NewClassRepo(db, baseLog)
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return classroom.NewAssignmentRepo(db, baseLog)
}

func NewHackathonRepo(db *gorm.DB, baseLog *logger.Logger) HackathonRepo {
	return hackathon.NewHackathonRepo(db, baseLog)
}

func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo {
	return hackathon.NewTeamRepo(db, baseLog)
}
