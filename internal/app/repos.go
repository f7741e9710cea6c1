package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	UserToken   repos.UserTokenRepo
	Progress    repos.TopicProgressRepo
	Badge       repos.BadgeRepo
	Store       repos.StoreRepo
	LedgerEntry repos.LedgerEntryRepo
	Class       repos.ClassRepo
	Assignment  repos.AssignmentRepo
	Hackathon   repos.HackathonRepo
	Team        repos.TeamRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Progress:    repos.NewTopicProgressRepo(db, log),
		Badge:       repos.NewBadgeRepo(db, log),
		Store:       repos.NewStoreRepo(db, log),
		LedgerEntry: repos.NewLedgerEntryRepo(db, log),
		Class:       repos.NewClassRepo(db, log),
		Assignment:  repos.NewAssignmentRepo(db, log),
		Hackathon:   repos.NewHackathonRepo(db, log),
		Team:        repos.NewTeamRepo(db, log),
	}
}
