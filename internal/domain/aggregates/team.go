package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/domain/hackathon"
)

var TeamAggregateContract = Contract{
	Name:   "Hackathon.Team",
	Tables: []string{hackathon.Team{}.TableName(), hackathon.TeamMember{}.TableName()},
}

// TeamAggregate owns hackathon team writes.
type TeamAggregate interface {
	Aggregate

	CreateTeam(ctx context.Context, in CreateTeamInput) (hackathon.Team, error)
	UpdateTeam(ctx context.Context, in UpdateTeamInput) (hackathon.Team, error)
	DeleteTeam(ctx context.Context, in DeleteTeamInput) error
	Submit(ctx context.Context, in SubmitTeamInput) (hackathon.Team, error)
	Grade(ctx context.Context, in GradeTeamInput) (hackathon.Team, error)
}

// CreateTeamInput carries resolved account ids; the leader is counted once
// even when listed in MemberIDs.
type CreateTeamInput struct {
	HackathonID      uuid.UUID
	LeaderID         uuid.UUID
	MemberIDs        []uuid.UUID
	Name             string
	ProblemStatement string
	At               time.Time
}

type UpdateTeamInput struct {
	TeamID           uuid.UUID
	ActorID          uuid.UUID
	Name             *string
	ProblemStatement *string
}

type DeleteTeamInput struct {
	TeamID  uuid.UUID
	ActorID uuid.UUID
}

// SubmitTeamInput saves or amends the team submission. Files are appended.
type SubmitTeamInput struct {
	TeamID  uuid.UUID
	ActorID uuid.UUID
	Text    *string
	Link    *string
	Files   []hackathon.SubmissionFile
	// Draft saves files without marking the team submitted.
	Draft bool
	At    time.Time
}

type GradeTeamInput struct {
	TeamID  uuid.UUID
	ActorID uuid.UUID
	Score   int
	At      time.Time
}
