package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/hackathon"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
)

type TeamAggregateDeps struct {
	Base BaseDeps

	Hackathons repos.HackathonRepo
	Teams      repos.TeamRepo
}

type teamAggregate struct {
	deps TeamAggregateDeps
}

func NewTeamAggregate(deps TeamAggregateDeps) domainagg.TeamAggregate {
	deps.Base = deps.Base.withDefaults()
	return &teamAggregate{deps: deps}
}

func (a *teamAggregate) Contract() domainagg.Contract {
	return domainagg.TeamAggregateContract
}

// uniqueMembers puts the leader first and drops duplicates and nil ids.
func uniqueMembers(leader uuid.UUID, members []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{leader: true}
	out := []uuid.UUID{leader}
	for _, id := range members {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (a *teamAggregate) CreateTeam(ctx context.Context, in domainagg.CreateTeamInput) (hackathon.Team, error) {
	op := domainagg.TeamAggregateContract.Op("Create")
	var out hackathon.Team
	name := strings.TrimSpace(in.Name)
	if in.HackathonID == uuid.Nil || in.LeaderID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "hackathon_id and leader_id are required", nil)
	}
	if name == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "team name is required", nil)
	}
	at := in.At
	if at.IsZero() {
		at = a.deps.Base.Now()
	}
	members := uniqueMembers(in.LeaderID, in.MemberIDs)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		h, err := a.deps.Hackathons.GetByID(dbc, in.HackathonID)
		if err != nil {
			return err
		}
		if h == nil {
			return NotFoundError("hackathon not found")
		}
		if !h.SizeAllowed(len(members)) {
			return ValidationError(fmt.Sprintf("team size must be between %d and %d, got %d", h.MinTeamSize, h.MaxTeamSize, len(members)))
		}
		taken, err := a.deps.Teams.MembersInHackathon(dbc, h.ID, members)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return ConflictError("a member already belongs to a team in this hackathon")
		}
		team := &types.Team{
			HackathonID:      h.ID,
			Name:             name,
			ProblemStatement: strings.TrimSpace(in.ProblemStatement),
			LeaderID:         in.LeaderID,
			Status:           hackathon.StatusNotStarted,
		}
		if err := a.deps.Teams.Create(dbc, team, members, at); err != nil {
			return err
		}
		out = *team
		return nil
	})
	return out, err
}

// loadForActor loads the team and enforces membership; leaderOnly narrows it to the leader.
func (a *teamAggregate) loadForActor(dbc dbctx.Context, teamID, actorID uuid.UUID, leaderOnly bool) (*types.Team, error) {
	team, err := a.deps.Teams.GetByID(dbc, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFoundError("team not found")
	}
	if leaderOnly && team.LeaderID != actorID {
		return nil, ForbiddenError("only the team leader can do this")
	}
	if !team.HasMember(actorID) {
		return nil, ForbiddenError("only team members can do this")
	}
	return team, nil
}

func (a *teamAggregate) UpdateTeam(ctx context.Context, in domainagg.UpdateTeamInput) (hackathon.Team, error) {
	op := domainagg.TeamAggregateContract.Op("Update")
	var out hackathon.Team
	if in.TeamID == uuid.Nil || in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "team_id and actor_id are required", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		team, err := a.loadForActor(dbc, in.TeamID, in.ActorID, true)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"status":     team.Status.AfterEdit(),
			"updated_at": a.deps.Base.Now(),
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ValidationError("team name must not be empty")
			}
			updates["name"] = name
		}
		if in.ProblemStatement != nil {
			updates["problem_statement"] = strings.TrimSpace(*in.ProblemStatement)
		}
		if err := a.deps.Base.CASGuard.TeamFromStatus(dbc, team.ID, team.Status, updates); err != nil {
			return err
		}
		fresh, err := a.deps.Teams.GetByID(dbc, team.ID)
		if err != nil {
			return err
		}
		out = *fresh
		return nil
	})
	return out, err
}

func (a *teamAggregate) DeleteTeam(ctx context.Context, in domainagg.DeleteTeamInput) error {
	op := domainagg.TeamAggregateContract.Op("Delete")
	if in.TeamID == uuid.Nil || in.ActorID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "team_id and actor_id are required", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		team, err := a.loadForActor(dbc, in.TeamID, in.ActorID, true)
		if err != nil {
			return err
		}
		return a.deps.Teams.Delete(dbc, team.ID)
	})
}

func (a *teamAggregate) Submit(ctx context.Context, in domainagg.SubmitTeamInput) (hackathon.Team, error) {
	op := domainagg.TeamAggregateContract.Op("Submit")
	var out hackathon.Team
	if in.TeamID == uuid.Nil || in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "team_id and actor_id are required", nil)
	}
	if in.Draft && len(in.Files) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "draft upload needs at least one file", nil)
	}
	at := in.At
	if at.IsZero() {
		at = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		team, err := a.loadForActor(dbc, in.TeamID, in.ActorID, false)
		if err != nil {
			return err
		}
		next := team.Status.AfterSubmit()
		if in.Draft {
			next = team.Status.AfterEdit()
		}
		updates := map[string]any{
			"status":     next,
			"updated_at": at,
		}
		if in.Text != nil {
			updates["submission_text"] = strings.TrimSpace(*in.Text)
		}
		if in.Link != nil {
			updates["submission_link"] = strings.TrimSpace(*in.Link)
		}
		if len(in.Files) > 0 {
			files := append(team.Files[:len(team.Files):len(team.Files)], in.Files...)
			updates["files"] = files
		}
		if !in.Draft && team.SubmittedAt == nil {
			updates["submitted_at"] = at
		}
		if !in.Draft && in.Text == nil && in.Link == nil && len(in.Files) == 0 && team.SubmittedAt == nil &&
			strings.TrimSpace(team.SubmissionText) == "" && strings.TrimSpace(team.SubmissionLink) == "" && len(team.Files) == 0 {
			return ValidationError("submission needs text, a link or files")
		}
		if err := a.deps.Base.CASGuard.TeamFromStatus(dbc, team.ID, team.Status, updates); err != nil {
			return err
		}
		fresh, err := a.deps.Teams.GetByID(dbc, team.ID)
		if err != nil {
			return err
		}
		out = *fresh
		return nil
	})
	return out, err
}

func (a *teamAggregate) Grade(ctx context.Context, in domainagg.GradeTeamInput) (hackathon.Team, error) {
	op := domainagg.TeamAggregateContract.Op("Grade")
	var out hackathon.Team
	if in.TeamID == uuid.Nil || in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "team_id and actor_id are required", nil)
	}
	if in.Score < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "score must not be negative", nil)
	}
	at := in.At
	if at.IsZero() {
		at = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		team, err := a.deps.Teams.GetByID(dbc, in.TeamID)
		if err != nil {
			return err
		}
		if team == nil {
			return NotFoundError("team not found")
		}
		h, err := a.deps.Hackathons.GetByID(dbc, team.HackathonID)
		if err != nil {
			return err
		}
		if h == nil || h.CreatorID != in.ActorID {
			return ForbiddenError("only the hackathon owner can grade")
		}
		if !statusIn(team.Status, hackathon.StatusSubmitted, hackathon.StatusGraded) {
			return PreconditionError("team has not submitted yet")
		}
		score := in.Score
		if err := a.deps.Base.CASGuard.TeamFromStatus(dbc, team.ID, team.Status, map[string]any{
			"status":     hackathon.StatusGraded,
			"score":      score,
			"graded_at":  at,
			"updated_at": at,
		}); err != nil {
			return err
		}
		fresh, err := a.deps.Teams.GetByID(dbc, team.ID)
		if err != nil {
			return err
		}
		out = *fresh
		return nil
	})
	return out, err
}
