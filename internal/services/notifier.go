package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

// LedgerNotifier pushes progression changes to connected clients.
type LedgerNotifier interface {
	LedgerUpdated(u *types.User, entry *types.LedgerEntry)
	BadgeAwarded(userID uuid.UUID, badge *types.UserBadge)
	StreakUpdated(u *types.User)
	LeaderboardInvalidated()
}

type ledgerNotifier struct {
	emit SSEEmitter
}

func NewLedgerNotifier(emit SSEEmitter) LedgerNotifier {
	return &ledgerNotifier{emit: emit}
}

func (n *ledgerNotifier) LedgerUpdated(u *types.User, entry *types.LedgerEntry) {
	if n == nil || n.emit == nil || u == nil || u.ID == uuid.Nil {
		return
	}
	data := map[string]any{
		"user_id": u.ID,
		"xp":      u.XP,
		"level":   u.Level,
		"coins":   u.Coins,
	}
	if entry != nil {
		data["entry"] = entry
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(u.ID),
		Event:   realtime.SSEEventLedgerUpdate,
		Data:    data,
	})
}

func (n *ledgerNotifier) BadgeAwarded(userID uuid.UUID, badge *types.UserBadge) {
	if n == nil || n.emit == nil || userID == uuid.Nil || badge == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventBadgeAwarded,
		Data:    map[string]any{"badge": badge},
	})
}

// StreakUpdated fans out to every client: leaderboard rows show peers' streaks.
func (n *ledgerNotifier) StreakUpdated(u *types.User) {
	if n == nil || n.emit == nil || u == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ChannelBroadcast,
		Event:   realtime.SSEEventStreakUpdate,
		Data: StreakUpdatePayload{
			Email:       u.Email,
			LoginStreak: u.LoginStreak,
			Streak:      u.ActivityStreak,
		},
	})
}

func (n *ledgerNotifier) LeaderboardInvalidated() {
	if n == nil || n.emit == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ChannelBroadcast,
		Event:   realtime.SSEEventLeaderboardInvalidate,
	})
}

// StreakUpdatePayload is the body of a streak:update event.
type StreakUpdatePayload struct {
	Email       string `json:"email"`
	LoginStreak int    `json:"loginStreak"`
	Streak      int    `json:"streak"`
}

// ClassroomNotifier pushes class and hackathon events.
type ClassroomNotifier interface {
	SubmissionGraded(studentID uuid.UUID, sub *types.Submission)
	TeamUpdated(hackathonID uuid.UUID, team *types.Team)
}

type classroomNotifier struct {
	emit SSEEmitter
}

func NewClassroomNotifier(emit SSEEmitter) ClassroomNotifier {
	return &classroomNotifier{emit: emit}
}

func (n *classroomNotifier) SubmissionGraded(studentID uuid.UUID, sub *types.Submission) {
	if n == nil || n.emit == nil || studentID == uuid.Nil || sub == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(studentID),
		Event:   realtime.SSEEventSubmissionGraded,
		Data:    map[string]any{"submission": sub},
	})
}

func (n *classroomNotifier) TeamUpdated(hackathonID uuid.UUID, team *types.Team) {
	if n == nil || n.emit == nil || hackathonID == uuid.Nil || team == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.HackathonChannel(hackathonID),
		Event:   realtime.SSEEventTeamUpdated,
		Data:    map[string]any{"team": team},
	})
}
