package realtime

import (
	"strings"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	// SSEEventStreakUpdate goes to every connected client.
	SSEEventStreakUpdate          SSEEvent = "streak:update"
	SSEEventLedgerUpdate          SSEEvent = "ledger:update"
	SSEEventBadgeAwarded          SSEEvent = "badge:awarded"
	SSEEventLeaderboardInvalidate SSEEvent = "leaderboard:invalidate"
	SSEEventTeamUpdated           SSEEvent = "team:updated"
	SSEEventSubmissionGraded      SSEEvent = "submission:graded"
)

// ChannelBroadcast is joined by every client on connect.
const ChannelBroadcast = "broadcast"

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the private channel of one account.
func UserChannel(userID uuid.UUID) string {
	return userID.String()
}

// CanSubscribe reports whether a client may join channel on request. The
// broadcast channel and its own user channel are joined implicitly.
func CanSubscribe(channel string) bool {
	channel = strings.TrimSpace(channel)
	switch {
	case channel == "":
		return false
	case strings.HasPrefix(channel, "class:"), strings.HasPrefix(channel, "hackathon:"):
		_, err := uuid.Parse(channel[strings.Index(channel, ":")+1:])
		return err == nil
	default:
		return false
	}
}

func ClassChannel(classID uuid.UUID) string {
	return "class:" + classID.String()
}

func HackathonChannel(hackathonID uuid.UUID) string {
	return "hackathon:" + hackathonID.String()
}
