package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

// ChannelAccess decides which extra SSE channels a caller may join.
type ChannelAccess interface {
	Authorize(ctx context.Context, channel string) error
}

type channelAccess struct {
	classroom  ClassroomService
	hackathons HackathonService
}

func NewChannelAccess(classroom ClassroomService, hackathons HackathonService) ChannelAccess {
	return &channelAccess{classroom: classroom, hackathons: hackathons}
}

func (a *channelAccess) Authorize(ctx context.Context, channel string) error {
	channel = strings.TrimSpace(channel)
	if !realtime.CanSubscribe(channel) {
		return apierr.BadRequest("invalid_channel", "channel cannot be subscribed")
	}
	prefix, rawID, _ := strings.Cut(channel, ":")
	id, err := uuid.Parse(rawID)
	if err != nil {
		return apierr.BadRequest("invalid_channel", "channel cannot be subscribed")
	}
	switch prefix {
	case "class":
		return a.classroom.RequireMember(ctx, id)
	case "hackathon":
		_, err := a.hackathons.GetHackathon(ctx, id)
		return err
	}
	return apierr.BadRequest("invalid_channel", "channel cannot be subscribed")
}
