package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

// DefaultOutboundBuffer is the per-client queue length; a full queue drops.
const DefaultOutboundBuffer = 32

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}
