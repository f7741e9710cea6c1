package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/http/response"
	"github.com/yungbote/levelup-backend/internal/platform/ctxutil"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
	"github.com/yungbote/levelup-backend/internal/realtime"
	"github.com/yungbote/levelup-backend/internal/services"
)

type RealtimeHandler struct {
	Log    *logger.Logger
	Hub    *realtime.SSEHub
	Access services.ChannelAccess

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.SSEClient // key: SessionID (UserToken.ID)
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, access services.ChannelAccess) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log.With("handler", "RealtimeHandler"),
		Hub:     hub,
		Access:  access,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// SSEStream holds the connection open until the client leaves. One stream
// per session: a reconnect replaces the previous client.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil || rd.SessionID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}

	client := h.Hub.NewSSEClient(rd.UserID)
	h.mu.Lock()
	if existing, ok := h.clients[rd.SessionID]; ok {
		h.Hub.CloseClient(existing)
	}
	h.clients[rd.SessionID] = client
	h.mu.Unlock()
	h.Log.Debug("SSE stream open", "user_id", rd.UserID, "client_id", client.ID)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[rd.SessionID] == client {
		delete(h.clients, rd.SessionID)
	}
	h.mu.Unlock()
	h.Hub.CloseClient(client)
}

// POST /api/sse/subscribe
// body: { "channel": "class:<id>" }
func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	client, channel, ok := h.sessionClient(c)
	if !ok {
		return
	}
	if h.Access != nil {
		if err := h.Access.Authorize(c.Request.Context(), channel); err != nil {
			response.RespondAPIError(c, err)
			return
		}
	} else if !realtime.CanSubscribe(channel) {
		response.RespondError(c, http.StatusBadRequest, "invalid_channel", errors.New("channel cannot be subscribed"))
		return
	}
	if !h.Hub.AddChannel(client, channel) {
		response.RespondError(c, http.StatusConflict, "no_stream", errors.New("stream closed; reconnect before subscribing"))
		return
	}
	response.RespondOK(c, gin.H{"message": "subscribed", "channel": channel})
}

// POST /api/sse/unsubscribe
func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	client, channel, ok := h.sessionClient(c)
	if !ok {
		return
	}
	if !realtime.CanSubscribe(channel) {
		response.RespondError(c, http.StatusBadRequest, "invalid_channel", errors.New("implicit channels cannot be left"))
		return
	}
	h.Hub.RemoveChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "unsubscribed", "channel": channel})
}

func (h *RealtimeHandler) sessionClient(c *gin.Context) (*realtime.SSEClient, string, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil || rd.SessionID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return nil, "", false
	}
	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Channel) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_channel", errors.New("invalid channel"))
		return nil, "", false
	}
	h.mu.RLock()
	client, exists := h.clients[rd.SessionID]
	h.mu.RUnlock()
	if !exists {
		response.RespondError(c, http.StatusConflict, "no_stream", errors.New("no active SSE connection for this session"))
		return nil, "", false
	}
	return client, strings.TrimSpace(req.Channel), true
}
