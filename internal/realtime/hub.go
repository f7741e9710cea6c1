package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/observability"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

const heartbeatInterval = 15 * time.Second

type SSEHub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	metrics       *observability.Metrics
	bufferSize    int
	clients       map[*SSEClient]bool
	subscriptions map[string]map[*SSEClient]bool
}

type HubOption func(*SSEHub)

func WithMetrics(m *observability.Metrics) HubOption {
	return func(h *SSEHub) { h.metrics = m }
}

func WithOutboundBuffer(n int) HubOption {
	return func(h *SSEHub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

func NewSSEHub(log *logger.Logger, opts ...HubOption) *SSEHub {
	hub := &SSEHub{
		logger:        log.With("component", "SSEHub"),
		bufferSize:    DefaultOutboundBuffer,
		clients:       make(map[*SSEClient]bool),
		subscriptions: make(map[string]map[*SSEClient]bool),
	}
	for _, opt := range opts {
		opt(hub)
	}
	return hub
}

// NewSSEClient registers a client on the broadcast channel and its user channel.
func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	id := uuid.New()
	client := &SSEClient{
		ID:       id,
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, hub.bufferSize),
		done:     make(chan struct{}),
		Logger:   hub.logger.With("clientID", id),
	}
	hub.mu.Lock()
	hub.clients[client] = true
	n := len(hub.clients)
	hub.mu.Unlock()
	hub.metrics.SetSSEClients(n)

	hub.AddChannel(client, ChannelBroadcast)
	if userID != uuid.Nil {
		hub.AddChannel(client, UserChannel(userID))
	}
	return client
}

// AddChannel reports false when the client has already been removed; a
// closed client is never put back into the subscription table.
func (hub *SSEHub) AddChannel(client *SSEClient, channel string) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" || !hub.clients[client] {
		return false
	}

	client.Channels[channel] = true

	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*SSEClient]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true

	hub.logger.Debug("SSE client subscribed", "clientID", client.ID, "channel", channel)
	return true
}

func (hub *SSEHub) RemoveChannel(client *SSEClient, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	delete(client.Channels, channel)
	hub.unsubscribeLocked(client, channel)
	hub.logger.Debug("SSE client unsubscribed from channel", "clientID", client.ID, "channel", channel)
}

func (hub *SSEHub) unsubscribeLocked(client *SSEClient, channel string) {
	if subMap, ok := hub.subscriptions[channel]; ok {
		delete(subMap, client)
		if len(subMap) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	for ch := range client.Channels {
		hub.unsubscribeLocked(client, ch)
	}
	client.Channels = make(map[string]bool)
	delete(hub.clients, client)
	n := len(hub.clients)
	hub.mu.Unlock()

	hub.metrics.SetSSEClients(n)
	hub.logger.Debug("SSE client unsubscribed from all channels", "clientID", client.ID)
}

// ClientCount returns the number of connected clients.
func (hub *SSEHub) ClientCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients)
}

// Broadcast never blocks: a client whose queue is full misses the message.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if msg.Channel == "" {
		return
	}
	clientsMap, ok := hub.subscriptions[msg.Channel]
	if !ok {
		return
	}
	for c := range clientsMap {
		select {
		case c.Outbound <- msg:
			hub.metrics.IncSSEEvent(string(msg.Event), "sent")
		default:
			hub.metrics.IncSSEEvent(string(msg.Event), "dropped")
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID, "event", msg.Event)
		}
	}
}

func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("SSE client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			const pingChunkedSize = 2*1024 - len(": ping \n\n")
			_, _ = fmt.Fprint(w, ": ping "+strings.Repeat("#", pingChunkedSize)+"\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			if err := WriteEvent(w, msg); err != nil {
				hub.logger.Warn("Failed to write SSE message", "error", err)
				continue
			}
			flusher.Flush()
		}
	}
}

// WriteEvent frames one message: the event line carries the event name and
// the data line the JSON encoded message.
func WriteEvent(w io.Writer, msg SSEMessage) error {
	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, jsonBytes)
	return err
}

func (hub *SSEHub) CloseClient(client *SSEClient) {
	hub.RemoveClient(client)
	hub.mu.Lock()
	select {
	case <-client.done:
	default:
		close(client.done)
		close(client.Outbound)
	}
	hub.mu.Unlock()
}
