package client

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/yungbote/levelup-backend/internal/realtime"
)

// Event is one dispatched SSE frame. Data holds the decoded "data" member
// of the server envelope, left raw for the consumer to decode.
type Event struct {
	Name    realtime.SSEEvent
	Channel string
	Data    json.RawMessage
}

// StreakUpdate is the payload of streak:update.
type StreakUpdate struct {
	Email       string `json:"email"`
	LoginStreak int    `json:"loginStreak"`
	Streak      int    `json:"streak"`
}

type Stream struct {
	body io.ReadCloser
	r    *bufio.Reader
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, r: bufio.NewReaderSize(body, 64<<10)}
}

func (s *Stream) Close() error { return s.body.Close() }

// Next blocks until a complete event arrives. Comment lines (heartbeats) are
// skipped. It returns io.EOF when the server closes the stream; a frame cut
// off by the close is discarded.
func (s *Stream) Next() (Event, error) {
	var name string
	var data []string
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return Event{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if name == "" && len(data) == 0 {
				continue
			}
			return decodeFrame(name, strings.Join(data, "\n")), nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
}

func decodeFrame(name, data string) Event {
	ev := Event{Name: realtime.SSEEvent(name)}
	var env struct {
		Channel string          `json:"channel"`
		Event   string          `json:"event"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		ev.Data = json.RawMessage(data)
		return ev
	}
	ev.Channel = env.Channel
	ev.Data = env.Data
	if ev.Name == "" {
		ev.Name = realtime.SSEEvent(env.Event)
	}
	return ev
}
