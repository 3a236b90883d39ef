package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"captionmux/internal/events"
	"captionmux/internal/logging"
	"captionmux/internal/session"
)

const (
	streamWriteWait    = 10 * time.Second
	streamPingInterval = 30 * time.Second
	streamBuffer       = 128
)

// Stream message types.
const (
	streamSnapshot = "snapshot"
	streamEvent    = "event"
)

// streamMessage is one websocket frame.
type streamMessage struct {
	Type      string            `json:"type"`
	Snapshot  *session.Snapshot `json:"snapshot,omitempty"`
	Event     *events.Event     `json:"event,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// handleEvents streams session events. The first frame is a snapshot; the
// events after the since query parameter follow, then live events.
func (s *Server) handleEvents(c *gin.Context) {
	since, _ := strconv.ParseInt(c.Query("since"), 10, 64)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	bus := s.session.Bus()
	live, cancel := bus.Subscribe(streamBuffer)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := s.session.Snapshot()
	if err := writeFrame(conn, streamMessage{Type: streamSnapshot, Snapshot: &snapshot}); err != nil {
		return
	}
	last := since
	send := func(event events.Event) bool {
		if event.Seq <= last {
			return true
		}
		last = event.Seq
		return writeFrame(conn, streamMessage{Type: streamEvent, Event: &event}) == nil
	}
	for _, event := range bus.Since(since) {
		if !send(event) {
			return
		}
	}

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case event, ok := <-live:
			if !ok {
				return
			}
			// A full subscriber buffer drops events; replay the gap.
			if event.Seq > last+1 {
				for _, missed := range bus.Since(last) {
					if missed.Seq >= event.Seq {
						break
					}
					if !send(missed) {
						return
					}
				}
			}
			if !send(event) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, msg streamMessage) error {
	msg.Timestamp = time.Now().Unix()
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
