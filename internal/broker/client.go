package broker

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 45 * time.Second // server-initiated liveness probe
	pongWait       = pingPeriod + 15*time.Second
	maxMessageSize = 4 * 1024
	sendBufferSize = 64
)

// MessageHandler consumes one raw client-to-server message. Malformed or
// unrecognized payloads are the handler's problem to drop silently.
type MessageHandler func(sessionID string, raw []byte)

// Session is one live, currently-connected browser tab.
type Session struct {
	ID string

	hub     *Hub
	conn    *websocket.Conn
	send    chan Event
	handler MessageHandler
}

func newSession(hub *Hub, conn *websocket.Conn, handler MessageHandler) *Session {
	return &Session{
		ID:      newSessionID(),
		hub:     hub,
		conn:    conn,
		send:    make(chan Event, sendBufferSize),
		handler: handler,
	}
}

// Register wires a fresh websocket connection into the hub and starts its
// read and write pumps. The returned session is already receiving
// broadcasts.
func (h *Hub) Register(conn *websocket.Conn, handler MessageHandler) *Session {
	s := newSession(h, conn, handler)
	h.add(s)
	go s.writePump()
	go s.readPump()
	return s
}

// enqueue delivers an event to this session without blocking. A full
// buffer drops the event; the session is too slow to care.
func (s *Session) enqueue(event Event) {
	select {
	case s.send <- event:
	default:
	}
}

// readPump feeds inbound messages to the handler until the connection
// dies, then removes the session from the hub.
func (s *Session) readPump() {
	defer func() {
		s.hub.remove(s.ID)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("live session closed unexpectedly",
					slog.String("session_id", s.ID), slog.Any("error", err))
			}
			return
		}
		if s.handler != nil {
			s.handler(s.ID, raw)
		}
	}
}

// writePump drains the send channel onto the wire and pings the client on
// the liveness schedule.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case event := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
