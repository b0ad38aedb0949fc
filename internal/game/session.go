package game

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write so a stalled peer cannot hold the
	// room loop hostage during a broadcast.
	writeWait = 10 * time.Second
	// pongWait is how long the connection may stay silent before it is
	// considered dead.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait so an idle but healthy
	// client keeps answering pings before its read deadline hits.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize is generous for a protocol whose only inbound frame
	// is a paddle intent.
	maxMessageSize = 1024
)

// Session exclusively owns one WebSocket connection: it decodes inbound
// frames into room events and serializes outbound writes.
type Session struct {
	conn *websocket.Conn

	// gorilla/websocket permits one concurrent writer.
	mu sync.Mutex

	pingPeriod time.Duration
}

func NewSession(conn *websocket.Conn) *Session {
	return &Session{conn: conn, pingPeriod: pingPeriod}
}

// Send encodes and writes one outbound envelope.
func (s *Session) Send(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(env)
}

// Close tears down the transport, which also unblocks ReadLoop.
func (s *Session) Close() {
	s.conn.Close()
}

// ReadLoop pumps inbound frames into the room until the connection dies
// or the client violates the protocol. It runs on the connection's own
// goroutine and always signals the disconnect to the room on the way
// out, so the room observes exactly one leave per admitted session.
func (s *Session) ReadLoop(room *Room, player int) {
	defer func() {
		room.Leave(player)
		s.conn.Close()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go s.pingLoop(stop)

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket connection closed unexpectedly", "error", err)
			}
			return
		}

		data, err := DecodeClientFrame(raw)
		if err != nil {
			// No partial-message recovery: one bad frame closes the
			// connection, and the room sees it as a disconnect.
			slog.Warn("Closing connection on protocol violation", "error", err)
			return
		}

		room.Paddle(player, data)
	}
}

// pingLoop keeps an idle connection alive: an IN_ROUND spectator of the
// relay never writes, so without server pings the read deadline would
// eventually kill a healthy peer.
func (s *Session) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
