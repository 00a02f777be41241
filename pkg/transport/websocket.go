package transport

import (
	"sync"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/gorilla/websocket"
)

// Socket is the single open WebSocket. Attaching a new connection closes the
// previous one, so only the newest client receives envelopes.
type Socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Sender = &Socket{}

func (s *Socket) Attach(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil && s.conn != conn {
		_ = s.conn.Close()
	}
	s.conn = conn
}

// Detach forgets conn if it is still the current one.
func (s *Socket) Detach(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn {
		s.conn = nil
	}
}

func (s *Socket) SendText(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return breverrors.New("websocket is not connected")
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}

// Ping is used by the keepalive schedule.
func (s *Socket) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}
