package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is already open on every route
	},
}

// SocketMessage is exchanged over GET /sessions/{id}/ws.
//
// Clients send {"keys": "..."} or {"key_list": [...]}. The server answers every
// frame with {"type": "state", "state": ...} or {"type": "error", "error": ...},
// and pushes {"type": "diff", "diff": ...} for every change to the session,
// including the ones this client made.
type SocketMessage struct {
	Type  string           `json:"type"`
	State *domain.State    `json:"state,omitempty"`
	Diff  *json.RawMessage `json:"diff,omitempty"`
	Error string           `json:"error,omitempty"`
}

// Socket handles GET /sessions/{id}/ws.
func (s *Server) Socket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	state, err := s.Sessions.Load(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", sessionID, "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	diffs, unsubscribe := s.Streams.Subscribe(sessionID)
	defer unsubscribe()

	out := make(chan SocketMessage, 16)
	out <- SocketMessage{Type: "state", State: state}

	go s.socketWriter(ctx, conn, out, diffs)
	s.socketReader(ctx, conn, sessionID, out)
}

// socketReader applies incoming key frames until the peer goes away.
func (s *Server) socketReader(ctx context.Context, conn *websocket.Conn, sessionID string, out chan<- SocketMessage) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req KeysRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "session_id", sessionID, "err", err)
			}
			return
		}

		msg := SocketMessage{Type: "state"}
		ks, err := parseKeys(req)
		if err == nil {
			msg.State, err = s.apply(ctx, sessionID, func(ctx context.Context, st *domain.State) (*domain.State, error) {
				return s.Engine.Press(ctx, st, ks...)
			})
		}
		if err != nil {
			msg = SocketMessage{Type: "error", Error: err.Error()}
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// socketWriter owns all writes to conn.
func (s *Server) socketWriter(ctx context.Context, conn *websocket.Conn, out <-chan SocketMessage, diffs <-chan string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Warn("websocket write failed", "err", err)
				return
			}
		case raw, ok := <-diffs:
			if !ok {
				return
			}
			diff := json.RawMessage(raw)
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(SocketMessage{Type: "diff", Diff: &diff}); err != nil {
				s.logger.Warn("websocket write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
