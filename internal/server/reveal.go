package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const revealWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(*http.Request) bool { return true },
}

// revealFrame is one message sent to the widget while a reply is revealed.
type revealFrame struct {
	Text string `json:"text"`
	Done bool   `json:"done,omitempty"`
}

// revealControl is a message the widget may send to steer the animation.
type revealControl struct {
	Action string `json:"action"` // pause, resume or cancel
}

// handleReveal streams the last reply, or the greeting before any reply,
// as a sequence of growing prefixes. The final message has done set.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	text := sess.lastReply
	sess.mu.Unlock()
	if text == "" {
		text = s.greeting
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	rv := s.revealer.Start(ctx, text)

	// Reader: control messages only; a read error means the peer is gone.
	go func() {
		defer cancel()
		for {
			var ctrl revealControl
			if err := conn.ReadJSON(&ctrl); err != nil {
				return
			}
			switch ctrl.Action {
			case "pause":
				rv.Pause()
			case "resume":
				rv.Resume()
			case "cancel":
				rv.Cancel()
			}
		}
	}()

	last := ""
	for frame := range rv.Frames() {
		last = frame
		_ = conn.SetWriteDeadline(time.Now().Add(revealWriteTimeout))
		if err := conn.WriteJSON(revealFrame{Text: frame}); err != nil {
			rv.Cancel()
			break
		}
	}
	<-rv.Done()

	_ = conn.SetWriteDeadline(time.Now().Add(revealWriteTimeout))
	if err := conn.WriteJSON(revealFrame{Text: last, Done: true}); err != nil {
		s.logger.DebugContext(r.Context(), "reveal closed early", slog.String("session", sess.id))
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
