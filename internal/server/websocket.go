package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// chatMessage is one inbound WebSocket frame. The connection tracks the turn
// counter itself, so clients only send text.
type chatMessage struct {
	OwnerID string `json:"owner_id"`
	Text    string `json:"text"`
}

// chatReply is the outbound frame: the turn result plus the turn number the
// server assigned.
type chatReply struct {
	Turn   int    `json:"turn"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleChatSocket upgrades to WebSocket and runs an interactive session.
// Each connection is one conversation: turns are numbered 1, 2, 3... in
// arrival order, regardless of what the client thinks.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("server: websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session ended")

	ctx := r.Context()
	turn := 0
	for {
		var msg chatMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			log.Printf("server: websocket read: %v", err)
			return
		}

		if msg.OwnerID == "" || msg.Text == "" {
			if err := wsjson.Write(ctx, conn, chatReply{Error: "owner_id and text are required"}); err != nil {
				return
			}
			continue
		}

		turn++
		turnCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		result := s.controller.ProcessTurn(turnCtx, msg.OwnerID, msg.Text, turn)
		cancel()

		if err := wsjson.Write(ctx, conn, chatReply{Turn: turn, Result: result}); err != nil {
			log.Printf("server: websocket write: %v", err)
			return
		}
	}
}
