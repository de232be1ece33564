package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"croak-assistant/internal/assistant"
)

const (
	maxChatMessageSize = 4096
	chatWriteTimeout   = 10 * time.Second
)

// Chat frame types.
const (
	FrameChunk = "chunk"
	FrameReply = "reply"
	FrameError = "error"
)

// ChatFrame is one server-to-client WebSocket message. Every answer is sent
// as a run of chunk frames followed by one reply frame.
type ChatFrame struct {
	Type  string           `json:"type"`
	Text  string           `json:"text,omitempty"`
	Reply *assistant.Reply `json:"reply,omitempty"`
	Error string           `json:"error,omitempty"`
}

func (s *Server) handleChat(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s.metrics.WSConnections.Inc()
	defer s.metrics.WSConnections.Dec()

	sess := &chatSession{
		server: s,
		conn:   conn,
		logger: s.logger.With(zap.String("remote", c.Request.RemoteAddr)),
	}
	sess.run(c.Request.Context())
}

// chatSession serves one WebSocket connection. Questions are answered in
// arrival order.
type chatSession struct {
	server *Server
	conn   *websocket.Conn
	logger *zap.Logger
}

func (cs *chatSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)

	var wg sync.WaitGroup
	defer func() {
		cancel()
		cs.conn.Close()
		wg.Wait()
	}()

	pongWait := 2 * cs.server.cfg.PingInterval
	cs.conn.SetReadLimit(maxChatMessageSize)
	_ = cs.conn.SetReadDeadline(time.Now().Add(pongWait))
	cs.conn.SetPongHandler(func(string) error {
		return cs.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		cs.pingLoop(ctx)
	}()

	for {
		msgType, msg, err := cs.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cs.logger.Debug("chat connection closed", zap.Error(err))
			}
			return
		}
		_ = cs.conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage {
			continue
		}
		if err := cs.answer(ctx, string(msg)); err != nil {
			cs.logger.Debug("chat write failed", zap.Error(err))
			return
		}
	}
}

// answer asks the assistant and streams the reply.
func (cs *chatSession) answer(ctx context.Context, text string) error {
	reply, err := cs.server.ask(ctx, text)
	if err != nil {
		msg := "could not answer"
		if errors.Is(err, assistant.ErrEmptyMessage) {
			msg = "message is required"
		} else {
			cs.logger.Error("ask failed", zap.Error(err))
		}
		return cs.write(ChatFrame{Type: FrameError, Error: msg})
	}

	for _, chunk := range chunks(reply.Text, cs.server.cfg.ChunkSize) {
		if err := cs.write(ChatFrame{Type: FrameChunk, Text: chunk}); err != nil {
			return err
		}
		if err := sleep(ctx, cs.server.cfg.ChunkDelay); err != nil {
			return err
		}
	}
	return cs.write(ChatFrame{Type: FrameReply, Reply: reply})
}

func (cs *chatSession) write(f ChatFrame) error {
	_ = cs.conn.SetWriteDeadline(time.Now().Add(chatWriteTimeout))
	return cs.conn.WriteJSON(f)
}

// pingLoop sends periodic ping frames. WriteControl may run concurrently with WriteJSON.
func (cs *chatSession) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(cs.server.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(chatWriteTimeout)
			if err := cs.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// chunks splits text into pieces of size runes.
func chunks(text string, size int) []string {
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		out = append(out, string(runes[i:end]))
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
