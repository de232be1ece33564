package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"croak-assistant/internal/assistant"
)

// ClientConfig configures Client behavior.
type ClientConfig struct {
	// HandshakeTimeout bounds the WebSocket upgrade.
	HandshakeTimeout time.Duration
	// ReadTimeout is the longest wait for the next chat frame.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// RequestTimeout bounds one HTTP request.
	RequestTimeout time.Duration
}

// DefaultClientConfig returns default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		RequestTimeout:   60 * time.Second,
	}
}

// RequestError is a non-2xx API response.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Client talks to a running assistant API.
type Client struct {
	baseURL string
	http    *http.Client
	config  ClientConfig
}

// NewClient creates a client for the API at baseURL (http or https).
func NewClient(baseURL string, config *ClientConfig) *Client {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		config:  cfg,
	}
}

// Ask posts one question and returns the full reply.
func (c *Client) Ask(ctx context.Context, message string) (*assistant.Reply, error) {
	body, err := json.Marshal(AskRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, &RequestError{Status: resp.StatusCode, Message: e.Error}
	}

	var reply assistant.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &reply, nil
}

// ChatConn is an open chat WebSocket. Questions on one connection are
// answered in order, so Ask calls are serialized.
type ChatConn struct {
	conn   *websocket.Conn
	config ClientConfig
	mu     sync.Mutex
}

// DialChat opens the chat WebSocket.
func (c *Client) DialChat(ctx context.Context) (*ChatConn, error) {
	endpoint := c.baseURL + "/v1/chat"
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &ChatConn{conn: conn, config: c.config}, nil
}

// Ask sends message and calls onChunk for every streamed piece of the answer.
// It returns the final reply.
func (cc *ChatConn) Ask(ctx context.Context, message string, onChunk func(string)) (*assistant.Reply, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	_ = cc.conn.SetWriteDeadline(time.Now().Add(cc.config.WriteTimeout))
	if err := cc.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return nil, fmt.Errorf("write question: %w", err)
	}

	for {
		deadline := time.Now().Add(cc.config.ReadTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = cc.conn.SetReadDeadline(deadline)

		var f ChatFrame
		if err := cc.conn.ReadJSON(&f); err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}

		switch f.Type {
		case FrameChunk:
			if onChunk != nil {
				onChunk(f.Text)
			}
		case FrameReply:
			if f.Reply == nil {
				return nil, fmt.Errorf("reply frame without reply")
			}
			return f.Reply, nil
		case FrameError:
			return nil, &RequestError{Status: http.StatusBadRequest, Message: f.Error}
		default:
			return nil, fmt.Errorf("unexpected frame type %q", f.Type)
		}
	}
}

// Close sends a close frame and closes the connection.
func (cc *ChatConn) Close() error {
	deadline := time.Now().Add(cc.config.WriteTimeout)
	_ = cc.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return cc.conn.Close()
}
