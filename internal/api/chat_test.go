package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// readAnswer collects chunk frames up to and including the next reply or error frame.
func readAnswer(t *testing.T, conn *websocket.Conn) ([]string, ChatFrame) {
	t.Helper()
	var parts []string
	for {
		var f ChatFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type != FrameChunk {
			return parts, f
		}
		parts = append(parts, f.Text)
	}
}

func TestChat_StreamsReply(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	conn := dialChat(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("What's the price of bitcoin?")))

	parts, final := readAnswer(t, conn)
	require.Equal(t, FrameReply, final.Type)
	require.NotNil(t, final.Reply)
	assert.Equal(t, "BTC", final.Reply.Symbol)
	assert.Equal(t, final.Reply.Text, strings.Join(parts, ""))
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 3)
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("   ")))
	parts, final = readAnswer(t, conn)
	assert.Empty(t, parts)
	assert.Equal(t, FrameError, final.Type)
	assert.Equal(t, "message is required", final.Error)
}

func TestChat_SequentialQuestions(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := httptest.NewServer(newTestServer(t).Router())
	defer srv.Close()

	conn := dialChat(t, srv)
	defer conn.Close()

	for _, q := range []string{"tell me about croak", "ETH chart"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(q)))
	}

	_, first := readAnswer(t, conn)
	_, second := readAnswer(t, conn)
	require.NotNil(t, first.Reply)
	require.NotNil(t, second.Reply)
	assert.Equal(t, "CROAK", first.Reply.Symbol)
	assert.Equal(t, "ETH", second.Reply.Symbol)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, chunks("abcdefg", 3))
	assert.Equal(t, []string{"🐸🐸", "x"}, chunks("🐸🐸x", 2))
	assert.Empty(t, chunks("", 3))
}
