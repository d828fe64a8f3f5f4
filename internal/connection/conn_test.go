package connection

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []string
	errs     []error
	closed   int
}

func (h *recordingHandler) OnMessage(_ *Conn, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, string(data))
}

func (h *recordingHandler) OnError(_ *Conn, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *recordingHandler) OnClose(_ *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
}

func (h *recordingHandler) snapshot() ([]string, []error, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...), append([]error(nil), h.errs...), h.closed
}

// startConn 启动一个服务端 Conn，返回客户端连接
func startConn(t *testing.T, opts Options) (*Conn, *websocket.Conn, *recordingHandler) {
	t.Helper()

	handler := &recordingHandler{}
	connCh := make(chan *Conn, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewConn("c1", ws, opts, logger)
		c.Start(handler)
		connCh <- c
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case c := <-connCh:
		return c, client, handler
	case <-time.After(2 * time.Second):
		t.Fatal("server connection not established")
		return nil, nil, nil
	}
}

func TestConn_ReadInOrder(t *testing.T) {
	_, client, handler := startConn(t, Options{})

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(msg)))
	}

	require.Eventually(t, func() bool {
		messages, _, _ := handler.snapshot()
		return len(messages) == 3
	}, 2*time.Second, 10*time.Millisecond)

	messages, _, _ := handler.snapshot()
	assert.Equal(t, []string{"one", "two", "three"}, messages)
}

func TestConn_Send(t *testing.T) {
	c, client, _ := startConn(t, Options{})

	require.NoError(t, c.Send([]byte(`{"event":"ping"}`)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	assert.Equal(t, `{"event":"ping"}`, string(data))
}

func TestConn_BinaryFrameIsErrorOnly(t *testing.T) {
	c, client, handler := startConn(t, Options{})

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte{0x01}))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("after")))

	require.Eventually(t, func() bool {
		messages, _, _ := handler.snapshot()
		return len(messages) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, errs, closed := handler.snapshot()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrUnsupportedFrame)
	assert.Equal(t, 0, closed)

	// 连接仍然可用
	assert.NoError(t, c.Send([]byte("still open")))
}

func TestConn_ClientCloseFiresOnCloseOnce(t *testing.T) {
	c, client, handler := startConn(t, Options{})

	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	client.Close()

	require.Eventually(t, func() bool {
		_, _, closed := handler.snapshot()
		return closed == 1
	}, 2*time.Second, 10*time.Millisecond)

	<-c.Done()
	assert.ErrorIs(t, c.Send([]byte("x")), ErrConnectionClosed)

	// 重复关闭无副作用
	assert.NoError(t, c.Close())
	_, errs, closed := handler.snapshot()
	assert.Equal(t, 1, closed)
	assert.Empty(t, errs)
}

func TestConn_ServerClose(t *testing.T) {
	c, client, handler := startConn(t, Options{})

	require.NoError(t, c.Close())

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	require.Eventually(t, func() bool {
		_, _, closed := handler.snapshot()
		return closed == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConn_SendBufferFull(t *testing.T) {
	c := &Conn{
		id:        "c1",
		send:      make(chan []byte, 1),
		closeChan: make(chan struct{}),
	}

	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), ErrSendBufferFull)
}

func TestConn_PongTimeoutCloses(t *testing.T) {
	_, client, handler := startConn(t, Options{PongWait: 200 * time.Millisecond})

	// 客户端不读就不会回 pong
	client.SetPingHandler(func(string) error { return nil })

	require.Eventually(t, func() bool {
		_, _, closed := handler.snapshot()
		return closed == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	assert.Equal(t, 10*time.Second, opts.WriteWait)
	assert.Equal(t, 60*time.Second, opts.PongWait)
	assert.Equal(t, int64(64*1024), opts.MaxMessageSize)
	assert.Equal(t, 256, opts.SendBuffer)

	custom := Options{PongWait: time.Second, SendBuffer: 8}.withDefaults()
	assert.Equal(t, time.Second, custom.PongWait)
	assert.Equal(t, 8, custom.SendBuffer)
}
