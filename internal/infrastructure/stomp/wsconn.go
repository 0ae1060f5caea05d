package stomp

import (
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeGracePeriod bounds the close handshake write.
const closeGracePeriod = time.Second

// wsConn adapts a WebSocket to the byte stream go-stomp reads and writes.
// Every Write becomes one text message; Read concatenates message payloads.
type wsConn struct {
	ws *websocket.Conn

	// reader is the current inbound message. Only the go-stomp reader
	// goroutine calls Read.
	reader io.Reader

	writeMu sync.Mutex

	errMu   sync.Mutex
	onError func(error)

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// setOnError installs a callback for the first read error after the
// handshake, i.e. link loss.
func (c *wsConn) setOnError(fn func(error)) {
	c.errMu.Lock()
	c.onError = fn
	c.errMu.Unlock()
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				c.readFailed(err)
				return 0, err
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) readFailed(err error) {
	c.errMu.Lock()
	fn := c.onError
	c.onError = nil
	c.errMu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame and closes the socket. Idempotent.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.setOnError(nil)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)) //nolint:errcheck // peer may already be gone
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
