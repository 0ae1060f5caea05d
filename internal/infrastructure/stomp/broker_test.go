package stomp

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// =============================================================================
// Fake STOMP broker
// =============================================================================

type brokerFrame struct {
	command string
	headers map[string]string
	body    string
}

// parseFrame parses one NUL-terminated frame without the terminator.
// Leading EOLs (heart-beats) are skipped.
func parseFrame(raw string) (brokerFrame, bool) {
	raw = strings.TrimLeft(raw, "\r\n")
	if raw == "" {
		return brokerFrame{}, false
	}
	head, body, _ := strings.Cut(raw, "\n\n")
	lines := strings.Split(head, "\n")
	f := brokerFrame{
		command: strings.TrimSpace(lines[0]),
		headers: make(map[string]string),
		body:    body,
	}
	for _, line := range lines[1:] {
		k, v, ok := strings.Cut(strings.TrimSuffix(line, "\r"), ":")
		if !ok {
			continue
		}
		if _, seen := f.headers[k]; !seen {
			f.headers[k] = v
		}
	}
	return f, true
}

// fakeBroker speaks just enough STOMP 1.2 over WebSocket for the dialer.
type fakeBroker struct {
	srv *httptest.Server

	// connectReply builds the reply to CONNECT. nil means CONNECTED.
	connectReply func(f brokerFrame) string

	// silent makes the broker ignore CONNECT.
	silent bool

	mu          sync.Mutex
	frames      []brokerFrame
	subs        map[string]string
	conn        *websocket.Conn
	subprotocol string
	nextMsgID   int

	writeMu sync.Mutex
}

func newFakeBroker(t *testing.T, configure func(*fakeBroker)) *fakeBroker {
	t.Helper()
	b := &fakeBroker{subs: make(map[string]string)}
	if configure != nil {
		configure(b)
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.close)
	return b
}

func (b *fakeBroker) url() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/ws/websocket"
}

func (b *fakeBroker) serve(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{Subprotocols: []string{"v12.stomp"}}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.conn = ws
	b.subprotocol = ws.Subprotocol()
	b.mu.Unlock()

	var buf string
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		buf += string(data)
		for {
			i := strings.IndexByte(buf, 0)
			if i < 0 {
				break
			}
			raw := buf[:i]
			buf = buf[i+1:]
			if f, ok := parseFrame(raw); ok {
				b.handle(ws, f)
			}
		}
	}
}

func (b *fakeBroker) handle(ws *websocket.Conn, f brokerFrame) {
	b.mu.Lock()
	b.frames = append(b.frames, f)
	if f.command == "SUBSCRIBE" {
		b.subs[f.headers["destination"]] = f.headers["id"]
	}
	b.mu.Unlock()

	switch f.command {
	case "CONNECT", "STOMP":
		if b.silent {
			return
		}
		reply := "CONNECTED\nversion:1.2\nheart-beat:0,0\n\n\x00"
		if b.connectReply != nil {
			reply = b.connectReply(f)
		}
		b.write(reply)
		if strings.HasPrefix(reply, "ERROR") {
			ws.Close() //nolint:errcheck // Broker drops the link after ERROR
		}
	default:
		// DISCONNECT and UNSUBSCRIBE wait for their receipt.
		if receipt := f.headers["receipt"]; receipt != "" {
			b.write("RECEIPT\nreceipt-id:" + receipt + "\n\n\x00")
		}
	}
}

func (b *fakeBroker) write(frame string) {
	b.mu.Lock()
	ws := b.conn
	b.mu.Unlock()
	if ws == nil {
		return
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	ws.WriteMessage(websocket.TextMessage, []byte(frame)) //nolint:errcheck // Test broker
}

// publish sends a MESSAGE to the subscriber of destination.
func (b *fakeBroker) publish(destination, body string) {
	b.mu.Lock()
	id := b.subs[destination]
	b.nextMsgID++
	msgID := b.nextMsgID
	b.mu.Unlock()

	b.write(fmt.Sprintf("MESSAGE\ndestination:%s\nsubscription:%s\nmessage-id:%d\ncontent-type:text/plain\n\n%s\x00",
		destination, id, msgID, body))
}

// sendError sends an ERROR frame and drops the link, as Spring does.
func (b *fakeBroker) sendError(message string) {
	b.write("ERROR\nmessage:" + message + "\n\n\x00")
	b.dropLink()
}

func (b *fakeBroker) dropLink() {
	b.mu.Lock()
	ws := b.conn
	b.mu.Unlock()
	if ws != nil {
		ws.Close() //nolint:errcheck // Simulated link loss
	}
}

func (b *fakeBroker) close() {
	b.dropLink()
	b.srv.Close()
}

func (b *fakeBroker) framesOf(command string) []brokerFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []brokerFrame
	for _, f := range b.frames {
		if f.command == command {
			out = append(out, f)
		}
	}
	return out
}

// waitForFrame waits until the broker has received n frames of command.
func (b *fakeBroker) waitForFrame(t *testing.T, command string, n int) []brokerFrame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if frames := b.framesOf(command); len(frames) >= n {
			return frames
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d %s frame(s)", n, command)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// =============================================================================
// Failure recorder
// =============================================================================

type failureLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *failureLog) add(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *failureLog) get() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

// waitFor polls until cond holds for the recorded failures.
func (l *failureLog) waitFor(t *testing.T, what string, cond func([]error) bool) []error {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if errs := l.get(); cond(errs) {
			return errs
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; failures = %v", what, l.get())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
