package sockclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Manual clock
// =============================================================================

type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{}
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs every timer that became due, in
// deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// pending returns the number of timers that have neither fired nor stopped.
func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// =============================================================================
// Fake transport
// =============================================================================

// serverError is a server-originated error, like a STOMP ERROR frame.
type serverError struct {
	message string
}

func (e *serverError) Error() string         { return "server error: " + e.message }
func (e *serverError) ServerMessage() string { return e.message }

var errNetwork = errors.New("connection refused")

type fakeSubscription struct {
	session      *fakeSession
	destination  string
	onMessage    func(Message)
	unsubscribed bool
	err          error
}

func (s *fakeSubscription) Unsubscribe() error {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	s.unsubscribed = true
	return s.err
}

type fakeSession struct {
	mu           sync.Mutex
	subs         []*fakeSubscription
	onFailure    func(error)
	closed       bool
	closeErr     error
	subscribeErr error
	unsubErr     error
}

func (s *fakeSession) Subscribe(destination string, onMessage func(Message)) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	sub := &fakeSubscription{session: s, destination: destination, onMessage: onMessage, err: s.unsubErr}
	s.subs = append(s.subs, sub)
	return sub, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

// publish delivers body to every subscription on destination, including
// ones already unsubscribed; the client must drop those itself.
func (s *fakeSession) publish(destination, body string) {
	s.mu.Lock()
	var targets []*fakeSubscription
	for _, sub := range s.subs {
		if sub.destination == destination {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.onMessage(Message{Destination: destination, Body: []byte(body)})
	}
}

func (s *fakeSession) fail(err error) {
	s.onFailure(err)
}

func (s *fakeSession) destinations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub.destination)
	}
	return out
}

func (s *fakeSession) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.subs {
		if !sub.unsubscribed {
			n++
		}
	}
	return n
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeDialer struct {
	mu sync.Mutex

	// results are consumed in order; a nil entry means success.
	// Once exhausted every dial succeeds.
	results []error

	// reportTwice makes a failing Dial also call onFailure with the same
	// error, as the real transport does for rejected credentials.
	reportTwice bool

	// block holds Dial until it is closed or ctx ends.
	block chan struct{}

	// configure is applied to every new session.
	configure func(*fakeSession)

	addresses []string
	creds     []Credentials
	sessions  []*fakeSession
}

func (d *fakeDialer) Dial(ctx context.Context, address string, creds Credentials, onFailure func(error)) (Session, error) {
	d.mu.Lock()
	d.addresses = append(d.addresses, address)
	d.creds = append(d.creds, creds)
	var err error
	if len(d.results) > 0 {
		err = d.results[0]
		d.results = d.results[1:]
	}
	block := d.block
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, fmt.Errorf("dial aborted: %w", ctx.Err())
		}
	}

	if err != nil {
		if d.reportTwice {
			onFailure(err)
		}
		return nil, err
	}

	s := &fakeSession{onFailure: onFailure}
	if d.configure != nil {
		d.configure(s)
	}
	d.mu.Lock()
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()
	return s, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.addresses)
}

func (d *fakeDialer) session(i int) *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.sessions) {
		return nil
	}
	return d.sessions[i]
}

func (d *fakeDialer) sessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// =============================================================================
// Recorders
// =============================================================================

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) StateChanged(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) get() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

// messageLog collects deliveries from several handlers in call order.
type messageLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *messageLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *messageLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// namedHandler is a pointer-identity MessageHandler.
type namedHandler struct {
	name string
	log  *messageLog
	err  error
}

func (h *namedHandler) HandleMessage(msg Message) error {
	h.log.add(h.name + ":" + string(msg.Body))
	return h.err
}

type captureLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(string, ...any)  {}

func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *captureLogger) hasWarn(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.warns {
		if w == msg {
			return true
		}
	}
	return false
}

func (l *captureLogger) hasError(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.errors {
		if e == msg {
			return true
		}
	}
	return false
}

// =============================================================================
// Helpers
// =============================================================================

func testConfig() Config {
	return Config{
		Address:   "wss://x",
		TenantID:  "p1",
		Token:     "t1",
		Reconnect: &ReconnectConfig{Timeout: 5000 * time.Millisecond},
	}
}

func newTestClient(t *testing.T, cfg Config, dialer *fakeDialer) (*Client, *manualClock) {
	t.Helper()
	clock := newManualClock()
	c, err := newClient(cfg, dialer, clock)
	if err != nil {
		t.Fatalf("newClient() error = %v", err)
	}
	t.Cleanup(func() {
		c.Disconnect()
		select {
		case <-c.Done():
		case <-time.After(2 * time.Second):
			t.Error("client did not finish teardown")
		}
	})
	return c, clock
}

// waitFor drains the event loop until cond holds. Dial runs on its own
// goroutine, so a single flush is not always enough.
func waitFor(t *testing.T, c *Client, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.loop.flush()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	waitFor(t, c, "state "+want.String(), func() bool { return c.State() == want })
}

func statesEqual(a, b []State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
