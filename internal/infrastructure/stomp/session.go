package stomp

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stomp/stomp/v3"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// session is one connected STOMP session.
type session struct {
	conn      *stomp.Conn
	rwc       *wsConn
	onFailure func(error)
	opTimeout time.Duration
	logger    Logger

	// failed is set once the link is known to be dead; wire operations are
	// skipped from then on.
	failed  atomic.Bool
	closing atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

func newSession(conn *stomp.Conn, rwc *wsConn, onFailure func(error), opTimeout time.Duration, logger Logger) *session {
	return &session{
		conn:      conn,
		rwc:       rwc,
		onFailure: onFailure,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// Subscribe sends SUBSCRIBE with ack:auto and pumps MESSAGE frames to
// onMessage on a dedicated goroutine.
func (s *session) Subscribe(destination string, onMessage func(sockclient.Message)) (sockclient.Subscription, error) {
	if s.failed.Load() || s.closing.Load() {
		return nil, fmt.Errorf("%w: %s: session is closed", ErrSubscribeFailed, destination)
	}

	sub, err := s.conn.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, destination, err)
	}

	h := &subscription{session: s, sub: sub, destination: destination}
	go h.pump(onMessage)
	return h, nil
}

// Close sends DISCONNECT (unless the link is already dead) and closes the
// socket. Idempotent.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		if s.failed.Load() {
			s.conn.MustDisconnect() //nolint:errcheck // Link is already gone
		} else if err := s.bounded(s.conn.Disconnect); err != nil {
			s.closeErr = fmt.Errorf("stomp: disconnect: %w", err)
			s.conn.MustDisconnect() //nolint:errcheck // Graceful disconnect failed
		}
		if err := s.rwc.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("stomp: closing websocket: %w", err)
		}
	})
	return s.closeErr
}

// linkLost is called by the socket reader when the WebSocket fails.
func (s *session) linkLost(err error) {
	s.report(err)
}

// report marks the session failed and forwards err unless Close is in progress.
func (s *session) report(err error) {
	s.failed.Store(true)
	if s.closing.Load() {
		return
	}
	s.onFailure(asServerError(err))
}

// bounded runs a broker round trip with the operation timeout.
func (s *session) bounded(op func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- op()
	}()

	timer := time.NewTimer(s.opTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrTimeout
	}
}

// subscription is one live STOMP subscription.
type subscription struct {
	session     *session
	sub         *stomp.Subscription
	destination string
	released    atomic.Bool
}

// Unsubscribe sends UNSUBSCRIBE. Messages already read from the socket may
// still be delivered; the caller drops them.
func (h *subscription) Unsubscribe() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	if h.session.failed.Load() {
		return nil
	}
	if err := h.session.bounded(func() error { return h.sub.Unsubscribe() }); err != nil {
		return fmt.Errorf("stomp: unsubscribe %s: %w", h.destination, err)
	}
	return nil
}

func (h *subscription) pump(onMessage func(sockclient.Message)) {
	for msg := range h.sub.C {
		if msg.Err != nil {
			if !h.released.Load() {
				h.session.report(msg.Err)
			}
			return
		}
		onMessage(toMessage(msg))
	}
	if !h.released.Load() {
		h.session.report(ErrClosedUnexpectedly)
	}
}

// toMessage copies a STOMP MESSAGE frame into the transport-neutral form.
func toMessage(msg *stomp.Message) sockclient.Message {
	out := sockclient.Message{
		Destination: msg.Destination,
		Body:        msg.Body,
	}
	if msg.Header != nil {
		out.Headers = make(map[string]string, msg.Header.Len())
		for i := 0; i < msg.Header.Len(); i++ {
			k, v := msg.Header.GetAt(i)
			if _, seen := out.Headers[k]; !seen {
				out.Headers[k] = v
			}
		}
	}
	return out
}
