package stomp

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/gorilla/websocket"
)

// Domain-specific errors for STOMP operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidAddress is returned when the address is not a ws:// or wss:// URL.
	ErrInvalidAddress = errors.New("stomp: invalid address")

	// ErrDialFailed is returned when the WebSocket cannot be opened.
	ErrDialFailed = errors.New("stomp: websocket dial failed")

	// ErrHandshakeFailed is returned when the STOMP CONNECT is not accepted.
	ErrHandshakeFailed = errors.New("stomp: handshake failed")

	// ErrSubscribeFailed is returned when a SUBSCRIBE cannot be sent.
	ErrSubscribeFailed = errors.New("stomp: subscribe failed")

	// ErrClosedUnexpectedly is reported when a subscription ends without
	// being unsubscribed.
	ErrClosedUnexpectedly = errors.New("stomp: connection closed unexpectedly")

	// ErrTimeout is returned when a broker round trip does not complete in time.
	ErrTimeout = errors.New("stomp: operation timed out")
)

// ServerError is an error explained by the broker itself, such as the
// message header of an ERROR frame.
//
// It implements sockclient.ServerError.
type ServerError struct {
	// Message is the broker's explanation.
	Message string

	// Err is the underlying protocol error.
	Err error
}

func (e *ServerError) Error() string {
	return "stomp: server error: " + e.Message
}

// ServerMessage returns the broker's explanation.
func (e *ServerError) ServerMessage() string {
	return e.Message
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// asServerError wraps protocol errors as *ServerError. Socket and
// cancellation errors are returned unchanged; they never carry a broker
// explanation.
func asServerError(err error) error {
	if err == nil || isLinkError(err) {
		return err
	}
	var se *ServerError
	if errors.As(err, &se) {
		return err
	}
	return &ServerError{Message: err.Error(), Err: err}
}

// isLinkError reports whether err comes from the socket rather than the broker.
func isLinkError(err error) bool {
	var netErr net.Error
	var closeErr *websocket.CloseError
	switch {
	case errors.As(err, &netErr), errors.As(err, &closeErr):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, ErrClosedUnexpectedly):
		return true
	default:
		return false
	}
}
