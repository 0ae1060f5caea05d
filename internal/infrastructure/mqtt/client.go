package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// Dialer opens MQTT sessions with paho.mqtt.golang. It implements
// sockclient.Dialer.
//
// paho's own reconnect is disabled: reconnection and resubscription are the
// sockclient core's job, so a lost connection is reported and the session
// is dropped.
//
// Thread Safety:
//   - Dial is safe for concurrent use; every call creates an independent paho client.
type Dialer struct {
	cfg Config

	// newClient is replaced in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client

	logger   Logger
	loggerMu sync.RWMutex
}

var _ sockclient.Dialer = (*Dialer)(nil)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// NewDialer creates a Dialer with the given settings.
func NewDialer(cfg Config) *Dialer {
	return &Dialer{
		cfg:       cfg.withDefaults(),
		newClient: pahomqtt.NewClient,
	}
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (d *Dialer) SetLogger(logger Logger) {
	d.loggerMu.Lock()
	d.logger = logger
	d.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (d *Dialer) getLogger() Logger {
	d.loggerMu.RLock()
	defer d.loggerMu.RUnlock()
	return d.logger
}

// Dial connects to the broker at address (tcp://, ssl://, ws:// or wss://).
// The tenant id is sent as username and the token as password.
//
// ctx bounds the CONNECT round trip. onFailure receives connection loss and
// asynchronous subscribe failures after Dial has returned.
//
// Returns:
//   - sockclient.Session: Connected session
//   - error: ErrConnectionFailed wrapping the cause; a CONNACK refusal keeps
//     the paho packets error in the chain for Classify
func (d *Dialer) Dial(ctx context.Context, address string, creds sockclient.Credentials, onFailure func(error)) (sockclient.Session, error) {
	s := &session{
		qos:       d.cfg.QoS,
		onFailure: onFailure,
		getLogger: d.getLogger,
	}

	opts := buildClientOptions(d.cfg, address, creds)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.report(fmt.Errorf("%w: %w", ErrConnectionLost, err))
	})

	s.client = d.newClient(opts)
	token := s.client.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		s.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return s, nil
}

// session is one connected paho client.
type session struct {
	client    pahomqtt.Client
	qos       byte
	onFailure func(error)
	getLogger func() Logger

	mu      sync.Mutex
	closing bool
}

// Close disconnects from the broker, waiting briefly for in-flight work.
func (s *session) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	s.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// report forwards an asynchronous failure unless Close has been called.
func (s *session) report(err error) {
	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	if closing {
		return
	}
	s.onFailure(err)
}

// wrapHandler adapts onMessage to paho with panic recovery and optional logging.
func (s *session) wrapHandler(sub *subscription, onMessage func(sockclient.Message)) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := s.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if sub.isReleased() {
			return
		}
		onMessage(toMessage(sub.destination, msg))
	}
}
