package stomp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// Handshake header names understood by the server.
const (
	headerToken     = "token"
	headerProjectID = "projectId"
)

// Connection constants.
const (
	// defaultHandshakeTimeout bounds the WebSocket upgrade when ctx has no deadline.
	defaultHandshakeTimeout = 10 * time.Second

	// defaultOpTimeout bounds a single UNSUBSCRIBE or DISCONNECT round trip.
	defaultOpTimeout = 5 * time.Second

	// tlsMinVersion is the minimum TLS version for wss:// connections.
	tlsMinVersion = tls.VersionTLS12
)

// subprotocols are offered during the WebSocket upgrade, newest first.
var subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Config contains STOMP session settings.
type Config struct {
	// Host is the virtual host sent in CONNECT. Empty means the address host.
	Host string

	// HeartBeatSend and HeartBeatReceive are the heart-beat intervals
	// offered to the broker. Zero disables that direction.
	HeartBeatSend    time.Duration
	HeartBeatReceive time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// OpTimeout bounds UNSUBSCRIBE and DISCONNECT. Zero means 5s.
	OpTimeout time.Duration
}

// Dialer opens STOMP sessions over WebSocket. It implements sockclient.Dialer.
//
// Thread Safety:
//   - Dial is safe for concurrent use; every call opens an independent session.
type Dialer struct {
	cfg Config
	ws  *websocket.Dialer

	logger   Logger
	loggerMu sync.RWMutex
}

var _ sockclient.Dialer = (*Dialer)(nil)

// NewDialer creates a Dialer with the given settings.
func NewDialer(cfg Config) *Dialer {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = defaultOpTimeout
	}
	return &Dialer{
		cfg: cfg,
		ws: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: defaultHandshakeTimeout,
			Subprotocols:     subprotocols,
			TLSClientConfig: &tls.Config{
				MinVersion:         tlsMinVersion,
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // Opt-in for development brokers
			},
		},
		logger: noopLogger{},
	}
}

// SetLogger sets a logger for session diagnostics.
// If not set, nothing is logged.
func (d *Dialer) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.loggerMu.Lock()
	d.logger = logger
	d.loggerMu.Unlock()
}

func (d *Dialer) getLogger() Logger {
	d.loggerMu.RLock()
	defer d.loggerMu.RUnlock()
	return d.logger
}

// Dial opens the WebSocket and performs the STOMP handshake.
//
// ctx bounds the whole handshake; once Dial returns, cancelling ctx has no
// effect on the session. onFailure receives link loss and ERROR frames that
// arrive after Dial has returned.
//
// Returns:
//   - sockclient.Session: Connected session
//   - error: ErrInvalidAddress, ErrDialFailed, or ErrHandshakeFailed wrapping
//     the cause; a broker rejection is wrapped as *ServerError
func (d *Dialer) Dial(ctx context.Context, address string, creds sockclient.Credentials, onFailure func(error)) (sockclient.Session, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: scheme %q, want ws or wss", ErrInvalidAddress, u.Scheme)
	}

	ws, resp, err := d.ws.DialContext(ctx, address, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck // Handshake response body is not used
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDialFailed, err)
	}

	rwc := newWSConn(ws)
	stop := context.AfterFunc(ctx, func() {
		rwc.Close() //nolint:errcheck // Aborting the handshake
	})

	conn, err := stomp.Connect(rwc, d.connectOptions(u, creds)...)
	if !stop() {
		if err == nil {
			conn.MustDisconnect() //nolint:errcheck // Session was never handed out
		}
		rwc.Close() //nolint:errcheck // Already closed by AfterFunc
		return nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, ctx.Err())
	}
	if err != nil {
		rwc.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, asServerError(err))
	}

	s := newSession(conn, rwc, onFailure, d.cfg.OpTimeout, d.getLogger())
	rwc.setOnError(s.linkLost)

	d.getLogger().Debug("stomp session established",
		"address", u.Redacted(),
		"version", conn.Version(),
		"server", conn.Server(),
	)
	return s, nil
}

func (d *Dialer) connectOptions(u *url.URL, creds sockclient.Credentials) []func(*stomp.Conn) error {
	host := d.cfg.Host
	if host == "" {
		host = u.Hostname()
	}
	return []func(*stomp.Conn) error{
		stomp.ConnOpt.Host(host),
		stomp.ConnOpt.Header(headerToken, creds.Token),
		stomp.ConnOpt.Header(headerProjectID, creds.TenantID),
		stomp.ConnOpt.HeartBeat(d.cfg.HeartBeatSend, d.cfg.HeartBeatReceive),
	}
}
