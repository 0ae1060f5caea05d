package sockclient

import (
	"fmt"
	"strings"
	"time"
)

// Connection defaults.
const (
	// DefaultReconnectTimeout is the reconnect delay used when reconnection
	// is enabled without an explicit timeout.
	DefaultReconnectTimeout = 30 * time.Second

	// defaultHandshakeTimeout bounds a single Dial (transport + handshake).
	defaultHandshakeTimeout = 10 * time.Second
)

// ReconnectConfig enables automatic reconnection after transient failures.
type ReconnectConfig struct {
	// Timeout is the delay before a reconnect attempt.
	// Zero means DefaultReconnectTimeout.
	Timeout time.Duration
}

// Config holds the connection settings of a Client.
// The Client keeps its own copy; later changes by the caller have no effect.
type Config struct {
	// Address is the server endpoint (e.g. wss://host/ws/websocket, tcp://host:1883).
	Address string

	// TenantID identifies the project/tenant; it is sent during the
	// handshake and embedded in every destination.
	TenantID string

	// Token is the credential presented during the handshake.
	Token string

	// Reconnect enables reconnection after transient failures.
	// nil disables it: the client stays Disconnected after a failure.
	Reconnect *ReconnectConfig

	// HandshakeTimeout bounds each connect attempt. Zero means 10s.
	HandshakeTimeout time.Duration

	// Classifier decides whether a failure is permanent.
	// nil means ClassifyServerMessage.
	Classifier Classifier
}

// validate reports every missing required field at once.
func (c Config) validate() error {
	var missing []string
	if c.Address == "" {
		missing = append(missing, "address")
	}
	if c.TenantID == "" {
		missing = append(missing, "tenant id")
	}
	if c.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing", ErrConfig, strings.Join(missing, ", "))
	}
	if c.Reconnect != nil && c.Reconnect.Timeout < 0 {
		return fmt.Errorf("%w: reconnect timeout must not be negative", ErrConfig)
	}
	return nil
}

// withDefaults returns a deep copy of c with zero values replaced.
func (c Config) withDefaults() Config {
	if c.Reconnect != nil {
		r := *c.Reconnect
		if r.Timeout == 0 {
			r.Timeout = DefaultReconnectTimeout
		}
		c.Reconnect = &r
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.Classifier == nil {
		c.Classifier = ClassifierFunc(ClassifyServerMessage)
	}
	return c
}

// credentials returns the handshake credentials.
func (c Config) credentials() Credentials {
	return Credentials{TenantID: c.TenantID, Token: c.Token}
}
