package mqtt

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// Connection constants.
const (
	// defaultConnectTimeout is paho's own bound on the network connect.
	defaultConnectTimeout = 10 * time.Second

	// defaultOpTimeout is the maximum time to wait for SUBACK or UNSUBACK.
	defaultOpTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// defaultClientIDPrefix prefixes the random client id.
	defaultClientIDPrefix = "sockclient"

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// tlsSchemes are broker URL schemes that need a TLS config.
var tlsSchemes = []string{"ssl://", "tls://", "mqtts://", "wss://"}

// Config contains MQTT session settings.
type Config struct {
	// ClientIDPrefix is followed by a random UUID so that concurrent
	// sessions never steal each other's client id.
	ClientIDPrefix string

	// QoS is the maximum QoS requested for every subscription (0, 1, or 2).
	QoS byte

	// KeepAlive is the keepalive interval. Zero means 60s.
	KeepAlive time.Duration
}

func (c Config) withDefaults() Config {
	if c.ClientIDPrefix == "" {
		c.ClientIDPrefix = defaultClientIDPrefix
	}
	if c.QoS > maxQoS {
		c.QoS = maxQoS
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = defaultKeepAlive
	}
	return c
}

// buildClientOptions creates paho MQTT options for one session.
//
// This configures:
//   - Broker URL as given (scheme selects tcp, TLS or WebSocket)
//   - A unique client id
//   - Tenant id and token as username and password
//   - Clean session, no paho auto-reconnect
//   - In-order handler invocation
func buildClientOptions(cfg Config, address string, creds sockclient.Credentials) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(address)

	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ClientIDPrefix, uuid.NewString()))
	opts.SetUsername(creds.TenantID)
	opts.SetPassword(creds.Token)

	// Clean session - subscriptions are replayed by the caller on every connect
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(cfg.KeepAlive)

	// Deliver messages one at a time, in arrival order
	opts.SetOrderMatters(true)

	if usesTLS(address) {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

func usesTLS(address string) bool {
	lower := strings.ToLower(address)
	for _, scheme := range tlsSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}
