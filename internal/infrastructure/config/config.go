package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds.
const (
	TransportSTOMP = "stomp"
	TransportMQTT  = "mqtt"
)

// Config is the root configuration structure for sockclient.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Client        ClientConfig        `yaml:"client"`
	Transport     TransportConfig     `yaml:"transport"`
	Subscriptions SubscriptionsConfig `yaml:"subscriptions"`
	Journal       JournalConfig       `yaml:"journal"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	API           APIConfig           `yaml:"api"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ClientConfig contains the connection settings of the managed client.
type ClientConfig struct {
	// Address is the server endpoint, e.g. wss://host/ws/websocket or tcp://host:1883.
	Address  string `yaml:"address"`
	TenantID string `yaml:"tenant_id"`
	Token    string `yaml:"token"`

	Reconnect ReconnectConfig `yaml:"reconnect"`

	// HandshakeTimeout bounds one connect attempt (seconds).
	HandshakeTimeout int `yaml:"handshake_timeout"`
}

// ReconnectConfig controls reconnection after transient failures.
type ReconnectConfig struct {
	Enabled bool `yaml:"enabled"`

	// TimeoutMs is the delay before a reconnect attempt (milliseconds).
	TimeoutMs int `yaml:"timeout_ms"`
}

// TransportConfig selects and configures the wire transport.
type TransportConfig struct {
	Kind  string      `yaml:"kind"`
	STOMP STOMPConfig `yaml:"stomp"`
	MQTT  MQTTConfig  `yaml:"mqtt"`
}

// STOMPConfig contains STOMP-over-WebSocket settings.
type STOMPConfig struct {
	// Host is the STOMP virtual host sent in CONNECT. Defaults to the address host.
	Host string `yaml:"host"`

	HeartBeat HeartBeatConfig `yaml:"heartbeat"`

	// InsecureSkipVerify disables TLS certificate verification (development only).
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// HeartBeatConfig contains STOMP heart-beat intervals (milliseconds, 0 disables).
type HeartBeatConfig struct {
	Send    int `yaml:"send"`
	Receive int `yaml:"receive"`
}

// MQTTConfig contains MQTT transport settings.
type MQTTConfig struct {
	ClientIDPrefix string `yaml:"client_id_prefix"`
	QoS            int    `yaml:"qos"`

	// KeepAlive is the keepalive interval (seconds).
	KeepAlive int `yaml:"keep_alive"`
}

// SubscriptionsConfig lists the destinations the application subscribes to.
type SubscriptionsConfig struct {
	Topics   []string `yaml:"topics"`
	Personal bool     `yaml:"personal"`
}

// JournalConfig contains settings of the SQLite message journal.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains status API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SOCKCLIENT_SECTION_KEY
// For example: SOCKCLIENT_TOKEN, SOCKCLIENT_JOURNAL_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Reconnect: ReconnectConfig{
				Enabled:   true,
				TimeoutMs: 30000,
			},
			HandshakeTimeout: 10,
		},
		Transport: TransportConfig{
			Kind: TransportSTOMP,
			STOMP: STOMPConfig{
				HeartBeat: HeartBeatConfig{
					Send:    10000,
					Receive: 10000,
				},
			},
			MQTT: MQTTConfig{
				ClientIDPrefix: "sockclient",
				QoS:            1,
				KeepAlive:      60,
			},
		},
		Subscriptions: SubscriptionsConfig{
			Personal: true,
		},
		Journal: JournalConfig{
			Path:        "./data/journal.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Credentials are expected to come from the environment in production.
func applyEnvOverrides(cfg *Config) {
	// Client
	if v := os.Getenv("SOCKCLIENT_ADDRESS"); v != "" {
		cfg.Client.Address = v
	}
	if v := os.Getenv("SOCKCLIENT_TENANT_ID"); v != "" {
		cfg.Client.TenantID = v
	}
	if v := os.Getenv("SOCKCLIENT_TOKEN"); v != "" {
		cfg.Client.Token = v
	}

	// Transport
	if v := os.Getenv("SOCKCLIENT_TRANSPORT_KIND"); v != "" {
		cfg.Transport.Kind = v
	}

	// Journal
	if v := os.Getenv("SOCKCLIENT_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// API
	if v := os.Getenv("SOCKCLIENT_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("SOCKCLIENT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Client validation
	if c.Client.Address == "" {
		errs = append(errs, "client.address is required (set SOCKCLIENT_ADDRESS)")
	}
	if c.Client.TenantID == "" {
		errs = append(errs, "client.tenant_id is required (set SOCKCLIENT_TENANT_ID)")
	}
	if c.Client.Token == "" {
		errs = append(errs, "client.token is required (set SOCKCLIENT_TOKEN)")
	}
	if c.Client.Reconnect.TimeoutMs < 0 {
		errs = append(errs, "client.reconnect.timeout_ms must not be negative")
	}
	if c.Client.HandshakeTimeout < 0 {
		errs = append(errs, "client.handshake_timeout must not be negative")
	}

	// Transport validation
	switch c.Transport.Kind {
	case TransportSTOMP:
		if c.Transport.STOMP.HeartBeat.Send < 0 || c.Transport.STOMP.HeartBeat.Receive < 0 {
			errs = append(errs, "transport.stomp.heartbeat values must not be negative")
		}
	case TransportMQTT:
		if c.Transport.MQTT.QoS < 0 || c.Transport.MQTT.QoS > 2 {
			errs = append(errs, "transport.mqtt.qos must be 0, 1, or 2")
		}
	default:
		errs = append(errs, fmt.Sprintf("transport.kind must be %q or %q", TransportSTOMP, TransportMQTT))
	}

	// Subscription validation
	for i, topic := range c.Subscriptions.Topics {
		if strings.TrimSpace(topic) == "" {
			errs = append(errs, fmt.Sprintf("subscriptions.topics[%d] must not be empty", i))
		}
	}

	// Journal validation
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReconnectTimeout returns the reconnect delay as a Duration.
func (c *Config) ReconnectTimeout() time.Duration {
	return time.Duration(c.Client.Reconnect.TimeoutMs) * time.Millisecond
}

// HandshakeTimeout returns the connect attempt bound as a Duration.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Client.HandshakeTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
