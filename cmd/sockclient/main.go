// sockclient keeps one logical connection to a push-notification server,
// subscribes to the configured topics and the tenant's personal queue, and
// journals what it receives.
//
// Configuration is read from configs/config.yaml (override with
// SOCKCLIENT_CONFIG); credentials normally come from SOCKCLIENT_TOKEN.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-sockclient/internal/api"
	"github.com/nerrad567/gray-logic-sockclient/internal/auth"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/stomp"
	"github.com/nerrad567/gray-logic-sockclient/internal/journal"
	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
	"github.com/nerrad567/gray-logic-sockclient/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when SOCKCLIENT_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// shutdownTimeout bounds the wait for the client teardown.
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the application and blocks until ctx is cancelled.
//
// Returns:
//   - error: nil on clean shutdown, or error describing a startup failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting sockclient",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"address", cfg.Client.Address,
		"tenant_id", cfg.Client.TenantID,
		"token", logging.Redact(cfg.Client.Token),
		"transport", cfg.Transport.Kind,
	)

	inspectCredential(log, cfg.Client.Token, time.Now())

	checks := make(map[string]api.HealthChecker)

	// Message journal (optional)
	var repo journal.Repository
	if cfg.Journal.Enabled {
		db, err := openJournal(ctx, cfg.Journal)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		repo = journal.NewSQLiteRepository(db.DB)
		checks["journal"] = db
		log.Info("journal opened", "path", db.Path())
	}

	// InfluxDB telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	dialer, classifier, err := buildDialer(cfg, log)
	if err != nil {
		return err
	}

	client, err := sockclient.New(clientConfig(cfg, classifier), dialer)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	client.SetLogger(log.Component("sockclient"))

	client.OnStateChange(&stateLogger{log: log})
	if influxClient != nil {
		client.OnStateChange(influxClient)
	}
	if err := subscribe(client, cfg.Subscriptions, repo, influxClient, log); err != nil {
		return err
	}

	// Status API (optional)
	if cfg.API.Enabled {
		srv, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Client:  client,
			Journal: repo,
			Checks:  checks,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := srv.Start(); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal", "client_id", client.ID())

	<-ctx.Done()

	log.Info("shutdown signal received, disconnecting")
	client.Disconnect()
	select {
	case <-client.Done():
	case <-time.After(shutdownTimeout):
		log.Warn("client teardown did not finish in time")
	}

	log.Info("sockclient stopped")
	return nil
}

func getConfigPath() string {
	if path := os.Getenv("SOCKCLIENT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// inspectCredential warns about an expired JWT before the server rejects it.
func inspectCredential(log *logging.Logger, token string, now time.Time) {
	info, err := auth.InspectToken(token)
	switch {
	case errors.Is(err, auth.ErrNotJWT):
		log.Debug("credential is opaque, skipping inspection")
	case err != nil:
		log.Warn("credential inspection failed", "error", err)
	case info.Expired(now):
		log.Warn("credential has expired; the server will reject it",
			"subject", info.Subject,
			"expired_at", info.ExpiresAt,
		)
	default:
		log.Info("credential inspected", "subject", info.Subject, "expires_at", info.ExpiresAt)
	}
}

// openJournal opens and migrates the journal database.
func openJournal(ctx context.Context, cfg config.JournalConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return db, nil
}

// buildDialer returns the dialer for transport.kind and the classifier that
// recognises its credential rejections. A nil classifier selects the
// client's default.
func buildDialer(cfg *config.Config, log *logging.Logger) (sockclient.Dialer, sockclient.Classifier, error) {
	switch cfg.Transport.Kind {
	case config.TransportSTOMP:
		s := cfg.Transport.STOMP
		d := stomp.NewDialer(stomp.Config{
			Host:               s.Host,
			HeartBeatSend:      time.Duration(s.HeartBeat.Send) * time.Millisecond,
			HeartBeatReceive:   time.Duration(s.HeartBeat.Receive) * time.Millisecond,
			InsecureSkipVerify: s.InsecureSkipVerify,
		})
		d.SetLogger(log.Component("stomp"))
		return d, nil, nil
	case config.TransportMQTT:
		m := cfg.Transport.MQTT
		d := mqtt.NewDialer(mqtt.Config{
			ClientIDPrefix: m.ClientIDPrefix,
			QoS:            byte(m.QoS), //nolint:gosec // Validated to 0..2
			KeepAlive:      time.Duration(m.KeepAlive) * time.Second,
		})
		d.SetLogger(log.Component("mqtt"))
		return d, sockclient.ClassifierFunc(mqtt.Classify), nil
	default:
		return nil, nil, fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}
}

// clientConfig maps the client section onto sockclient.Config.
func clientConfig(cfg *config.Config, classifier sockclient.Classifier) sockclient.Config {
	cc := sockclient.Config{
		Address:          cfg.Client.Address,
		TenantID:         cfg.Client.TenantID,
		Token:            cfg.Client.Token,
		HandshakeTimeout: cfg.HandshakeTimeout(),
		Classifier:       classifier,
	}
	if cfg.Client.Reconnect.Enabled {
		cc.Reconnect = &sockclient.ReconnectConfig{Timeout: cfg.ReconnectTimeout()}
	}
	return cc
}
