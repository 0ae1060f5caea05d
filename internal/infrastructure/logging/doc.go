// Package logging provides structured logging for sockclient.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	client.SetLogger(logger.Component("sockclient"))
//
// # Security
//
// Never log the credential token. Use Redact when a prefix is useful:
//
//	logger.Info("credential loaded", "token", logging.Redact(token))
package logging
