package sockclient

import "errors"

// Domain-specific errors for client operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConfig is returned by New when required configuration is missing.
	ErrConfig = errors.New("sockclient: invalid configuration")

	// ErrAlreadyConnected is returned when Connect is called more than once.
	ErrAlreadyConnected = errors.New("sockclient: connect called on an active client")

	// ErrInvalidArgument is returned when a subscription is registered with
	// an empty topic or a nil handler.
	ErrInvalidArgument = errors.New("sockclient: invalid argument")

	// ErrClientClosed is returned when Connect is called after Disconnect.
	// Disconnect is terminal; construct a new Client to reconnect.
	ErrClientClosed = errors.New("sockclient: client has been disconnected")
)
