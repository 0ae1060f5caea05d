package mqtt

import (
	"errors"

	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrConnectionLost is reported when an established connection drops.
	ErrConnectionLost = errors.New("mqtt: connection lost")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidTopic is returned when a destination maps to an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("mqtt: operation timed out")
)

// Classify treats a CONNACK refusal for bad credentials or missing
// authorisation as a permanent invalid-credential failure. Everything else
// is transient.
//
// Use it as the sockclient.Config Classifier with this package's Dialer.
func Classify(err error) sockclient.Failure {
	if errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword) ||
		errors.Is(err, packets.ErrorRefusedNotAuthorised) {
		return sockclient.Permanent(sockclient.BreakReasonInvalidCredential)
	}
	return sockclient.Transient()
}
