// Package mqtt connects sockclient to MQTT brokers.
//
// It implements the sockclient transport contract on top of
// paho.mqtt.golang:
//
//	Dial         → CONNECT with username = tenant id, password = token
//	Subscribe    → SUBSCRIBE to TopicFor(destination)
//	Unsubscribe  → UNSUBSCRIBE
//	Close        → DISCONNECT
//
// # Reconnection
//
// paho auto-reconnect is disabled and sessions are clean. When the
// connection drops, the session reports ErrConnectionLost through the
// onFailure callback and the sockclient core decides whether and when to
// dial again, replaying subscriptions on the new session.
//
// # Credential rejection
//
// A broker refusing the CONNECT with "bad username or password" or "not
// authorised" is permanent; pass Classify as the client's Classifier so no
// reconnect is scheduled for it.
//
// # Security Considerations
//
//   - Use ssl:// or wss:// outside development; the token is sent as the password
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	dialer := mqtt.NewDialer(mqtt.Config{QoS: 1})
//	client, err := sockclient.New(sockclient.Config{
//	    Address:    "ssl://broker:8883",
//	    TenantID:   "p1",
//	    Token:      token,
//	    Classifier: sockclient.ClassifierFunc(mqtt.Classify),
//	}, dialer)
package mqtt
