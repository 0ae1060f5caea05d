// Package sockclient maintains a single logical connection to a topic-based
// publish/subscribe server on top of an unreliable transport.
//
// This package manages:
//   - The connection lifecycle (Disconnected → Connecting → Connected)
//   - Re-registration of every topic subscription after each reconnect
//   - A delayed, cancellable reconnect after transient failures
//   - Latching of permanent credential rejections so a duplicated failure
//     callback produces a single Disconnected notification and no retries
//
// # Architecture
//
// The transport and the messaging protocol are collaborators reached through
// the Dialer/Session/Subscription interfaces. Concrete implementations live in
// internal/infrastructure/stomp (STOMP over WebSocket) and
// internal/infrastructure/mqtt (MQTT via paho).
//
//	caller ↔ Client (event loop) ↔ Dialer/Session ↔ server
//
// All mutable state is owned by a private event loop. Public methods validate
// their arguments synchronously and post the work to the loop, so no method
// blocks the caller. Transport callbacks and timers also post to the loop,
// which gives listeners a strict, uncoalesced view of state transitions.
//
// # Destinations
//
// Destination strings are bit-exact with the existing servers:
//
//	broadcast: /topic/{tenantId}/{topic}
//	personal:  /user/queue/{tenantId}/
//
// # Usage
//
//	client, err := sockclient.New(sockclient.Config{
//	    Address:   "wss://push.example.com/ws/websocket",
//	    TenantID:  "p1",
//	    Token:     token,
//	    Reconnect: &sockclient.ReconnectConfig{Timeout: 5 * time.Second},
//	}, stomp.NewDialer(cfg.Transport.STOMP))
//	if err != nil {
//	    return err
//	}
//	client.OnStateChange(sockclient.StateListenerFunc(func(s sockclient.State) {
//	    log.Info("state changed", "state", s)
//	}))
//	client.SubscribeBroadcast("orders", handler)
//	client.Connect()
//	defer client.Disconnect()
//
// A Client is single-use: after Disconnect a new Client must be constructed.
package sockclient
