package sockclient

import "context"

// Credentials are presented to the server during the protocol handshake.
type Credentials struct {
	TenantID string
	Token    string
}

// Message is a single inbound message delivered on a subscription.
type Message struct {
	// Destination is the destination the message was published to.
	Destination string

	// Headers holds protocol headers: STOMP frame headers, or the MQTT
	// publish fields.
	Headers map[string]string

	// Body is the raw payload, typically JSON.
	Body []byte
}

// Dialer opens the transport and performs the protocol handshake.
//
// Dial blocks until the handshake completes or fails; ctx bounds the dial
// only, not the lifetime of the returned session. After a successful Dial
// the session reports asynchronous failures (link loss, server error frames)
// through onFailure. Implementations may call onFailure more than once for a
// single logical failure and from any goroutine.
type Dialer interface {
	Dial(ctx context.Context, address string, creds Credentials, onFailure func(error)) (Session, error)
}

// Session is an established protocol session.
type Session interface {
	// Subscribe opens a live subscription. onMessage is called from a
	// transport goroutine for every message, in delivery order.
	Subscribe(destination string, onMessage func(Message)) (Subscription, error)

	// Close releases the underlying transport.
	Close() error
}

// Subscription is a live subscription handle owned by the registry.
type Subscription interface {
	Unsubscribe() error
}
