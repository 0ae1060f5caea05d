package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is a paho token that completes when done is closed.
type fakeToken struct {
	err  error
	done chan struct{}
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
	id      uint16
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return m.id }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeClient implements pahomqtt.Client without a broker.
type fakeClient struct {
	opts *pahomqtt.ClientOptions

	connectToken  *fakeToken
	subscribeErr  error
	unsubscribeTk *fakeToken

	mu           sync.Mutex
	open         bool
	routes       map[string]pahomqtt.MessageHandler
	subQoS       map[string]byte
	unsubscribed []string
	disconnects  int
}

func newFakeClient(opts *pahomqtt.ClientOptions) *fakeClient {
	return &fakeClient{
		opts:         opts,
		connectToken: completedToken(nil),
		routes:       make(map[string]pahomqtt.MessageHandler),
		subQoS:       make(map[string]byte),
	}
}

func (c *fakeClient) IsConnected() bool { return c.IsConnectionOpen() }

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeClient) Connect() pahomqtt.Token {
	tk := c.connectToken
	if tk.err == nil {
		c.mu.Lock()
		c.open = true
		c.mu.Unlock()
	}
	return tk
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.disconnects++
}

func (c *fakeClient) Publish(string, byte, bool, interface{}) pahomqtt.Token {
	return completedToken(nil)
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr == nil {
		c.routes[topic] = callback
		c.subQoS[topic] = qos
	}
	return completedToken(c.subscribeErr)
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, callback)
	}
	return completedToken(nil)
}

func (c *fakeClient) Unsubscribe(topics ...string) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		delete(c.routes, topic)
		c.unsubscribed = append(c.unsubscribed, topic)
	}
	if c.unsubscribeTk != nil {
		return c.unsubscribeTk
	}
	return completedToken(nil)
}

func (c *fakeClient) AddRoute(topic string, callback pahomqtt.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[topic] = callback
}

func (c *fakeClient) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

// deliver invokes the handler registered for topic, as paho's router would.
func (c *fakeClient) deliver(topic string, payload string) bool {
	c.mu.Lock()
	h, ok := c.routes[topic]
	c.mu.Unlock()
	if !ok {
		return false
	}
	h(c, &fakeMessage{topic: topic, payload: []byte(payload), id: 7})
	return true
}

// loseConnection drops the link and fires the connection lost handler.
func (c *fakeClient) loseConnection(err error) {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	c.opts.OnConnectionLost(c, err)
}

// fakeFactory records every client the dialer creates.
type fakeFactory struct {
	mu        sync.Mutex
	clients   []*fakeClient
	configure func(*fakeClient)
}

func (f *fakeFactory) newClient(opts *pahomqtt.ClientOptions) pahomqtt.Client {
	c := newFakeClient(opts)
	if f.configure != nil {
		f.configure(c)
	}
	f.mu.Lock()
	f.clients = append(f.clients, c)
	f.mu.Unlock()
	return c
}

func (f *fakeFactory) client(i int) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[i]
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(string, ...any) {}
