package sockclient

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Client maintains one logical connection to the server.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Listeners and handlers are invoked one at a time on the client's
//     event loop, never concurrently with each other.
//
// Lifecycle: New → Connect → (automatic reconnects) → Disconnect.
// Disconnect is terminal; the event loop exits and Done is closed.
type Client struct {
	cfg    Config
	dialer Dialer
	clock  Clock
	id     string
	loop   *eventLoop

	// ctx is cancelled by Disconnect to abort an in-flight Dial.
	ctx    context.Context
	cancel context.CancelFunc

	started atomic.Bool
	closed  atomic.Bool
	state   atomic.Int32

	logger   Logger
	loggerMu sync.RWMutex

	connectAttempts     atomic.Uint64
	reconnectsScheduled atomic.Uint64
	failures            atomic.Uint64
	permanentFailures   atomic.Uint64
	messagesReceived    atomic.Uint64
	handlerErrors       atomic.Uint64
	liveSubscriptions   atomic.Int64

	// Everything below is owned by the event loop.
	session        Session
	gen            uint64
	failedGen      uint64
	shutdown       bool
	stateListeners listeners[StateListener]
	registry       *registry
	guard          *breakGuard
	reconnect      *reconnectPolicy
}

// Stats is a point-in-time snapshot of client counters.
type Stats struct {
	State               State
	ConnectAttempts     uint64
	ReconnectsScheduled uint64
	Failures            uint64
	PermanentFailures   uint64
	MessagesReceived    uint64
	HandlerErrors       uint64
	LiveSubscriptions   int
}

// New validates cfg and creates a disconnected client.
//
// Returns:
//   - *Client: Client ready for listener registration and Connect
//   - error: Wrapping ErrConfig if address, tenant id or token is empty
func New(cfg Config, dialer Dialer) (*Client, error) {
	return newClient(cfg, dialer, realClock{})
}

func newClient(cfg Config, dialer Dialer, clock Clock) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if dialer == nil {
		return nil, fmt.Errorf("%w: dialer is required", ErrConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:    cfg.withDefaults(),
		dialer: dialer,
		clock:  clock,
		id:     uuid.NewString(),
		loop:   newEventLoop(),
		ctx:    ctx,
		cancel: cancel,
		logger: noopLogger{},
	}
	c.guard = newBreakGuard(clock, c.loop.post)
	c.reconnect = newReconnectPolicy(c.cfg.Reconnect, clock, c.loop.post)
	c.registry = newRegistry(Destinations{TenantID: c.cfg.TenantID}, c.loop.post, c.deliver, c.getLogger)

	return c, nil
}

// ID returns the unique identifier of this client instance.
func (c *Client) ID() string {
	return c.id
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Done is closed once Disconnect has finished tearing the client down.
func (c *Client) Done() <-chan struct{} {
	return c.loop.Done()
}

// Stats returns current counters.
func (c *Client) Stats() Stats {
	return Stats{
		State:               c.State(),
		ConnectAttempts:     c.connectAttempts.Load(),
		ReconnectsScheduled: c.reconnectsScheduled.Load(),
		Failures:            c.failures.Load(),
		PermanentFailures:   c.permanentFailures.Load(),
		MessagesReceived:    c.messagesReceived.Load(),
		HandlerErrors:       c.handlerErrors.Load(),
		LiveSubscriptions:   int(c.liveSubscriptions.Load()),
	}
}

// SetLogger sets the logger. If not set, nothing is logged.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Connect starts connecting in the background and returns immediately.
// Progress is reported through state listeners.
//
// Returns:
//   - ErrAlreadyConnected: Connect was already called on this client
//   - ErrClientClosed: Disconnect was already called
func (c *Client) Connect() error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyConnected
	}
	if !c.loop.post(c.connectToServer) {
		return ErrClientClosed
	}
	return nil
}

// Disconnect tears the client down: it cancels any pending reconnect and
// in-flight dial, notifies state listeners of Disconnected, releases every
// subscription, forgets all listeners and closes the transport.
//
// It returns immediately; Done is closed when teardown has finished.
// Safe to call more than once and on a client that never connected.
func (c *Client) Disconnect() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.cancel()
	c.loop.post(c.teardown)
}

// OnStateChange registers a state listener. Registering the same listener
// again is a no-op; nil is ignored.
func (c *Client) OnStateChange(listener StateListener) {
	if isNil(listener) {
		return
	}
	c.loop.post(func() {
		c.stateListeners.add(listener)
	})
}

// SubscribeBroadcast registers handler for a tenant topic. The subscription
// is opened on the next transition to Connected. Registering the same
// handler again for the same topic is a no-op.
//
// Returns:
//   - ErrInvalidArgument: topic is empty or handler is nil
//   - ErrClientClosed: Disconnect was already called
func (c *Client) SubscribeBroadcast(topic string, handler MessageHandler) error {
	if topic == "" || isNil(handler) {
		return fmt.Errorf("%w: topic and handler are required", ErrInvalidArgument)
	}
	if !c.loop.post(func() {
		c.registry.registerBroadcast(topic, handler)
	}) {
		return ErrClientClosed
	}
	return nil
}

// SubscribeForCurrentUser registers handler for the personal queue.
// Registering the same handler again is a no-op; nil is ignored.
func (c *Client) SubscribeForCurrentUser(handler MessageHandler) {
	if isNil(handler) {
		return
	}
	c.loop.post(func() {
		c.registry.registerPersonal(handler)
	})
}

// connectToServer starts one connect attempt. Runs on the loop.
func (c *Client) connectToServer() {
	if c.shutdown {
		return
	}

	c.gen++
	gen := c.gen
	attempt := c.connectAttempts.Add(1)

	c.changeState(StateConnecting)
	c.getLogger().Debug("connecting to server",
		"address", c.cfg.Address,
		"tenant_id", c.cfg.TenantID,
		"attempt", attempt,
	)

	go c.dial(gen)
}

// dial runs the blocking Dial off the loop and posts the outcome back.
func (c *Client) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	session, err := c.dialer.Dial(ctx, c.cfg.Address, c.cfg.credentials(), func(err error) {
		c.loop.post(func() {
			c.handleFailure(gen, err)
		})
	})

	posted := c.loop.post(func() {
		if err != nil {
			c.handleFailure(gen, err)
			return
		}
		c.handleConnected(gen, session)
	})
	if !posted && session != nil {
		c.closeSession(session)
	}
}

// handleConnected completes a successful handshake. Runs on the loop.
func (c *Client) handleConnected(gen uint64, session Session) {
	if c.shutdown || gen != c.gen || gen == c.failedGen {
		c.closeSession(session)
		return
	}

	c.session = session
	c.getLogger().Info("connection established",
		"address", c.cfg.Address,
		"client_id", c.id,
	)

	c.changeState(StateConnected)

	err := c.registry.bindAll(session)
	c.liveSubscriptions.Store(int64(c.registry.liveCount()))
	if err != nil {
		c.handleFailure(gen, err)
	}
}

// handleFailure handles a failed handshake or a lost session. Runs on the loop.
func (c *Client) handleFailure(gen uint64, err error) {
	log := c.getLogger()

	if c.shutdown || gen != c.gen {
		log.Debug("ignoring failure from stale session", "error", err)
		return
	}
	// The transport reports one credential rejection twice.
	if c.guard.isActive(BreakReasonInvalidCredential) {
		log.Debug("suppressing repeated credential rejection", "error", err)
		return
	}
	if gen == c.failedGen {
		log.Debug("ignoring repeated failure for session", "error", err)
		return
	}
	c.failedGen = gen
	c.failures.Add(1)

	c.changeState(StateDisconnected)
	c.registry.releaseAll()
	c.liveSubscriptions.Store(0)
	if c.session != nil {
		c.closeSession(c.session)
		c.session = nil
	}

	failure := c.cfg.Classifier.Classify(err)
	if failure.Kind == FailurePermanent {
		c.guard.set(failure.Reason)
		c.permanentFailures.Add(1)
		log.Error("server rejected connection, not reconnecting",
			"reason", failure.Reason.String(),
			"error", err,
		)
		return
	}

	if !c.reconnect.schedule(c.connectToServer) {
		log.Warn("connection failed, reconnect disabled", "error", err)
		return
	}
	c.reconnectsScheduled.Add(1)
	log.Warn("connection failed, reconnect scheduled",
		"error", err,
		"delay", c.reconnect.delay,
	)
}

// teardown performs Disconnect on the loop and stops it.
func (c *Client) teardown() {
	c.shutdown = true
	c.reconnect.cancel()
	c.guard.stop()

	c.changeState(StateDisconnected)
	c.registry.releaseAll()
	c.liveSubscriptions.Store(0)

	c.stateListeners.clear()
	c.registry.clear()

	if c.session != nil {
		c.closeSession(c.session)
		c.session = nil
	}

	c.getLogger().Info("client disconnected", "client_id", c.id)
	c.loop.stop()
}

// changeState records state and notifies every listener in order.
func (c *Client) changeState(state State) {
	c.state.Store(int32(state))
	for _, l := range c.stateListeners.snapshot() {
		c.notifyState(l, state)
	}
}

func (c *Client) notifyState(l StateListener, state State) {
	defer func() {
		if r := recover(); r != nil {
			c.getLogger().Error("state listener panic recovered",
				"state", state.String(),
				"panic", r,
			)
		}
	}()
	l.StateChanged(state)
}

// deliver fans msg out to handlers in registration order.
func (c *Client) deliver(destination string, handlers []MessageHandler, msg Message) {
	c.messagesReceived.Add(1)
	for _, h := range handlers {
		c.invokeHandler(destination, h, msg)
	}
}

func (c *Client) invokeHandler(destination string, h MessageHandler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			c.handlerErrors.Add(1)
			c.getLogger().Error("message handler panic recovered",
				"destination", destination,
				"panic", r,
			)
		}
	}()

	if err := h.HandleMessage(msg); err != nil {
		c.handlerErrors.Add(1)
		c.getLogger().Warn("message handler returned error",
			"destination", destination,
			"error", err,
		)
	}
}

// closeSession releases the transport. Errors are logged, never returned.
func (c *Client) closeSession(session Session) {
	if err := session.Close(); err != nil {
		c.getLogger().Warn("closing transport failed", "error", err)
	}
}
