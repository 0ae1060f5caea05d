package sockclient

import "fmt"

// binding is a live subscription for one destination.
type binding struct {
	destination string
	handle      Subscription
	active      bool
}

// registry tracks topic and personal handlers and the live subscriptions
// created for them. Owned by the event loop.
//
// Registration is independent of the connection state; live subscriptions
// exist only between bindAll and releaseAll.
type registry struct {
	dest    Destinations
	post    func(func()) bool
	deliver func(destination string, handlers []MessageHandler, msg Message)
	logger  func() Logger

	topics   map[string]*listeners[MessageHandler]
	order    []string
	personal listeners[MessageHandler]

	bindings []*binding
}

func newRegistry(
	dest Destinations,
	post func(func()) bool,
	deliver func(destination string, handlers []MessageHandler, msg Message),
	logger func() Logger,
) *registry {
	return &registry{
		dest:    dest,
		post:    post,
		deliver: deliver,
		logger:  logger,
		topics:  make(map[string]*listeners[MessageHandler]),
	}
}

// registerBroadcast adds h to topic. Registering the same handler twice for
// a topic is a no-op. It reports whether h was added.
func (r *registry) registerBroadcast(topic string, h MessageHandler) bool {
	l, ok := r.topics[topic]
	if !ok {
		l = &listeners[MessageHandler]{}
		r.topics[topic] = l
		r.order = append(r.order, topic)
	}
	return l.add(h)
}

// registerPersonal adds h to the personal queue handlers.
func (r *registry) registerPersonal(h MessageHandler) bool {
	return r.personal.add(h)
}

// bindAll opens one subscription per topic that has at least one handler,
// then one for the personal queue. It stops at the first failure; handles
// opened so far stay tracked so releaseAll can drop them.
func (r *registry) bindAll(s Session) error {
	for _, topic := range r.order {
		l := r.topics[topic]
		if l.len() == 0 {
			continue
		}
		if err := r.bind(s, r.dest.Broadcast(topic), l); err != nil {
			return err
		}
	}
	return r.bind(s, r.dest.Personal(), &r.personal)
}

func (r *registry) bind(s Session, destination string, l *listeners[MessageHandler]) error {
	b := &binding{destination: destination, active: true}

	handle, err := s.Subscribe(destination, func(msg Message) {
		r.post(func() {
			// Messages queued before the binding was released are dropped.
			if !b.active {
				return
			}
			r.deliver(destination, l.snapshot(), msg)
		})
	})
	if err != nil {
		b.active = false
		return fmt.Errorf("subscribing to %s: %w", destination, err)
	}

	b.handle = handle
	r.bindings = append(r.bindings, b)
	r.logger().Debug("subscribed", "destination", destination)
	return nil
}

// releaseAll unsubscribes every live handle. Unsubscribe errors are logged
// and never returned.
func (r *registry) releaseAll() {
	for _, b := range r.bindings {
		b.active = false
		if err := b.handle.Unsubscribe(); err != nil {
			r.logger().Warn("unsubscribe failed",
				"destination", b.destination,
				"error", err,
			)
		}
	}
	r.bindings = nil
}

// clear forgets every registered handler.
func (r *registry) clear() {
	r.topics = make(map[string]*listeners[MessageHandler])
	r.order = nil
	r.personal.clear()
}

// liveCount returns the number of live subscription handles.
func (r *registry) liveCount() int {
	return len(r.bindings)
}

// topicCount returns the number of topics with at least one handler.
func (r *registry) topicCount() int {
	n := 0
	for _, l := range r.topics {
		if l.len() > 0 {
			n++
		}
	}
	return n
}
