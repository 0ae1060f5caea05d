package sockclient

import "reflect"

// StateListener is notified of every state transition, in order.
type StateListener interface {
	StateChanged(state State)
}

// StateListenerFunc adapts a function to StateListener.
//
// Function values have no identity in Go, so registering the same
// StateListenerFunc twice registers it twice. Use a pointer type when
// duplicate registration must be a no-op.
type StateListenerFunc func(state State)

// StateChanged calls f(state).
func (f StateListenerFunc) StateChanged(state State) {
	f(state)
}

// MessageHandler receives inbound messages for a topic or the personal queue.
//
// Handlers run on the client's event loop and should not block.
// A returned error is logged but does not affect other handlers.
type MessageHandler interface {
	HandleMessage(msg Message) error
}

// MessageHandlerFunc adapts a function to MessageHandler.
// See StateListenerFunc for the identity caveat.
type MessageHandlerFunc func(msg Message) error

// HandleMessage calls f(msg).
func (f MessageHandlerFunc) HandleMessage(msg Message) error {
	return f(msg)
}

// listeners is an ordered list of callbacks with identity deduplication.
type listeners[T any] struct {
	items []T
}

// add appends cb unless it is nil or already present.
// It reports whether cb was appended.
func (l *listeners[T]) add(cb T) bool {
	if isNil(cb) {
		return false
	}
	for _, existing := range l.items {
		if sameListener(existing, cb) {
			return false
		}
	}
	l.items = append(l.items, cb)
	return true
}

// snapshot returns the current list. Registrations made while a snapshot is
// being dispatched are not observed by that dispatch.
func (l *listeners[T]) snapshot() []T {
	return l.items[:len(l.items):len(l.items)]
}

func (l *listeners[T]) len() int {
	return len(l.items)
}

func (l *listeners[T]) clear() {
	l.items = nil
}

// isNil reports whether v is a nil interface or a typed nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// sameListener compares by identity. Values whose dynamic type is not
// comparable (functions, structs holding functions) are never equal.
func sameListener(a, b any) (same bool) {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	// Structs with interface fields pass Comparable but can still panic.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
