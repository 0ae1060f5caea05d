package sockclient

import "sync"

// eventLoop runs posted functions one at a time on a single goroutine.
//
// The queue is unbounded so that a listener running on the loop can post
// further work without deadlocking.
type eventLoop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
}

// newEventLoop starts the loop goroutine.
func newEventLoop() *eventLoop {
	l := &eventLoop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// post enqueues fn. It returns false if the loop has stopped, in which case
// fn will never run.
func (l *eventLoop) post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// stop prevents further posts. Work already queued is dropped.
// Safe to call from a function running on the loop.
func (l *eventLoop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// flush blocks until every function posted before the call has run.
// It returns false if the loop stopped first.
func (l *eventLoop) flush() bool {
	ran := make(chan struct{})
	if !l.post(func() { close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// Done is closed when the loop goroutine has exited.
func (l *eventLoop) Done() <-chan struct{} {
	return l.done
}

func (l *eventLoop) run() {
	defer close(l.done)

	for range l.wake {
		for {
			l.mu.Lock()
			if l.stopped {
				l.mu.Unlock()
				return
			}
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			fn()
		}
	}
}
