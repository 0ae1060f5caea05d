package sockclient

import "time"

// reconnectPolicy schedules at most one delayed reconnect attempt.
// Owned by the event loop.
type reconnectPolicy struct {
	clock   Clock
	post    func(func()) bool
	enabled bool
	delay   time.Duration

	pending Timer
	gen     uint64
}

func newReconnectPolicy(cfg *ReconnectConfig, clock Clock, post func(func()) bool) *reconnectPolicy {
	p := &reconnectPolicy{clock: clock, post: post}
	if cfg != nil {
		p.enabled = true
		p.delay = cfg.Timeout
	}
	return p
}

// schedule arranges for attempt to run on the loop after the delay.
// A previously scheduled attempt is replaced. It reports false when
// reconnection is disabled.
func (p *reconnectPolicy) schedule(attempt func()) bool {
	if !p.enabled {
		return false
	}
	p.cancel()

	gen := p.gen
	p.pending = p.clock.AfterFunc(p.delay, func() {
		p.post(func() {
			if gen != p.gen {
				return
			}
			p.pending = nil
			attempt()
		})
	})
	return true
}

// isPending reports whether an attempt is scheduled.
func (p *reconnectPolicy) isPending() bool {
	return p.pending != nil
}

// cancel drops a scheduled attempt, including one whose timer has already
// fired but has not yet run on the loop.
func (p *reconnectPolicy) cancel() {
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}
