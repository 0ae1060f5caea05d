package sockclient

import "time"

// BreakReason classifies a failure as permanent.
type BreakReason int

const (
	// BreakReasonNone means no permanent failure is latched.
	BreakReasonNone BreakReason = iota

	// BreakReasonInvalidCredential means the server rejected the token.
	BreakReasonInvalidCredential
)

// String returns the name of the reason.
func (r BreakReason) String() string {
	switch r {
	case BreakReasonNone:
		return "none"
	case BreakReasonInvalidCredential:
		return "invalid_credential"
	default:
		return "unknown"
	}
}

// breakReasonCooldown is how long a permanent failure stays latched.
// The transport reports a rejection up to twice within this window.
const breakReasonCooldown = 2000 * time.Millisecond

// breakGuard latches a BreakReason for breakReasonCooldown.
// Owned by the event loop; the cooldown timer posts its clear back to it.
type breakGuard struct {
	clock Clock
	post  func(func()) bool

	reason BreakReason
	timer  Timer
	gen    uint64
}

func newBreakGuard(clock Clock, post func(func()) bool) *breakGuard {
	return &breakGuard{clock: clock, post: post}
}

// set latches reason and restarts the cooldown.
func (g *breakGuard) set(reason BreakReason) {
	g.stopTimer()
	g.reason = reason
	g.gen++
	gen := g.gen
	g.timer = g.clock.AfterFunc(breakReasonCooldown, func() {
		g.post(func() {
			// A newer set() owns the latch now.
			if gen == g.gen {
				g.clear()
			}
		})
	})
}

// isActive reports whether reason is currently latched.
func (g *breakGuard) isActive(reason BreakReason) bool {
	return reason != BreakReasonNone && g.reason == reason
}

// clear drops the latch. Idempotent.
func (g *breakGuard) clear() {
	g.reason = BreakReasonNone
	g.timer = nil
}

// stop cancels a pending cooldown and clears the latch.
func (g *breakGuard) stop() {
	g.stopTimer()
	g.gen++
	g.clear()
}

func (g *breakGuard) stopTimer() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
