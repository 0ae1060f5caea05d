package sockclient

import "time"

// Clock schedules deferred work. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending deferred call.
type Timer interface {
	// Stop prevents the call from running. It returns false if the call
	// already ran or was already stopped.
	Stop() bool
}

// realClock schedules with time.AfterFunc.
type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
