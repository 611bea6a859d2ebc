// Package session keeps a JWT access token in memory on the client side and
// renews it transparently shortly before it expires. The token never touches
// persistent storage; only the httpOnly refresh cookie survives a reload.
package session

import "time"

// CancelFunc stops a scheduled callback. Calling it after the callback ran
// is a no-op.
type CancelFunc func()

// Scheduler schedules a single callback after a delay. It exists as a
// capability so tests can drive renewal deterministically instead of
// sleeping through real timers.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler is the production Scheduler over time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
