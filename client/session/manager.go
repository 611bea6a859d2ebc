package session

import (
	"context"
	"sync"
	"time"

	"github.com/jobboard/auth-service/pkg/logger"
)

const (
	// DefaultSkew is how long before token expiry the renewal fires.
	DefaultSkew = 5 * time.Second
	// DefaultRenewalTimeout bounds a single renewal round trip.
	DefaultRenewalTimeout = 10 * time.Second
)

// RefreshFunc obtains a fresh access token, typically by calling the
// refresh-token endpoint with the browser-style cookie jar attached.
type RefreshFunc func(ctx context.Context) (token string, ttl time.Duration, err error)

// Manager holds the access token in memory and renews it before expiry.
// Erasing is broadcast so every manager sharing the Broadcast drops its
// token too, which is how a logout in one tab reaches the others.
type Manager struct {
	refresh        RefreshFunc
	sched          Scheduler
	broadcast      Broadcast
	skew           time.Duration
	renewalTimeout time.Duration

	mu          sync.Mutex
	token       string
	gen         uint64
	inFlight    bool
	flightDone  chan struct{}
	cancelTimer CancelFunc
	unsubscribe func()
}

// Option customizes a Manager.
type Option func(*Manager)

// WithScheduler replaces the renewal timer implementation.
func WithScheduler(s Scheduler) Option { return func(m *Manager) { m.sched = s } }

// WithBroadcast connects the manager to a logout broadcast.
func WithBroadcast(b Broadcast) Option { return func(m *Manager) { m.broadcast = b } }

// WithSkew changes how long before expiry the renewal fires.
func WithSkew(d time.Duration) Option { return func(m *Manager) { m.skew = d } }

// WithRenewalTimeout bounds a single renewal round trip.
func WithRenewalTimeout(d time.Duration) Option { return func(m *Manager) { m.renewalTimeout = d } }

func NewManager(refresh RefreshFunc, opts ...Option) *Manager {
	m := &Manager{
		refresh:        refresh,
		sched:          TimerScheduler{},
		skew:           DefaultSkew,
		renewalTimeout: DefaultRenewalTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init subscribes to the logout broadcast. Idempotent.
func (m *Manager) Init() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broadcast == nil || m.unsubscribe != nil {
		return
	}
	m.unsubscribe = m.broadcast.Subscribe(m.onRemoteLogout)
}

// Dispose cancels the renewal timer and detaches from the broadcast. The
// token is dropped locally without publishing a logout.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eraseLocked()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Token returns the current access token, if any.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// SetToken stores a token and schedules its renewal at ttl minus the skew.
// A previously scheduled renewal is cancelled first, and a renewal already
// in flight is superseded: its completion will be discarded.
func (m *Manager) SetToken(token string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeLocked(token, ttl)
}

// EraseToken drops the token, cancels the pending renewal, and publishes
// the logout. The generation bump makes any in-flight renewal completion
// land dead: a logout must not be resurrected by a racing refresh.
func (m *Manager) EraseToken() {
	m.mu.Lock()
	m.eraseLocked()
	b := m.broadcast
	m.mu.Unlock()

	if b != nil {
		b.Publish()
	}
}

// WaitForRenewal blocks until no renewal is in flight. Bounded by ctx and
// by the manager's renewal timeout ceiling.
func (m *Manager) WaitForRenewal(ctx context.Context) error {
	m.mu.Lock()
	if !m.inFlight {
		m.mu.Unlock()
		return nil
	}
	done := m.flightDone
	m.mu.Unlock()

	ceiling := time.NewTimer(m.renewalTimeout + time.Second)
	defer ceiling.Stop()
	select {
	case <-done:
		return nil
	case <-ceiling.C:
		return context.DeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onRemoteLogout handles a logout published elsewhere. Local erase only:
// re-publishing here would echo the event forever.
func (m *Manager) onRemoteLogout() {
	m.mu.Lock()
	m.eraseLocked()
	m.mu.Unlock()
}

func (m *Manager) storeLocked(token string, ttl time.Duration) {
	if m.cancelTimer != nil {
		m.cancelTimer()
	}
	m.token = token
	// every store supersedes whatever renewal is on the wire: a re-login
	// mid-renewal must not be overwritten by the stale completion
	m.gen++
	m.cancelTimer = m.sched.Schedule(ttl-m.skew, m.renew)
}

func (m *Manager) eraseLocked() {
	m.token = ""
	m.gen++
	if m.cancelTimer != nil {
		m.cancelTimer()
		m.cancelTimer = nil
	}
}

// renew runs when the renewal timer fires. Single-flight: a fire while a
// renewal is already running is dropped. A completion that raced an
// EraseToken or a newer SetToken is discarded.
func (m *Manager) renew() {
	if m.refresh == nil {
		// no way to renew, so the token just runs out
		logger.Warnf("token renewal skipped: no refresh function configured")
		m.EraseToken()
		return
	}

	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return
	}
	m.inFlight = true
	m.flightDone = make(chan struct{})
	gen := m.gen
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.renewalTimeout)
	token, ttl, err := m.refresh(ctx)
	cancel()

	m.mu.Lock()
	m.inFlight = false
	close(m.flightDone)
	if m.gen != gen {
		// erased while we were on the wire
		m.mu.Unlock()
		return
	}
	if err == nil {
		m.storeLocked(token, ttl)
		m.mu.Unlock()
		return
	}
	m.eraseLocked()
	b := m.broadcast
	m.mu.Unlock()

	logger.Warnf("token renewal failed: %v", err)
	if b != nil {
		b.Publish()
	}
}
