package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// refreshWindow is how close to expiry the access token must be before
	// the scheduler renews it.
	refreshWindow = 5 * time.Minute

	// checkInterval is the default scheduler cadence.
	checkInterval = time.Minute
)

// refresher is one run of the background refresh scheduler. The manager
// starts it on entering Authenticated and stops it on entering
// Unauthenticated, so repeated login/logout cycles never leak timers.
type refresher struct {
	stopCh chan struct{}
	doneCh chan struct{}
}

// startRefresherLocked starts the scheduler if it is not already running.
// Caller holds m.mu.
func (m *Manager) startRefresherLocked() {
	if m.refresher != nil {
		return
	}
	r := &refresher{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	m.refresher = r
	go m.runRefresher(r)
}

// stopRefresherLocked signals the scheduler to exit. Caller holds m.mu; the
// goroutine drains on its own, it is never waited on under the lock.
func (m *Manager) stopRefresherLocked() {
	if m.refresher == nil {
		return
	}
	close(m.refresher.stopCh)
	m.refresher = nil
}

func (m *Manager) runRefresher(r *refresher) {
	defer close(r.doneCh)

	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	log.Debug().Dur("interval", m.refreshInterval).Msg("refresh scheduler started")

	// Immediate first check so a near-expiry token restored at startup is
	// renewed without waiting out a full interval.
	m.checkExpiry(context.Background(), r)

	for {
		select {
		case <-ticker.C:
			m.checkExpiry(context.Background(), r)
		case <-r.stopCh:
			log.Debug().Msg("refresh scheduler stopped")
			return
		}
	}
}

// checkExpiry runs one scheduler tick: refresh when the token expires within
// the window but is not already dead. An expired token is left for the next
// authenticated call's 401 to drive the sign-out.
func (m *Manager) checkExpiry(ctx context.Context, r *refresher) {
	m.mu.Lock()
	if m.refresher != r || m.state != StateAuthenticated || m.expiresAt.IsZero() {
		m.mu.Unlock()
		return
	}
	until := m.expiresAt.Sub(m.now())
	m.mu.Unlock()

	if until <= 0 || until >= refreshWindow {
		return
	}

	m.refreshNow(ctx)
}
