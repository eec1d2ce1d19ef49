package service

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/pkg/logger"
	"github.com/devshad-01/meteor-push-pwa/pkg/metrics"
)

type presenceKey struct {
	userID    string
	sessionID string
}

type presenceState struct {
	entry        models.PresenceEntry
	offlineTimer *time.Timer
}

// PresenceTracker maintains a time-bounded view of who is online from
// periodic heartbeats. All mutations are best-effort telemetry: they never
// return an error and silently drop unauthenticated callers.
//
// TTL silence is the single source of truth for staleness. The offline grace
// timer and the background sweep only reclaim memory early; ListOnline
// enforces TTL on its own, so correctness never depends on a timer firing.
type PresenceTracker struct {
	mu      sync.RWMutex
	entries map[presenceKey]*presenceState

	ttl   time.Duration
	grace time.Duration

	log     *logger.Logger
	metrics *metrics.Metrics

	stopOnce sync.Once
	done     chan struct{}
}

// NewPresenceTracker creates a tracker and starts its background sweep.
// Call Stop on shutdown.
func NewPresenceTracker(ttl, grace time.Duration, log *logger.Logger, m *metrics.Metrics) *PresenceTracker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if grace <= 0 {
		grace = 5 * time.Minute
	}
	t := &PresenceTracker{
		entries: make(map[presenceKey]*presenceState),
		ttl:     ttl,
		grace:   grace,
		log:     log,
		metrics: m,
		done:    make(chan struct{}),
	}
	go t.sweepLoop()
	return t
}

// Heartbeat refreshes lastSeen for the session and promotes an offline
// session back to online, cancelling any pending grace-period removal.
func (t *PresenceTracker) Heartbeat(userID, sessionID string) {
	if userID == "" || sessionID == "" {
		return
	}
	now := time.Now().UTC()
	key := presenceKey{userID: userID, sessionID: sessionID}

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.entries[key]
	if !ok {
		t.entries[key] = &presenceState{entry: models.PresenceEntry{
			UserID:     userID,
			SessionID:  sessionID,
			Status:     models.StatusOnline,
			LastSeenAt: now,
		}}
		t.updateGaugeLocked()
		return
	}

	t.cancelOfflineTimerLocked(st)
	if st.entry.Status == models.StatusOffline {
		st.entry.Status = models.StatusOnline
	}
	if now.After(st.entry.LastSeenAt) {
		st.entry.LastSeenAt = now
	}
	t.updateGaugeLocked()
}

// SetStatus upserts the session with the new status and a refreshed
// lastSeen. A transition to offline arms a grace timer instead of removing
// the entry immediately, so a quick reconnect keeps the session.
func (t *PresenceTracker) SetStatus(userID, sessionID string, status models.PresenceStatus) {
	if userID == "" || sessionID == "" || !status.Valid() {
		return
	}
	now := time.Now().UTC()
	key := presenceKey{userID: userID, sessionID: sessionID}

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.entries[key]
	if !ok {
		st = &presenceState{entry: models.PresenceEntry{UserID: userID, SessionID: sessionID}}
		t.entries[key] = st
	}

	t.cancelOfflineTimerLocked(st)
	st.entry.Status = status
	if now.After(st.entry.LastSeenAt) {
		st.entry.LastSeenAt = now
	}

	if status == models.StatusOffline {
		st.offlineTimer = time.AfterFunc(t.grace, func() {
			t.removeIfStillOffline(key)
		})
	}
	t.updateGaugeLocked()
}

// Disconnect removes the session immediately, bypassing the grace period.
func (t *PresenceTracker) Disconnect(userID, sessionID string) {
	if userID == "" || sessionID == "" {
		return
	}
	key := presenceKey{userID: userID, sessionID: sessionID}

	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.entries[key]; ok {
		t.cancelOfflineTimerLocked(st)
		delete(t.entries, key)
		t.updateGaugeLocked()
	}
}

// ListOnline returns every session with status other than offline that has
// been seen within the TTL, evicting anything staler on the way.
func (t *PresenceTracker) ListOnline() []models.PresenceEntry {
	now := time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	var online []models.PresenceEntry
	for key, st := range t.entries {
		if now.Sub(st.entry.LastSeenAt) > t.ttl {
			t.cancelOfflineTimerLocked(st)
			delete(t.entries, key)
			continue
		}
		if st.entry.Status != models.StatusOffline {
			online = append(online, st.entry)
		}
	}
	t.updateGaugeLocked()

	sort.Slice(online, func(i, j int) bool {
		return online[i].LastSeenAt.After(online[j].LastSeenAt)
	})
	return online
}

// Stop cancels all timers and the background sweep.
func (t *PresenceTracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		for _, st := range t.entries {
			t.cancelOfflineTimerLocked(st)
		}
		t.mu.Unlock()
	})
}

func (t *PresenceTracker) sweepLoop() {
	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.done:
			return
		}
	}
}

func (t *PresenceTracker) sweep() {
	now := time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for key, st := range t.entries {
		if now.Sub(st.entry.LastSeenAt) > t.ttl {
			t.cancelOfflineTimerLocked(st)
			delete(t.entries, key)
			removed++
		}
	}
	if removed > 0 && t.log != nil {
		t.log.WithFields(logrus.Fields{"removed": removed}).Debug("presence sweep evicted stale sessions")
	}
	t.updateGaugeLocked()
}

func (t *PresenceTracker) removeIfStillOffline(key presenceKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.entries[key]; ok && st.entry.Status == models.StatusOffline {
		delete(t.entries, key)
		t.updateGaugeLocked()
	}
}

func (t *PresenceTracker) cancelOfflineTimerLocked(st *presenceState) {
	if st.offlineTimer != nil {
		st.offlineTimer.Stop()
		st.offlineTimer = nil
	}
}

func (t *PresenceTracker) updateGaugeLocked() {
	if t.metrics == nil {
		return
	}
	count := 0
	for _, st := range t.entries {
		if st.entry.Status != models.StatusOffline {
			count++
		}
	}
	t.metrics.OnlineSessions.Set(float64(count))
}
