package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/sitequote/internal/pricing"
	"github.com/wolfman30/sitequote/internal/quote"
	"github.com/wolfman30/sitequote/pkg/logging"
)

const (
	DefaultTTL           = 2 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

var (
	// ErrSessionNotFound is returned for ids with no live or stored session.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionLimit is returned by Create when the in-memory cap is reached.
	ErrSessionLimit = errors.New("session: too many active sessions")
)

// Observer tracks how many sessions are held in memory.
type Observer interface {
	SetActiveSessions(n int)
}

// toastQueue collects toasts for one session until the visitor polls.
type toastQueue struct {
	mu      sync.Mutex
	pending []quote.Toast
}

func (q *toastQueue) Present(_ context.Context, t quote.Toast) {
	q.mu.Lock()
	q.pending = append(q.pending, t)
	q.mu.Unlock()
}

func (q *toastQueue) drain() []quote.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

type entry struct {
	workflow *quote.Workflow
	toasts   *toastQueue
	lastSeen time.Time
}

// Manager owns one workflow per visitor.
type Manager struct {
	estimator     *pricing.Estimator
	notifier      quote.Notifier
	store         SnapshotStore
	observer      Observer
	logger        *logging.Logger
	ttl           time.Duration
	notifyTimeout time.Duration
	maxSessions   int
	clock         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a session manager. A nil store keeps sessions in memory only.
func NewManager(estimator *pricing.Estimator, notifier quote.Notifier, store SnapshotStore, logger *logging.Logger) *Manager {
	if estimator == nil {
		estimator = pricing.NewEstimator(nil)
	}
	if store == nil {
		store = NopStore{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		estimator:     estimator,
		notifier:      notifier,
		store:         store,
		logger:        logger,
		ttl:           DefaultTTL,
		notifyTimeout: quote.DefaultNotifyTimeout,
		clock:         time.Now,
		sessions:      make(map[string]*entry),
	}
}

// WithTTL sets how long an idle session is kept.
func (m *Manager) WithTTL(ttl time.Duration) *Manager {
	if ttl > 0 {
		m.ttl = ttl
	}
	return m
}

// WithNotifyTimeout bounds the notifier call of every workflow created later.
func (m *Manager) WithNotifyTimeout(d time.Duration) *Manager {
	if d > 0 {
		m.notifyTimeout = d
	}
	return m
}

// WithMaxSessions caps how many sessions Create keeps in memory. Zero means no cap.
func (m *Manager) WithMaxSessions(n int) *Manager {
	if n >= 0 {
		m.maxSessions = n
	}
	return m
}

// WithObserver reports the active session count to o.
func (m *Manager) WithObserver(o Observer) *Manager {
	m.observer = o
	return m
}

// WithClock overrides the time source used for idle tracking and lead timestamps.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	if clock != nil {
		m.clock = clock
	}
	return m
}

func (m *Manager) newEntry() *entry {
	q := &toastQueue{}
	wf := quote.NewWorkflow(m.estimator, m.notifier, m.logger).
		WithPresenter(q).
		WithClock(m.clock).
		WithNotifyTimeout(m.notifyTimeout)
	return &entry{workflow: wf, toasts: q, lastSeen: m.clock()}
}

// Estimator returns the estimator every session prices with.
func (m *Manager) Estimator() *pricing.Estimator {
	return m.estimator
}

// Create starts a new session in the Editing state.
func (m *Manager) Create(ctx context.Context) (string, *quote.Workflow, error) {
	id := uuid.New().String()
	e := m.newEntry()

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		m.logger.Warn("session limit reached", "max_sessions", m.maxSessions)
		return "", nil, ErrSessionLimit
	}
	m.sessions[id] = e
	count := len(m.sessions)
	m.mu.Unlock()

	m.reportCount(count)
	m.persist(ctx, id, e.workflow)
	m.logger.Debug("session created", "session_id", id)
	return id, e.workflow, nil
}

// Get returns the live workflow for id, restoring it from the store if it
// is no longer in memory.
func (m *Manager) Get(ctx context.Context, id string) (*quote.Workflow, error) {
	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = m.clock()
		m.mu.Unlock()
		return e.workflow, nil
	}
	m.mu.Unlock()

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	e := m.newEntry()
	e.workflow.Restore(snap)

	m.mu.Lock()
	// A concurrent Get may have restored the same id first.
	if existing, ok := m.sessions[id]; ok {
		existing.lastSeen = m.clock()
		m.mu.Unlock()
		return existing.workflow, nil
	}
	m.sessions[id] = e
	count := len(m.sessions)
	m.mu.Unlock()

	m.reportCount(count)
	m.logger.Info("session restored", "session_id", id, "state", e.workflow.State().String())
	return e.workflow, nil
}

// Save mirrors the current workflow state into the store.
func (m *Manager) Save(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return m.store.Save(ctx, id, e.workflow.Snapshot(), m.ttl)
}

// Delete tears the session down in memory and in the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.reportCount(count)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Debug("session deleted", "session_id", id)
	return nil
}

// Drain returns the toasts queued for id since the last call.
func (m *Manager) Drain(id string) []quote.Toast {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return e.toasts.drain()
}

// Len reports the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were evicted. Sessions with a notification in flight are kept.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	evicted := 0
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) < m.ttl {
			continue
		}
		if e.workflow.State() == quote.StateNotifying {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if evicted > 0 {
		m.reportCount(count)
		m.logger.Info("idle sessions evicted", "count", evicted, "remaining", count)
	}
	return evicted
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.clock())
		}
	}
}

func (m *Manager) persist(ctx context.Context, id string, wf *quote.Workflow) {
	if err := m.store.Save(ctx, id, wf.Snapshot(), m.ttl); err != nil {
		m.logger.Warn("session snapshot save failed", "session_id", id, "error", err)
	}
}

func (m *Manager) reportCount(n int) {
	if m.observer != nil {
		m.observer.SetActiveSessions(n)
	}
}
