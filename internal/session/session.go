// Package session keeps one cascade engine per form session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"catalog/selector/internal/cascade"
	"catalog/selector/internal/domain"
)

var ErrNotFound = errors.New("session not found")

// Store persists session records so sessions survive a restart.
// Load returns nil, nil when there is no record for id.
type Store interface {
	Save(ctx context.Context, id string, rec domain.SessionRecord) error
	Load(ctx context.Context, id string) (*domain.SessionRecord, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Session holds one engine. Its mutex serializes every engine call.
type Session struct {
	ID        string
	CreatedAt time.Time

	lastActive atomic.Int64
	mu         sync.Mutex
	engine     *cascade.Engine
}

// Snapshot is a consistent read of a session.
type Snapshot struct {
	ID            string                   `json:"id"`
	Selection     domain.Selection         `json:"selection"`
	Subcategories []domain.Subcategory     `json:"subcategories"`
	ActiveChain   []domain.Property        `json:"activeChain"`
	Errors        domain.ValidationErrors  `json:"errors,omitempty"`
	Result        *domain.SubmissionResult `json:"result,omitempty"`
}

func newSession(id string, createdAt time.Time, engine *cascade.Engine) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: createdAt,
		engine:    engine,
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActiveAt returns the time of the last update.
func (s *Session) LastActiveAt() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) isExpired(maxAge time.Duration) bool {
	return maxAge > 0 && time.Since(s.CreatedAt) > maxAge
}

func (s *Session) isIdle(timeout time.Duration) bool {
	return timeout > 0 && time.Since(s.LastActiveAt()) > timeout
}

// Snapshot reads the session state under its lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) recordLocked() domain.SessionRecord {
	return domain.SessionRecord{
		Selection: s.engine.State(),
		Result:    s.engine.Result(),
		CreatedAt: s.CreatedAt,
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:            s.ID,
		Selection:     s.engine.State(),
		Subcategories: s.engine.Subcategories(),
		ActiveChain:   s.engine.ActiveChain(),
		Errors:        s.engine.Errors(),
		Result:        s.engine.Result(),
	}
}

// Manager handles session creation, lookup and expiry.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	catalog     cascade.Catalog
	store       Store
	maxAge      time.Duration
	idleTimeout time.Duration
}

// NewManager creates a manager. store may be nil, in which case sessions live
// in memory only.
func NewManager(catalog cascade.Catalog, store Store, maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		catalog:     catalog,
		store:       store,
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
	}
}

// Create starts a new session with an empty selection.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := newSession(uuid.New().String(), time.Now(), cascade.NewEngine(m.catalog))

	if m.store != nil {
		if err := m.store.Save(ctx, s.ID, s.recordLocked()); err != nil {
			return nil, fmt.Errorf("failed to save session %s: %w", s.ID, err)
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Debugf("Created session %s", s.ID)
	return s, nil
}

// Get returns a live session, restoring it from the store when it is not in
// memory. Reads count as activity: they reset the idle timer and the record TTL.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.touch()
	if m.store != nil {
		if err := m.store.Touch(ctx, id); err != nil {
			log.Warnf("Failed to refresh snapshot of session %s: %v", id, err)
		}
	}
	return s, nil
}

func (m *Manager) lookup(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		if s.isExpired(m.maxAge) || s.isIdle(m.idleTimeout) {
			m.Remove(ctx, id)
			return nil, ErrNotFound
		}
		return s, nil
	}

	return m.restore(ctx, id)
}

func (m *Manager) restore(ctx context.Context, id string) (*Session, error) {
	if m.store == nil {
		return nil, ErrNotFound
	}

	rec, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if m.maxAge > 0 && time.Since(createdAt) > m.maxAge {
		log.Infof("Discarding snapshot of session %s: older than %s", id, m.maxAge)
		m.deleteRecord(ctx, id)
		return nil, ErrNotFound
	}

	engine := cascade.NewEngine(m.catalog)
	if err := engine.Restore(rec.Selection); err != nil {
		log.Warnf("Discarding snapshot of session %s: %v", id, err)
		m.deleteRecord(ctx, id)
		return nil, ErrNotFound
	}
	engine.RestoreResult(rec.Result)

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have restored it first
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	s := newSession(id, createdAt, engine)
	m.sessions[id] = s

	log.Infof("Restored session %s from snapshot", id)
	return s, nil
}

// Update runs fn against the session's engine under the session lock and
// persists the resulting record. The snapshot is taken after fn, whether or
// not fn failed, so it always matches the engine. A session removed while fn
// ran is not saved again and ErrNotFound is returned.
func (m *Manager) Update(ctx context.Context, id string, fn func(e *cascade.Engine) error) (Snapshot, error) {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	fnErr := fn(s.engine)

	if !m.registered(s) {
		return Snapshot{}, ErrNotFound
	}
	if m.store != nil {
		if err := m.store.Save(ctx, id, s.recordLocked()); err != nil {
			return Snapshot{}, fmt.Errorf("failed to save session %s: %w", id, err)
		}
	}

	return s.snapshotLocked(), fnErr
}

func (m *Manager) registered(s *Session) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[s.ID] == s
}

// Remove deletes a session and its record. It waits for an in-flight Update of
// the session so the record cannot be written back afterwards.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	m.dropRecord(ctx, id, s)
}

// dropRecord deletes the stored record of a session already unregistered from
// the manager, holding the session lock when the session was live.
func (m *Manager) dropRecord(ctx context.Context, id string, s *Session) {
	if m.store == nil {
		return
	}
	if s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	m.deleteRecord(ctx, id)
}

func (m *Manager) deleteRecord(ctx context.Context, id string) {
	if err := m.store.Delete(ctx, id); err != nil {
		log.Errorf("Failed to delete snapshot of session %s: %v", id, err)
	}
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup drops expired and idle sessions along with their records and
// returns how many were removed.
func (m *Manager) Cleanup(ctx context.Context) int {
	m.mu.Lock()
	var removed []*Session
	for id, s := range m.sessions {
		if s.isExpired(m.maxAge) || s.isIdle(m.idleTimeout) {
			delete(m.sessions, id)
			removed = append(removed, s)
		}
	}
	m.mu.Unlock()

	for _, s := range removed {
		m.dropRecord(ctx, s.ID, s)
	}
	return len(removed)
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Cleanup(ctx); n > 0 {
				log.Infof("🧹 Removed %d idle sessions", n)
			}
		}
	}
}
