package roles

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// FlagSource provides the tenant's feature-flag view for editor sessions.
type FlagSource interface {
	FlagsFor(ctx context.Context, tenantID uuid.UUID) (permissions.Flags, error)
}

// maxSessionsPerOwner bounds abandoned editors: opening a session past the cap closes
// the owner's oldest one, so clients that never send the explicit close cannot grow
// the map for the process lifetime.
const maxSessionsPerOwner = 8

// SessionManager owns the live editing sessions of this process. Sessions are
// in-memory only: an abandoned draft disappears with the process, and a bound session
// loses nothing because its state is persisted by the debounced writes.
type SessionManager struct {
	store  SessionStore
	flags  FlagSource
	delay  time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	nextSeq  uint64
	sessions map[uuid.UUID]*managedSession
}

type managedSession struct {
	session *Session
	owner   uuid.UUID
	seq     uint64
}

// NewSessionManager builds a SessionManager.
func NewSessionManager(store SessionStore, flagSource FlagSource, delay time.Duration, logger *slog.Logger) *SessionManager {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &SessionManager{
		store:    store,
		flags:    flagSource,
		delay:    delay,
		logger:   logger,
		sessions: make(map[uuid.UUID]*managedSession),
	}
}

// Open starts a draft session for a new role and returns its id.
func (m *SessionManager) Open(ctx context.Context, actor shared.Actor, forClass UserClass) (uuid.UUID, *Session, error) {
	if !forClass.Valid() {
		return uuid.Nil, nil, shared.ErrValidation
	}
	flags, err := m.flags.FlagsFor(ctx, actor.TenantID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	session := NewSession(m.store, actor, forClass, flags, m.delay, m.logger)
	return m.track(actor, session), session, nil
}

// OpenForRole starts a session editing an existing role.
func (m *SessionManager) OpenForRole(ctx context.Context, actor shared.Actor, role Role) (uuid.UUID, *Session, error) {
	flags, err := m.flags.FlagsFor(ctx, actor.TenantID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	session := ResumeSession(m.store, actor, role, flags, m.delay, m.logger)
	return m.track(actor, session), session, nil
}

// Get returns the session if it exists and belongs to the actor. A foreign session is
// indistinguishable from an absent one.
func (m *SessionManager) Get(sessionID uuid.UUID, actor shared.Actor) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[sessionID]
	if !ok || ms.owner != actor.ProfileID {
		return nil, shared.ErrNotFound
	}
	return ms.session, nil
}

// Close abandons the session, cancelling any pending debounced write.
func (m *SessionManager) Close(sessionID uuid.UUID, actor shared.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[sessionID]
	if !ok || ms.owner != actor.ProfileID {
		return shared.ErrNotFound
	}
	ms.session.Close()
	delete(m.sessions, sessionID)
	return nil
}

func (m *SessionManager) track(actor shared.Actor, session *Session) uuid.UUID {
	id := uuid.New()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictForLocked(actor.ProfileID)
	m.nextSeq++
	m.sessions[id] = &managedSession{session: session, owner: actor.ProfileID, seq: m.nextSeq}
	return id
}

// evictForLocked closes the owner's oldest sessions until one slot is free.
func (m *SessionManager) evictForLocked(owner uuid.UUID) {
	for {
		count := 0
		var oldestID uuid.UUID
		var oldest *managedSession
		for id, ms := range m.sessions {
			if ms.owner != owner {
				continue
			}
			count++
			if oldest == nil || ms.seq < oldest.seq {
				oldestID = id
				oldest = ms
			}
		}
		if count < maxSessionsPerOwner {
			return
		}
		oldest.session.Close()
		delete(m.sessions, oldestID)
	}
}
