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

// DefaultDebounce is the delay an editing session waits after the last mutation
// before persisting the accumulated state.
const DefaultDebounce = 800 * time.Millisecond

// SessionStore is the subset of Store the editing session writes through.
type SessionStore interface {
	Create(ctx context.Context, actor shared.Actor, input Input) (Role, error)
	Update(ctx context.Context, actor shared.Actor, roleID uuid.UUID, input Input) error
}

// Session is the interactive role-editing protocol. A session starts as a local draft
// with no persistent identity; a single explicit Create binds it to a stored role, and
// from then on every mutation updates local state immediately and schedules one
// debounced Update carrying the full accumulated state. Rapid mutation bursts coalesce
// into a single write. Closing the session cancels any pending write.
type Session struct {
	store  SessionStore
	actor  shared.Actor
	flags  permissions.Flags
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	draft   Input
	roleID  uuid.UUID
	bound   bool
	closed  bool
	timer   *time.Timer
	dirty   bool
	gen     uint64
	lastErr error
}

// NewSession starts a draft session for a new role. Cast drafts default every
// cast-available page to edit; staff drafts default every page to none.
func NewSession(store SessionStore, actor shared.Actor, forClass UserClass, flags permissions.Flags, delay time.Duration, logger *slog.Logger) *Session {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	draft := Input{ForUserClass: forClass, Permissions: make(permissions.Map)}
	if forClass == UserClassCast {
		for _, page := range permissions.CastPages() {
			draft.Permissions[page] = permissions.LevelEdit
		}
	}
	return &Session{
		store:  store,
		actor:  actor,
		flags:  flags,
		delay:  delay,
		logger: logger,
		draft:  draft,
	}
}

// ResumeSession opens an editing session bound to an existing role.
func ResumeSession(store SessionStore, actor shared.Actor, role Role, flags permissions.Flags, delay time.Duration, logger *slog.Logger) *Session {
	s := NewSession(store, actor, role.ForUserClass, flags, delay, logger)
	s.draft = Input{Name: role.Name, ForUserClass: role.ForUserClass, Permissions: role.Permissions.Clone()}
	s.roleID = role.ID
	s.bound = true
	return s
}

// Create persists the draft once and binds the session to the returned role id. The
// session then switches to editing-an-existing-role mode.
func (s *Session) Create(ctx context.Context) (Role, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Role{}, shared.ErrNotFound
	}
	if s.bound {
		s.mu.Unlock()
		return Role{}, shared.ErrValidation
	}
	input := s.snapshotLocked()
	s.mu.Unlock()

	role, err := s.store.Create(ctx, s.actor, input)
	if err != nil {
		return Role{}, err
	}

	s.mu.Lock()
	s.roleID = role.ID
	s.bound = true
	s.mu.Unlock()
	return role, nil
}

// SetName updates the draft name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Name = name
	s.scheduleLocked()
}

// SetLevel updates a single page level.
func (s *Session) SetLevel(page permissions.PageKey, level permissions.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLevelLocked(page, level)
	s.scheduleLocked()
}

// SetCategory bulk-sets every currently-visible page of the category to level. Pages
// hidden by feature flags, and pages outside the cast vocabulary for cast roles, are
// left unchanged.
func (s *Session) SetCategory(category permissions.Category, level permissions.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, page := range permissions.PagesIn(category) {
		if !s.flags.Visible(page) {
			continue
		}
		if s.draft.ForUserClass == UserClassCast && !permissions.IsCastAvailable(page) {
			continue
		}
		s.setLevelLocked(page, level)
	}
	s.scheduleLocked()
}

// Draft returns a copy of the current local state.
func (s *Session) Draft() Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RoleID returns the bound role id once Create has succeeded.
func (s *Session) RoleID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roleID, s.bound
}

// CategoryStates summarizes each category of the draft for the editor's quick-set
// buttons, honoring the tenant's feature flags.
func (s *Session) CategoryStates() map[permissions.Category]permissions.CategoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[permissions.Category]permissions.CategoryState)
	for _, category := range permissions.Categories() {
		out[category] = permissions.CategoryStateOf(s.draft.Permissions, s.flags, category)
	}
	return out
}

// Dirty reports whether local state is ahead of the last successful persist.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// LastErr returns the most recent persist failure, if any. Local optimistic state is
// never rolled back on failure; the next successful write reconciles it.
func (s *Session) LastErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close abandons the session, cancelling any pending debounced write. A write already
// in flight is not cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) setLevelLocked(page permissions.PageKey, level permissions.Level) {
	if level == permissions.LevelNone {
		delete(s.draft.Permissions, page)
		return
	}
	s.draft.Permissions[page] = level
}

// scheduleLocked resets the debounce timer. Only the timer that survives the full
// delay uninterrupted fires, so a burst of edits produces exactly one write.
func (s *Session) scheduleLocked() {
	if !s.bound || s.closed {
		return
	}
	s.dirty = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.flush)
}

func (s *Session) flush() {
	s.mu.Lock()
	if s.closed || !s.bound {
		s.mu.Unlock()
		return
	}
	input := s.snapshotLocked()
	roleID := s.roleID
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.store.Update(ctx, s.actor, roleID, input)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		// A mutation that raced the in-flight write keeps the session dirty until
		// its own timer flushes.
		if s.gen == gen {
			s.dirty = false
		}
	} else if s.logger != nil {
		s.logger.Warn("role auto-save failed",
			slog.String("role_id", roleID.String()), slog.Any("error", err))
	}
	s.mu.Unlock()
}

func (s *Session) snapshotLocked() Input {
	return Input{
		Name:         s.draft.Name,
		ForUserClass: s.draft.ForUserClass,
		Permissions:  s.draft.Permissions.Clone(),
	}
}
