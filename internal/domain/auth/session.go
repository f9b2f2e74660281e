package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aurahr/internal/domain/notifications"
	"aurahr/internal/platform/storage"
)

// DefaultSessionKey is the durable key holding the serialized identity.
const DefaultSessionKey = "user"

type Persister interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Result carries the outcome of a session operation and the navigation
// the caller should perform next.
type Result struct {
	Identity *Identity
	Next     Intent
}

type StoreOption func(*Store)

func WithLatency(d time.Duration) StoreOption {
	return func(s *Store) { s.latency = d }
}

func WithOperationTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.timeout = d }
}

func WithNotifier(n notifications.Notifier) StoreOption {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// Store owns one Session. Restore, Login, Signup and Logout run strictly one
// at a time; readers see every intermediate state through Snapshot and
// Subscribe.
type Store struct {
	persister Persister
	creds     CredentialSource
	notifier  notifications.Notifier
	logger    *slog.Logger
	key       string
	latency   time.Duration
	timeout   time.Duration

	opMu sync.Mutex

	mu      sync.RWMutex
	state   State
	subs    map[int]chan State
	nextSub int
}

func NewStore(persister Persister, creds CredentialSource, opts ...StoreOption) *Store {
	s := &Store{
		persister: persister,
		creds:     creds,
		notifier:  notifications.Multi{},
		logger:    slog.Default(),
		key:       DefaultSessionKey,
		state:     State{Resolving: true},
		subs:      map[int]chan State{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel that always holds the latest state. The
// current state is delivered immediately. The returned func unsubscribes
// and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}

// Watchers reports how many subscriptions are open.
func (s *Store) Watchers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Store) HasCapability(capability Capability) bool {
	identity := s.Snapshot().Identity
	if identity == nil {
		return false
	}
	return identity.Can(capability)
}

// Restore loads the persisted identity. A missing or unreadable entry
// leaves the session empty; a corrupt entry is also removed. The session
// is always resolved afterwards.
func (s *Store) Restore(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.update(func(st *State) { st.Resolving = true })
	identity := s.readPersisted(ctx)
	s.update(func(st *State) {
		st.Identity = identity
		st.Resolving = false
	})
}

func (s *Store) readPersisted(ctx context.Context) *Identity {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.persister.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case errors.Is(err, storage.ErrCorrupt):
		s.discard(ctx, &StorageCorruptionError{Key: s.key, Err: err})
		return nil
	case err != nil:
		s.logger.Warn("session restore failed", "key", s.key, "err", s.opError("restore session", err))
		return nil
	}

	identity, err := decodeIdentity(s.key, data)
	if err != nil {
		s.discard(ctx, err)
		return nil
	}
	return &identity
}

func (s *Store) discard(ctx context.Context, cause error) {
	s.logger.Warn("discarding persisted session", "key", s.key, "err", cause)
	if err := s.persister.Remove(ctx, s.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("remove corrupt session failed", "key", s.key, "err", err)
	}
}

func decodeIdentity(key string, data []byte) (Identity, error) {
	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return Identity{}, &StorageCorruptionError{Key: key, Err: err}
	}
	if err := identity.Validate(); err != nil {
		return Identity{}, &StorageCorruptionError{Key: key, Err: err}
	}
	return identity, nil
}

func (s *Store) Login(ctx context.Context, email, secret string) (Result, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.update(func(st *State) { st.Resolving = true })
	identity, err := s.authenticate(ctx, email, secret)
	if err != nil {
		s.update(func(st *State) { st.Resolving = false })
		s.notify(ctx, "Login failed", toastMessage(err), notifications.SeverityDestructive)
		return Result{}, err
	}

	s.update(func(st *State) {
		st.Identity = &identity
		st.Resolving = false
	})
	s.notify(ctx, "Welcome back!", "Logged in as "+identity.Name, notifications.SeverityDefault)
	return Result{Identity: &identity, Next: IntentHome}, nil
}

func (s *Store) authenticate(ctx context.Context, email, secret string) (Identity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.wait(ctx); err != nil {
		return Identity{}, s.opError("login", err)
	}

	rec, err := s.creds.LookupByEmail(ctx, email)
	if errors.Is(err, ErrCredentialNotFound) {
		return Identity{}, &AuthenticationError{Email: email}
	}
	if err != nil {
		return Identity{}, s.opError("credential lookup", err)
	}
	if err := CheckPassword(rec.SecretHash, secret); err != nil {
		return Identity{}, &AuthenticationError{Email: email}
	}

	identity := rec.Identity()
	data, err := json.Marshal(identity)
	if err != nil {
		return Identity{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.persister.Set(ctx, s.key, data); err != nil {
		return Identity{}, s.opError("persist session", err)
	}
	return identity, nil
}

// Signup only enforces that the email is not already registered. Storing
// the new account belongs to the credential backend.
func (s *Store) Signup(ctx context.Context, name, email, secret string) (Result, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.update(func(st *State) { st.Resolving = true })
	err := s.checkSignup(ctx, email)
	s.update(func(st *State) { st.Resolving = false })
	if err != nil {
		s.notify(ctx, "Signup failed", toastMessage(err), notifications.SeverityDestructive)
		return Result{}, err
	}

	s.logger.Info("signup accepted", "name", name, "email", email)
	s.notify(ctx, "Account created", "Your account has been created successfully.", notifications.SeverityDefault)
	return Result{Next: IntentLogin}, nil
}

func (s *Store) checkSignup(ctx context.Context, email string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.wait(ctx); err != nil {
		return s.opError("signup", err)
	}
	exists, err := s.creds.ExistsByEmail(ctx, email)
	if err != nil {
		return s.opError("credential lookup", err)
	}
	if exists {
		return &ValidationError{Field: "email", Message: "User with this email already exists"}
	}
	return nil
}

// Logout clears the session and its persisted copy. Calling it without an
// active session is allowed.
func (s *Store) Logout(ctx context.Context) Result {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.update(func(st *State) {
		st.Identity = nil
		st.Resolving = false
	})

	rmCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.persister.Remove(rmCtx, s.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("remove persisted session failed", "key", s.key, "err", s.opError("logout", err))
	}

	s.notify(ctx, "Logged out", "You have been logged out successfully", notifications.SeverityDefault)
	return Result{Next: IntentLogin}
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}

func (s *Store) notify(ctx context.Context, title, message string, severity notifications.Severity) {
	s.notifier.Notify(ctx, notifications.Toast{Title: title, Message: message, Severity: severity})
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Store) opError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toastMessage(err error) string {
	var authErr *AuthenticationError
	var validationErr *ValidationError
	var timeoutErr *TimeoutError
	switch {
	case errors.As(err, &authErr), errors.As(err, &validationErr), errors.As(err, &timeoutErr):
		return err.Error()
	default:
		return "Something went wrong"
	}
}
