// Package session owns the signed-in user of a clinic terminal: it restores
// the persisted record at startup, performs login/logout against a
// credential checker, and exposes the three-state lifecycle that routing
// decisions are based on.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dentaldesk/clinic/internal/platform/kvstore"
)

// StorageKey is the durable key the session record lives under.
const StorageKey = "@dental_clinic_auth"

// Store is the durable key-value collaborator. Get must return
// kvstore.ErrNotFound when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CredentialChecker resolves a username/password pair to a user. A nil user
// with a nil error means no match.
type CredentialChecker interface {
	Check(ctx context.Context, username, password string) (*User, error)
}

// Gate is the single source of truth for "is there a signed-in user".
type Gate struct {
	store   Store
	checker CredentialChecker
	logger  zerolog.Logger

	mu    sync.RWMutex
	state State
	user  *User

	initOnce sync.Once
	ready    chan struct{}

	// opMu serializes login and logout so each storage write and its state
	// transition happen as one step.
	opMu sync.Mutex
}

func NewGate(store Store, checker CredentialChecker, logger zerolog.Logger) *Gate {
	return &Gate{
		store:   store,
		checker: checker,
		logger:  logger.With().Str("component", "session").Logger(),
		state:   StateLoading,
		ready:   make(chan struct{}),
	}
}

// Initialize restores the persisted session. It runs once per Gate; later or
// concurrent calls block until the first one has finished. Read and decode
// failures are logged and leave the gate unauthenticated.
func (g *Gate) Initialize(ctx context.Context) {
	g.initOnce.Do(func() {
		user := g.restore(ctx)

		g.mu.Lock()
		if user != nil {
			g.state = StateAuthenticated
			g.user = user
		} else {
			g.state = StateUnauthenticated
			g.user = nil
		}
		g.mu.Unlock()

		close(g.ready)
	})
}

func (g *Gate) restore(ctx context.Context) *User {
	raw, err := g.store.Get(ctx, StorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to read stored session")
		return nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		g.logger.Warn().Err(err).Msg("stored session is not valid JSON")
		return nil
	}
	if !user.valid() {
		g.logger.Warn().Str("user_id", user.ID).Msg("stored session record is incomplete")
		return nil
	}
	return &user
}

// Ready is closed once Initialize has completed.
func (g *Gate) Ready() <-chan struct{} {
	return g.ready
}

func (g *Gate) waitReady(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login checks the credentials and, on success, persists the user record
// before reporting the gate as authenticated. It is only accepted while
// unauthenticated, so a failed login never leaves a previous user signed in.
func (g *Gate) Login(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Message: "username is required"}
	}
	if strings.TrimSpace(password) == "" {
		return nil, &ValidationError{Field: "password", Message: "password is required"}
	}

	if err := g.waitReady(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	g.opMu.Lock()
	defer g.opMu.Unlock()

	if g.Authenticated() {
		return nil, ErrAlreadySignedIn
	}

	found, err := g.checker.Check(ctx, username, password)
	if err != nil {
		g.logger.Error().Err(err).Msg("credential check failed")
		return nil, ErrLoginFailed
	}
	if found == nil {
		g.logger.Info().Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	user := &User{
		ID:          found.ID,
		Username:    found.Username,
		Role:        found.Role,
		DisplayName: found.DisplayName,
	}
	raw, err := json.Marshal(user)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to encode session record")
		return nil, ErrLoginFailed
	}
	if err := g.store.Set(ctx, StorageKey, raw); err != nil {
		g.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to persist session")
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, ErrStorage)
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.user = user
	g.mu.Unlock()

	g.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	cp := *user
	return &cp, nil
}

// Logout clears the stored record and resets the gate to unauthenticated.
// The state is reset even when the delete fails; the returned error then
// wraps ErrStorage so the caller can offer a retry.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.waitReady(ctx); err != nil {
		return err
	}

	g.opMu.Lock()
	defer g.opMu.Unlock()

	err := g.store.Delete(ctx, StorageKey)

	g.mu.Lock()
	prev := g.user
	g.state = StateUnauthenticated
	g.user = nil
	g.mu.Unlock()

	if err != nil {
		g.logger.Error().Err(err).Msg("failed to clear stored session")
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if prev != nil {
		g.logger.Info().Str("user_id", prev.ID).Msg("user logged out")
	}
	return nil
}

// Snapshot returns the current state and a copy of the user, if any.
func (g *Gate) Snapshot() (State, *User) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return g.state, nil
	}
	cp := *g.user
	return g.state, &cp
}

func (g *Gate) State() State {
	s, _ := g.Snapshot()
	return s
}

func (g *Gate) User() *User {
	_, u := g.Snapshot()
	return u
}

func (g *Gate) Authenticated() bool {
	return g.State() == StateAuthenticated
}
