package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dentaldesk/clinic/internal/platform/kvstore"
)

// RevokedKey is where the revoked token ids are persisted.
const RevokedKey = "@dental_clinic_revoked_tokens"

// RevocationStore keeps revoked token ids across restarts. Every kvstore
// backend satisfies it.
type RevocationStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type tokenEntry struct {
	ExpiresAt time.Time
	UserID    string
	Revoked   bool
}

// TokenRegistry tracks issued session tokens by jti so that logout can
// revoke them. Entries are dropped once the token would have expired anyway.
// Safe for concurrent use.
type TokenRegistry struct {
	mu       sync.RWMutex
	entries  map[string]tokenEntry // jti -> entry
	userJTIs map[string][]string   // userID -> jtis
	done     chan struct{}

	// saveMu orders Persist calls so an older snapshot never overwrites a
	// newer one.
	saveMu sync.Mutex
	store  RevocationStore
}

// NewTokenRegistry starts a background goroutine that prunes expired
// entries every interval. Call Close to stop it.
func NewTokenRegistry(interval time.Duration) *TokenRegistry {
	r := &TokenRegistry{
		entries:  make(map[string]tokenEntry),
		userJTIs: make(map[string][]string),
		done:     make(chan struct{}),
	}
	go r.cleanupLoop(interval)
	return r
}

// Track records a freshly issued token.
func (r *TokenRegistry) Track(jti, userID string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[jti] = tokenEntry{ExpiresAt: expiresAt, UserID: userID}
	if userID != "" {
		r.userJTIs[userID] = append(r.userJTIs[userID], jti)
	}
}

// Revoke marks jti as revoked, tracking it first if it is unknown.
func (r *TokenRegistry) Revoke(jti string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[jti]
	if !ok {
		e = tokenEntry{ExpiresAt: expiresAt}
	}
	e.Revoked = true
	r.entries[jti] = e
}

func (r *TokenRegistry) IsRevoked(jti string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[jti].Revoked
}

// RevokeAllForUser revokes every tracked token of userID and returns how
// many were newly revoked.
func (r *TokenRegistry) RevokeAllForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, jti := range r.userJTIs[userID] {
		e, ok := r.entries[jti]
		if !ok || e.Revoked {
			continue
		}
		e.Revoked = true
		r.entries[jti] = e
		count++
	}
	return count
}

// Restore attaches store and loads the unexpired revocations saved by an
// earlier process. Later Persist calls write to the same store.
func (r *TokenRegistry) Restore(ctx context.Context, store RevocationStore, now time.Time) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	r.store = store
	r.mu.Unlock()

	raw, err := store.Get(ctx, RevokedKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read revoked tokens: %w", err)
	}
	var saved map[string]time.Time
	if err := json.Unmarshal(raw, &saved); err != nil {
		return fmt.Errorf("decode revoked tokens: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for jti, exp := range saved {
		if now.After(exp) {
			continue
		}
		e := r.entries[jti]
		e.ExpiresAt = exp
		e.Revoked = true
		r.entries[jti] = e
	}
	return nil
}

// Persist writes every unexpired revoked jti to the store attached by
// Restore. Without a store it does nothing.
func (r *TokenRegistry) Persist(ctx context.Context, now time.Time) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.RLock()
	store := r.store
	revoked := make(map[string]time.Time)
	for jti, e := range r.entries {
		if e.Revoked && !now.After(e.ExpiresAt) {
			revoked[jti] = e.ExpiresAt
		}
	}
	r.mu.RUnlock()

	if store == nil {
		return nil
	}
	raw, err := json.Marshal(revoked)
	if err != nil {
		return fmt.Errorf("encode revoked tokens: %w", err)
	}
	if err := store.Set(ctx, RevokedKey, raw); err != nil {
		return fmt.Errorf("save revoked tokens: %w", err)
	}
	return nil
}

// Count returns the number of tracked tokens, revoked or not.
func (r *TokenRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops the cleanup goroutine. Only the first call has effect.
func (r *TokenRegistry) Close() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

func (r *TokenRegistry) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.cleanup(time.Now())
		}
	}
}

func (r *TokenRegistry) cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for jti, e := range r.entries {
		if !now.After(e.ExpiresAt) {
			continue
		}
		delete(r.entries, jti)
		if e.UserID == "" {
			continue
		}
		jtis := r.userJTIs[e.UserID]
		for i, id := range jtis {
			if id == jti {
				r.userJTIs[e.UserID] = append(jtis[:i], jtis[i+1:]...)
				break
			}
		}
		if len(r.userJTIs[e.UserID]) == 0 {
			delete(r.userJTIs, e.UserID)
		}
	}
}
