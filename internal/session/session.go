// Package session holds the current token pair and caller identity.
//
// The manager is an injectable object rather than package-level state,
// so independent sessions (and tests) cannot leak into each other. All
// methods are safe for concurrent use; the pipeline reads it on every
// request and mutates it on login, refresh, and logout.
package session

import (
	"sync"

	"github.com/ArifBabayev05/backlify-client/internal/vault"
)

// TokenPair is the current auth credential. It is either fully present
// (both tokens) or fully absent; partial pairs are normalized to absent
// before they are ever stored.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Present reports whether both tokens are set.
func (p TokenPair) Present() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Persister is the storage substrate a session can be restored from and
// persisted to across process restarts. *vault.Vault is the production
// implementation.
type Persister interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Clear() error
}

// Manager owns the in-memory session state. A nil Manager is not
// usable; construct with New.
type Manager struct {
	mu       sync.RWMutex
	tokens   TokenPair
	identity string
	plan     string

	persister Persister
}

// New creates an empty session manager. persister may be nil for
// memory-only sessions (tests, one-shot tools).
func New(persister Persister) *Manager {
	return &Manager{persister: persister}
}

// Init restores previously persisted credentials into memory. Missing
// keys are not errors: a fresh install simply starts logged out.
func (m *Manager) Init() {
	if m.persister == nil {
		return
	}
	access, _ := m.persister.Get(vault.KeyAccessToken)
	refresh, _ := m.persister.Get(vault.KeyRefreshToken)
	identity, _ := m.persister.Get(vault.KeyUsername)
	plan, _ := m.persister.Get(vault.KeyUserPlan)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = normalize(TokenPair{AccessToken: access, RefreshToken: refresh})
	m.identity = identity
	m.plan = plan
}

// Dispose drops the in-memory state without touching persisted
// credentials. Use Clear to tear down both.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = TokenPair{}
	m.identity = ""
	m.plan = ""
}

// SetTokens replaces both tokens. No validation of token format is
// performed. A half-empty pair is stored as fully absent.
func (m *Manager) SetTokens(access, refresh string) {
	pair := normalize(TokenPair{AccessToken: access, RefreshToken: refresh})

	m.mu.Lock()
	m.tokens = pair
	m.mu.Unlock()

	if m.persister != nil {
		_ = m.persister.Set(vault.KeyAccessToken, pair.AccessToken)
		_ = m.persister.Set(vault.KeyRefreshToken, pair.RefreshToken)
	}
}

// SetAccessToken replaces only the access token, keeping the long-lived
// refresh token. This is the refresh flow's mutation. If no refresh
// token is held the pair degenerates to absent.
func (m *Manager) SetAccessToken(access string) {
	m.mu.Lock()
	m.tokens = normalize(TokenPair{AccessToken: access, RefreshToken: m.tokens.RefreshToken})
	pair := m.tokens
	m.mu.Unlock()

	if m.persister != nil {
		_ = m.persister.Set(vault.KeyAccessToken, pair.AccessToken)
	}
}

// SetIdentity records the caller's user id string.
func (m *Manager) SetIdentity(id string) {
	m.mu.Lock()
	m.identity = id
	m.mu.Unlock()

	if m.persister != nil {
		_ = m.persister.Set(vault.KeyUsername, id)
	}
}

// SetPlan records the caller's plan name.
func (m *Manager) SetPlan(plan string) {
	m.mu.Lock()
	m.plan = plan
	m.mu.Unlock()

	if m.persister != nil {
		_ = m.persister.Set(vault.KeyUserPlan, plan)
	}
}

// Tokens returns the current token pair.
func (m *Manager) Tokens() TokenPair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens
}

// Identity returns the caller's user id string, or "".
func (m *Manager) Identity() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

// Plan returns the caller's plan name, or "".
func (m *Manager) Plan() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.plan
}

// Clear wipes tokens, identity and plan, in memory and in the
// persister. The effect is immediate for all subsequent requests.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.tokens = TokenPair{}
	m.identity = ""
	m.plan = ""
	m.mu.Unlock()

	if m.persister != nil {
		_ = m.persister.Clear()
	}
}

// IsActive reports whether an access token is present.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens.AccessToken != ""
}

// normalize collapses a partial token pair to fully absent.
func normalize(p TokenPair) TokenPair {
	if !p.Present() {
		return TokenPair{}
	}
	return p
}
