package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/repositories"
	"github.com/desertthunder/vkx/internal/shared"
)

// Manager creates, restores and tears down sessions.
type Manager struct {
	opts   Options
	repo   *repositories.SessionRepository
	cache  *query.Client
	logger *log.Logger
}

// NewManager creates a manager. repo and cache may be nil, in which case sessions are
// not persisted and logout has no cache to clear.
func NewManager(opts Options, repo *repositories.SessionRepository, cache *query.Client) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{opts: opts, repo: repo, cache: cache, logger: logger}
}

// Anonymous returns a session with an empty jar.
func (m *Manager) Anonymous() (*Session, error) {
	jar, err := NewJar()
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return newSession(m.opts, jar)
}

// Restore loads the stored session for the configured backend. When nothing is stored it
// returns an anonymous session and [shared.ErrNotAuthenticated].
func (m *Manager) Restore() (*Session, error) {
	s, err := m.Anonymous()
	if err != nil {
		return nil, err
	}
	if m.repo == nil {
		return s, shared.ErrNotAuthenticated
	}

	stored, err := m.repo.Current(s.BaseURL())
	if err != nil {
		return s, err
	}

	user := stored.User()
	s.seed(stored.Cookies())
	s.user = &user
	s.stored = stored

	m.logger.Debug("restored session", "user", user.Username, "cookies", len(stored.Cookies()))
	return s, nil
}

// Login authenticates with email and password and persists the result.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	s, err := m.Anonymous()
	if err != nil {
		return nil, err
	}

	user, err := s.service.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.user = user
	if err := m.persist(s); err != nil {
		return nil, err
	}

	m.logger.Info("logged in", "user", user.Username)
	return s, nil
}

// Import seeds a session from cookies copied out of a browser request, then verifies them with /users/me.
func (m *Manager) Import(ctx context.Context, cookies []*http.Cookie) (*Session, error) {
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: no cookies to import", shared.ErrInvalidInput)
	}

	s, err := m.Anonymous()
	if err != nil {
		return nil, err
	}
	s.seed(cookies)

	user, err := s.service.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	s.user = user
	if err := m.persist(s); err != nil {
		return nil, err
	}

	m.logger.Info("imported session", "user", user.Username)
	return s, nil
}

// Save writes the jar back to storage so rotated cookies survive the process.
func (m *Manager) Save(s *Session) error {
	if !s.Authenticated() {
		return shared.ErrNotAuthenticated
	}
	return m.persist(s)
}

// Logout expires the session on the backend and locally. Local teardown always runs; the
// backend error, if any, is returned after it.
func (m *Manager) Logout(ctx context.Context, s *Session) error {
	if !s.Authenticated() {
		return shared.ErrNotAuthenticated
	}

	remoteErr := s.service.Logout(ctx)
	if remoteErr != nil && !errors.Is(remoteErr, shared.ErrNotAuthenticated) {
		m.logger.Warn("backend logout failed", "error", remoteErr)
	} else {
		remoteErr = nil
	}

	if jar, err := NewJar(); err == nil {
		s.jar = jar
		s.client.Jar = jar
	}
	if m.cache != nil {
		m.cache.Clear()
	}

	var storeErr error
	if m.repo != nil && s.stored != nil {
		storeErr = m.repo.Delete(s.stored.ID())
	}

	s.user = nil
	s.stored = nil
	m.logger.Info("logged out")

	return errors.Join(remoteErr, storeErr)
}

func (m *Manager) persist(s *Session) error {
	if m.repo == nil {
		return nil
	}

	if s.stored != nil {
		s.stored.SetUser(*s.user)
		s.stored.SetCookies(s.Cookies())
		if err := m.repo.Update(s.stored); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	}

	stored := models.NewStoredSession(s.BaseURL(), *s.user, s.Cookies())
	if err := m.repo.Create(stored); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.stored = stored
	return nil
}
