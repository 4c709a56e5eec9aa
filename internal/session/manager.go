// Package session establishes, reads and tears down the authenticated
// identity bound to a browser.
//
// A session is a server-side row (id, username, expiry). The browser holds
// a signed token naming that row; the row is the authority. Deleting the row
// (logout) or the user behind it (cascade) ends the session even if the
// token itself has not yet expired.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"feedback-board/internal/domain"
	"feedback-board/internal/repository"
)

// Manager tracks the identity for one Carrier at a time. Carriers never share
// state, so concurrent requests are independent.
type Manager interface {
	// CurrentIdentity returns the username bound to c. ok is false for
	// anonymous carriers, including ones holding stale or forged tokens.
	CurrentIdentity(ctx context.Context, c Carrier) (username string, ok bool, err error)
	Establish(ctx context.Context, c Carrier, username string) error
	Clear(ctx context.Context, c Carrier) error
}

type Config struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
	Logger logrus.FieldLogger
}

type manager struct {
	cfg      Config
	sessions repository.SessionRepository
	users    repository.UserRepository
}

func NewManager(cfg Config, sessions repository.SessionRepository, users repository.UserRepository) (Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:      cfg,
		sessions: sessions,
		users:    users,
	}, nil
}

func (m *manager) CurrentIdentity(ctx context.Context, c Carrier) (string, bool, error) {
	raw, ok := c.Token()
	if !ok {
		return "", false, nil
	}

	now := m.cfg.Now()
	claims, err := parseToken(m.cfg.Secret, raw, now)
	if err != nil {
		c.ClearToken()
		return "", false, nil
	}

	sess, err := m.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.ClearToken()
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session: %w", err)
	}

	if sess.Username != claims.Subject {
		c.ClearToken()
		return "", false, nil
	}

	if sess.Expired(now) {
		if err := m.sessions.Delete(ctx, sess.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return "", false, fmt.Errorf("drop expired session: %w", err)
		}
		c.ClearToken()
		return "", false, nil
	}

	if _, err := m.users.GetByUsername(ctx, sess.Username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.ClearToken()
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session user: %w", err)
	}

	return sess.Username, true, nil
}

// Establish binds username to c. Any session c already carried is revoked
// first so a token issued before login never becomes authenticated.
func (m *manager) Establish(ctx context.Context, c Carrier, username string) error {
	now := m.cfg.Now()

	if err := m.revoke(ctx, c, now); err != nil {
		return err
	}

	if n, err := m.sessions.DeleteExpired(ctx, now); err != nil {
		m.cfg.Logger.WithError(err).Warn("purge expired sessions")
	} else if n > 0 {
		m.cfg.Logger.WithField("count", n).Debug("purged expired sessions")
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		Username:  username,
		ExpiresAt: now.Add(m.cfg.TTL).UTC(),
		CreatedAt: now.UTC(),
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	token, err := signToken(m.cfg.Secret, sess.ID, username, now, sess.ExpiresAt)
	if err != nil {
		return err
	}
	c.SetToken(token, sess.ExpiresAt)

	m.cfg.Logger.WithField("username", username).Info("session established")
	return nil
}

// Clear ends the session c carries, if any. Clearing an anonymous carrier is not an error.
func (m *manager) Clear(ctx context.Context, c Carrier) error {
	if err := m.revoke(ctx, c, m.cfg.Now()); err != nil {
		return err
	}
	c.ClearToken()
	return nil
}

func (m *manager) revoke(ctx context.Context, c Carrier, now time.Time) error {
	raw, ok := c.Token()
	if !ok {
		return nil
	}
	claims, err := parseToken(m.cfg.Secret, raw, now)
	if err != nil {
		return nil
	}
	if err := m.sessions.Delete(ctx, claims.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
