package service

import (
	"context"
	"fmt"

	"feedback-board/internal/domain"
	"feedback-board/internal/session"
)

// Guard decides whether the session identity may act on a resource. It
// denies by default and only trusts the identity held by the carrier, never
// a username taken from the request.
type Guard interface {
	// Identity returns the authenticated username or ErrUnauthorized.
	Identity(ctx context.Context, c session.Carrier) (string, error)
	// RequireUser allows only the owner of the named profile.
	RequireUser(ctx context.Context, c session.Carrier, username string) (string, error)
	// RequireFeedback loads the record first, so a missing record reports
	// ErrNotFound to every caller, then allows only its owner.
	RequireFeedback(ctx context.Context, c session.Carrier, id int64) (*domain.Feedback, error)
}

type guard struct {
	sessions session.Manager
	feedback FeedbackService
}

func NewGuard(sessions session.Manager, feedback FeedbackService) Guard {
	return &guard{
		sessions: sessions,
		feedback: feedback,
	}
}

func (g *guard) Identity(ctx context.Context, c session.Carrier) (string, error) {
	username, ok, err := g.sessions.CurrentIdentity(ctx, c)
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}
	if !ok {
		return "", ErrUnauthorized
	}
	return username, nil
}

func (g *guard) RequireUser(ctx context.Context, c session.Carrier, username string) (string, error) {
	identity, err := g.Identity(ctx, c)
	if err != nil {
		return "", err
	}
	if identity != username {
		return "", ErrUnauthorized
	}
	return identity, nil
}

func (g *guard) RequireFeedback(ctx context.Context, c session.Carrier, id int64) (*domain.Feedback, error) {
	feedback, err := g.feedback.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := g.RequireUser(ctx, c, feedback.Username); err != nil {
		return nil, err
	}
	return feedback, nil
}
