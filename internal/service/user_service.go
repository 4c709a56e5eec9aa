package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"feedback-board/internal/auth"
	"feedback-board/internal/domain"
	"feedback-board/internal/repository"
)

// UserService is the user directory: registration, login and self-service deletion.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Get(ctx context.Context, username string) (*domain.User, error)
	Delete(ctx context.Context, username string) error
}

type userService struct {
	users  repository.UserRepository
	hasher auth.Hasher
	logger logrus.FieldLogger

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(users repository.UserRepository, hasher auth.Hasher, logger logrus.FieldLogger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fieldError("password", "Password is too long.")
		}
		return nil, err
	}

	user := &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}

	// no existence pre-check: the unique constraints decide, at commit time
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrDuplicateUsername
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.WithField("username", user.Username).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// spend the same bcrypt time as a real comparison
			s.hasher.Verify(password, s.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Get(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return sanitizeUser(user), nil
}

// Delete removes the user together with all owned feedback and sessions.
func (s *userService) Delete(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.WithField("username", username).Info("user deleted")
	return nil
}

func (s *userService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-equaliser")
		if err != nil {
			s.logger.WithError(err).Warn("compute dummy hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
