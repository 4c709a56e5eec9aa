package service

import (
	"context"
	"errors"
	"fmt"

	"feedback-board/internal/domain"
	"feedback-board/internal/repository"
)

// FeedbackService stores feedback records. Callers must have passed the
// Guard for the owner before invoking any mutating method.
type FeedbackService interface {
	Create(ctx context.Context, owner string, in FeedbackInput) (*domain.Feedback, error)
	Get(ctx context.Context, id int64) (*domain.Feedback, error)
	Update(ctx context.Context, id int64, in FeedbackInput) (*domain.Feedback, error)
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, owner string) ([]domain.Feedback, error)
}

type feedbackService struct {
	feedback repository.FeedbackRepository
}

func NewFeedbackService(feedback repository.FeedbackRepository) FeedbackService {
	return &feedbackService{feedback: feedback}
}

func (s *feedbackService) Create(ctx context.Context, owner string, in FeedbackInput) (*domain.Feedback, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	feedback := &domain.Feedback{
		Title:    in.Title,
		Content:  in.Content,
		Username: owner,
	}
	if _, err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, mapNotFound(err, "create feedback")
	}
	return feedback, nil
}

func (s *feedbackService) Get(ctx context.Context, id int64) (*domain.Feedback, error) {
	feedback, err := s.feedback.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "get feedback")
	}
	return feedback, nil
}

func (s *feedbackService) Update(ctx context.Context, id int64, in FeedbackInput) (*domain.Feedback, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	feedback, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	feedback.Title = in.Title
	feedback.Content = in.Content

	if err := s.feedback.Update(ctx, feedback); err != nil {
		return nil, mapNotFound(err, "update feedback")
	}
	return feedback, nil
}

func (s *feedbackService) Delete(ctx context.Context, id int64) error {
	if err := s.feedback.Delete(ctx, id); err != nil {
		return mapNotFound(err, "delete feedback")
	}
	return nil
}

func (s *feedbackService) ListByOwner(ctx context.Context, owner string) ([]domain.Feedback, error) {
	items, err := s.feedback.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
