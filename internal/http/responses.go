package http

import (
	"time"

	"feedback-board/internal/domain"
	"feedback-board/internal/service"
)

type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
}

type FeedbackResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ProfileResponse struct {
	User     UserResponse       `json:"user"`
	Feedback []FeedbackResponse `json:"feedback"`
}

type ExportResponse struct {
	Location  string `json:"location"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func feedbackToResponse(feedback domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        feedback.ID,
		Title:     feedback.Title,
		Content:   feedback.Content,
		Username:  feedback.Username,
		CreatedAt: feedback.CreatedAt.Format(time.RFC3339),
		UpdatedAt: feedback.UpdatedAt.Format(time.RFC3339),
	}
}

func feedbackListToResponse(items []domain.Feedback) []FeedbackResponse {
	resp := make([]FeedbackResponse, len(items))
	for i := range items {
		resp[i] = feedbackToResponse(items[i])
	}
	return resp
}

func exportToResponse(export service.Export) ExportResponse {
	return ExportResponse{
		Location:  export.Location,
		URL:       export.URL,
		ExpiresAt: export.ExpiresAt.Format(time.RFC3339),
	}
}
