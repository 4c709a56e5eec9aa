package domain

import "time"

// Feedback is a note owned by exactly one user.
type Feedback struct {
	ID        int64
	Title     string
	Content   string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
