package domain

import "time"

// User represents a registered account. Username is the immutable identity key.
type User struct {
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins the first and last name with a single space.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
