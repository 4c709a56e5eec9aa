package repository

// Store groups the repositories sharing one database handle.
type Store struct {
	Users    UserRepository
	Feedback FeedbackRepository
	Sessions SessionRepository
}
