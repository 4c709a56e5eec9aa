package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"feedback-board/internal/storage"
)

// Export describes an uploaded snapshot of a user's profile and feedback.
type Export struct {
	Location  string
	URL       string
	ExpiresAt time.Time
}

// ExportService snapshots a user's data to object storage and removes it
// again when the user goes away.
type ExportService interface {
	Enabled() bool
	Export(ctx context.Context, username string) (*Export, error)
	Purge(ctx context.Context, username string) error
}

type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

type exportService struct {
	cfg      ExportConfig
	store    storage.Service
	users    UserService
	feedback FeedbackService
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewExportService returns a service that is disabled when store is nil or
// no bucket is configured.
func NewExportService(cfg ExportConfig, store storage.Service, users UserService, feedback FeedbackService, logger logrus.FieldLogger) ExportService {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	if logger == nil {
		logger = logrus.New()
	}
	return &exportService{
		cfg:      cfg,
		store:    store,
		users:    users,
		feedback: feedback,
		logger:   logger,
		now:      time.Now,
	}
}

type exportDocument struct {
	ExportedAt time.Time        `json:"exported_at"`
	User       exportedUser     `json:"user"`
	Feedback   []exportedRecord `json:"feedback"`
}

type exportedUser struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

type exportedRecord struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *exportService) Enabled() bool {
	return s.store != nil && s.cfg.Bucket != ""
}

func (s *exportService) userPrefix(username string) string {
	return path.Join(s.cfg.KeyPrefix, username) + "/"
}

func (s *exportService) Export(ctx context.Context, username string) (*Export, error) {
	if !s.Enabled() {
		return nil, ErrStorageDisabled
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	items, err := s.feedback.ListByOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := exportDocument{
		ExportedAt: now,
		User: exportedUser{
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			FullName:  user.FullName(),
		},
		Feedback: make([]exportedRecord, len(items)),
	}
	for i, item := range items {
		doc.Feedback[i] = exportedRecord{ID: item.ID, Title: item.Title, Content: item.Content}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := s.userPrefix(username) + uuid.NewString() + ".json"
	if err := s.store.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(body), "application/json"); err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	url, err := s.store.PresignGetURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"username": username, "key": key}).Info("feedback exported")
	return &Export{
		Location:  storage.Location(s.cfg.Bucket, key),
		URL:       url,
		ExpiresAt: now.Add(s.cfg.URLTTL),
	}, nil
}

// Purge removes every export of username. It is a no-op when disabled.
func (s *exportService) Purge(ctx context.Context, username string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.store.DeletePrefix(ctx, s.cfg.Bucket, s.userPrefix(username)); err != nil {
		return fmt.Errorf("purge exports: %w", err)
	}
	return nil
}
