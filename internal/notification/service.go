package notification

import (
	"encoding/json"
	"log/slog"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Notify records an in-app notification. Errors are logged and swallowed:
// notification delivery must never fail the action that caused it.
func (s *Service) Notify(userID int64, kind, title, body string, metadata interface{}) {
	if userID == 0 {
		return
	}

	var raw json.RawMessage
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			raw = b
		}
	}

	n := &Notification{
		UserID:   userID,
		Kind:     kind,
		Title:    title,
		Body:     body,
		Metadata: raw,
	}
	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to create notification",
			"user_id", userID,
			"kind", kind,
			"error", err)
	}
}

// NotifyRolesInMDA fans a notification out to every user holding one of
// the roles within the MDA.
func (s *Service) NotifyRolesInMDA(roles []string, mdaID int64, kind, title, body string, metadata interface{}) {
	userIDs, err := s.repo.UserIDsWithRolesInMDA(roles, mdaID)
	if err != nil {
		s.logger.Error("failed to resolve notification recipients",
			"mda_id", mdaID,
			"roles", roles,
			"error", err)
		return
	}

	for _, id := range userIDs {
		s.Notify(id, kind, title, body, metadata)
	}
}

func (s *Service) ListNotifications(userID int64, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	return s.repo.ListByUser(userID, unreadOnly, limit, offset)
}

func (s *Service) MarkRead(id, userID int64) error {
	return s.repo.MarkRead(id, userID)
}
