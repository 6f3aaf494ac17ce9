// Package notify records in-app notifications for members.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/pkg/logging"
)

// Notifier delivers a message to a member. Delivery is fire-and-forget
// from the caller's point of view.
type Notifier interface {
	Notify(ctx context.Context, recipientID, title, body, link string) error
}

// Store writes notifications to the notifications table
type Store struct {
	repo *db.Repository
}

// NewStore creates a database-backed notifier
func NewStore(repo *db.Repository) *Store {
	return &Store{repo: repo}
}

// Notify inserts an unread notification
func (s *Store) Notify(ctx context.Context, recipientID, title, body, link string) error {
	n := &models.Notification{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Link:        link,
	}
	if err := s.repo.Notifications().Create(ctx, n); err != nil {
		return errs.FromStore(err, "create notification")
	}
	return nil
}

// Send calls n and logs instead of failing. Notifications follow a
// committed write and must not turn it into an error.
func Send(ctx context.Context, n Notifier, recipientID, title, body, link string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, recipientID, title, body, link); err != nil {
		logging.WithComponent("notify").Warn("Failed to deliver notification",
			zap.String("recipient_id", recipientID),
			zap.String("title", title),
			zap.Error(err))
	}
}

// ShowLink is the client route for a show
func ShowLink(showID string) string {
	return fmt.Sprintf("/post/%s", showID)
}

// MemberLink is the client route for a member profile
func MemberLink(memberID string) string {
	return fmt.Sprintf("/user/%s", memberID)
}
