package notify

import (
	"context"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
)

// InboxLimit is the number of notifications returned by List
const InboxLimit = 20

// Inbox is a member's view of their own notifications
type Inbox struct {
	repo *db.Repository
}

// NewInbox creates an inbox service
func NewInbox(repo *db.Repository) *Inbox {
	return &Inbox{repo: repo}
}

// InboxPage is a member's newest notifications with the unread count
type InboxPage struct {
	Notifications []*models.Notification `json:"notifications"`
	Unread        int64                  `json:"unread"`
}

// List returns the member's newest notifications
func (i *Inbox) List(ctx context.Context, memberID string) (*InboxPage, error) {
	items, err := i.repo.Notifications().ListForRecipient(ctx, memberID, InboxLimit)
	if err != nil {
		return nil, errs.FromStore(err, "list notifications")
	}
	unread, err := i.repo.Notifications().CountUnread(ctx, memberID)
	if err != nil {
		return nil, errs.FromStore(err, "count notifications")
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return &InboxPage{Notifications: items, Unread: unread}, nil
}

// MarkRead marks the given notifications read; no ids marks all of them
func (i *Inbox) MarkRead(ctx context.Context, memberID string, ids []int64) (int64, error) {
	n, err := i.repo.Notifications().MarkRead(ctx, memberID, ids)
	if err != nil {
		return 0, errs.FromStore(err, "mark notifications read")
	}
	return n, nil
}

// Delete removes one of the member's notifications
func (i *Inbox) Delete(ctx context.Context, memberID string, id int64) error {
	if err := i.repo.Notifications().Delete(ctx, memberID, id); err != nil {
		return errs.FromStore(err, "delete notification")
	}
	return nil
}

// Clear removes all of the member's notifications
func (i *Inbox) Clear(ctx context.Context, memberID string) (int64, error) {
	n, err := i.repo.Notifications().Clear(ctx, memberID)
	if err != nil {
		return 0, errs.FromStore(err, "clear notifications")
	}
	return n, nil
}
