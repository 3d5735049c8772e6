package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/owetally/tally/debt"
)

type Type string

const (
	// TypeNewDebt tells a borrower a debt was assigned to them.
	TypeNewDebt Type = "new_debt"
	// TypeStatusUpdate asks a lender to confirm or deny a borrower's
	// claim that a debt was paid. It is the only actionable type and the
	// only one carrying a RelatedDebtID.
	TypeStatusUpdate Type = "debt_status_update"
)

type Notification struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Title         string    `db:"title" json:"title"`
	Body          string    `db:"body" json:"body"`
	Read          bool      `db:"read" json:"read"`
	Type          Type      `db:"type" json:"type"`
	RelatedDebtID string    `db:"related_debt_id" json:"related_debt_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("notification with id %s not found", e.ID)
}

// Feed is a user's full notification set split for display. The split is a
// view concern: both halves come from the same fetch.
type Feed struct {
	Unread []*Notification `json:"unread"`
	Read   []*Notification `json:"read"`
}

func NewFeed(all []*Notification) Feed {
	feed := Feed{
		Unread: make([]*Notification, 0, len(all)),
		Read:   make([]*Notification, 0, len(all)),
	}
	for _, n := range all {
		if n.Read {
			feed.Read = append(feed.Read, n)
		} else {
			feed.Unread = append(feed.Unread, n)
		}
	}
	return feed
}

type Store interface {
	AddNotification(ctx context.Context, notification *Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	ListNotificationsForUser(ctx context.Context, userID string) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
	RemoveNotification(ctx context.Context, id string) error
	RemoveNotificationsForDebt(ctx context.Context, debtID string) error
	// ResolveDebtConfirmation applies the lender's decision to the debt and
	// marks the notification read as one unit: if either write fails,
	// neither takes effect. A debt that no longer exists is treated as
	// already resolved and only the notification is touched.
	ResolveDebtConfirmation(ctx context.Context, notificationID, debtID string, status debt.Status) error
}

func New(userID, title, body string, notificationType Type, relatedDebtID string) *Notification {
	return &Notification{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         title,
		Body:          body,
		Read:          false,
		Type:          notificationType,
		RelatedDebtID: relatedDebtID,
		CreatedAt:     time.Now(),
	}
}
