package service

import (
	"context"
	"errors"
	"fmt"

	debtDomain "github.com/owetally/tally/debt"
	notificationDomain "github.com/owetally/tally/notification"
)

// ListNotifications returns the actor's full notification set split into
// unread and read. Callers are expected to refetch after every mutating
// call; the service never pushes invalidation.
func (h *Service) ListNotifications(ctx context.Context, actor Actor) (notificationDomain.Feed, error) {
	all, err := h.notificationStore.ListNotificationsForUser(ctx, actor.ID)
	if err != nil {
		return notificationDomain.Feed{}, fmt.Errorf("list notifications: %w", err)
	}
	return notificationDomain.NewFeed(all), nil
}

// MarkNotificationRead is owner-only and idempotent.
func (h *Service) MarkNotificationRead(ctx context.Context, actor Actor, notificationID string) error {
	n, err := h.notificationStore.GetNotification(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != actor.ID {
		return ErrNotOwner
	}
	if n.Read {
		return nil
	}

	if err := h.notificationStore.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// ResolveConfirmation applies the lender's decision on a borrower's "paid"
// claim. Accepting writes paid, denying writes unpaid; either way the
// notification is marked read in the same unit as the debt write, so a
// failed debt write leaves the notification unread and the debt pending. A
// confirmation whose debt was deleted resolves to just marking the
// notification read.
func (h *Service) ResolveConfirmation(ctx context.Context, actor Actor, notificationID string, decision debtDomain.Status) error {
	if decision != debtDomain.StatusPaid && decision != debtDomain.StatusUnpaid {
		return &debtDomain.ValidationError{Field: "decision",
			Reason: fmt.Sprintf("must be %s or %s", debtDomain.StatusPaid, debtDomain.StatusUnpaid)}
	}

	n, err := h.notificationStore.GetNotification(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != actor.ID {
		return ErrNotOwner
	}
	if n.Type != notificationDomain.TypeStatusUpdate || n.RelatedDebtID == "" {
		return ErrNotConfirmation
	}

	debtID := n.RelatedDebtID
	if _, err := h.debtStore.GetDebt(ctx, debtID); err != nil {
		var notFound *debtDomain.ErrNotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("get debt: %w", err)
		}
		// The debt is gone, the confirmation is inert. Mark it read
		// without a debt write.
		debtID = ""
	}

	if err := h.notificationStore.ResolveDebtConfirmation(ctx, notificationID, debtID, decision); err != nil {
		return fmt.Errorf("resolve debt confirmation: %w", err)
	}
	return nil
}

// DeleteNotification is owner-only and unconditional.
func (h *Service) DeleteNotification(ctx context.Context, actor Actor, notificationID string) error {
	n, err := h.notificationStore.GetNotification(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != actor.ID {
		return ErrNotOwner
	}

	if err := h.notificationStore.RemoveNotification(ctx, notificationID); err != nil {
		return fmt.Errorf("remove notification: %w", err)
	}
	return nil
}
