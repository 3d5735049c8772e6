package service

import (
	"context"
	"fmt"
	"log"
	"time"

	debtDomain "github.com/owetally/tally/debt"
	"github.com/owetally/tally/notification"
)

type CreateDebtRequest struct {
	BorrowerID   string
	BorrowerName string
	Amount       float64
	Description  string
	DueDate      time.Time
}

// CreateDebt validates and persists a new debt with the actor as lender.
// When the borrower is a registered user, one new_debt notification is
// created for them; a name-only borrower gets nothing. The notification is
// best effort: the debt stays even if the notification insert fails, the
// borrower will still see the debt on their next fetch.
func (h *Service) CreateDebt(ctx context.Context, actor Actor, req CreateDebtRequest) (*debtDomain.Debt, error) {
	d, err := debtDomain.NewDebt(actor.ID, actor.Name, req.BorrowerID, req.BorrowerName,
		req.Description, req.Amount, req.DueDate)
	if err != nil {
		return nil, err
	}

	if err := h.debtStore.AddDebt(ctx, d); err != nil {
		return nil, fmt.Errorf("add debt: %w", err)
	}

	if d.BorrowerID != "" {
		if err := h.notifyNewDebt(ctx, d); err != nil {
			log.Println("Error creating new debt notification:", err)
		}
	}

	return d, nil
}

// RequestStatusChange applies the debt status transition rules for a
// requested target status:
//   - requesting the current status is a no-op that succeeds
//   - a borrower claiming "paid" moves the debt to pending and asks the
//     lender to confirm; the claim never applies directly
//   - anything else (lender changes, borrower marking unpaid) applies
//     directly with no confirmation
func (h *Service) RequestStatusChange(ctx context.Context, actor Actor, debtID string, target debtDomain.Status) (*debtDomain.Debt, error) {
	d, err := h.debtStore.GetDebt(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("get debt: %w", err)
	}
	if !d.IsParty(actor.ID) {
		return nil, ErrNotParty
	}

	if d.Status == target {
		return d, nil
	}

	if actor.ID == d.BorrowerID && target == debtDomain.StatusPaid {
		if err := h.debtStore.UpdateStatus(ctx, d.ID, debtDomain.StatusPending); err != nil {
			return nil, fmt.Errorf("update debt status: %w", err)
		}
		d.Status = debtDomain.StatusPending

		if err := h.notifyConfirmationRequested(ctx, d); err != nil {
			return nil, fmt.Errorf("create confirmation notification: %w", err)
		}
		return d, nil
	}

	if err := h.debtStore.UpdateStatus(ctx, d.ID, target); err != nil {
		return nil, fmt.Errorf("update debt status: %w", err)
	}
	d.Status = target
	return d, nil
}

// DeleteDebt removes a debt unconditionally. Either party may delete at any
// time, including while a confirmation is pending; notifications referencing
// the debt are dropped with it so no dangling confirmations are left behind.
func (h *Service) DeleteDebt(ctx context.Context, actor Actor, debtID string) error {
	d, err := h.debtStore.GetDebt(ctx, debtID)
	if err != nil {
		return fmt.Errorf("get debt: %w", err)
	}
	if !d.IsParty(actor.ID) {
		return ErrNotParty
	}

	if err := h.debtStore.RemoveDebt(ctx, debtID); err != nil {
		return fmt.Errorf("remove debt: %w", err)
	}

	if err := h.notificationStore.RemoveNotificationsForDebt(ctx, debtID); err != nil {
		log.Println("Error removing notifications for deleted debt:", err)
	}
	return nil
}

func (h *Service) ListDebts(ctx context.Context, actor Actor) ([]*debtDomain.Debt, error) {
	debts, err := h.debtStore.ListDebtsForUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return debts, nil
}

func (h *Service) notifyNewDebt(ctx context.Context, d *debtDomain.Debt) error {
	n := notification.New(d.BorrowerID, "New debt assigned",
		fmt.Sprintf("%s assigned you a new debt.", d.LenderName), notification.TypeNewDebt, "")
	if err := h.notificationStore.AddNotification(ctx, n); err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	return nil
}

func (h *Service) notifyConfirmationRequested(ctx context.Context, d *debtDomain.Debt) error {
	n := notification.New(d.LenderID, "Confirm debt status",
		fmt.Sprintf("%s marked this debt as paid. Please confirm:", d.BorrowerName),
		notification.TypeStatusUpdate, d.ID)
	if err := h.notificationStore.AddNotification(ctx, n); err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	return nil
}
