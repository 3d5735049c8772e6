package debt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a debt's lifecycle state. Transitions between statuses go
// through the service layer, which decides whether a requested change
// applies directly or needs the lender's confirmation first.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

func ParseStatus(s string) (Status, error) {
	switch status := Status(s); status {
	case StatusUnpaid, StatusPending, StatusPaid:
		return status, nil
	}
	return "", fmt.Errorf("unknown debt status %q", s)
}

type Debt struct {
	ID           string    `db:"id" json:"id"`
	LenderID     string    `db:"lender_id" json:"lender_id"`
	LenderName   string    `db:"lender_name" json:"lender_name"`
	BorrowerID   string    `db:"borrower_id" json:"borrower_id,omitempty"`
	BorrowerName string    `db:"borrower_name" json:"borrower_name"`
	Amount       float64   `db:"amount" json:"amount"`
	Description  string    `db:"description" json:"description"`
	DueDate      time.Time `db:"due_date" json:"due_date"`
	Status       Status    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("debt with id %s not found", e.ID)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid debt: %s %s", e.Field, e.Reason)
}

type Store interface {
	AddDebt(ctx context.Context, debt *Debt) error
	GetDebt(ctx context.Context, id string) (*Debt, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	RemoveDebt(ctx context.Context, id string) error
	ListDebtsForUser(ctx context.Context, userID string) ([]*Debt, error)
}

// NewDebt builds a validated debt in its initial state. The borrower ID may
// be empty for a borrower who isn't a registered user; such debts are still
// tracked but get no notifications.
func NewDebt(lenderID, lenderName, borrowerID, borrowerName, description string, amount float64, dueDate time.Time) (*Debt, error) {
	d := &Debt{
		ID:           uuid.NewString(),
		LenderID:     lenderID,
		LenderName:   lenderName,
		BorrowerID:   borrowerID,
		BorrowerName: borrowerName,
		Amount:       amount,
		Description:  description,
		DueDate:      dueDate,
		Status:       StatusUnpaid,
		CreatedAt:    time.Now(),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Debt) Validate() error {
	if d.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if d.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Reason: "is required"}
	}
	if d.LenderID == "" {
		return &ValidationError{Field: "lender_id", Reason: "is required"}
	}
	if strings.TrimSpace(d.BorrowerName) == "" {
		return &ValidationError{Field: "borrower_name", Reason: "is required"}
	}
	if d.BorrowerID != "" && d.BorrowerID == d.LenderID {
		return &ValidationError{Field: "borrower_id", Reason: "must differ from lender_id"}
	}
	return nil
}

// IsParty reports whether userID is the lender or the borrower of this debt.
func (d *Debt) IsParty(userID string) bool {
	if userID == "" {
		return false
	}
	return userID == d.LenderID || userID == d.BorrowerID
}
