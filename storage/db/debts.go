package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	debtDomain "github.com/owetally/tally/debt"
)

func (d *DBStore) AddDebt(_ context.Context, debt *debtDomain.Debt) error {
	if debt == nil {
		return fmt.Errorf("nil debt")
	}
	if debt.ID == "" {
		debt.ID = uuid.NewString()
	}
	if debt.Status == "" {
		debt.Status = debtDomain.StatusUnpaid
	}
	debt.CreatedAt = time.Now()

	sql, args, err := sq.Insert("debts").Values(debt.ID, debt.LenderID, debt.LenderName, debt.BorrowerID,
		debt.BorrowerName, debt.Amount, debt.Description, debt.DueDate, debt.Status, debt.CreatedAt).ToSql()
	if err != nil {
		return fmt.Errorf("generating insert SQL: %w", err)
	}

	if _, err = d.db.Exec(sql, args...); err != nil {
		return newExecError("adding debt", sql, err, args...)
	}
	return nil
}

func (d *DBStore) GetDebt(_ context.Context, id string) (*debtDomain.Debt, error) {
	sql, args, err := sq.Select("*").From("debts").Where("id=?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating select SQL: %w", err)
	}

	var debts []*debtDomain.Debt
	err = d.db.Select(&debts, sql, args...)
	if err != nil {
		return nil, newExecError("selecting debt", sql, err, args...)
	}

	if len(debts) > 1 {
		return nil, fmt.Errorf("more than one debt found (found %d)", len(debts))
	}
	if len(debts) == 0 {
		return nil, &debtDomain.ErrNotFound{ID: id}
	}

	return debts[0], nil
}

func (d *DBStore) UpdateStatus(_ context.Context, id string, status debtDomain.Status) error {
	sql, args, err := sq.Update("debts").Set("status", status).Where("id=?", id).ToSql()
	if err != nil {
		return fmt.Errorf("generating update SQL: %w", err)
	}

	res, err := d.db.Exec(sql, args...)
	if err != nil {
		return newExecError("updating debt status", sql, err, args...)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &debtDomain.ErrNotFound{ID: id}
	}
	return nil
}

func (d *DBStore) RemoveDebt(_ context.Context, id string) error {
	sql, args, err := sq.Delete("debts").Where("id=?", id).ToSql()
	if err != nil {
		return fmt.Errorf("generating delete SQL: %w", err)
	}

	if _, err = d.db.Exec(sql, args...); err != nil {
		return newExecError("deleting debt", sql, err, args...)
	}
	return nil
}

// ListDebtsForUser returns debts where the user is either side of the debt.
func (d *DBStore) ListDebtsForUser(_ context.Context, userID string) ([]*debtDomain.Debt, error) {
	sql, args, err := sq.Select("*").From("debts").
		Where(sq.Or{sq.Eq{"lender_id": userID}, sq.Eq{"borrower_id": userID}}).
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating list SQL: %w", err)
	}

	debts := []*debtDomain.Debt{}
	err = d.db.Select(&debts, sql, args...)
	if err != nil {
		return nil, newExecError("selecting debts", sql, err, args...)
	}

	return debts, nil
}
