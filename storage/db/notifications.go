package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	debtDomain "github.com/owetally/tally/debt"
	notificationDomain "github.com/owetally/tally/notification"
)

func (d *DBStore) AddNotification(_ context.Context, notification *notificationDomain.Notification) error {
	if notification == nil {
		return fmt.Errorf("nil notification")
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	notification.CreatedAt = time.Now()

	sql, args, err := sq.Insert("notifications").Values(notification.ID, notification.UserID, notification.Title,
		notification.Body, notification.Read, notification.Type, notification.RelatedDebtID, notification.CreatedAt).ToSql()
	if err != nil {
		return fmt.Errorf("generating insert SQL: %w", err)
	}

	if _, err = d.db.Exec(sql, args...); err != nil {
		return newExecError("adding notification", sql, err, args...)
	}
	return nil
}

func (d *DBStore) GetNotification(_ context.Context, id string) (*notificationDomain.Notification, error) {
	sql, args, err := sq.Select("*").From("notifications").Where("id=?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating select SQL: %w", err)
	}

	var notifications []*notificationDomain.Notification
	err = d.db.Select(&notifications, sql, args...)
	if err != nil {
		return nil, newExecError("selecting notification", sql, err, args...)
	}

	if len(notifications) > 1 {
		return nil, fmt.Errorf("more than one notification found (found %d)", len(notifications))
	}
	if len(notifications) == 0 {
		return nil, &notificationDomain.ErrNotFound{ID: id}
	}

	return notifications[0], nil
}

func (d *DBStore) ListNotificationsForUser(_ context.Context, userID string) ([]*notificationDomain.Notification, error) {
	sql, args, err := sq.Select("*").From("notifications").Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating list SQL: %w", err)
	}

	notifications := []*notificationDomain.Notification{}
	err = d.db.Select(&notifications, sql, args...)
	if err != nil {
		return nil, newExecError("selecting notifications", sql, err, args...)
	}

	return notifications, nil
}

func (d *DBStore) MarkRead(_ context.Context, id string) error {
	sql, args, err := sq.Update("notifications").Set("read", true).Where("id=?", id).ToSql()
	if err != nil {
		return fmt.Errorf("generating update SQL: %w", err)
	}

	res, err := d.db.Exec(sql, args...)
	if err != nil {
		return newExecError("marking notification read", sql, err, args...)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &notificationDomain.ErrNotFound{ID: id}
	}
	return nil
}

func (d *DBStore) RemoveNotification(_ context.Context, id string) error {
	sql, args, err := sq.Delete("notifications").Where("id=?", id).ToSql()
	if err != nil {
		return fmt.Errorf("generating delete SQL: %w", err)
	}

	if _, err = d.db.Exec(sql, args...); err != nil {
		return newExecError("deleting notification", sql, err, args...)
	}
	return nil
}

func (d *DBStore) RemoveNotificationsForDebt(_ context.Context, debtID string) error {
	if debtID == "" {
		return nil
	}

	sql, args, err := sq.Delete("notifications").Where("related_debt_id=?", debtID).ToSql()
	if err != nil {
		return fmt.Errorf("generating delete SQL: %w", err)
	}

	if _, err = d.db.Exec(sql, args...); err != nil {
		return newExecError("deleting notifications for debt", sql, err, args...)
	}
	return nil
}

// ResolveDebtConfirmation writes the lender's decision to the debt and marks
// the confirmation notification read in a single transaction. A debt row
// that no longer exists means the confirmation outlived its debt; the
// notification is still marked read so it can't be resolved again.
func (d *DBStore) ResolveDebtConfirmation(_ context.Context, notificationID, debtID string, status debtDomain.Status) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if debtID != "" {
		sql, args, err := sq.Update("debts").Set("status", status).Where("id=?", debtID).ToSql()
		if err != nil {
			return fmt.Errorf("generating update SQL: %w", err)
		}
		if _, err = tx.Exec(sql, args...); err != nil {
			return newExecError("updating debt status", sql, err, args...)
		}
	}

	sql, args, err := sq.Update("notifications").Set("read", true).Where("id=?", notificationID).ToSql()
	if err != nil {
		return fmt.Errorf("generating update SQL: %w", err)
	}

	res, err := tx.Exec(sql, args...)
	if err != nil {
		return newExecError("marking notification read", sql, err, args...)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &notificationDomain.ErrNotFound{ID: notificationID}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
