package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	friendDomain "github.com/owetally/tally/friend"
)

func (d *DBStore) AddFriend(_ context.Context, friend *friendDomain.Friend) error {
	if friend == nil {
		return fmt.Errorf("nil friend")
	}
	friend.CreatedAt = time.Now()

	sql, args, err := sq.Insert("friends").Values(friend.UserID, friend.FriendID, friend.FirstName,
		friend.LastName, friend.AvatarURL, friend.CreatedAt).ToSql()
	if err != nil {
		return fmt.Errorf("generating insert SQL: %w", err)
	}

	if _, err = d.db.Exec(sql, args...); err != nil {
		return newExecError("adding friend", sql, err, args...)
	}
	return nil
}

func (d *DBStore) ListFriends(_ context.Context, userID string) ([]*friendDomain.Friend, error) {
	sql, args, err := sq.Select("*").From("friends").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating list SQL: %w", err)
	}

	friends := []*friendDomain.Friend{}
	err = d.db.Select(&friends, sql, args...)
	if err != nil {
		return nil, newExecError("selecting friends", sql, err, args...)
	}

	return friends, nil
}
