package friend

import (
	"context"
	"strings"
	"time"
)

// Friend is an asymmetric per-user relation. It exists to populate borrower
// search candidates when assigning a debt; it is not a party to any debt by
// itself.
type Friend struct {
	UserID    string    `db:"user_id" json:"user_id"`
	FriendID  string    `db:"friend_id" json:"friend_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (f *Friend) FullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}

type Store interface {
	AddFriend(ctx context.Context, friend *Friend) error
	ListFriends(ctx context.Context, userID string) ([]*Friend, error)
}
