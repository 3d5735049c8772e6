package service

import (
	"errors"
	"fmt"

	"github.com/owetally/tally/debt"
	"github.com/owetally/tally/friend"
	"github.com/owetally/tally/notification"
)

var (
	// ErrNotParty is returned when the acting user is neither the lender
	// nor the borrower of the debt they are trying to change.
	ErrNotParty = errors.New("actor is not a party to this debt")
	// ErrNotOwner is returned when the acting user tries to touch a
	// notification addressed to someone else.
	ErrNotOwner = errors.New("notification belongs to another user")
	// ErrNotConfirmation is returned when a resolve request targets a
	// notification that isn't a pending debt confirmation.
	ErrNotConfirmation = errors.New("notification is not a debt confirmation")
)

// Actor is the user performing an operation, passed explicitly into every
// call. The name is a display copy used in notification bodies.
type Actor struct {
	ID   string
	Name string
}

type Config struct {
	SearchLimit        int `env:"BORROWER_SEARCH_LIMIT" envDefault:"5"`
	SearchMinimumScore int `env:"BORROWER_SEARCH_MINIMUM_SCORE" envDefault:"50"`
}

type Service struct {
	cfg               Config
	debtStore         debt.Store
	notificationStore notification.Store
	friendStore       friend.Store
}

func New(cfg Config, debtStore debt.Store, notificationStore notification.Store, friendStore friend.Store) (*Service, error) {
	if debtStore == nil {
		return nil, fmt.Errorf("nil debtStore")
	}
	if notificationStore == nil {
		return nil, fmt.Errorf("nil notificationStore")
	}

	return &Service{
		cfg:               cfg,
		debtStore:         debtStore,
		notificationStore: notificationStore,
		friendStore:       friendStore,
	}, nil
}
