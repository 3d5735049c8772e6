package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	debtDomain "github.com/owetally/tally/debt"
	friendDomain "github.com/owetally/tally/friend"
	notificationDomain "github.com/owetally/tally/notification"
)

type fakeDebtStore struct {
	debts            map[string]*debtDomain.Debt
	updateCalls      int
	failUpdateStatus bool
}

func newFakeDebtStore() *fakeDebtStore {
	return &fakeDebtStore{debts: make(map[string]*debtDomain.Debt)}
}

func (f *fakeDebtStore) AddDebt(_ context.Context, d *debtDomain.Debt) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	copied := *d
	f.debts[d.ID] = &copied
	return nil
}

func (f *fakeDebtStore) GetDebt(_ context.Context, id string) (*debtDomain.Debt, error) {
	d, ok := f.debts[id]
	if !ok {
		return nil, &debtDomain.ErrNotFound{ID: id}
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDebtStore) UpdateStatus(_ context.Context, id string, status debtDomain.Status) error {
	f.updateCalls++
	if f.failUpdateStatus {
		return fmt.Errorf("simulated store failure")
	}
	d, ok := f.debts[id]
	if !ok {
		return &debtDomain.ErrNotFound{ID: id}
	}
	d.Status = status
	return nil
}

func (f *fakeDebtStore) RemoveDebt(_ context.Context, id string) error {
	delete(f.debts, id)
	return nil
}

func (f *fakeDebtStore) ListDebtsForUser(_ context.Context, userID string) ([]*debtDomain.Debt, error) {
	var debts []*debtDomain.Debt
	for _, d := range f.debts {
		if d.LenderID == userID || d.BorrowerID == userID {
			copied := *d
			debts = append(debts, &copied)
		}
	}
	return debts, nil
}

type fakeNotificationStore struct {
	notifications map[string]*notificationDomain.Notification
	debtStore     *fakeDebtStore
	resolveCalls  int
	failResolve   bool
	failAdd       bool
}

func newFakeNotificationStore(debtStore *fakeDebtStore) *fakeNotificationStore {
	return &fakeNotificationStore{
		notifications: make(map[string]*notificationDomain.Notification),
		debtStore:     debtStore,
	}
}

func (f *fakeNotificationStore) AddNotification(_ context.Context, n *notificationDomain.Notification) error {
	if f.failAdd {
		return fmt.Errorf("simulated store failure")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	copied := *n
	f.notifications[n.ID] = &copied
	return nil
}

func (f *fakeNotificationStore) GetNotification(_ context.Context, id string) (*notificationDomain.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, &notificationDomain.ErrNotFound{ID: id}
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNotificationStore) ListNotificationsForUser(_ context.Context, userID string) ([]*notificationDomain.Notification, error) {
	var notifications []*notificationDomain.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			copied := *n
			notifications = append(notifications, &copied)
		}
	}
	return notifications, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id string) error {
	n, ok := f.notifications[id]
	if !ok {
		return &notificationDomain.ErrNotFound{ID: id}
	}
	n.Read = true
	return nil
}

func (f *fakeNotificationStore) RemoveNotification(_ context.Context, id string) error {
	delete(f.notifications, id)
	return nil
}

func (f *fakeNotificationStore) RemoveNotificationsForDebt(_ context.Context, debtID string) error {
	for id, n := range f.notifications {
		if n.RelatedDebtID == debtID {
			delete(f.notifications, id)
		}
	}
	return nil
}

// ResolveDebtConfirmation mimics the store's transactional contract: on
// failure neither the debt nor the notification changes.
func (f *fakeNotificationStore) ResolveDebtConfirmation(_ context.Context, notificationID, debtID string, status debtDomain.Status) error {
	f.resolveCalls++
	if f.failResolve {
		return fmt.Errorf("simulated store failure")
	}

	n, ok := f.notifications[notificationID]
	if !ok {
		return &notificationDomain.ErrNotFound{ID: notificationID}
	}
	if debtID != "" {
		if d, ok := f.debtStore.debts[debtID]; ok {
			d.Status = status
		}
	}
	n.Read = true
	return nil
}

func (f *fakeNotificationStore) forUser(userID string) []*notificationDomain.Notification {
	notifications, _ := f.ListNotificationsForUser(context.Background(), userID)
	return notifications
}

type fakeFriendStore struct {
	friends map[string][]*friendDomain.Friend
}

func newFakeFriendStore() *fakeFriendStore {
	return &fakeFriendStore{friends: make(map[string][]*friendDomain.Friend)}
}

func (f *fakeFriendStore) AddFriend(_ context.Context, friend *friendDomain.Friend) error {
	f.friends[friend.UserID] = append(f.friends[friend.UserID], friend)
	return nil
}

func (f *fakeFriendStore) ListFriends(_ context.Context, userID string) ([]*friendDomain.Friend, error) {
	return f.friends[userID], nil
}

type serviceTest struct {
	service           *Service
	debtStore         *fakeDebtStore
	notificationStore *fakeNotificationStore
	friendStore       *fakeFriendStore
}

func newServiceTest(t *testing.T) *serviceTest {
	debtStore := newFakeDebtStore()
	notificationStore := newFakeNotificationStore(debtStore)
	friendStore := newFakeFriendStore()

	h, err := New(Config{SearchLimit: 5, SearchMinimumScore: 50}, debtStore, notificationStore, friendStore)
	require.NoError(t, err)

	return &serviceTest{
		service:           h,
		debtStore:         debtStore,
		notificationStore: notificationStore,
		friendStore:       friendStore,
	}
}

var (
	lender   = Actor{ID: "lender-1", Name: "Lena Lender"}
	borrower = Actor{ID: "borrower-1", Name: "Bob Borrower"}
	stranger = Actor{ID: "stranger-1", Name: "Sam Stranger"}
)

func dummyCreateRequest() CreateDebtRequest {
	return CreateDebtRequest{
		BorrowerID:   borrower.ID,
		BorrowerName: borrower.Name,
		Amount:       20,
		Description:  "lunch",
		DueDate:      time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}
