package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

const (
	userA = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	userB = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

var errNotify = errors.New("notify error")

type recordingPublisher struct {
	userID string
	event  string
}

func (r *recordingPublisher) Publish(userID, event string, _ any) {
	r.userID = userID
	r.event = event
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

func TestCreateNotificationPublishes(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(pgxmock.AnyArg(), userB, userA, "follow", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	pub := &recordingPublisher{}
	svc := NewService(mock, pub)
	n, err := svc.Create(context.Background(), Notification{RecipientID: userB, ActorID: userA, Type: "follow"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID == "" {
		t.Fatalf("expected id")
	}
	if pub.userID != userB || pub.event != "notification:new" {
		t.Fatalf("expected live event for recipient, got %+v", pub)
	}
}

func TestCreateNotificationDropsSelf(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(nil, pub)

	n, err := svc.Create(context.Background(), Notification{RecipientID: userA, ActorID: userA, Type: "reaction"})
	if err != nil {
		t.Fatalf("self notification must be dropped silently: %v", err)
	}
	if n.ID != "" || pub.event != "" {
		t.Fatalf("expected no notification, got %+v", n)
	}
}

func TestCreateNotificationDBError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(pgxmock.AnyArg(), userB, userA, "comment", "p-1").
		WillReturnError(errNotify)

	svc := NewService(mock, nil)
	if _, err := svc.Create(context.Background(), Notification{RecipientID: userB, ActorID: userA, Type: "comment", RefID: "p-1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestListNotifications(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, recipient_id, actor_id, type`).
		WithArgs(userB, 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "recipient_id", "actor_id", "type", "ref_id", "read", "created_at"}).
			AddRow("n-1", userB, userA, "follow", "", false, now).
			AddRow("n-2", userB, userA, "comment", "p-1", true, now.Add(-time.Hour)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs(userB).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	svc := NewService(mock, nil)
	items, unread, err := svc.List(context.Background(), userB, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || unread != 1 {
		t.Fatalf("unexpected list: %d items, %d unread", len(items), unread)
	}
}

func TestMarkRead(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE notifications SET read=true WHERE id=`).
		WithArgs("n-1", userB).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock, nil)
	if err := svc.MarkRead(context.Background(), "n-1", userB); err != nil {
		t.Fatalf("mark read: %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE notifications SET read=true WHERE recipient_id=`).
		WithArgs(userB).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	svc := NewService(mock, nil)
	if err := svc.MarkAllRead(context.Background(), userB); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
}
