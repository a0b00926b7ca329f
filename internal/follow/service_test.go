package follow

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-ripple/internal/feed"
	"backend-ripple/internal/notification"
	"backend-ripple/internal/user"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
)

const (
	userA = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	userB = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	postX = "11111111-1111-1111-1111-111111111111"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

func newTestService(mock pgxmock.PgxPoolIface, withFeed bool) *Service {
	graph := user.NewService(mock)
	var feedSvc *feed.Service
	if withFeed {
		feedSvc = feed.NewService(mock, graph, nil, zerolog.Nop(), 30*24*time.Hour)
	}
	return NewService(mock, graph, notification.NewService(mock, nil), feedSvc, zerolog.Nop())
}

func syncSpawn(t *testing.T) {
	t.Helper()
	old := spawn
	spawn = func(fn func()) { fn() }
	t.Cleanup(func() { spawn = old })
}

func expectExists(mock pgxmock.PgxPoolIface, id string) {
	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))
}

func TestFollowWarmsFeed(t *testing.T) {
	syncSpawn(t)

	mock := newMock(t)
	defer mock.Close()

	expectExists(mock, userB)
	expectExists(mock, userA)
	mock.ExpectExec(`INSERT INTO user_follows`).
		WithArgs(userA, userB).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(pgxmock.AnyArg(), userB, userA, "follow", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	// detached feed warm
	expectExists(mock, userA)
	mock.ExpectQuery(`SELECT following_id FROM user_follows`).
		WithArgs(userA).
		WillReturnRows(pgxmock.NewRows([]string{"following_id"}).AddRow(userB))
	mock.ExpectQuery(`SELECT id, author_id, created_at`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "author_id", "created_at"}).
			AddRow(postX, userB, time.Now().Add(-time.Hour)))
	mock.ExpectExec(`INSERT INTO feed_entries`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec(`INSERT INTO user_interactions`).
		WithArgs(userA, userB).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	svc := newTestService(mock, true)
	followed, err := svc.Follow(context.Background(), userA, userB)
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if !followed {
		t.Fatalf("expected new edge")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFollowDuplicate(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	expectExists(mock, userB)
	expectExists(mock, userA)
	mock.ExpectExec(`INSERT INTO user_follows`).
		WithArgs(userA, userB).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	svc := newTestService(mock, false)
	followed, err := svc.Follow(context.Background(), userA, userB)
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if followed {
		t.Fatalf("expected duplicate to report false")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("duplicate must skip notification and warm: %v", err)
	}
}

func TestFollowSelf(t *testing.T) {
	svc := newTestService(nil, false)
	if _, err := svc.Follow(context.Background(), userA, userA); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected self follow error, got %v", err)
	}
}

func TestFollowInvalidIDs(t *testing.T) {
	svc := newTestService(nil, false)
	if _, err := svc.Follow(context.Background(), "nope", userB); !errors.Is(err, user.ErrInvalidUser) {
		t.Fatalf("expected invalid user, got %v", err)
	}
	if _, err := svc.Follow(context.Background(), userA, "nope"); !errors.Is(err, user.ErrInvalidUser) {
		t.Fatalf("expected invalid user, got %v", err)
	}
}

func TestFollowUnknownTarget(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(userB).
		WillReturnError(pgx.ErrNoRows)

	svc := newTestService(mock, false)
	if _, err := svc.Follow(context.Background(), userA, userB); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestUnfollow(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM user_follows`).
		WithArgs(userA, userB).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	svc := newTestService(mock, false)
	unfollowed, err := svc.Unfollow(context.Background(), userA, userB)
	if err != nil || !unfollowed {
		t.Fatalf("unfollow: %v %v", unfollowed, err)
	}
}

func TestUnfollowAbsentEdge(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM user_follows`).
		WithArgs(userA, userB).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	svc := newTestService(mock, false)
	unfollowed, err := svc.Unfollow(context.Background(), userA, userB)
	if err != nil || unfollowed {
		t.Fatalf("expected false for absent edge: %v %v", unfollowed, err)
	}
}
