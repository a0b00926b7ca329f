package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-ripple/internal/story"
	"backend-ripple/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func authStub(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func TestFeedRoute(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()

	t1 := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	expectUserExists(mock, userA)
	mock.ExpectQuery(`SELECT user_id, post_id, author_id, created_at`).
		WithArgs(userA, 6).
		WillReturnRows(entryRows(Entry{UserID: userA, PostID: post1, AuthorID: userB, CreatedAt: t1}))
	mock.ExpectQuery(`SELECT p.id, p.author_id, p.text`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(postRows(Post{ID: post1, Author: Author{ID: userB}, CreatedAt: t1}))

	app := fiber.New()
	svc := newTestService(mock, nil)
	stories := story.NewService(mock, user.NewService(mock))
	RegisterRoutes(app.Group("/feed"), svc, stories, authStub(userA))

	req := httptest.NewRequest(http.MethodGet, "/feed/?limit=5", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("feed status: %v %d", err, resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
		Data    Page `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Data.Posts) != 1 || body.Data.Posts[0].ID != post1 {
		t.Fatalf("unexpected body: %+v", body)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFeedRouteCursorParams(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()

	cursorAt := time.Now().UTC().Truncate(time.Millisecond)

	expectUserExists(mock, userA)
	mock.ExpectQuery(`SELECT user_id, post_id, author_id, created_at`).
		WithArgs(userA, pgxmock.AnyArg(), post2, 11).
		WillReturnRows(entryRows())
	mock.ExpectQuery(`SELECT following_id FROM user_follows`).
		WithArgs(userA).
		WillReturnRows(pgxmock.NewRows([]string{"following_id"}))
	mock.ExpectQuery(`SELECT counterpart_id, interacted_at`).
		WithArgs(userA).
		WillReturnRows(pgxmock.NewRows([]string{"counterpart_id", "interacted_at"}))
	mock.ExpectQuery(`SELECT p.id, p.author_id, p.text`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), post2).
		WillReturnRows(postRows())

	app := fiber.New()
	svc := newTestService(mock, nil)
	stories := story.NewService(mock, user.NewService(mock))
	RegisterRoutes(app.Group("/feed"), svc, stories, authStub(userA))

	target := "/feed/?cursorCreatedAt=" + cursorAt.Format(time.RFC3339Nano) + "&cursorId=" + post2
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("feed status: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFeedRouteUnknownUser(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id FROM users`).
		WithArgs(userA).
		WillReturnError(pgx.ErrNoRows)

	app := fiber.New()
	svc := newTestService(mock, nil)
	stories := story.NewService(mock, user.NewService(mock))
	RegisterRoutes(app.Group("/feed"), svc, stories, authStub(userA))

	req := httptest.NewRequest(http.MethodGet, "/feed/", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestFeedRouteInvalidUser(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()

	app := fiber.New()
	svc := newTestService(mock, nil)
	stories := story.NewService(mock, user.NewService(mock))
	RegisterRoutes(app.Group("/feed"), svc, stories, authStub("not-a-uuid"))

	req := httptest.NewRequest(http.MethodGet, "/feed/", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestFeedOverviewRoute(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	// two concurrent reads share the pool
	mock.MatchExpectationsInOrder(false)

	t1 := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	expectUserExists(mock, userA)
	expectUserExists(mock, userA)
	mock.ExpectQuery(`SELECT user_id, post_id, author_id, created_at`).
		WithArgs(userA, 11).
		WillReturnRows(entryRows(Entry{UserID: userA, PostID: post1, AuthorID: userB, CreatedAt: t1}))
	mock.ExpectQuery(`SELECT p.id, p.author_id, p.text`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(postRows(Post{ID: post1, Author: Author{ID: userB}, CreatedAt: t1}))
	mock.ExpectQuery(`SELECT following_id FROM user_follows`).
		WithArgs(userA).
		WillReturnRows(pgxmock.NewRows([]string{"following_id"}).AddRow(userB))
	mock.ExpectQuery(`SELECT s.id, s.author_id, s.media_url`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "author_id", "media_url", "media_type", "created_at", "expires_at", "name", "avatar_url"}).
			AddRow(post3, userB, "https://cdn/story.jpg", "image", t1, t1.Add(24*time.Hour), "name", ""))

	app := fiber.New()
	svc := newTestService(mock, nil)
	stories := story.NewService(mock, user.NewService(mock))
	RegisterRoutes(app.Group("/feed"), svc, stories, authStub(userA))

	req := httptest.NewRequest(http.MethodGet, "/feed/overview", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("overview status: %v", err)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Stories    []story.Group `json:"stories"`
			Posts      []Post        `json:"posts"`
			NextCursor *Cursor       `json:"nextCursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Stories) != 1 || len(body.Data.Posts) != 1 {
		t.Fatalf("unexpected overview: %+v", body.Data)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
