package user

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func passthrough(c *fiber.Ctx) error { return c.Next() }

func TestUserRoutes(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT u.id, u.name, u.email, u.avatar_url, u.created_at`).
		WithArgs(userA).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "avatar_url", "created_at", "followers", "following"}).
			AddRow(userA, "Ada", "ada@example.com", "", time.Now(), 0, 0))
	mock.ExpectQuery(`SELECT following_id FROM user_follows`).
		WithArgs(userA).
		WillReturnRows(pgxmock.NewRows([]string{"following_id"}).AddRow(userB))
	mock.ExpectQuery(`SELECT follower_id FROM user_follows`).
		WithArgs(userA).
		WillReturnRows(pgxmock.NewRows([]string{"follower_id"}))

	app := fiber.New()
	RegisterRoutes(app.Group("/users"), NewService(mock), passthrough)

	for _, path := range []string{"/users/" + userA, "/users/" + userA + "/following", "/users/" + userA + "/followers"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		if err != nil || resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: %v %d", path, err, resp.StatusCode)
		}
	}
}

func TestUserProfileNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT u.id, u.name, u.email, u.avatar_url, u.created_at`).
		WithArgs(userA).
		WillReturnError(pgx.ErrNoRows)

	app := fiber.New()
	RegisterRoutes(app.Group("/users"), NewService(mock), passthrough)

	req := httptest.NewRequest(http.MethodGet, "/users/"+userA, nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUserProfileInvalidID(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/users"), NewService(nil), passthrough)

	req := httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
