package feed

import (
	"errors"
	"sync"

	"backend-ripple/internal/story"
	"backend-ripple/internal/user"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, stories *story.Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		cursor := ParseCursor(c.Query("cursorCreatedAt"), c.Query("cursorId"))

		page, err := svc.GetFeedPage(c.Context(), userID, c.QueryInt("limit"), cursor)
		if err != nil {
			return mapFeedError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": page})
	})

	// Overview fans in two independent reads: the active stories rail and the
	// first-class paginated feed. They share no pagination state.
	r.Get("/overview", authMiddleware, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		cursor := ParseCursor(c.Query("cursorCreatedAt"), c.Query("cursorId"))
		limit := c.QueryInt("limit")

		var (
			wg       sync.WaitGroup
			page     Page
			groups   []story.Group
			pageErr  error
			storyErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			page, pageErr = svc.GetFeedPage(c.Context(), userID, limit, cursor)
		}()
		go func() {
			defer wg.Done()
			groups, storyErr = stories.FeedForUser(c.Context(), userID)
		}()
		wg.Wait()

		if pageErr != nil {
			return mapFeedError(pageErr)
		}
		if storyErr != nil {
			return mapFeedError(storyErr)
		}
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
			"stories":    groups,
			"posts":      page.Posts,
			"nextCursor": page.NextCursor,
		}})
	})
}

func mapFeedError(err error) error {
	switch {
	case errors.Is(err, user.ErrInvalidUser):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
