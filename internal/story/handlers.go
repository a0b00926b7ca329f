package story

import (
	"errors"

	"backend-ripple/internal/user"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			MediaURL  string `json:"media_url"`
			MediaType string `json:"media_type"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		story, err := svc.Create(c.Context(), c.Locals("user_id").(string), body.MediaURL, body.MediaType)
		if err != nil {
			return mapStoryError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": story})
	})

	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		groups, err := svc.FeedForUser(c.Context(), c.Locals("user_id").(string))
		if err != nil {
			return mapStoryError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": groups})
	})

	r.Post("/:id/view", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.View(c.Context(), c.Params("id"), c.Locals("user_id").(string)); err != nil {
			return mapStoryError(err)
		}
		return c.JSON(fiber.Map{"success": true})
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id"), c.Locals("user_id").(string)); err != nil {
			return mapStoryError(err)
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

func mapStoryError(err error) error {
	switch {
	case errors.Is(err, user.ErrInvalidUser), errors.Is(err, ErrMediaRequired):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrUserNotFound), errors.Is(err, ErrStoryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
