package post

import (
	"errors"

	"backend-ripple/internal/user"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Create(c.Context(), c.Locals("user_id").(string), req)
		if err != nil {
			return mapPostError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": p})
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return mapPostError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": p})
	})

	r.Get("/user/:id", authMiddleware, func(c *fiber.Ctx) error {
		posts, err := svc.ListByAuthor(c.Context(), c.Params("id"), c.QueryInt("page"), c.QueryInt("limit"))
		if err != nil {
			return mapPostError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": posts})
	})

	r.Patch("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Update(c.Context(), c.Params("id"), c.Locals("user_id").(string), req)
		if err != nil {
			return mapPostError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": p})
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id"), c.Locals("user_id").(string)); err != nil {
			return mapPostError(err)
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

func mapPostError(err error) error {
	switch {
	case errors.Is(err, ErrPostNotFound), errors.Is(err, user.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, user.ErrInvalidUser),
		errors.Is(err, ErrTextTooLong),
		errors.Is(err, ErrTooManyImages),
		errors.Is(err, ErrTooManyVideos),
		errors.Is(err, ErrTooManyMedia),
		errors.Is(err, ErrBadImageURL),
		errors.Is(err, ErrBadVideoURL),
		errors.Is(err, ErrBadPrivacy):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
