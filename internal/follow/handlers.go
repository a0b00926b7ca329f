package follow

import (
	"errors"

	"backend-ripple/internal/user"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:targetID", authMiddleware, func(c *fiber.Ctx) error {
		followed, err := svc.Follow(c.Context(), c.Locals("user_id").(string), c.Params("targetID"))
		if err != nil {
			return mapFollowError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{"followed": followed}})
	})

	r.Delete("/:targetID", authMiddleware, func(c *fiber.Ctx) error {
		unfollowed, err := svc.Unfollow(c.Context(), c.Locals("user_id").(string), c.Params("targetID"))
		if err != nil {
			return mapFollowError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"unfollowed": unfollowed}})
	})
}

func mapFollowError(err error) error {
	switch {
	case errors.Is(err, user.ErrInvalidUser), errors.Is(err, ErrSelfFollow):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
