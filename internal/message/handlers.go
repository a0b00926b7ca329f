package message

import (
	"errors"

	"backend-ripple/internal/user"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:recipientID", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		msg, err := svc.Send(c.Context(), c.Locals("user_id").(string), c.Params("recipientID"), body.Text)
		if err != nil {
			return mapMessageError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": msg})
	})

	r.Get("/conversations", authMiddleware, func(c *fiber.Ctx) error {
		convs, err := svc.ListConversations(c.Context(), c.Locals("user_id").(string))
		if err != nil {
			return mapMessageError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": convs})
	})

	r.Get("/conversations/:id", authMiddleware, func(c *fiber.Ctx) error {
		msgs, err := svc.ListMessages(c.Context(), c.Params("id"), c.Locals("user_id").(string), c.QueryInt("limit"))
		if err != nil {
			return mapMessageError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": msgs})
	})

	r.Post("/conversations/:id/read", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.MarkRead(c.Context(), c.Params("id"), c.Locals("user_id").(string)); err != nil {
			return mapMessageError(err)
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

func mapMessageError(err error) error {
	switch {
	case errors.Is(err, ErrTextRequired), errors.Is(err, user.ErrInvalidUser):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConversationNotFound), errors.Is(err, user.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
