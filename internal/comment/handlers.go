package comment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:postID", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		cm, err := svc.Create(c.Context(), c.Params("postID"), c.Locals("user_id").(string), body.Text)
		if err != nil {
			return mapCommentError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cm})
	})

	r.Get("/:postID", authMiddleware, func(c *fiber.Ctx) error {
		comments, err := svc.ListByPost(c.Context(), c.Params("postID"), c.QueryInt("limit"))
		if err != nil {
			return mapCommentError(err)
		}
		return c.JSON(fiber.Map{"success": true, "data": comments})
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id"), c.Locals("user_id").(string)); err != nil {
			return mapCommentError(err)
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

func mapCommentError(err error) error {
	switch {
	case errors.Is(err, ErrTextRequired), errors.Is(err, ErrTextTooLong):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrCommentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
