package media

import (
	"context"
	"time"

	"backend-ripple/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Service records uploaded media and hands back a serving URL. The actual
// object store sits behind a collaborator boundary; this keeps only the
// bookkeeping row.
type Service struct {
	db      db.Querier
	baseURL string
}

func NewService(dbq db.Querier, baseURL string) *Service {
	if baseURL == "" {
		baseURL = "https://media.example"
	}
	return &Service{db: dbq, baseURL: baseURL}
}

func (s *Service) SaveObject(ctx context.Context, userID, url, kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO media_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, url, kind)
	if err != nil {
		return "", err
	}
	return id, nil
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			FileName string `json:"file_name"`
			Kind     string `json:"kind"`
		}
		_ = c.BodyParser(&body)
		if body.FileName == "" {
			body.FileName = "upload"
		}
		url := svc.baseURL + "/" + body.FileName
		id, err := svc.SaveObject(c.Context(), c.Locals("user_id").(string), url, body.Kind)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"id":         id,
			"url":        url,
			"expires_at": time.Now().Add(15 * time.Minute),
		})
	})
}
