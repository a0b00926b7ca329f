package server

import (
	"time"

	"backend-ripple/internal/auth"
	"backend-ripple/internal/comment"
	"backend-ripple/internal/config"
	"backend-ripple/internal/feed"
	"backend-ripple/internal/follow"
	"backend-ripple/internal/media"
	"backend-ripple/internal/message"
	"backend-ripple/internal/notification"
	"backend-ripple/internal/post"
	"backend-ripple/internal/reaction"
	"backend-ripple/internal/story"
	"backend-ripple/internal/stream"
	"backend-ripple/internal/user"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, log zerolog.Logger) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
	}

	registerRoutes(s, log)
	return s
}

func registerRoutes(s *Server, log zerolog.Logger) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	graph := user.NewService(s.DB)
	feedCache := feed.NewCache(s.Redis, time.Duration(s.Cfg.FeedCacheTTLSeconds)*time.Second, log)
	feedSvc := feed.NewService(s.DB, graph, feedCache, log, time.Duration(s.Cfg.FeedBackfillDays)*24*time.Hour)
	notifySvc := notification.NewService(s.DB, s.Stream)
	storySvc := story.NewService(s.DB, graph)
	postSvc := post.NewService(s.DB, feedSvc, log)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	user.RegisterRoutes(s.App.Group("/users"), graph, jwtMiddleware)
	post.RegisterRoutes(s.App.Group("/posts"), postSvc, jwtMiddleware)
	feed.RegisterRoutes(s.App.Group("/feed"), feedSvc, storySvc, jwtMiddleware)
	follow.RegisterRoutes(s.App.Group("/follows"), follow.NewService(s.DB, graph, notifySvc, feedSvc, log), jwtMiddleware)
	comment.RegisterRoutes(s.App.Group("/comments"), comment.NewService(s.DB, graph, notifySvc, log), jwtMiddleware)
	reaction.RegisterRoutes(s.App.Group("/reactions"), reaction.NewService(s.DB, graph, notifySvc, log), jwtMiddleware)
	story.RegisterRoutes(s.App.Group("/stories"), storySvc, jwtMiddleware)
	notification.RegisterRoutes(s.App.Group("/notifications"), notifySvc, jwtMiddleware)
	message.RegisterRoutes(s.App.Group("/messages"), message.NewService(s.DB, graph, s.Stream, log), jwtMiddleware)
	media.RegisterRoutes(s.App.Group("/media"), media.NewService(s.DB, ""), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
