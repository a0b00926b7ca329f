package post

import (
	"context"
	"errors"
	"regexp"
	"time"

	"backend-ripple/internal/db"
	"backend-ripple/internal/feed"
	"backend-ripple/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	maxTextLength = 5000
	maxImages     = 10
	maxVideos     = 5
	maxMediaTotal = 10

	fanoutTimeout = 30 * time.Second
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("forbidden")

	ErrTextTooLong   = errors.New("text exceeds 5000 characters")
	ErrTooManyImages = errors.New("too many images")
	ErrTooManyVideos = errors.New("too many videos")
	ErrTooManyMedia  = errors.New("too many media items")
	ErrBadImageURL   = errors.New("invalid image format")
	ErrBadVideoURL   = errors.New("invalid video format")
	ErrBadPrivacy    = errors.New("invalid privacy value")
)

var (
	imageExtPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)$`)
	videoExtPattern = regexp.MustCompile(`(?i)\.(mp4|mov|webm)$`)
)

// spawn runs fire-and-forget side effects. Tests swap it for a synchronous
// runner.
var spawn = func(fn func()) { go fn() }

type Service struct {
	db   db.Querier
	feed *feed.Service
	log  zerolog.Logger
}

func NewService(dbq db.Querier, feedSvc *feed.Service, log zerolog.Logger) *Service {
	return &Service{db: dbq, feed: feedSvc, log: log}
}

// Create validates and stores the post, then hands fan-out and cache
// invalidation to a detached task. The write succeeds even when feed
// propagation fails; affected readers fall back to the ranked path.
func (s *Service) Create(ctx context.Context, authorID string, req CreateRequest) (Post, error) {
	if _, err := uuid.Parse(authorID); err != nil {
		return Post{}, user.ErrInvalidUser
	}
	if err := validateContent(req.Text, req.Images, req.Videos); err != nil {
		return Post{}, err
	}
	privacy := req.Privacy
	if privacy == "" {
		privacy = "public"
	}
	if privacy != "public" && privacy != "friends" {
		return Post{}, ErrBadPrivacy
	}

	p := Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Text:     req.Text,
		Images:   req.Images,
		Videos:   req.Videos,
		Privacy:  privacy,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, text, images, videos, privacy)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at
	`, p.ID, p.AuthorID, p.Text, p.Images, p.Videos, p.Privacy)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Post{}, err
	}

	if s.feed != nil {
		ref := feed.PostRef{ID: p.ID, AuthorID: p.AuthorID, CreatedAt: p.CreatedAt}
		spawn(func() {
			ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
			defer cancel()
			inserted, err := s.feed.FanOutPost(ctx, ref)
			if err != nil {
				s.log.Warn().Err(err).Str("post_id", ref.ID).Msg("post fan-out failed")
				return
			}
			s.log.Debug().Str("post_id", ref.ID).Int("inserted", inserted).Msg("post fanned out")
		})
	}
	return p, nil
}

func validateContent(text string, images, videos []string) error {
	if len(text) > maxTextLength {
		return ErrTextTooLong
	}
	if len(images) > maxImages {
		return ErrTooManyImages
	}
	if len(videos) > maxVideos {
		return ErrTooManyVideos
	}
	if len(images)+len(videos) > maxMediaTotal {
		return ErrTooManyMedia
	}
	for _, url := range images {
		if !imageExtPattern.MatchString(url) {
			return ErrBadImageURL
		}
	}
	for _, url := range videos {
		if !videoExtPattern.MatchString(url) {
			return ErrBadVideoURL
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, postID string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, author_id, text, images, videos, privacy,
		       reactions_count, comments_count, shares_count, created_at, updated_at
		FROM posts WHERE id=$1
	`, postID)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrPostNotFound
	}
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) ListByAuthor(ctx context.Context, authorID string, page, limit int) ([]Post, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, author_id, text, images, videos, privacy,
		       reactions_count, comments_count, shares_count, created_at, updated_at
		FROM posts
		WHERE author_id=$1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, authorID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Service) Update(ctx context.Context, postID, userID string, req UpdateRequest) (Post, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != userID {
		return Post{}, ErrForbidden
	}

	if req.Text != nil {
		p.Text = *req.Text
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.Videos != nil {
		p.Videos = *req.Videos
	}
	if req.Privacy != nil {
		if *req.Privacy != "public" && *req.Privacy != "friends" {
			return Post{}, ErrBadPrivacy
		}
		p.Privacy = *req.Privacy
	}
	if err := validateContent(p.Text, p.Images, p.Videos); err != nil {
		return Post{}, err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE posts
		SET text=$2, images=$3, videos=$4, privacy=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, p.ID, p.Text, p.Images, p.Videos, p.Privacy)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		return Post{}, err
	}
	return p, nil
}

// Delete removes the post and cascades the feed index rows that referenced
// it, so stale entries cannot resurface deleted content on the fast path.
func (s *Service) Delete(ctx context.Context, postID, userID string) error {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != userID {
		return ErrForbidden
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, postID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM feed_entries WHERE post_id=$1`, postID); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("feed entry cascade failed")
	}
	return nil
}

type postScanner interface {
	Scan(dest ...any) error
}

func scanPost(row postScanner) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Text, &p.Images, &p.Videos, &p.Privacy,
		&p.ReactionsCount, &p.CommentsCount, &p.SharesCount, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
