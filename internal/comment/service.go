package comment

import (
	"context"
	"errors"

	"backend-ripple/internal/db"
	"backend-ripple/internal/notification"
	"backend-ripple/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const maxTextLength = 2000

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("forbidden")
	ErrTextRequired    = errors.New("text required")
	ErrTextTooLong     = errors.New("text exceeds 2000 characters")
)

type Service struct {
	db     db.Querier
	graph  *user.Service
	notify *notification.Service
	log    zerolog.Logger
}

func NewService(dbq db.Querier, graph *user.Service, notify *notification.Service, log zerolog.Logger) *Service {
	return &Service{db: dbq, graph: graph, notify: notify, log: log}
}

// Create stores the comment, bumps the post's counter and notifies the post
// author. Notification and interaction updates are best-effort.
func (s *Service) Create(ctx context.Context, postID, authorID, text string) (Comment, error) {
	if text == "" {
		return Comment{}, ErrTextRequired
	}
	if len(text) > maxTextLength {
		return Comment{}, ErrTextTooLong
	}

	var postAuthorID string
	err := s.db.QueryRow(ctx, `SELECT author_id FROM posts WHERE id=$1`, postID).Scan(&postAuthorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrPostNotFound
	}
	if err != nil {
		return Comment{}, err
	}

	cm := Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO comments (id, post_id, author_id, text)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, cm.ID, cm.PostID, cm.AuthorID, cm.Text)
	if err := row.Scan(&cm.CreatedAt); err != nil {
		return Comment{}, err
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE posts SET comments_count = comments_count + 1 WHERE id=$1
	`, postID); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("comment counter update failed")
	}

	if _, err := s.notify.Create(ctx, notification.Notification{
		RecipientID: postAuthorID,
		ActorID:     authorID,
		Type:        "comment",
		RefID:       postID,
	}); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("comment notification failed")
	}
	if err := s.graph.RecordInteraction(ctx, authorID, postAuthorID); err != nil {
		s.log.Warn().Err(err).Msg("comment interaction update failed")
	}
	return cm, nil
}

func (s *Service) ListByPost(ctx context.Context, postID string, limit int) ([]Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.post_id, c.author_id, u.name, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id=$1
		ORDER BY c.created_at DESC
		LIMIT $2
	`, postID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.AuthorID, &cm.AuthorName, &cm.Text, &cm.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}

func (s *Service) Delete(ctx context.Context, commentID, userID string) error {
	var authorID, postID string
	err := s.db.QueryRow(ctx, `SELECT author_id, post_id FROM comments WHERE id=$1`, commentID).Scan(&authorID, &postID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	if authorID != userID {
		return ErrForbidden
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id=$1`, commentID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE posts SET comments_count = GREATEST(comments_count - 1, 0) WHERE id=$1
	`, postID); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("comment counter update failed")
	}
	return nil
}
