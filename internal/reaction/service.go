package reaction

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

var (
	ErrPostNotFound = errors.New("post not found")
	ErrBadType      = errors.New("invalid reaction type")
)

var allowedTypes = map[string]bool{
	"like": true, "love": true, "haha": true, "wow": true, "sad": true, "angry": true,
}

type Service struct {
	db     db.Querier
	graph  *user.Service
	notify *notification.Service
	log    zerolog.Logger
}

func NewService(dbq db.Querier, graph *user.Service, notify *notification.Service, log zerolog.Logger) *Service {
	return &Service{db: dbq, graph: graph, notify: notify, log: log}
}

// React upserts the user's reaction on a post. The counter moves only when a
// brand new reaction lands; changing type keeps the count stable.
func (s *Service) React(ctx context.Context, postID, userID, reactionType string) error {
	if !allowedTypes[reactionType] {
		return ErrBadType
	}

	var postAuthorID string
	err := s.db.QueryRow(ctx, `SELECT author_id FROM posts WHERE id=$1`, postID).Scan(&postAuthorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO reactions (id, post_id, user_id, type)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, uuid.NewString(), postID, userID, reactionType)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		_, err = s.db.Exec(ctx, `
			UPDATE reactions SET type=$3 WHERE post_id=$1 AND user_id=$2
		`, postID, userID, reactionType)
		return err
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE posts SET reactions_count = reactions_count + 1 WHERE id=$1
	`, postID); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("reaction counter update failed")
	}

	if _, err := s.notify.Create(ctx, notification.Notification{
		RecipientID: postAuthorID,
		ActorID:     userID,
		Type:        "reaction",
		RefID:       postID,
	}); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("reaction notification failed")
	}
	if err := s.graph.RecordInteraction(ctx, userID, postAuthorID); err != nil {
		s.log.Warn().Err(err).Msg("reaction interaction update failed")
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, postID, userID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM reactions WHERE post_id=$1 AND user_id=$2
	`, postID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE posts SET reactions_count = GREATEST(reactions_count - 1, 0) WHERE id=$1
	`, postID); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("reaction counter update failed")
	}
	return nil
}
