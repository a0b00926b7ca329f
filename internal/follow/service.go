package follow

import (
	"context"
	"errors"
	"time"

	"backend-ripple/internal/db"
	"backend-ripple/internal/feed"
	"backend-ripple/internal/notification"
	"backend-ripple/internal/user"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSelfFollow = errors.New("cannot follow self")

const warmTimeout = 30 * time.Second

var spawn = func(fn func()) { go fn() }

type Service struct {
	db     db.Querier
	graph  *user.Service
	notify *notification.Service
	feed   *feed.Service
	log    zerolog.Logger
}

func NewService(dbq db.Querier, graph *user.Service, notify *notification.Service, feedSvc *feed.Service, log zerolog.Logger) *Service {
	return &Service{db: dbq, graph: graph, notify: notify, feed: feedSvc, log: log}
}

// Follow creates the edge and eagerly warms the follower's feed index in a
// detached task so the followee's recent posts show up on the fast path.
func (s *Service) Follow(ctx context.Context, currentID, targetID string) (bool, error) {
	if _, err := uuid.Parse(currentID); err != nil {
		return false, user.ErrInvalidUser
	}
	if _, err := uuid.Parse(targetID); err != nil {
		return false, user.ErrInvalidUser
	}
	if currentID == targetID {
		return false, ErrSelfFollow
	}
	if err := s.graph.Exists(ctx, targetID); err != nil {
		return false, err
	}
	if err := s.graph.Exists(ctx, currentID); err != nil {
		return false, err
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO user_follows (follower_id, following_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, currentID, targetID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := s.notify.Create(ctx, notification.Notification{
		RecipientID: targetID,
		ActorID:     currentID,
		Type:        "follow",
	}); err != nil {
		s.log.Warn().Err(err).Msg("follow notification failed")
	}

	if s.feed != nil {
		spawn(func() {
			ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
			defer cancel()
			if _, err := s.feed.BackfillUserFeed(ctx, currentID); err != nil {
				s.log.Warn().Err(err).Str("user_id", currentID).Msg("feed warm after follow failed")
			}
		})
	}

	if err := s.graph.RecordInteraction(ctx, currentID, targetID); err != nil {
		s.log.Warn().Err(err).Msg("follow interaction update failed")
	}
	return true, nil
}

func (s *Service) Unfollow(ctx context.Context, currentID, targetID string) (bool, error) {
	if currentID == targetID {
		return false, ErrSelfFollow
	}
	tag, err := s.db.Exec(ctx, `
		DELETE FROM user_follows WHERE follower_id=$1 AND following_id=$2
	`, currentID, targetID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
