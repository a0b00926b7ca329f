package user

import (
	"context"
	"errors"
	"time"

	"backend-ripple/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidUser  = errors.New("invalid user")
	ErrUserNotFound = errors.New("user not found")
)

// Service is the social graph store: follow relationships and the pairwise
// interaction-recency map consumed by feed ranking.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Exists(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrInvalidUser
	}
	var id string
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE id=$1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return Profile{}, ErrInvalidUser
	}
	row := s.db.QueryRow(ctx, `
		SELECT u.id, u.name, u.email, u.avatar_url, u.created_at,
		       (SELECT COUNT(*) FROM user_follows WHERE following_id=u.id),
		       (SELECT COUNT(*) FROM user_follows WHERE follower_id=u.id)
		FROM users u WHERE u.id=$1
	`, userID)

	var p Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.AvatarURL, &p.CreatedAt, &p.FollowersCount, &p.FollowingCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrUserNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Following returns the set of user ids this user follows.
func (s *Service) Following(ctx context.Context, userID string) ([]string, error) {
	return s.collectIDs(ctx, `SELECT following_id FROM user_follows WHERE follower_id=$1`, userID)
}

// Followers returns the set of user ids following this user.
func (s *Service) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.collectIDs(ctx, `SELECT follower_id FROM user_follows WHERE following_id=$1`, userID)
}

// InteractionMap returns the last mutual-interaction time per counterpart.
func (s *Service) InteractionMap(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := s.db.Query(ctx, `
		SELECT counterpart_id, interacted_at FROM user_interactions WHERE user_id=$1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interactions := map[string]time.Time{}
	for rows.Next() {
		var counterpart string
		var at time.Time
		if err := rows.Scan(&counterpart, &at); err != nil {
			return nil, err
		}
		interactions[counterpart] = at
	}
	return interactions, rows.Err()
}

// RecordInteraction stamps "now" on both directions of a user pair. Called on
// comments, reactions, follows and story views; a no-op for self-interaction.
func (s *Service) RecordInteraction(ctx context.Context, userA, userB string) error {
	if userA == "" || userB == "" || userA == userB {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_interactions (user_id, counterpart_id, interacted_at)
		VALUES ($1,$2,now()), ($2,$1,now())
		ON CONFLICT (user_id, counterpart_id) DO UPDATE SET interacted_at = EXCLUDED.interacted_at
	`, userA, userB)
	return err
}

func (s *Service) AllUserIDs(ctx context.Context) ([]string, error) {
	return s.collectIDs(ctx, `SELECT id FROM users ORDER BY created_at`)
}

func (s *Service) collectIDs(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
