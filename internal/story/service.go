package story

import (
	"context"
	"errors"
	"time"

	"backend-ripple/internal/db"
	"backend-ripple/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const storyTTL = 24 * time.Hour

var (
	ErrStoryNotFound = errors.New("story not found")
	ErrForbidden     = errors.New("forbidden")
	ErrMediaRequired = errors.New("media is required")
)

type Service struct {
	db    db.Querier
	graph *user.Service
}

func NewService(dbq db.Querier, graph *user.Service) *Service {
	return &Service{db: dbq, graph: graph}
}

func (s *Service) Create(ctx context.Context, authorID, mediaURL, mediaType string) (Story, error) {
	if err := s.graph.Exists(ctx, authorID); err != nil {
		return Story{}, err
	}
	if mediaURL == "" {
		return Story{}, ErrMediaRequired
	}
	if mediaType == "" {
		mediaType = "image"
	}

	story := Story{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		MediaURL:  mediaURL,
		MediaType: mediaType,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO stories (id, author_id, media_url, media_type, expires_at)
		VALUES ($1,$2,$3,$4, now() + $5::interval)
		RETURNING created_at, expires_at
	`, story.ID, story.AuthorID, story.MediaURL, story.MediaType, storyTTL.String())
	if err := row.Scan(&story.CreatedAt, &story.ExpiresAt); err != nil {
		return Story{}, err
	}
	return story, nil
}

// FeedForUser groups the active stories of the user and everyone they follow
// per author, authors with the freshest story first.
func (s *Service) FeedForUser(ctx context.Context, userID string) ([]Group, error) {
	if err := s.graph.Exists(ctx, userID); err != nil {
		return nil, err
	}
	following, err := s.graph.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	authorIDs := append(following, userID)

	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.author_id, s.media_url, s.media_type, s.created_at, s.expires_at,
		       u.name, u.avatar_url
		FROM stories s
		JOIN users u ON u.id = s.author_id
		WHERE s.author_id = ANY($1) AND s.expires_at > now()
		ORDER BY s.created_at DESC
	`, authorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []Group{}
	index := map[string]int{}
	for rows.Next() {
		var st Story
		var name, avatar string
		if err := rows.Scan(&st.ID, &st.AuthorID, &st.MediaURL, &st.MediaType, &st.CreatedAt, &st.ExpiresAt, &name, &avatar); err != nil {
			return nil, err
		}
		i, ok := index[st.AuthorID]
		if !ok {
			i = len(groups)
			index[st.AuthorID] = i
			groups = append(groups, Group{AuthorID: st.AuthorID, AuthorName: name, AuthorAvatarURL: avatar})
		}
		groups[i].Stories = append(groups[i].Stories, st)
	}
	return groups, rows.Err()
}

// View records that viewer saw the story and refreshes the pairwise
// interaction used by feed ranking. Only the author and their followers may
// view.
func (s *Service) View(ctx context.Context, storyID, viewerID string) error {
	var authorID string
	err := s.db.QueryRow(ctx, `
		SELECT author_id FROM stories WHERE id=$1 AND expires_at > now()
	`, storyID).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStoryNotFound
	}
	if err != nil {
		return err
	}

	if viewerID != authorID {
		following, err := s.graph.Following(ctx, viewerID)
		if err != nil {
			return err
		}
		allowed := false
		for _, id := range following {
			if id == authorID {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrForbidden
		}
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO story_views (story_id, viewer_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, storyID, viewerID); err != nil {
		return err
	}

	return s.graph.RecordInteraction(ctx, viewerID, authorID)
}

func (s *Service) Delete(ctx context.Context, storyID, userID string) error {
	var authorID string
	err := s.db.QueryRow(ctx, `SELECT author_id FROM stories WHERE id=$1`, storyID).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStoryNotFound
	}
	if err != nil {
		return err
	}
	if authorID != userID {
		return ErrForbidden
	}
	_, err = s.db.Exec(ctx, `DELETE FROM stories WHERE id=$1`, storyID)
	return err
}
