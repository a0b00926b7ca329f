package feed

import (
	"context"
	"sort"
	"time"

	"backend-ripple/internal/db"
	"backend-ripple/internal/metrics"
	"backend-ripple/internal/user"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50

	// The ranked fallback scans every candidate post since the cursor, so it
	// runs under its own deadline.
	rankQueryTimeout = 5 * time.Second

	fanoutBatchSize = 500
)

// Service builds personalized feed pages. Reads go cache -> feed index ->
// ranked fallback over the content store; writes (fan-out, backfill) populate
// the index idempotently.
type Service struct {
	db       db.Querier
	graph    *user.Service
	cache    *Cache
	log      zerolog.Logger
	lookback time.Duration

	now func() time.Time
}

func NewService(dbq db.Querier, graph *user.Service, cache *Cache, log zerolog.Logger, backfillLookback time.Duration) *Service {
	return &Service{
		db:       dbq,
		graph:    graph,
		cache:    cache,
		log:      log,
		lookback: backfillLookback,
		now:      time.Now,
	}
}

// GetFeedPage returns one page of the user's feed. Page order is stable for a
// fixed cursor: the feed index serves chronological fan-out order, and users
// without index rows get the ranked fallback. A cached page short-circuits
// everything below it, including the existence check.
func (s *Service) GetFeedPage(ctx context.Context, userID string, limit int, cursor *Cursor) (Page, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return Page{}, user.ErrInvalidUser
	}
	limit = clampLimit(limit)

	cacheKey := pageKey(userID, cursor, limit)
	if page, ok := s.cache.GetPage(ctx, cacheKey); ok {
		return page, nil
	}
	metrics.FeedCacheMisses.Inc()

	if err := s.graph.Exists(ctx, userID); err != nil {
		return Page{}, err
	}

	entries, err := s.indexEntries(ctx, userID, cursor, limit+1)
	if err != nil {
		return Page{}, err
	}

	var page Page
	if len(entries) > 0 {
		page, err = s.pageFromIndex(ctx, entries, limit)
	} else {
		page, err = s.pageFromRanking(ctx, userID, cursor, limit)
	}
	if err != nil {
		return Page{}, err
	}

	s.cache.SetPage(ctx, cacheKey, page)
	return page, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// indexEntries reads the feed index in (created_at, post_id) descending order
// with the cursor as an exclusive bound.
func (s *Service) indexEntries(ctx context.Context, userID string, cursor *Cursor, limit int) ([]Entry, error) {
	var (
		sql  string
		args []any
	)
	if cursor == nil {
		sql = `
			SELECT user_id, post_id, author_id, created_at
			FROM feed_entries
			WHERE user_id=$1
			ORDER BY created_at DESC, post_id DESC
			LIMIT $2
		`
		args = []any{userID, limit}
	} else {
		sql = `
			SELECT user_id, post_id, author_id, created_at
			FROM feed_entries
			WHERE user_id=$1 AND (created_at < $2 OR (created_at = $2 AND post_id < $3))
			ORDER BY created_at DESC, post_id DESC
			LIMIT $4
		`
		args = []any{userID, cursor.CreatedAt, cursor.ID, limit}
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.PostID, &e.AuthorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// pageFromIndex resolves index entries to posts, preserving index order.
// Entries whose post no longer exists (deleted content) are dropped from the
// page rather than surfaced.
func (s *Service) pageFromIndex(ctx context.Context, entries []Entry, limit int) (Page, error) {
	hasNext := len(entries) > limit
	if hasNext {
		entries = entries[:limit]
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.PostID
	}

	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.author_id, p.text, p.images, p.videos, p.privacy,
		       p.reactions_count, p.comments_count, p.shares_count, p.created_at, p.updated_at,
		       u.name, u.email, u.avatar_url
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = ANY($1)
	`, ids)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	byID := map[string]Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return Page{}, err
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	posts := make([]Post, 0, len(entries))
	for _, e := range entries {
		if p, ok := byID[e.PostID]; ok {
			posts = append(posts, p)
		}
	}

	page := Page{Posts: posts}
	if hasNext {
		last := entries[len(entries)-1]
		page.NextCursor = &Cursor{CreatedAt: last.CreatedAt, ID: last.PostID}
	}
	return page, nil
}

// pageFromRanking is the fan-out-on-read path: score every candidate post
// past the cursor and take the top of the ranking.
func (s *Service) pageFromRanking(ctx context.Context, userID string, cursor *Cursor, limit int) (Page, error) {
	metrics.FeedFallbackReads.Inc()

	following, err := s.graph.Following(ctx, userID)
	if err != nil {
		return Page{}, err
	}
	interactions, err := s.graph.InteractionMap(ctx, userID)
	if err != nil {
		return Page{}, err
	}
	authorIDs := append(following, userID)

	ctx, cancel := context.WithTimeout(ctx, rankQueryTimeout)
	defer cancel()

	posts, err := s.candidatePosts(ctx, authorIDs, cursor)
	if err != nil {
		return Page{}, err
	}

	now := s.now()
	for i := range posts {
		var interactedAt *time.Time
		if at, ok := interactions[posts[i].Author.ID]; ok {
			interactedAt = &at
		}
		posts[i].Score = scorePost(posts[i], interactedAt, now)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Score != posts[j].Score {
			return posts[i].Score > posts[j].Score
		}
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})

	hasNext := len(posts) > limit
	if hasNext {
		posts = posts[:limit]
	}

	page := Page{Posts: posts}
	if hasNext {
		last := posts[len(posts)-1]
		page.NextCursor = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return page, nil
}

func (s *Service) candidatePosts(ctx context.Context, authorIDs []string, cursor *Cursor) ([]Post, error) {
	var (
		sql  string
		args []any
	)
	if cursor == nil {
		sql = `
			SELECT p.id, p.author_id, p.text, p.images, p.videos, p.privacy,
			       p.reactions_count, p.comments_count, p.shares_count, p.created_at, p.updated_at,
			       u.name, u.email, u.avatar_url
			FROM posts p
			JOIN users u ON u.id = p.author_id
			WHERE p.author_id = ANY($1)
			ORDER BY p.created_at DESC, p.id DESC
		`
		args = []any{authorIDs}
	} else {
		sql = `
			SELECT p.id, p.author_id, p.text, p.images, p.videos, p.privacy,
			       p.reactions_count, p.comments_count, p.shares_count, p.created_at, p.updated_at,
			       u.name, u.email, u.avatar_url
			FROM posts p
			JOIN users u ON u.id = p.author_id
			WHERE p.author_id = ANY($1) AND (p.created_at < $2 OR (p.created_at = $2 AND p.id < $3))
			ORDER BY p.created_at DESC, p.id DESC
		`
		args = []any{authorIDs, cursor.CreatedAt, cursor.ID}
	}

	rows, err := s.db.Query(ctx, sql, args...)
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

// scorePost blends recency, engagement counters and the interaction boost.
// The boost starts at 10000 and decays linearly to zero over 168 hours.
func scorePost(p Post, interactedAt *time.Time, now time.Time) int64 {
	score := p.CreatedAt.UnixMilli() +
		int64(p.ReactionsCount)*1000 +
		int64(p.CommentsCount)*1500

	if interactedAt != nil {
		hours := now.Sub(*interactedAt).Hours()
		boost := (1 - hours/168) * 10000
		if boost > 0 {
			score += int64(boost)
		}
	}
	return score
}

type postScanner interface {
	Scan(dest ...any) error
}

func scanPost(row postScanner) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Author.ID, &p.Text, &p.Images, &p.Videos, &p.Privacy,
		&p.ReactionsCount, &p.CommentsCount, &p.SharesCount, &p.CreatedAt, &p.UpdatedAt,
		&p.Author.Name, &p.Author.Email, &p.Author.AvatarURL,
	)
	return p, err
}
