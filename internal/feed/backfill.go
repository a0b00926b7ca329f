package feed

import (
	"context"
)

// BackfillUserFeed rebuilds one user's feed index from posts by the user and
// everyone they follow, within the configured lookback window. Inserts ignore
// duplicates, so the operation is idempotent and safe to re-run; the returned
// count covers only genuinely new rows.
func (s *Service) BackfillUserFeed(ctx context.Context, userID string) (int, error) {
	if err := s.graph.Exists(ctx, userID); err != nil {
		return 0, err
	}
	following, err := s.graph.Following(ctx, userID)
	if err != nil {
		return 0, err
	}
	authorIDs := append(following, userID)
	since := s.now().Add(-s.lookback)

	rows, err := s.db.Query(ctx, `
		SELECT id, author_id, created_at
		FROM posts
		WHERE author_id = ANY($1) AND created_at >= $2
		ORDER BY created_at DESC
	`, authorIDs, since)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e := Entry{UserID: userID}
		if err := rows.Scan(&e.PostID, &e.AuthorID, &e.CreatedAt); err != nil {
			return 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	return s.insertEntries(ctx, entries), nil
}

// BackfillAllUsers repairs every user's index sequentially so the content
// store is not hammered by a parallel rebuild.
func (s *Service) BackfillAllUsers(ctx context.Context) (int, error) {
	userIDs, err := s.graph.AllUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, userID := range userIDs {
		inserted, err := s.BackfillUserFeed(ctx, userID)
		if err != nil {
			return total, err
		}
		total += inserted
	}
	return total, nil
}
