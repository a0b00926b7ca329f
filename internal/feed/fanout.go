package feed

import (
	"context"
	"strconv"
	"strings"

	"backend-ripple/internal/metrics"
)

// FanOutPost materializes one feed index row per recipient (author plus all
// current followers) and then sweeps those users' cached pages. It is invoked
// off the post-creation request path: failures here degrade reads to the
// ranked fallback or to a stale cached page, never the write itself.
func (s *Service) FanOutPost(ctx context.Context, ref PostRef) (int, error) {
	followers, err := s.graph.Followers(ctx, ref.AuthorID)
	if err != nil {
		return 0, err
	}
	recipients := append(followers, ref.AuthorID)

	entries := make([]Entry, len(recipients))
	for i, userID := range recipients {
		entries[i] = Entry{
			UserID:    userID,
			PostID:    ref.ID,
			AuthorID:  ref.AuthorID,
			CreatedAt: ref.CreatedAt,
		}
	}
	inserted := s.insertEntries(ctx, entries)

	for _, userID := range recipients {
		if err := s.cache.InvalidateUser(ctx, userID); err != nil {
			metrics.FeedFanoutErrors.Inc()
			s.log.Warn().Err(err).Str("user_id", userID).Msg("feed cache sweep failed")
		}
	}
	return inserted, nil
}

// insertEntries writes index rows in batches, ignoring duplicates so re-runs
// and re-deliveries stay idempotent. A failed batch is logged and skipped;
// the remaining batches still go through.
func (s *Service) insertEntries(ctx context.Context, entries []Entry) int {
	inserted := 0
	for start := 0; start < len(entries); start += fanoutBatchSize {
		end := start + fanoutBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		sql, args := buildEntryInsert(batch)
		tag, err := s.db.Exec(ctx, sql, args...)
		if err != nil {
			metrics.FeedFanoutErrors.Inc()
			s.log.Warn().Err(err).Int("batch_size", len(batch)).Msg("feed entry batch insert failed")
			continue
		}
		inserted += int(tag.RowsAffected())
	}
	metrics.FeedEntriesInserted.Add(float64(inserted))
	return inserted
}

func buildEntryInsert(entries []Entry) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO feed_entries (user_id, post_id, author_id, created_at) VALUES `)

	args := make([]any, 0, len(entries)*4)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 4
		sb.WriteString("($" + strconv.Itoa(base+1) + ",$" + strconv.Itoa(base+2) +
			",$" + strconv.Itoa(base+3) + ",$" + strconv.Itoa(base+4) + ")")
		args = append(args, e.UserID, e.PostID, e.AuthorID, e.CreatedAt)
	}
	sb.WriteString(` ON CONFLICT (user_id, post_id) DO NOTHING`)
	return sb.String(), args
}
