package feed

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one row of the denormalized per-user feed index: recipient userID
// sees postID by authorID. (UserID, PostID) is unique; rows are written by
// fan-out and backfill, never updated.
type Entry struct {
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Cursor marks the last item of the previous page. Pages descend strictly by
// (created_at, id).
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// ParseCursor builds a cursor from raw query parameters. Anything malformed
// degrades to nil, meaning "start from the newest item".
func ParseCursor(createdAt, id string) *Cursor {
	if createdAt == "" || id == "" {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil
	}
	return &Cursor{CreatedAt: ts, ID: id}
}

func (c *Cursor) key() string {
	if c == nil {
		return "first"
	}
	return c.CreatedAt.UTC().Format(time.RFC3339Nano) + ":" + c.ID
}

type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Post is the feed's read model of a content-store post. Engagement counters
// are maintained elsewhere; the feed only reads them.
type Post struct {
	ID             string    `json:"id"`
	Author         Author    `json:"author"`
	Text           string    `json:"text"`
	Images         []string  `json:"images,omitempty"`
	Videos         []string  `json:"videos,omitempty"`
	Privacy        string    `json:"privacy"`
	ReactionsCount int       `json:"reactions_count"`
	CommentsCount  int       `json:"comments_count"`
	SharesCount    int       `json:"shares_count"`
	Score          int64     `json:"score,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Page struct {
	Posts      []Post  `json:"posts"`
	NextCursor *Cursor `json:"nextCursor"`
}

// PostRef is the slice of a post that fan-out needs.
type PostRef struct {
	ID        string
	AuthorID  string
	CreatedAt time.Time
}
