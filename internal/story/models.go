package story

import "time"

type Story struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	MediaURL  string    `json:"media_url"`
	MediaType string    `json:"media_type"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Group is one author's active stories, newest first.
type Group struct {
	AuthorID        string  `json:"author_id"`
	AuthorName      string  `json:"author_name"`
	AuthorAvatarURL string  `json:"author_avatar_url,omitempty"`
	Stories         []Story `json:"stories"`
}
