package post

import "time"

type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	Text           string    `json:"text"`
	Images         []string  `json:"images,omitempty"`
	Videos         []string  `json:"videos,omitempty"`
	Privacy        string    `json:"privacy"`
	ReactionsCount int       `json:"reactions_count"`
	CommentsCount  int       `json:"comments_count"`
	SharesCount    int       `json:"shares_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Text    string   `json:"text"`
	Images  []string `json:"images"`
	Videos  []string `json:"videos"`
	Privacy string   `json:"privacy"`
}

type UpdateRequest struct {
	Text    *string   `json:"text"`
	Images  *[]string `json:"images"`
	Videos  *[]string `json:"videos"`
	Privacy *string   `json:"privacy"`
}
