package api

import "time"

// Author carries the display fields of a post's author.
type Author struct {
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// AuthorDetail adds the avatar for single-post responses.
type AuthorDetail struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PostSummary is the list-view shape of a post.
type PostSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Excerpt       string    `json:"excerpt"`
	FeaturedImage string    `json:"featured_image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Slug          string    `json:"slug"`
	Published     bool      `json:"published"`
	Author        *Author   `json:"author,omitempty"`
}

// PostDetail is the full body of a single post.
type PostDetail struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Excerpt       string        `json:"excerpt"`
	FeaturedImage string        `json:"featured_image,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	AuthorID      string        `json:"author_id"`
	Published     bool          `json:"published"`
	Slug          string        `json:"slug"`
	Author        *AuthorDetail `json:"author,omitempty"`

	// ImageError is set when the post was saved but its image upload
	// failed; the client offers a manual retry.
	ImageError string `json:"image_error,omitempty"`
}
