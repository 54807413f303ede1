package domain

import (
	"context"
	"time"
)

// Post represents a single authored article with draft/published state.
// A published post is visible to everyone; a draft is visible only to its
// author. AuthorID is immutable after creation.
type Post struct {
	ID            string
	Title         string
	Excerpt       string
	Content       string
	FeaturedImage string // public URL; empty means no image
	AuthorID      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Published     bool
	Slug          string
}

// PostRepository is the persistence boundary for posts.
// Implementations return ErrNotFound for missing keys and ErrDuplicateSlug
// when the unique slug constraint is violated.
type PostRepository interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*Post, error)
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id string) error

	// ListPublished returns published posts ordered by created time descending.
	ListPublished(ctx context.Context) ([]*Post, error)

	// ListByAuthor returns all posts owned by the given author, drafts
	// included, ordered by created time descending.
	ListByAuthor(ctx context.Context, authorID string) ([]*Post, error)
}
