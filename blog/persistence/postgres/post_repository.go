package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkpress/inkpress/blog/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ domain.PostRepository = (*PostRepository)(nil)

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// PostRepository implements domain.PostRepository on Postgres via pgx.
type PostRepository struct {
	db *pgxpool.Pool
}

func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `id, title, excerpt, content, featured_image, author_id, created_at, updated_at, published, slug`

func (r *PostRepository) CreatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Excerpt,
		p.Content,
		nullableString(p.FeaturedImage),
		p.AuthorID,
		p.CreatedAt,
		p.UpdatedAt,
		p.Published,
		p.Slug,
	)
	if err != nil {
		if isSlugConflict(err) {
			return fmt.Errorf("slug %q: %w", p.Slug, domain.ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

func (r *PostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return scanPost(r.db.QueryRow(ctx, query, id))
}

func (r *PostRepository) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1`
	return scanPost(r.db.QueryRow(ctx, query, slug))
}

func (r *PostRepository) UpdatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	query := `
		UPDATE posts
		SET title = $1, excerpt = $2, content = $3, featured_image = $4, updated_at = $5, published = $6
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query,
		p.Title,
		p.Excerpt,
		p.Content,
		nullableString(p.FeaturedImage),
		p.UpdatedAt,
		p.Published,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", p.ID, domain.ErrNotFound)
	}

	return nil
}

func (r *PostRepository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostRepository) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE published
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	var featuredImage *string

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Excerpt,
		&p.Content,
		&featuredImage,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Published,
		&p.Slug,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	if featuredImage != nil {
		p.FeaturedImage = *featuredImage
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]*domain.Post, error) {
	posts := make([]*domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}
	return posts, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isSlugConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
