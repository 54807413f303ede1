package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/inkpress/inkpress/blog/domain"
	"github.com/inkpress/inkpress/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements domain.PostRepository on SQLite.
type SQLitePostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{db: db}
}

const insertPostQuery = `
	INSERT INTO posts (id, title, excerpt, content, featured_image, author_id, created_at, updated_at, published, slug)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (r *SQLitePostRepository) CreatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("post ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, insertPostQuery,
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

const selectPostColumns = `id, title, excerpt, content, featured_image, author_id, created_at, updated_at, published, slug`

const getPostQuery = `
	SELECT ` + selectPostColumns + `
	FROM posts
	WHERE id = ?
`

func (r *SQLitePostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("post ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	return scanPost(executor.QueryRowContext(ctx, getPostQuery, id))
}

const getPostBySlugQuery = `
	SELECT ` + selectPostColumns + `
	FROM posts
	WHERE slug = ?
`

func (r *SQLitePostRepository) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	if slug == "" {
		return nil, fmt.Errorf("slug cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	return scanPost(executor.QueryRowContext(ctx, getPostBySlugQuery, slug))
}

const updatePostQuery = `
	UPDATE posts
	SET title = ?, excerpt = ?, content = ?, featured_image = ?, updated_at = ?, published = ?
	WHERE id = ?
`

// UpdatePost persists mutable fields. AuthorID, CreatedAt, and the slug are
// deliberately not part of the statement.
func (r *SQLitePostRepository) UpdatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("post ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, updatePostQuery,
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

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post %s: %w", p.ID, domain.ErrNotFound)
	}

	return nil
}

// DeletePost removes the post permanently. Deleting an absent post is
// reported as ErrNotFound.
func (r *SQLitePostRepository) DeletePost(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("post ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

const listPublishedQuery = `
	SELECT ` + selectPostColumns + `
	FROM posts
	WHERE published = 1
	ORDER BY created_at DESC
`

func (r *SQLitePostRepository) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, listPublishedQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

const listByAuthorQuery = `
	SELECT ` + selectPostColumns + `
	FROM posts
	WHERE author_id = ?
	ORDER BY created_at DESC
`

func (r *SQLitePostRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	if authorID == "" {
		return nil, fmt.Errorf("author ID cannot be empty")
	}

	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, listByAuthorQuery, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// postRow is a private struct used to scan database rows, handling the
// nullable featured_image column.
type postRow struct {
	ID            string
	Title         string
	Excerpt       string
	Content       string
	FeaturedImage sql.NullString
	AuthorID      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Published     bool
	Slug          string
}

func (pr *postRow) toDomain() *domain.Post {
	post := &domain.Post{
		ID:        pr.ID,
		Title:     pr.Title,
		Excerpt:   pr.Excerpt,
		Content:   pr.Content,
		AuthorID:  pr.AuthorID,
		CreatedAt: pr.CreatedAt,
		UpdatedAt: pr.UpdatedAt,
		Published: pr.Published,
		Slug:      pr.Slug,
	}
	if pr.FeaturedImage.Valid {
		post.FeaturedImage = pr.FeaturedImage.String
	}
	return post
}

func scanPost(row *sql.Row) (*domain.Post, error) {
	var pr postRow
	err := row.Scan(
		&pr.ID,
		&pr.Title,
		&pr.Excerpt,
		&pr.Content,
		&pr.FeaturedImage,
		&pr.AuthorID,
		&pr.CreatedAt,
		&pr.UpdatedAt,
		&pr.Published,
		&pr.Slug,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("post: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	return pr.toDomain(), nil
}

func collectPosts(rows *sql.Rows) ([]*domain.Post, error) {
	posts := make([]*domain.Post, 0)
	for rows.Next() {
		var pr postRow
		err := rows.Scan(
			&pr.ID,
			&pr.Title,
			&pr.Excerpt,
			&pr.Content,
			&pr.FeaturedImage,
			&pr.AuthorID,
			&pr.CreatedAt,
			&pr.UpdatedAt,
			&pr.Published,
			&pr.Slug,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, pr.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isSlugConflict matches the driver's unique-constraint failure on the
// slug column.
func isSlugConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: posts.slug")
}
