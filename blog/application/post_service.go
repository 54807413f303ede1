package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/inkpress/inkpress/blog/domain"
	"github.com/rs/zerolog/log"
)

const (
	maxExcerptLen = 200

	// slugAttempts bounds the retry loop when a generated slug collides
	// with an existing one.
	slugAttempts = 3
)

// ImageUpload carries an uploaded file into the service layer.
type ImageUpload struct {
	Filename string
	Data     io.Reader
}

type CreatePostInput struct {
	Title     string
	Excerpt   string
	Content   string
	Published bool
	Image     *ImageUpload
}

// UpdatePostInput applies partial updates; nil pointers leave the field
// unchanged. RemoveImage clears the featured image when no replacement is
// supplied.
type UpdatePostInput struct {
	Title       *string
	Excerpt     *string
	Content     *string
	Published   *bool
	Image       *ImageUpload
	RemoveImage bool
}

// PostResult is the outcome of a create or update. ImageErr is non-nil when
// the image step failed but the rest of the mutation went through; the post
// is stored either way and the caller surfaces the upload failure.
type PostResult struct {
	Post     *domain.Post
	ImageErr error
}

// PostService orchestrates the post lifecycle: validation, slug generation,
// policy checks, image attachment, persistence, and change notification.
type PostService struct {
	repo     domain.PostRepository
	store    domain.BlobStore
	notifier domain.Notifier

	now func() time.Time
}

func NewPostService(repo domain.PostRepository, store domain.BlobStore, notifier domain.Notifier) *PostService {
	return &PostService{
		repo:     repo,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreatePost validates the fields, uploads the optional featured image,
// and persists a new post owned by authorID. The published flag is taken
// as given; drafts stay invisible to everyone but the author.
func (s *PostService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*PostResult, error) {
	if authorID == "" {
		return nil, fmt.Errorf("create post: %w", domain.ErrPermissionDenied)
	}

	if err := validatePostFields(in.Title, in.Excerpt, in.Content); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &domain.Post{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Excerpt:   in.Excerpt,
		Content:   in.Content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
		Published: in.Published,
	}

	var imageErr error
	if in.Image != nil {
		url, err := s.uploadImage(ctx, authorID, in.Image)
		if err != nil {
			log.Error().Err(err).Str("authorID", authorID).Msg("Failed to upload featured image")
			imageErr = err
		} else {
			post.FeaturedImage = url
		}
	}

	// The slug suffix is clock-derived, so a collision is survivable by
	// regenerating. The unique constraint is the authoritative check.
	var lastErr error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		post.Slug = generateSlugAt(in.Title, s.now())

		err := s.repo.CreatePost(ctx, post)
		if err == nil {
			s.notify(ctx, domain.ChangeInsert, post.ID)
			return &PostResult{Post: post, ImageErr: imageErr}, nil
		}
		if errors.Is(err, domain.ErrDuplicateSlug) {
			lastErr = err
			continue
		}
		return nil, fmt.Errorf("%w: create post: %v", domain.ErrStorage, err)
	}

	return nil, fmt.Errorf("%w: create post: slug conflict persisted after %d attempts: %v", domain.ErrStorage, slugAttempts, lastErr)
}

// UpdatePost loads the post, checks the mutation policy, applies the given
// fields, and persists. UpdatedAt is always refreshed; CreatedAt, AuthorID,
// and the slug never change on update.
func (s *PostService) UpdatePost(ctx context.Context, requesterID, postID string, in UpdatePostInput) (*PostResult, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !CanMutate(requesterID, post) {
		return nil, fmt.Errorf("update post %s: %w", postID, domain.ErrPermissionDenied)
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Excerpt != nil {
		post.Excerpt = *in.Excerpt
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	if err := validatePostFields(post.Title, post.Excerpt, post.Content); err != nil {
		return nil, err
	}

	var imageErr error
	switch {
	case in.Image != nil:
		url, err := s.uploadImage(ctx, post.AuthorID, in.Image)
		if err != nil {
			// Keep the existing reference; only the image step is lost.
			log.Error().Err(err).Str("postID", postID).Msg("Failed to upload featured image")
			imageErr = err
		} else {
			post.FeaturedImage = url
		}
	case in.RemoveImage:
		post.FeaturedImage = ""
	}

	post.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: update post: %v", domain.ErrStorage, err)
	}

	s.notify(ctx, domain.ChangeUpdate, post.ID)
	return &PostResult{Post: post, ImageErr: imageErr}, nil
}

// DeletePost permanently removes the post. There is no soft delete; the
// user-facing confirmation gate lives at the transport boundary.
func (s *PostService) DeletePost(ctx context.Context, requesterID, postID string) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}

	if !CanMutate(requesterID, post) {
		return fmt.Errorf("delete post %s: %w", postID, domain.ErrPermissionDenied)
	}

	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("%w: delete post: %v", domain.ErrStorage, err)
	}

	s.notify(ctx, domain.ChangeDelete, postID)
	return nil
}

// ListPublished returns all published posts, newest first. Read-only and
// idempotent; safe to call repeatedly from any number of requesters.
func (s *PostService) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list published posts: %v", domain.ErrStorage, err)
	}
	return posts, nil
}

// ListByAuthor returns every post owned by the author, drafts included,
// newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	if authorID == "" {
		return nil, fmt.Errorf("list posts: %w", domain.ErrPermissionDenied)
	}

	posts, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts by author: %v", domain.ErrStorage, err)
	}
	return posts, nil
}

// GetBySlug loads a post for reading. A draft requested by anyone but its
// author comes back as ErrPermissionDenied; callers surface it the same as
// a missing post so draft existence never leaks.
func (s *PostService) GetBySlug(ctx context.Context, requesterID, slug string) (*domain.Post, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("post %q: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get post by slug: %v", domain.ErrStorage, err)
	}

	if !CanView(requesterID, post) {
		return nil, fmt.Errorf("post %q: %w", slug, domain.ErrPermissionDenied)
	}

	return post, nil
}

func (s *PostService) loadPost(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load post: %v", domain.ErrStorage, err)
	}
	return post, nil
}

func (s *PostService) uploadImage(ctx context.Context, ownerID string, img *ImageUpload) (string, error) {
	url, err := s.store.Put(ctx, postImagePath(ownerID, img.Filename), img.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	return url, nil
}

func (s *PostService) notify(ctx context.Context, op domain.ChangeOp, postID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, domain.ChangeEvent{Op: op, PostID: postID}); err != nil {
		log.Warn().Err(err).Str("postID", postID).Msg("Failed to publish change event")
	}
}

// postImagePath scopes an uploaded image under its owner with a randomized
// filename, preserving the original extension. A new upload never clobbers
// an older one.
func postImagePath(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return ownerID + "/" + uuid.NewString() + ext
}

func validatePostFields(title, excerpt, content string) error {
	if strings.TrimSpace(title) == "" {
		return domain.NewFieldError("title", "is required")
	}
	if strings.TrimSpace(excerpt) == "" {
		return domain.NewFieldError("excerpt", "is required")
	}
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return domain.NewFieldError("excerpt", fmt.Sprintf("must be at most %d characters", maxExcerptLen))
	}
	if strings.TrimSpace(content) == "" {
		return domain.NewFieldError("content", "is required")
	}
	return nil
}
