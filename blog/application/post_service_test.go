package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/inkpress/inkpress/blog/domain"
	"github.com/inkpress/inkpress/blog/persistence"
	"github.com/inkpress/inkpress/shared/notify"
	"github.com/inkpress/inkpress/shared/storage"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database with the posts schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			excerpt TEXT NOT NULL,
			content TEXT NOT NULL,
			featured_image TEXT,
			author_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			slug TEXT NOT NULL UNIQUE
		)
	`)
	if err != nil {
		t.Fatalf("failed to create posts table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE profiles (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("failed to create profiles table: %v", err)
	}

	return db
}

// stepClock returns a clock that advances one millisecond per call so
// consecutive slug generations never share a suffix.
func stepClock(base time.Time) func() time.Time {
	calls := 0
	return func() time.Time {
		now := base.Add(time.Duration(calls) * time.Millisecond)
		calls++
		return now
	}
}

type failingStore struct{}

func (failingStore) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	return "", fmt.Errorf("bucket unavailable")
}

func newTestService(t *testing.T) (*PostService, *persistence.SQLitePostRepository) {
	t.Helper()

	repo := persistence.NewPostRepository(setupTestDB(t))
	store := storage.NewFSStore(t.TempDir(), "http://test/media")
	svc := NewPostService(repo, store, notify.NewBroker())
	return svc, repo
}

func TestCreatePost(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title:   "Hello, World!",
		Excerpt: "The first post",
		Content: "# Hello\n\nThis is the content.",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	post := result.Post
	if post.ID == "" {
		t.Error("post ID not assigned")
	}
	if post.AuthorID != "author-1" {
		t.Errorf("AuthorID = %q, want %q", post.AuthorID, "author-1")
	}
	if post.Published {
		t.Error("post should default to draft when published is not set")
	}
	if !post.CreatedAt.Equal(post.UpdatedAt) {
		t.Errorf("CreatedAt (%v) != UpdatedAt (%v) at creation", post.CreatedAt, post.UpdatedAt)
	}
	if matched, _ := regexp.MatchString(`^hello-world-\d{6}$`, post.Slug); !matched {
		t.Errorf("slug %q does not match hello-world-\\d{6}", post.Slug)
	}
	if result.ImageErr != nil {
		t.Errorf("unexpected image error: %v", result.ImageErr)
	}
}

func TestCreatePost_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{
			name:  "missing title",
			input: CreatePostInput{Excerpt: "e", Content: "c"},
		},
		{
			name:  "missing excerpt",
			input: CreatePostInput{Title: "t", Content: "c"},
		},
		{
			name:  "missing content",
			input: CreatePostInput{Title: "t", Excerpt: "e"},
		},
		{
			name:  "excerpt too long",
			input: CreatePostInput{Title: "t", Excerpt: strings.Repeat("x", 201), Content: "c"},
		},
		{
			name:  "whitespace-only title",
			input: CreatePostInput{Title: "   ", Excerpt: "e", Content: "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)

			_, err := svc.CreatePost(context.Background(), "author-1", tt.input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("CreatePost error = %v, want ErrValidation", err)
			}

			posts, err := svc.ListByAuthor(context.Background(), "author-1")
			if err != nil {
				t.Fatalf("ListByAuthor failed: %v", err)
			}
			if len(posts) != 0 {
				t.Errorf("invalid post was persisted: %d posts found", len(posts))
			}
		})
	}
}

func TestCreatePost_ExcerptAtLimit(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title:   "Limit",
		Excerpt: strings.Repeat("x", 200),
		Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost with 200-char excerpt failed: %v", err)
	}
}

func TestCreatePost_AnonymousDenied(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreatePost(context.Background(), "", CreatePostInput{
		Title: "t", Excerpt: "e", Content: "c",
	})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("CreatePost error = %v, want ErrPermissionDenied", err)
	}
}

func TestCreatePost_WithImage(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title:   "Pictures",
		Excerpt: "e",
		Content: "c",
		Image:   &ImageUpload{Filename: "photo.PNG", Data: strings.NewReader("fake png bytes")},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	img := result.Post.FeaturedImage
	if !strings.HasPrefix(img, "http://test/media/author-1/") {
		t.Errorf("featured image %q is not scoped under the author", img)
	}
	if !strings.HasSuffix(img, ".png") {
		t.Errorf("featured image %q did not preserve the lowercased extension", img)
	}
}

func TestCreatePost_ImageUploadFailure(t *testing.T) {
	repo := persistence.NewPostRepository(setupTestDB(t))
	svc := NewPostService(repo, failingStore{}, notify.NewBroker())

	result, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title:   "Broken upload",
		Excerpt: "e",
		Content: "c",
		Image:   &ImageUpload{Filename: "photo.png", Data: strings.NewReader("bytes")},
	})
	if err != nil {
		t.Fatalf("CreatePost failed outright, want post saved without image: %v", err)
	}
	if !errors.Is(result.ImageErr, domain.ErrUpload) {
		t.Errorf("ImageErr = %v, want ErrUpload", result.ImageErr)
	}
	if result.Post.FeaturedImage != "" {
		t.Errorf("FeaturedImage = %q, want empty after failed upload", result.Post.FeaturedImage)
	}

	stored, err := repo.GetPost(context.Background(), result.Post.ID)
	if err != nil {
		t.Fatalf("post was not persisted: %v", err)
	}
	if stored.FeaturedImage != "" {
		t.Errorf("stored FeaturedImage = %q, want empty", stored.FeaturedImage)
	}
}

func TestCreatePost_SlugRetryOnConflict(t *testing.T) {
	svc, repo := newTestService(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = stepClock(base)

	// The first slug attempt uses the second clock call; occupy it.
	conflict := generateSlugAt("Hello, World!", base.Add(1*time.Millisecond))
	seed := &domain.Post{
		ID: "seed", Title: "t", Excerpt: "e", Content: "c",
		AuthorID: "other", CreatedAt: base, UpdatedAt: base, Slug: conflict,
	}
	if err := repo.CreatePost(context.Background(), seed); err != nil {
		t.Fatalf("failed to seed conflicting post: %v", err)
	}

	result, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Hello, World!", Excerpt: "e", Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost failed despite retry: %v", err)
	}

	want := generateSlugAt("Hello, World!", base.Add(2*time.Millisecond))
	if result.Post.Slug != want {
		t.Errorf("slug = %q, want regenerated %q", result.Post.Slug, want)
	}
}

func TestCreatePost_SlugConflictExhausted(t *testing.T) {
	svc, repo := newTestService(t)

	frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	conflict := generateSlugAt("Hello, World!", frozen)
	seed := &domain.Post{
		ID: "seed", Title: "t", Excerpt: "e", Content: "c",
		AuthorID: "other", CreatedAt: frozen, UpdatedAt: frozen, Slug: conflict,
	}
	if err := repo.CreatePost(context.Background(), seed); err != nil {
		t.Fatalf("failed to seed conflicting post: %v", err)
	}

	_, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Hello, World!", Excerpt: "e", Content: "c",
	})
	if !errors.Is(err, domain.ErrStorage) {
		t.Errorf("CreatePost error = %v, want ErrStorage after exhausting retries", err)
	}
}

func TestUpdatePost(t *testing.T) {
	svc, _ := newTestService(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = stepClock(base)

	created, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Original", Excerpt: "e", Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	newTitle := "Revised"
	published := true
	result, err := svc.UpdatePost(context.Background(), "author-1", created.Post.ID, UpdatePostInput{
		Title:     &newTitle,
		Published: &published,
	})
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	post := result.Post
	if post.Title != "Revised" {
		t.Errorf("Title = %q, want %q", post.Title, "Revised")
	}
	if !post.Published {
		t.Error("Published = false, want true")
	}
	if post.Slug != created.Post.Slug {
		t.Errorf("slug changed on update: %q -> %q", created.Post.Slug, post.Slug)
	}
	if !post.CreatedAt.Equal(created.Post.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", created.Post.CreatedAt, post.CreatedAt)
	}
	if !post.UpdatedAt.After(created.Post.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance: %v -> %v", created.Post.UpdatedAt, post.UpdatedAt)
	}
}

func TestUpdatePost_NonAuthorDenied(t *testing.T) {
	svc, repo := newTestService(t)
	svc.now = stepClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	created, err := svc.CreatePost(context.Background(), "author-a", CreatePostInput{
		Title: "Owned by A", Excerpt: "e", Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	newTitle := "Hijacked"
	_, err = svc.UpdatePost(context.Background(), "author-b", created.Post.ID, UpdatePostInput{Title: &newTitle})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("UpdatePost error = %v, want ErrPermissionDenied", err)
	}

	stored, err := repo.GetPost(context.Background(), created.Post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if stored.Title != "Owned by A" {
		t.Errorf("Title = %q, fields changed despite denial", stored.Title)
	}
	if !stored.UpdatedAt.Equal(created.Post.UpdatedAt) {
		t.Errorf("UpdatedAt changed despite denial: %v -> %v", created.Post.UpdatedAt, stored.UpdatedAt)
	}
}

func TestUpdatePost_RemoveImage(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Pictures", Excerpt: "e", Content: "c",
		Image: &ImageUpload{Filename: "photo.png", Data: strings.NewReader("bytes")},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if created.Post.FeaturedImage == "" {
		t.Fatal("expected an image on the created post")
	}

	result, err := svc.UpdatePost(context.Background(), "author-1", created.Post.ID, UpdatePostInput{RemoveImage: true})
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if result.Post.FeaturedImage != "" {
		t.Errorf("FeaturedImage = %q, want cleared", result.Post.FeaturedImage)
	}
}

func TestUpdatePost_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	newTitle := "whatever"
	_, err := svc.UpdatePost(context.Background(), "author-1", "missing-id", UpdatePostInput{Title: &newTitle})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdatePost error = %v, want ErrNotFound", err)
	}
}

func TestDeletePost(t *testing.T) {
	svc, repo := newTestService(t)

	created, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Doomed", Excerpt: "e", Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := svc.DeletePost(context.Background(), "author-2", created.Post.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("DeletePost by stranger error = %v, want ErrPermissionDenied", err)
	}

	if err := svc.DeletePost(context.Background(), "author-1", created.Post.ID); err != nil {
		t.Fatalf("DeletePost by author failed: %v", err)
	}

	if _, err := repo.GetPost(context.Background(), created.Post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("post still present after delete: %v", err)
	}
}

func TestGetBySlug(t *testing.T) {
	svc, _ := newTestService(t)

	draft, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Draft", Excerpt: "e", Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	public, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Public", Excerpt: "e", Content: "c", Published: true,
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	tests := []struct {
		name      string
		requester string
		slug      string
		wantErr   error
	}{
		{name: "published visible to anonymous", requester: "", slug: public.Post.Slug},
		{name: "published visible to stranger", requester: "author-2", slug: public.Post.Slug},
		{name: "draft visible to author", requester: "author-1", slug: draft.Post.Slug},
		{name: "draft denied to anonymous", requester: "", slug: draft.Post.Slug, wantErr: domain.ErrPermissionDenied},
		{name: "draft denied to stranger", requester: "author-2", slug: draft.Post.Slug, wantErr: domain.ErrPermissionDenied},
		{name: "missing slug", requester: "author-1", slug: "no-such-slug", wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := svc.GetBySlug(context.Background(), tt.requester, tt.slug)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetBySlug error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetBySlug failed: %v", err)
			}
			if post.Slug != tt.slug {
				t.Errorf("slug = %q, want %q", post.Slug, tt.slug)
			}
		})
	}
}

func TestListPublished_OrderAndIdempotence(t *testing.T) {
	svc, _ := newTestService(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		_, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
			Title: title, Excerpt: "e", Content: "c", Published: true,
		})
		if err != nil {
			t.Fatalf("CreatePost(%q) failed: %v", title, err)
		}
	}

	// A draft must never appear in the published listing.
	_, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "hidden draft", Excerpt: "e", Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	posts, err := svc.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	for i, want := range []string{"third", "second", "first"} {
		if posts[i].Title != want {
			t.Errorf("posts[%d].Title = %q, want %q (newest first)", i, posts[i].Title, want)
		}
	}

	again, err := svc.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("ListPublished failed on second call: %v", err)
	}
	if len(again) != len(posts) {
		t.Fatalf("second call returned %d posts, want %d", len(again), len(posts))
	}
	for i := range posts {
		if posts[i].ID != again[i].ID {
			t.Errorf("ordering differs between identical calls at index %d", i)
		}
	}
}

func TestLifecyclePublishesChangeEvents(t *testing.T) {
	repo := persistence.NewPostRepository(setupTestDB(t))
	broker := notify.NewBroker()
	svc := NewPostService(repo, storage.NewFSStore(t.TempDir(), "http://test/media"), broker)

	ch, unsubscribe, err := broker.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	created, err := svc.CreatePost(context.Background(), "author-1", CreatePostInput{
		Title: "Eventful", Excerpt: "e", Content: "c",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	newTitle := "Eventful v2"
	if _, err := svc.UpdatePost(context.Background(), "author-1", created.Post.ID, UpdatePostInput{Title: &newTitle}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	if err := svc.DeletePost(context.Background(), "author-1", created.Post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	wantOps := []domain.ChangeOp{domain.ChangeInsert, domain.ChangeUpdate, domain.ChangeDelete}
	for _, want := range wantOps {
		select {
		case ev := <-ch:
			if ev.Op != want {
				t.Errorf("event op = %q, want %q", ev.Op, want)
			}
			if ev.PostID != created.Post.ID {
				t.Errorf("event post id = %q, want %q", ev.PostID, created.Post.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q event", want)
		}
	}
}
