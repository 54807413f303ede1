package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/api"
	"github.com/inkpress/inkpress/blog/application"
	"github.com/inkpress/inkpress/blog/domain"
	"github.com/inkpress/inkpress/internal/middleware"
)

// listPosts returns every published post, newest first, with author
// display fields resolved.
func (a *API) listPosts(c *gin.Context) {
	posts, err := a.posts.ListPublished(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.postSummaries(c, posts))
}

func (a *API) getPostBySlug(c *gin.Context) {
	requester := middleware.RequesterID(c)

	post, err := a.posts.GetBySlug(c.Request.Context(), requester, c.Param("slug"))
	if err != nil {
		writeReadError(c, err)
		return
	}

	detail := postDetail(post)
	if profile, err := a.profiles.GetProfile(c.Request.Context(), post.AuthorID); err == nil {
		detail.Author = &api.AuthorDetail{
			Username:  profile.Username,
			FullName:  profile.FullName,
			AvatarURL: profile.AvatarURL,
		}
	}

	c.JSON(http.StatusOK, detail)
}

func (a *API) createPost(c *gin.Context) {
	in := application.CreatePostInput{
		Title:     c.PostForm("title"),
		Excerpt:   c.PostForm("excerpt"),
		Content:   c.PostForm("content"),
		Published: c.PostForm("published") == "true",
	}

	image, closeImage, err := formImage(c, "featured_image")
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeImage()
	in.Image = image

	result, err := a.posts.CreatePost(c.Request.Context(), middleware.RequesterID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resultDetail(result))
}

func (a *API) updatePost(c *gin.Context) {
	var in application.UpdatePostInput

	if v, ok := c.GetPostForm("title"); ok {
		in.Title = &v
	}
	if v, ok := c.GetPostForm("excerpt"); ok {
		in.Excerpt = &v
	}
	if v, ok := c.GetPostForm("content"); ok {
		in.Content = &v
	}
	if v, ok := c.GetPostForm("published"); ok {
		published := v == "true"
		in.Published = &published
	}
	in.RemoveImage = c.PostForm("remove_image") == "true"

	image, closeImage, err := formImage(c, "featured_image")
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeImage()
	in.Image = image

	result, err := a.posts.UpdatePost(c.Request.Context(), middleware.RequesterID(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resultDetail(result))
}

// deletePost permanently removes a post. The confirm parameter is the
// user-facing safety gate; deletion is immediate, there is no soft delete.
func (a *API) deletePost(c *gin.Context) {
	if c.Query("confirm") != "true" {
		writeError(c, domain.NewFieldError("confirm", "must be true to delete a post"))
		return
	}

	err := a.posts.DeletePost(c.Request.Context(), middleware.RequesterID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// listOwnPosts returns the session author's posts, drafts included.
func (a *API) listOwnPosts(c *gin.Context) {
	posts, err := a.posts.ListByAuthor(c.Request.Context(), middleware.RequesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.postSummaries(c, posts))
}

func (a *API) postSummaries(c *gin.Context, posts []*domain.Post) []api.PostSummary {
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	profiles := a.profiles.ProfilesByID(c.Request.Context(), authorIDs)

	summaries := make([]api.PostSummary, 0, len(posts))
	for _, p := range posts {
		summary := api.PostSummary{
			ID:            p.ID,
			Title:         p.Title,
			Excerpt:       p.Excerpt,
			FeaturedImage: p.FeaturedImage,
			CreatedAt:     p.CreatedAt,
			Slug:          p.Slug,
			Published:     p.Published,
		}
		if profile, ok := profiles[p.AuthorID]; ok {
			summary.Author = &api.Author{
				Username: profile.Username,
				FullName: profile.FullName,
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries
}

func postDetail(p *domain.Post) *api.PostDetail {
	return &api.PostDetail{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		FeaturedImage: p.FeaturedImage,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		AuthorID:      p.AuthorID,
		Published:     p.Published,
		Slug:          p.Slug,
	}
}

func resultDetail(result *application.PostResult) *api.PostDetail {
	detail := postDetail(result.Post)
	if result.ImageErr != nil {
		detail.ImageError = "image upload failed, post saved without it"
	}
	return detail
}

// formImage extracts an optional multipart file field. An absent field is
// not an error; a present but unreadable one is.
func formImage(c *gin.Context, field string) (*application.ImageUpload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, domain.NewFieldError(field, "could not read uploaded file")
	}

	f, err := header.Open()
	if err != nil {
		return nil, func() {}, domain.NewFieldError(field, "could not read uploaded file")
	}

	return &application.ImageUpload{Filename: header.Filename, Data: f}, func() { f.Close() }, nil
}
