package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/blog/application"
	"github.com/inkpress/inkpress/blog/domain"
	"github.com/inkpress/inkpress/internal/middleware"
)

// API wires the HTTP surface: the public read-only endpoints, the
// authenticated authoring endpoints, and the change stream.
type API struct {
	posts    *application.PostService
	profiles *application.ProfileService
	notifier domain.Notifier
	auth     *middleware.Authenticator
}

func New(posts *application.PostService, profiles *application.ProfileService, notifier domain.Notifier, auth *middleware.Authenticator) *API {
	return &API{
		posts:    posts,
		profiles: profiles,
		notifier: notifier,
		auth:     auth,
	}
}

func (a *API) Register(router *gin.Engine) {
	router.GET("/api/health", a.health)
	router.GET("/api/posts", a.listPosts)
	router.GET("/api/posts/:slug", a.auth.Optional(), a.getPostBySlug)
	router.GET("/api/changes", a.streamChanges)

	authed := router.Group("/api", a.auth.Required())
	{
		authed.POST("/posts", a.createPost)
		authed.PUT("/posts/:id", a.updatePost)
		authed.DELETE("/posts/:id", a.deletePost)

		authed.GET("/me/posts", a.listOwnPosts)
		authed.GET("/me/profile", a.getOwnProfile)
		authed.PUT("/me/profile", a.updateOwnProfile)
	}
}
