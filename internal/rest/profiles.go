package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/api"
	"github.com/inkpress/inkpress/blog/application"
	"github.com/inkpress/inkpress/blog/domain"
	"github.com/inkpress/inkpress/internal/middleware"
)

func (a *API) getOwnProfile(c *gin.Context) {
	profile, err := a.profiles.GetProfile(c.Request.Context(), middleware.RequesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse(profile, nil))
}

func (a *API) updateOwnProfile(c *gin.Context) {
	var in application.UpdateProfileInput

	if v, ok := c.GetPostForm("full_name"); ok {
		in.FullName = &v
	}
	if v, ok := c.GetPostForm("website"); ok {
		in.Website = &v
	}
	if v, ok := c.GetPostForm("bio"); ok {
		in.Bio = &v
	}
	in.RemoveAvatar = c.PostForm("remove_avatar") == "true"

	avatar, closeAvatar, err := formImage(c, "avatar")
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeAvatar()
	in.Avatar = avatar

	result, err := a.profiles.UpdateProfile(c.Request.Context(), middleware.RequesterID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse(result.Profile, result.AvatarErr))
}

func profileResponse(p *domain.Profile, avatarErr error) *api.Profile {
	resp := &api.Profile{
		ID:          p.ID,
		Username:    p.Username,
		FullName:    p.FullName,
		AvatarURL:   p.AvatarURL,
		Website:     p.Website,
		Bio:         p.Bio,
		DisplayName: p.DisplayName(),
		CreatedAt:   p.CreatedAt,
	}
	if avatarErr != nil {
		resp.AvatarError = "avatar upload failed, profile saved without it"
	}
	return resp
}
