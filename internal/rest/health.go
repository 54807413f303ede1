package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Server is running",
	})
}
