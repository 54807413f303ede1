package rest

import (
	"io"

	"github.com/gin-gonic/gin"
)

// streamChanges exposes the change-notification feed as server-sent
// events. Consumers re-fetch the post list on any event; the stream
// carries no ordering or delivery guarantee beyond at-most-once.
func (a *API) streamChanges(c *gin.Context) {
	ch, unsubscribe, err := a.notifier.Subscribe(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
