package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// streamHeartbeat keeps idle connections open through proxies
const streamHeartbeat = 25 * time.Second

// streamLeaderboard sends every leaderboard snapshot as a server-sent event
// until the client goes away.
func (r *Router) streamLeaderboard(c *gin.Context) {
	snapshots, cancel := r.svc.Hub.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	r.logger.Debug("Leaderboard stream opened", zap.String("viewer", viewer(c)))
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-snapshots:
			if !ok {
				return false
			}
			c.SSEvent("leaderboard", snap)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
	r.logger.Debug("Leaderboard stream closed", zap.String("viewer", viewer(c)))
}
