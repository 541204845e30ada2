package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/events"
)

// Stream serves the change stream of a session as server-sent events. The
// subscription is taken before the snapshot is read so no change falls
// between the two.
func (s *Server) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	ch, err := s.broker.Subscribe(ctx, sessionID)
	if err != nil {
		s.fail(c, err, "error subscribing to session")
		return
	}

	state, err := s.scoring.LiveState(ctx, principal(c), sessionID)
	if err != nil {
		s.fail(c, err, "error loading stream snapshot")
		return
	}
	snapshot, err := events.New(events.KindSnapshot, sessionID, fromLiveState(state))
	if err != nil {
		s.fail(c, err, "error encoding stream snapshot")
		return
	}

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	log := s.log(c)
	log.Debug().Str("session_id", sessionID).Msg("stream opened")
	defer func() {
		log.Debug().Str("session_id", sessionID).Msg("stream closed")
	}()

	c.SSEvent(string(snapshot.Kind), snapshot)
	c.Writer.Flush()

	interval := s.cfg.StreamHeartbeat
	if interval <= 0 {
		interval = constants.StreamHeartbeat
	}
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(string(ev.Kind), ev)
		case <-heartbeat.C:
			if _, err := c.Writer.WriteString(": heartbeat\n\n"); err != nil {
				return
			}
		}
		c.Writer.Flush()
	}
}
