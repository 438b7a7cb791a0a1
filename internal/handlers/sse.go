package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sseKeepAlive = 25 * time.Second

// SSEHandler pushes live vote counts to open project pages.
type SSEHandler struct {
	hub      *services.SSEHub
	votes    *services.VotingService
	projects *services.ProjectService
}

func NewSSEHandler(svc *services.Services) *SSEHandler {
	return &SSEHandler{hub: svc.LiveVotes, votes: svc.Votes, projects: svc.Projects}
}

// StreamVotes sends the current count, then one event per change.
// GET /api/projects/:id/events
func (h *SSEHandler) StreamVotes(c *gin.Context) {
	projectID, ok := resolveProjectID(c, h.projects)
	if !ok {
		return
	}
	count, err := h.votes.Count(projectID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	events := h.hub.Subscribe(clientID, projectID)
	defer h.hub.Unsubscribe(clientID)

	logger.Debug().Str("client_id", clientID).Uint("project_id", projectID).Int("total", h.hub.ClientCount()).Msg("[SSE] client connected")

	writeEvent(c, services.VoteEvent{ProjectID: projectID, VoteCount: count})

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			writeEvent(c, event)
			return true
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			c.Writer.Flush()
			return true
		case <-c.Request.Context().Done():
			logger.Debug().Str("client_id", clientID).Msg("[SSE] client disconnected")
			return false
		}
	})
}

func writeEvent(c *gin.Context, event services.VoteEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("[SSE] marshal error")
		return
	}
	fmt.Fprintf(c.Writer, "event: vote\ndata: %s\n\n", data)
	c.Writer.Flush()
}
