package services

import (
	"sync"
)

// VoteEvent is pushed to project pages when a vote count changes.
type VoteEvent struct {
	ProjectID uint  `json:"projectId"`
	VoteCount int64 `json:"voteCount"`
}

// SSEHub fans vote events out to connected server-sent-event clients.
// Each client listens to one project.
type SSEHub struct {
	clients map[string]*sseClient
	mu      sync.RWMutex
}

type sseClient struct {
	projectID uint
	ch        chan VoteEvent
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*sseClient),
	}
}

// Subscribe registers clientID for projectID's events.
func (h *SSEHub) Subscribe(clientID string, projectID uint) <-chan VoteEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old.ch)
	}
	ch := make(chan VoteEvent, 16)
	h.clients[clientID] = &sseClient{projectID: projectID, ch: ch}
	return ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.ch)
		delete(h.clients, clientID)
	}
}

// Publish delivers event to the project's listeners. Slow clients miss
// events rather than block voters.
func (h *SSEHub) Publish(event VoteEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.projectID != event.ProjectID {
			continue
		}
		select {
		case c.ch <- event:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
