// file: internal/realtime/events.go
// version: 1.0.0
// guid: 0a1b2c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d

package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// EventType defines the type of real-time event
type EventType string

const (
	EventOperationProgress EventType = "operation.progress"
	EventOperationStatus   EventType = "operation.status"
	EventOperationLog      EventType = "operation.log"
	EventCandidateUpdated  EventType = "candidate.updated"
	EventLibraryRefreshed  EventType = "library.refreshed"
)

// Event is one real-time message pushed to SSE clients.
type Event struct {
	Type      EventType              `json:"type"`
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Client is one connected SSE stream.
type Client struct {
	ID         string
	Channel    chan *Event
	Operations map[string]bool // operation IDs this client follows; empty = all
	mu         sync.RWMutex
}

// NewClient creates a new SSE client.
func NewClient(id string) *Client {
	return &Client{
		ID:         id,
		Channel:    make(chan *Event, 100),
		Operations: make(map[string]bool),
	}
}

// Subscribe narrows the client to a single operation's events.
func (c *Client) Subscribe(operationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Operations[operationID] = true
}

// IsSubscribed checks if the client follows an operation.
func (c *Client) IsSubscribed(operationID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Operations[operationID]
}

// EventHub fans events out to connected SSE clients.
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewEventHub creates a new event hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[string]*Client)}
}

// RegisterClient adds a client to the hub.
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

// UnregisterClient removes a client and closes its channel.
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
	}
}

// Broadcast sends an event to every interested client. Slow clients drop
// events instead of blocking the sender.
func (h *EventHub) Broadcast(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if event.ID != "" && len(client.Operations) > 0 && !client.IsSubscribed(event.ID) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			log.Printf("Warning: client %s channel full, dropping event", client.ID)
		}
	}
}

// SendOperationProgress pushes a progress update for an operation.
func (h *EventHub) SendOperationProgress(operationID string, current, total int, message string) {
	h.Broadcast(&Event{
		Type:      EventOperationProgress,
		ID:        operationID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"operation_id": operationID,
			"current":      current,
			"total":        total,
			"message":      message,
			"percentage":   percentage(current, total),
		},
	})
}

// SendOperationStatus pushes an operation status change.
func (h *EventHub) SendOperationStatus(operationID, status string, details map[string]interface{}) {
	h.Broadcast(&Event{
		Type:      EventOperationStatus,
		ID:        operationID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"operation_id": operationID,
			"status":       status,
			"details":      details,
		},
	})
}

// SendOperationLog pushes one operation log line.
func (h *EventHub) SendOperationLog(operationID, level, message string) {
	h.Broadcast(&Event{
		Type:      EventOperationLog,
		ID:        operationID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"operation_id": operationID,
			"level":        level,
			"message":      message,
		},
	})
}

// SendCandidateUpdated announces a candidate status change.
func (h *EventHub) SendCandidateUpdated(candidateID, status string) {
	h.Broadcast(&Event{
		Type:      EventCandidateUpdated,
		ID:        "",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"candidate_id": candidateID,
			"status":       status,
		},
	})
}

// SendLibraryRefreshed announces that the library index was rebuilt.
func (h *EventHub) SendLibraryRefreshed(entries int) {
	h.Broadcast(&Event{
		Type:      EventLibraryRefreshed,
		ID:        "",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"entries": entries,
		},
	})
}

// GetClientCount returns the number of connected clients.
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams events to one client over Server-Sent Events.
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := fmt.Sprintf("client-%d", time.Now().UnixNano())
	client := NewClient(clientID)

	if operationID := c.Query("operation"); operationID != "" {
		client.Subscribe(operationID)
	}

	h.RegisterClient(client)
	defer h.UnregisterClient(clientID)

	writeEvent := func(v interface{}) bool {
		data, err := json.Marshal(v)
		if err != nil {
			log.Printf("Error marshaling event: %v", err)
			return true
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	writeEvent(&Event{
		Type:      "connection.established",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"client_id": clientID},
	})

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event := <-client.Channel:
			if !writeEvent(event) {
				return
			}
		case <-ticker.C:
			if !writeEvent(map[string]interface{}{"type": "heartbeat", "timestamp": time.Now()}) {
				return
			}
		}
	}
}

// percentage bounds current/total to 0-100.
func percentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	p := (current * 100) / total
	if p > 100 {
		return 100
	}
	return p
}

// GlobalHub is the process-wide event hub.
var GlobalHub *EventHub

// InitializeEventHub initializes the global event hub.
func InitializeEventHub() {
	if GlobalHub != nil {
		return
	}
	GlobalHub = NewEventHub()
}
