package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"confusionflow/internal/events"
)

// ViewEvent is a bus notification as streamed to browsers
type ViewEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type sseClient struct {
	id      string
	channel chan ViewEvent
}

// SSEHub fans view state notifications out to Server-Sent Events clients
type SSEHub struct {
	clients    map[string]chan ViewEvent
	clientsMu  sync.RWMutex
	register   chan sseClient
	unregister chan sseClient
	broadcast  chan ViewEvent
	done       chan struct{}
	closeOnce  sync.Once
	sub        *events.Subscription

	pingInterval time.Duration
}

// NewSSEHub creates a hub whose broadcast queue holds bufferSize events
func NewSSEHub(bufferSize int) *SSEHub {
	hub := &SSEHub{
		clients:      make(map[string]chan ViewEvent),
		register:     make(chan sseClient, 10),
		unregister:   make(chan sseClient, 10),
		broadcast:    make(chan ViewEvent, bufferSize),
		done:         make(chan struct{}),
		pingInterval: 30 * time.Second,
	}

	go hub.run()
	return hub
}

// Attach streams every notification of bus. Broadcasting never blocks, so
// the hub is safe to call from inside Fire.
func (h *SSEHub) Attach(bus *events.Bus) {
	h.sub = bus.SubscribeAll(func(e events.Event) {
		h.Broadcast(ViewEvent{
			ID:        uuid.NewString(),
			Kind:      string(e.Kind),
			Payload:   payloadOf(e.Payload),
			Timestamp: time.Now(),
		})
	})
}

// Close detaches the hub from its bus and stops dispatching
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() {
		if h.sub != nil {
			h.sub.Unsubscribe()
		}
		close(h.done)
	})
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client.id] = client.channel
			log.Printf("[SSE] Client %s registered (total clients: %d)", client.id, len(h.clients))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if ch, exists := h.clients[client.id]; exists {
				delete(h.clients, client.id)
				close(ch)
				log.Printf("[SSE] Client %s unregistered (remaining clients: %d)", client.id, len(h.clients))
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for id, ch := range h.clients {
				select {
				case ch <- event:
				default:
					log.Printf("[SSE] Client %s channel full, skipping %s", id, event.Kind)
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Broadcast queues an event for every connected client
func (h *SSEHub) Broadcast(event ViewEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping event: %s", event.Kind)
	}
}

// Handler serves the event stream on /api/events
func (h *SSEHub) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/api/events", h.HandleSSE)
	return engine
}

// HandleSSE handles the Server-Sent Events endpoint
func (h *SSEHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")

	client := sseClient{id: uuid.NewString(), channel: make(chan ViewEvent, 10)}
	select {
	case h.register <- client:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SSE hub registration failed"})
		return
	}
	defer func() {
		select {
		case h.unregister <- client:
		default:
		}
	}()

	// send headers now so clients see the stream before the first event
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-client.channel:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("view", string(eventJSON))
			return true

		case <-time.After(h.pingInterval):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-h.done:
			return false

		case <-ctx.Done():
			return false
		}
	})
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// payloadOf keeps scalar payloads and ids; render bundles and other
// structures are left for clients to fetch.
func payloadOf(p any) any {
	switch v := p.(type) {
	case nil:
		return nil
	case fmt.Stringer:
		return v.String()
	case []int:
		return v
	}
	rv := reflect.ValueOf(p)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	}
	return nil
}
