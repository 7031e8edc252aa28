// Package sse streams prompt and response change events to connected UI
// clients over Server-Sent Events.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// writeTimeout bounds a single client write so a stale connection cannot
// stall a broadcast.
const writeTimeout = 2 * time.Second

// Event is one change notification pushed to clients.
type Event struct {
	Type       string `json:"type"`
	PromptUUID string `json:"promptUuid,omitempty"`
}

// Event types emitted by the worker.
const (
	EventPromptSaved        = "prompt_saved"
	EventPromptDeleted      = "prompt_deleted"
	EventResponseSaved      = "response_saved"
	EventMigrationCompleted = "migration_completed"
)

type client struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
	id      string
}

// Broadcaster fans change events out to every connected client.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*client
	nextID  int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[string]*client)}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Broadcast sends the event to all connected clients. Writes run
// concurrently with a per-client timeout; clients that fail are dropped.
func (b *Broadcaster) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}
	message := fmt.Sprintf("data: %s\n\n", payload)

	b.mu.RLock()
	targets := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	dead := make(chan string, len(targets))
	var wg sync.WaitGroup
	for _, c := range targets {
		select {
		case <-c.done:
			continue
		default:
		}
		wg.Add(1)
		go func(c *client) {
			defer wg.Done()
			b.write(c, message, dead)
		}(c)
	}
	wg.Wait()
	close(dead)

	for id := range dead {
		b.drop(id)
	}
}

func (b *Broadcaster) write(c *client, message string, dead chan<- string) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		if _, err := c.writer.Write([]byte(message)); err != nil {
			dead <- c.id
			return
		}
		c.flusher.Flush()
	}()

	select {
	case <-finished:
	case <-time.After(writeTimeout):
		log.Warn().Str("clientId", c.id).Msg("SSE write timed out")
		dead <- c.id
	case <-c.done:
	}
}

func (b *Broadcaster) add(w http.ResponseWriter) (*client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	c := &client{
		id:      fmt.Sprintf("client-%d", b.nextID),
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
	b.clients[c.id] = c
	total := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("clientId", c.id).Int("totalClients", total).Msg("SSE client connected")
	return c, nil
}

func (b *Broadcaster) drop(id string) {
	b.mu.Lock()
	c, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
	}
	total := len(b.clients)
	b.mu.Unlock()

	if ok {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
	log.Debug().Str("clientId", id).Int("totalClients", total).Msg("SSE client disconnected")
}

// HandleSSE upgrades the request to an event stream and blocks until the
// client goes away.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	c, err := b.add(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.drop(c.id)

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"clientId\":%q}\n\n", c.id)
	c.flusher.Flush()

	select {
	case <-r.Context().Done():
	case <-c.done:
	}
}
