package notify

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

// DefaultBufferSize is the per-subscriber backlog before messages are dropped
const DefaultBufferSize = 64

// HubConfig holds hub configuration
type HubConfig struct {
	Logger     *slog.Logger
	BufferSize int
	ServerName string
}

// Hub fans job updates out to live subscribers. Delivery is best-effort:
// a subscriber whose buffer is full misses the message, and nothing is
// replayed to late subscribers.
type Hub struct {
	logger     *slog.Logger
	bufferSize int
	serverName string

	mu     sync.RWMutex
	subs   map[uint64]chan Message
	nextID uint64
	closed bool

	dropped atomic.Uint64
}

// Subscription is a live feed of messages. Close must be called when the
// consumer goes away.
type Subscription struct {
	C <-chan Message

	id   uint64
	hub  *Hub
	once sync.Once
}

// NewHub creates a new Hub instance
func NewHub(cfg *HubConfig) *Hub {
	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	server := cfg.ServerName
	if server == "" {
		server = DefaultServerName
	}

	return &Hub{
		logger:     cfg.Logger,
		bufferSize: size,
		serverName: server,
		subs:       make(map[uint64]chan Message),
	}
}

// Subscribe registers a new subscriber. Its channel already holds the
// connection message.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Message, h.bufferSize)
	ch <- ConnectionMessage(h.serverName)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return &Subscription{C: ch, hub: h}
	}

	h.nextID++
	id := h.nextID
	h.subs[id] = ch

	h.logger.Info("Subscriber connected",
		slog.Uint64("subscriber_id", id),
		slog.Int("subscribers", len(h.subs)),
	)

	return &Subscription{C: ch, id: id, hub: h}
}

// Close unregisters the subscription and closes its channel
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)

	h.logger.Info("Subscriber disconnected",
		slog.Uint64("subscriber_id", id),
		slog.Int("subscribers", len(h.subs)),
	)
}

// Publish sends a snapshot of job to every subscriber without blocking
func (h *Hub) Publish(job *domain.Job) {
	h.Broadcast(JobUpdate(job, h.serverName))
}

// Broadcast delivers msg to every subscriber without blocking
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
			h.logger.Warn("Subscriber backlog full, dropping message",
				slog.Uint64("subscriber_id", id),
				slog.String("job_id", msg.JobID),
				slog.String("status", msg.Status),
			)
		}
	}
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many messages were dropped on full buffers
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// ServerName returns the name stamped on outgoing messages
func (h *Hub) ServerName() string {
	return h.serverName
}

// Close disconnects every subscriber. Later subscriptions receive only the
// connection message.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}

	h.logger.Info("Notification hub closed")
}
