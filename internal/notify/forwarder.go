package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const publishTimeout = 5 * time.Second

// Publisher sends an encoded message to a broker
type Publisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// ForwarderConfig holds forwarder configuration
type ForwarderConfig struct {
	Logger    *slog.Logger
	Hub       *Hub
	Publisher Publisher
}

// Forwarder relays job updates from the hub to a message broker. It is an
// ordinary subscriber, so a slow broker only loses its own messages.
type Forwarder struct {
	logger    *slog.Logger
	hub       *Hub
	publisher Publisher
	done      chan struct{}
}

// NewForwarder creates a new Forwarder instance
func NewForwarder(cfg *ForwarderConfig) *Forwarder {
	return &Forwarder{
		logger:    cfg.Logger,
		hub:       cfg.Hub,
		publisher: cfg.Publisher,
		done:      make(chan struct{}),
	}
}

// Start subscribes to the hub and forwards until ctx is canceled or the hub
// closes. It blocks; run it in its own goroutine.
func (f *Forwarder) Start(ctx context.Context) {
	defer close(f.done)

	sub := f.hub.Subscribe()
	defer sub.Close()

	f.logger.Info("Job update forwarder started")

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Job update forwarder stopped - context canceled")
			return

		case msg, ok := <-sub.C:
			if !ok {
				f.logger.Info("Job update forwarder stopped - hub closed")
				return
			}
			if msg.Type != TypeJobUpdate {
				continue
			}
			f.forward(ctx, msg)
		}
	}
}

// Done is closed once Start returns
func (f *Forwarder) Done() <-chan struct{} {
	return f.done
}

func (f *Forwarder) forward(ctx context.Context, msg Message) {
	body, err := json.Marshal(msg)
	if err != nil {
		f.logger.Error("Failed to encode job update",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := f.publisher.Publish(pubCtx, body, "application/json"); err != nil {
		f.logger.Error("Failed to forward job update",
			slog.String("job_id", msg.JobID),
			slog.String("status", msg.Status),
			slog.String("error", err.Error()),
		)
		return
	}

	f.logger.Debug("Job update forwarded",
		slog.String("job_id", msg.JobID),
		slog.String("status", msg.Status),
	)
}
