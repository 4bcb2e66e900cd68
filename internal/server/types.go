package server

import (
	"context"

	"github.com/repopulse/repopulse/internal/event"
)

// EventStore is the persistence surface the server needs.
type EventStore interface {
	Save(ctx context.Context, ev *event.Event) error
	List(ctx context.Context, limit int) ([]event.Event, error)
}

// Config holds HTTP server configuration.
type Config struct {
	// Listen is the address to bind, e.g. "127.0.0.1:8080".
	Listen string

	// WebhookSecret is the shared secret for signature verification.
	WebhookSecret string
}

// GitHub webhook headers consumed by the ingestion path.
const (
	headerEvent     = "X-GitHub-Event"
	headerDelivery  = "X-GitHub-Delivery"
	headerSignature = "X-Hub-Signature-256"
)

// maxBodySize caps webhook request bodies at 1 MiB.
const maxBodySize = 1 << 20

// webhookResponse is the JSON body for webhook ingestion outcomes.
type webhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// eventsResponse is the JSON body for GET /api/events.
type eventsResponse struct {
	Success bool          `json:"success"`
	Data    []event.Event `json:"data"`
}

// errorResponse is the JSON body for failures.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is the JSON body for GET /health.
type healthResponse struct {
	Status string `json:"status"`
}
