package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/repopulse/repopulse/internal/event"
	"github.com/repopulse/repopulse/internal/storage"
)

// handleWebhook ingests one GitHub webhook delivery:
// verify signature, normalize payload, persist, respond.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limitedReader := io.LimitReader(r.Body, maxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > maxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	// Authentication first; nothing downstream runs on failure.
	signature := r.Header.Get(headerSignature)
	if err := verifySignature(body, signature, s.config.WebhookSecret); err != nil {
		s.logger.Warn("webhook signature verification failed",
			"delivery_id", r.Header.Get(headerDelivery),
			"signature_present", signature != "",
		)
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deliveryID := r.Header.Get(headerDelivery)
	if deliveryID == "" {
		s.respondError(w, http.StatusBadRequest, "missing delivery id")
		return
	}

	if !json.Valid(body) {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	eventType := r.Header.Get(headerEvent)
	ev, err := event.Normalize(eventType, body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ev == nil {
		s.logger.Debug("untracked event type", "event_type", eventType, "delivery_id", deliveryID)
		s.respondJSON(w, http.StatusAccepted, webhookResponse{
			Success: false,
			Message: "event type not tracked",
		})
		return
	}

	// The delivery id is the idempotency key; the timestamp is our own
	// clock read, never taken from the payload.
	ev.RequestID = deliveryID
	ev.Timestamp = event.FormatTime(time.Now())

	if err := s.store.Save(ctx, ev); err != nil {
		if errors.Is(err, storage.ErrDuplicateEvent) {
			// Re-delivery of an already recorded event is a success.
			s.logger.Info("duplicate delivery ignored", "delivery_id", deliveryID)
			s.respondJSON(w, http.StatusOK, webhookResponse{
				Success: true,
				Message: string(ev.Action) + " event already recorded",
			})
			return
		}
		s.logger.Error("failed to save event",
			"delivery_id", deliveryID,
			"action", ev.Action,
			"error", err,
		)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("event recorded",
		"delivery_id", deliveryID,
		"action", ev.Action,
		"author", ev.Author,
		"to_branch", ev.ToBranch,
	)
	s.respondJSON(w, http.StatusOK, webhookResponse{
		Success: true,
		Message: string(ev.Action) + " event recorded",
	})
}

// handleListEvents returns the most recent stored events, newest first.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	events, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list events", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, eventsResponse{Success: true, Data: events})
}

// parseLimit interprets the optional ?limit= query value. Invalid or
// non-positive values fall back to the store default.
func parseLimit(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// handleHealth is the liveness probe. It stays healthy even when the store
// is degraded; storage failures surface on the data routes instead.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// handleIndex serves the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexPage)
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
