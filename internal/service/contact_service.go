package service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mmynk/storefront/internal/auth"
	"github.com/mmynk/storefront/internal/contact"
	"github.com/mmynk/storefront/internal/metrics"
	"github.com/mmynk/storefront/internal/middleware"
	"github.com/mmynk/storefront/internal/models"
)

// Inbox is the subset of the message store the handlers use.
type Inbox interface {
	Submit(ctx context.Context, name, email, subject, message string) (models.ContactMessage, error)
	List(ctx context.Context, filter string) ([]models.ContactMessage, error)
	Count(ctx context.Context) (contact.Counts, error)
	Delete(ctx context.Context, id int64) (int, error)
	ClearAll(ctx context.Context) error
	SeedIfEmpty(ctx context.Context) (bool, error)
}

// ContactService serves the contact form and the admin inbox.
type ContactService struct {
	inbox    Inbox
	sessions auth.Authenticator
	metrics  *metrics.Metrics
	logger   *slog.Logger
	latency  time.Duration
}

// NewContactService creates a ContactService. sessions decides admin access.
func NewContactService(inbox Inbox, sessions auth.Authenticator, m *metrics.Metrics, logger *slog.Logger, latency time.Duration) *ContactService {
	return &ContactService{
		inbox:    inbox,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
		latency:  latency,
	}
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type listResponse struct {
	Messages []models.ContactMessage `json:"messages"`
	Filter   string                  `json:"filter"`
	Showing  int                     `json:"showing"`
	Total    int                     `json:"total"`
	Counts   map[models.Subject]int  `json:"counts"`
}

// Submit stores a contact form message. Anyone may submit.
func (s *ContactService) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("Submit request received", "subject", req.Subject, "email", req.Email)

	if err := simulateLatency(r.Context(), s.latency); err != nil {
		writeError(w, err)
		return
	}

	msg, err := s.inbox.Submit(r.Context(), req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		s.logger.Warn("Submit failed", "error", err)
		writeError(w, err)
		return
	}
	s.metrics.Message("submit")

	writeJSON(w, http.StatusCreated, msg)
}

// List returns the inbox newest first, optionally filtered by ?subject=.
func (s *ContactService) List(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	filter := r.URL.Query().Get("subject")
	if filter == "" {
		filter = contact.FilterAll
	}

	msgs, err := s.inbox.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("List failed", "filter", filter, "error", err)
		writeError(w, err)
		return
	}
	counts, err := s.inbox.Count(r.Context())
	if err != nil {
		s.logger.Error("Count failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Messages: msgs,
		Filter:   filter,
		Showing:  len(msgs),
		Total:    counts.Total,
		Counts:   counts.BySubject,
	})
}

// Seed loads the sample messages when the inbox is empty.
func (s *ContactService) Seed(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	seeded, err := s.inbox.SeedIfEmpty(r.Context())
	if err != nil {
		s.logger.Error("Seed failed", "error", err)
		writeError(w, err)
		return
	}
	if seeded {
		s.metrics.Message("seed")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"seeded": seeded})
}

// Delete removes one message by id.
func (s *ContactService) Delete(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, models.Invalid("id", "message id must be an integer"))
		return
	}

	removed, err := s.inbox.Delete(r.Context(), id)
	if err != nil {
		s.logger.Error("Delete failed", "message_id", id, "error", err)
		writeError(w, err)
		return
	}
	if removed > 0 {
		s.metrics.Message("delete")
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// Clear removes every message.
func (s *ContactService) Clear(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	if err := s.inbox.ClearAll(r.Context()); err != nil {
		s.logger.Error("Clear failed", "error", err)
		writeError(w, err)
		return
	}
	s.metrics.Message("clear")
	w.WriteHeader(http.StatusNoContent)
}

// authorize admits the request only when the token's email is the admin and
// the live session is authenticated as that same admin.
func (s *ContactService) authorize(w http.ResponseWriter, r *http.Request) bool {
	email := middleware.GetEmail(r.Context())

	session, err := s.sessions.Session(r.Context())
	if err != nil {
		s.logger.Error("Failed to read session", "error", err)
		writeError(w, err)
		return false
	}

	if email != models.AdminEmail || !session.IsAdmin() {
		s.logger.Warn("Admin access denied", "email", email)
		writeError(w, ErrForbidden)
		return false
	}
	return true
}
