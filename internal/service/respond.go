package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/storefront/internal/auth"
	"github.com/mmynk/storefront/internal/metrics"
	"github.com/mmynk/storefront/internal/models"
)

var (
	ErrForbidden    = errors.New("access denied: admin only")
	errBadJSON      = errors.New("request body must be valid JSON")
	errBodyTooLarge = errors.New("request body too large")
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps store and auth errors onto HTTP status codes.
// Persistence failures and anything unknown are 500s.
func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, errBadJSON):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// outcomeFor classifies an auth transition result for metrics.
func outcomeFor(err error) string {
	var verr *models.ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &verr):
		return metrics.OutcomeInvalid
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, auth.ErrInvalidCredentials):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error = verr.Message
		resp.Field = verr.Field
	case errors.Is(err, auth.ErrEmailExists):
		resp.Error = auth.ErrEmailExists.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		resp.Error = auth.ErrInvalidCredentials.Error()
	case status == http.StatusInternalServerError:
		// Backend details stay in the logs.
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

// maxBodyBytes bounds every request body; the largest form field is 500 characters.
const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errBadJSON
	}
	return nil
}

// simulateLatency waits d before a form transition completes, returning
// early if the request is cancelled.
func simulateLatency(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
