package service

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/storefront/internal/auth"
	"github.com/mmynk/storefront/internal/metrics"
	"github.com/mmynk/storefront/internal/models"
)

// AuthService serves the register, login and logout forms.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	metrics       *metrics.Metrics
	logger        *slog.Logger
	latency       time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, m *metrics.Metrics, logger *slog.Logger, latency time.Duration) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		metrics:       m,
		logger:        logger,
		latency:       latency,
	}
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.SessionUser `json:"user"`
	Token string              `json:"token"`
}

// Register creates a new account and logs the session into it.
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("Register request", "email", req.Email)

	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		writeError(w, models.Invalid("confirmPassword", "passwords do not match"))
		return
	}
	if err := simulateLatency(r.Context(), s.latency); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.authenticator.Register(r.Context(), req.Name, req.Email, req.Password)
	s.metrics.Auth("register", outcomeFor(err))
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Email, "error", err)
		writeError(w, err)
		return
	}

	s.respondWithToken(w, http.StatusCreated, user)
}

// Login authenticates the session against the stored accounts.
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("Login request", "email", req.Email)

	switch {
	case req.Email == "":
		writeError(w, models.Invalid("email", "email is required"))
		return
	case req.Password == "":
		writeError(w, models.Invalid("password", "password is required"))
		return
	}
	if err := simulateLatency(r.Context(), s.latency); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.authenticator.Login(r.Context(), req.Email, req.Password)
	s.metrics.Auth("login", outcomeFor(err))
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Email, "error", err)
		writeError(w, err)
		return
	}

	s.respondWithToken(w, http.StatusOK, user)
}

// Logout clears the session. Previously issued tokens stop granting admin
// access because admin routes also check the live session.
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Logout request")

	err := s.authenticator.Logout(r.Context())
	s.metrics.Auth("logout", outcomeFor(err))
	if err != nil {
		s.logger.Error("Logout failed", "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the current session without the password.
func (s *AuthService) Session(w http.ResponseWriter, r *http.Request) {
	session, err := s.authenticator.Session(r.Context())
	if err != nil {
		s.logger.Error("Failed to read session", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *AuthService) respondWithToken(w http.ResponseWriter, status int, user *models.SessionUser) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, status, authResponse{User: user, Token: token})
}
