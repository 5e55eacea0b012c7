package auth

import (
	"context"

	"github.com/mmynk/storefront/internal/models"
)

// Authenticator defines the session transitions the service layer depends on.
// This abstraction lets handlers be tested against fakes without a persisted store.
type Authenticator interface {
	// Register creates a new account and authenticates the session as it.
	// Returns ErrEmailExists if the email is already registered.
	Register(ctx context.Context, name, email, password string) (*models.SessionUser, error)

	// Login authenticates the session as the account matching email and password exactly.
	// Returns ErrInvalidCredentials if no account matches.
	Login(ctx context.Context, email, password string) (*models.SessionUser, error)

	// Logout clears the session. It is idempotent.
	Logout(ctx context.Context) error

	// Session returns a copy of the current session.
	Session(ctx context.Context) (models.Session, error)
}
