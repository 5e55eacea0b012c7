package models

import "time"

// AdminEmail is the single account allowed to view and prune contact messages.
// There is no role system: admin access is an equality check on the session email.
const AdminEmail = "demo@example.com"

// Account represents a registered user account.
//
// Passwords are stored as entered. The account list lives only in the
// persisted store and is never exposed with the password outside the auth package.
type Account struct {
	// ID is the unique identifier for the account.
	ID int64 `json:"id"`

	// Name is the display name entered at registration.
	Name string `json:"name"`

	// Email is the account's email address (unique within the account list).
	// Matching is exact and case-sensitive.
	Email string `json:"email"`

	// Password is the plaintext credential.
	Password string `json:"password"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the password-free projection of the account.
func (a Account) Public() *SessionUser {
	return &SessionUser{ID: a.ID, Name: a.Name, Email: a.Email}
}

// SessionUser is the projection of an Account exposed through the session.
type SessionUser struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Session is the current authentication status.
type Session struct {
	IsAuthenticated bool `json:"isAuthenticated" yaml:"isAuthenticated"`

	// User is nil when nobody is logged in.
	User *SessionUser `json:"user" yaml:"user"`

	// Error is the message of the last failed transition, or empty.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// IsAdmin reports whether the session is authenticated as AdminEmail.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated && s.User != nil && s.User.Email == AdminEmail
}

// Clone returns a deep copy so callers cannot mutate store state through User.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
