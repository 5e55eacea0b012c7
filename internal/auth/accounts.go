package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mmynk/storefront/internal/ids"
	"github.com/mmynk/storefront/internal/models"
	"github.com/mmynk/storefront/internal/storage"
)

const (
	// StateKey is the persisted-store key holding accounts and session.
	StateKey = "user"

	DemoName     = "Demo User"
	DemoEmail    = models.AdminEmail
	DemoPassword = "demo123"
	demoID       = 1

	// MinPasswordLength is enforced on registration only.
	MinPasswordLength = 6
)

// Messages recorded in Session.Error after a failed transition.
const (
	msgEmailExists        = "User already exists with this email"
	msgInvalidCredentials = "Invalid email or password"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
)

// Ensure AccountStore implements Authenticator
var _ Authenticator = (*AccountStore)(nil)

// State is a password-free snapshot of the account store.
type State struct {
	Accounts []models.SessionUser `json:"accounts"`
	Session  models.Session       `json:"session"`
}

// record is the persisted shape under StateKey.
// Accounts is only read: older records stored the list under that name.
type record struct {
	IsAuthenticated bool                `json:"isAuthenticated"`
	User            *models.SessionUser `json:"user"`
	Users           []models.Account    `json:"users"`
	Accounts        []models.Account    `json:"accounts,omitempty"`
	Error           *string             `json:"error"`
}

// AccountStore owns the registered accounts and the single active session.
//
// The persisted record is re-read at the start of every call, so an account
// registered by another process sharing the store is not lost on the next
// write. Every transition, including duplicate-email and bad-credential failures,
// overwrites the whole persisted record.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type AccountStore struct {
	mu     sync.Mutex
	store  storage.Store
	ids    ids.Generator
	now    func() time.Time
	logger *slog.Logger

	unsaved  bool
	accounts []models.Account
	session  models.Session
}

// Option configures an AccountStore.
type Option func(*AccountStore)

// WithIDs sets the generator for new account ids.
func WithIDs(g ids.Generator) Option {
	return func(a *AccountStore) { a.ids = g }
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(a *AccountStore) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *AccountStore) { a.logger = l }
}

// NewAccountStore creates an AccountStore over store. Nothing is read until
// Initialize or the first transition.
func NewAccountStore(store storage.Store, opts ...Option) *AccountStore {
	a := &AccountStore{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.ids == nil {
		a.ids = ids.NewMonotonic(a.now)
	}
	return a
}

// Initialize loads the persisted record, or synthesizes the default state
// holding only the demo account. A loaded record missing the demo account
// gets it appended. Nothing is written.
func (a *AccountStore) Initialize(ctx context.Context) (State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return State{}, err
	}
	return a.snapshot(), nil
}

// Register appends a new account and authenticates the session as it.
//
// On a duplicate email the session error is set and persisted, accounts stay
// unchanged and ErrEmailExists is returned whatever the other fields hold.
// Field validation applies to fresh emails only. If only the final write fails
// the in-memory transition is kept and a *storage.PersistenceError is returned.
func (a *AccountStore) Register(ctx context.Context, name, email, password string) (*models.SessionUser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if a.findByEmail(email) >= 0 {
		a.logger.Warn("Registration rejected", "email", email, "reason", "duplicate email")
		a.session.Error = msgEmailExists
		return nil, errors.Join(ErrEmailExists, a.save(ctx))
	}
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	account := models.Account{
		ID:        a.nextID(),
		Name:      name,
		Email:     email,
		Password:  password,
		CreatedAt: a.now().UTC(),
	}
	a.accounts = append(a.accounts, account)
	a.session = models.Session{IsAuthenticated: true, User: account.Public()}

	if err := a.save(ctx); err != nil {
		return nil, err
	}

	a.logger.Info("User registered successfully", "user_id", account.ID, "email", account.Email)
	return account.Public(), nil
}

// Login authenticates the session as the account whose email and password
// both match exactly. Empty fields are simply a pair that matches nothing.
//
// On mismatch the session error is set and persisted but IsAuthenticated and
// User are left as they were: a failed attempt does not log out a live session.
func (a *AccountStore) Login(ctx context.Context, email, password string) (*models.SessionUser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var found *models.Account
	for i := range a.accounts {
		if a.accounts[i].Email == email && a.accounts[i].Password == password {
			found = &a.accounts[i]
			break
		}
	}

	if found == nil {
		a.logger.Warn("Login failed", "email", email)
		a.session.Error = msgInvalidCredentials
		return nil, errors.Join(ErrInvalidCredentials, a.save(ctx))
	}

	a.session = models.Session{IsAuthenticated: true, User: found.Public()}
	if err := a.save(ctx); err != nil {
		return nil, err
	}

	a.logger.Info("User logged in successfully", "user_id", found.ID, "email", found.Email)
	return found.Public(), nil
}

// Logout clears the session unconditionally and persists. Accounts are kept.
func (a *AccountStore) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return err
	}

	a.session = models.Session{}
	if err := a.save(ctx); err != nil {
		return err
	}

	a.logger.Info("User logged out")
	return nil
}

// Session returns a copy of the current session.
func (a *AccountStore) Session(ctx context.Context) (models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return models.Session{}, err
	}
	return a.session.Clone(), nil
}

// IsAdmin reports whether the session is authenticated as the demo admin.
func (a *AccountStore) IsAdmin(ctx context.Context) (bool, error) {
	s, err := a.Session(ctx)
	if err != nil {
		return false, err
	}
	return s.IsAdmin(), nil
}

// Accounts returns the password-free projections of every registered account.
func (a *AccountStore) Accounts(ctx context.Context) ([]models.SessionUser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return a.snapshot().Accounts, nil
}

// ensureLoaded re-reads the persisted record so writes from another process
// sharing the store are seen. While a write is outstanding the in-memory
// state is newer than the record and is used as is. Caller holds mu.
func (a *AccountStore) ensureLoaded(ctx context.Context) error {
	if a.unsaved {
		return nil
	}
	return a.load(ctx)
}

// load replaces in-memory state from the persisted record. Caller holds mu.
func (a *AccountStore) load(ctx context.Context) error {
	raw, found, err := storage.Get(ctx, a.store, StateKey)
	if err != nil {
		return err
	}

	if !found {
		a.accounts = []models.Account{a.demoAccount()}
		a.session = models.Session{}
		return nil
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return &storage.PersistenceError{
			Op:  "decode",
			Key: StateKey,
			Err: fmt.Errorf("malformed account record: %w", err),
		}
	}

	a.accounts = sanitizeAccounts(append(rec.Users, rec.Accounts...))
	if a.findByEmail(DemoEmail) < 0 {
		a.logger.Info("Restoring demo account")
		a.accounts = append(a.accounts, a.demoAccount())
	}

	a.session = models.Session{IsAuthenticated: rec.IsAuthenticated, User: rec.User}
	if rec.Error != nil {
		a.session.Error = *rec.Error
	}
	a.sanitizeSession()

	a.logger.Debug("Account state loaded", "accounts", len(a.accounts), "authenticated", a.session.IsAuthenticated)
	return nil
}

// save overwrites the persisted record with the full in-memory state.
func (a *AccountStore) save(ctx context.Context) error {
	rec := record{
		IsAuthenticated: a.session.IsAuthenticated,
		User:            a.session.User,
		Users:           a.accounts,
	}
	if a.session.Error != "" {
		msg := a.session.Error
		rec.Error = &msg
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode account record: %w", err)
	}
	if err := storage.Set(ctx, a.store, StateKey, data); err != nil {
		a.logger.Error("Failed to persist account state", "error", err)
		a.unsaved = true
		return err
	}
	a.unsaved = false
	return nil
}

func (a *AccountStore) snapshot() State {
	users := make([]models.SessionUser, 0, len(a.accounts))
	for _, acc := range a.accounts {
		users = append(users, *acc.Public())
	}
	return State{Accounts: users, Session: a.session.Clone()}
}

func (a *AccountStore) findByEmail(email string) int {
	for i, acc := range a.accounts {
		if acc.Email == email {
			return i
		}
	}
	return -1
}

func (a *AccountStore) nextID() int64 {
	for {
		id := a.ids.Next()
		if !a.hasID(id) {
			return id
		}
	}
}

func (a *AccountStore) hasID(id int64) bool {
	for _, acc := range a.accounts {
		if acc.ID == id {
			return true
		}
	}
	return false
}

func (a *AccountStore) demoAccount() models.Account {
	return models.Account{
		ID:        demoID,
		Name:      DemoName,
		Email:     DemoEmail,
		Password:  DemoPassword,
		CreatedAt: a.now().UTC(),
	}
}

// sanitizeSession drops a session that points at an account no longer present.
func (a *AccountStore) sanitizeSession() {
	s := &a.session
	if !s.IsAuthenticated || s.User == nil {
		s.IsAuthenticated = false
		s.User = nil
		return
	}
	if a.findByEmail(s.User.Email) < 0 {
		a.logger.Warn("Persisted session refers to unknown account, resetting", "email", s.User.Email)
		s.IsAuthenticated = false
		s.User = nil
	}
}

// sanitizeAccounts drops accounts without an email and keeps the first
// account for each email.
func sanitizeAccounts(in []models.Account) []models.Account {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Account, 0, len(in))
	for _, acc := range in {
		if acc.Email == "" {
			continue
		}
		if _, dup := seen[acc.Email]; dup {
			continue
		}
		seen[acc.Email] = struct{}{}
		out = append(out, acc)
	}
	return out
}

func validateRegistration(name, email, password string) error {
	switch {
	case name == "":
		return models.Invalid("name", "name is required")
	case email == "":
		return models.Invalid("email", "email is required")
	case !strings.Contains(email, "@"):
		return models.Invalid("email", "please enter a valid email address")
	case password == "":
		return models.Invalid("password", "password is required")
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return models.Invalid("password", fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	return nil
}
