// Package contact stores messages submitted through the contact form and
// the read and prune operations behind the admin inbox.
package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mmynk/storefront/internal/ids"
	"github.com/mmynk/storefront/internal/models"
	"github.com/mmynk/storefront/internal/storage"
)

const (
	// MessagesKey is the persisted-store key holding the message list.
	MessagesKey = "contactMessages"

	// FilterAll selects every subject in List.
	FilterAll = "all"

	MinMessageLength = 10
	// MaxMessageLength is the form's advisory cap. The store does not enforce it.
	MaxMessageLength = 500
)

// Counts summarises the inbox for the admin view.
type Counts struct {
	Total     int                    `json:"total"`
	BySubject map[models.Subject]int `json:"bySubject"`
}

// MessageStore owns the persisted contact messages.
//
// The list is stored oldest first, in insertion order. Newest-first ordering
// only happens in List. Every operation re-reads the persisted list; nothing
// is cached between calls.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type MessageStore struct {
	mu     sync.Mutex
	store  storage.Store
	ids    ids.Generator
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a MessageStore.
type Option func(*MessageStore)

// WithIDs sets the generator for submitted message ids.
func WithIDs(g ids.Generator) Option {
	return func(m *MessageStore) { m.ids = g }
}

// WithClock sets the time source for timestamps and seeding.
func WithClock(now func() time.Time) Option {
	return func(m *MessageStore) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *MessageStore) { m.logger = l }
}

// NewMessageStore creates a MessageStore over store.
func NewMessageStore(store storage.Store, opts ...Option) *MessageStore {
	m := &MessageStore{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ids == nil {
		m.ids = ids.NewMonotonic(m.now)
	}
	return m
}

// SeedIfEmpty writes the five sample messages when the list is absent or
// empty and reports whether it did. Once anything is stored it never writes.
func (m *MessageStore) SeedIfEmpty(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, err := m.load(ctx)
	if err != nil {
		return false, err
	}
	if len(msgs) > 0 {
		return false, nil
	}

	if err := m.save(ctx, sampleMessages(m.now())); err != nil {
		return false, err
	}
	m.logger.Info("Sample contact messages seeded")
	return true, nil
}

// Submit validates and appends a new message, returning the stored record.
// Nothing is written when validation fails.
func (m *MessageStore) Submit(ctx context.Context, name, email, subject, message string) (models.ContactMessage, error) {
	subj, err := validateSubmission(name, email, subject, message)
	if err != nil {
		return models.ContactMessage{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, err := m.load(ctx)
	if err != nil {
		return models.ContactMessage{}, err
	}

	msg := models.ContactMessage{
		ID:        m.nextID(msgs),
		Name:      name,
		Email:     email,
		Subject:   subj,
		Message:   message,
		Timestamp: m.now().UTC(),
	}
	if err := m.save(ctx, append(msgs, msg)); err != nil {
		return models.ContactMessage{}, err
	}

	m.logger.Info("Contact message submitted", "message_id", msg.ID, "subject", msg.Subject)
	return msg, nil
}

// List returns messages newest first. FilterAll or an empty filter returns
// everything; any other value keeps only messages with that subject.
func (m *MessageStore) List(ctx context.Context, filter string) ([]models.ContactMessage, error) {
	m.mu.Lock()
	msgs, err := m.load(ctx)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.ContactMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		if filter == "" || filter == FilterAll || string(msgs[i].Subject) == filter {
			out = append(out, msgs[i])
		}
	}
	// Reversed insertion order breaks timestamp ties in favour of the later write.
	slices.SortStableFunc(out, func(a, b models.ContactMessage) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}

// Delete removes the message with id and returns how many were removed.
// An unknown id is not an error and performs no write.
func (m *MessageStore) Delete(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, err := m.load(ctx)
	if err != nil {
		return 0, err
	}

	idx := slices.IndexFunc(msgs, func(msg models.ContactMessage) bool { return msg.ID == id })
	if idx < 0 {
		return 0, nil
	}

	if err := m.save(ctx, slices.Delete(msgs, idx, idx+1)); err != nil {
		return 0, err
	}
	m.logger.Info("Contact message deleted", "message_id", id)
	return 1, nil
}

// ClearAll removes every message. It is idempotent.
func (m *MessageStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := storage.Delete(ctx, m.store, MessagesKey); err != nil {
		m.logger.Error("Failed to clear contact messages", "error", err)
		return err
	}
	m.logger.Info("All contact messages cleared")
	return nil
}

// Count returns the total and per-subject message counts.
func (m *MessageStore) Count(ctx context.Context) (Counts, error) {
	m.mu.Lock()
	msgs, err := m.load(ctx)
	m.mu.Unlock()
	if err != nil {
		return Counts{}, err
	}

	c := Counts{Total: len(msgs), BySubject: make(map[models.Subject]int, len(models.Subjects))}
	for _, s := range models.Subjects {
		c.BySubject[s] = 0
	}
	for _, msg := range msgs {
		c.BySubject[msg.Subject]++
	}
	return c, nil
}

// load reads the persisted list in stored (oldest first) order.
func (m *MessageStore) load(ctx context.Context) ([]models.ContactMessage, error) {
	raw, found, err := storage.Get(ctx, m.store, MessagesKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var msgs []models.ContactMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, &storage.PersistenceError{
			Op:  "decode",
			Key: MessagesKey,
			Err: fmt.Errorf("malformed message list: %w", err),
		}
	}
	return m.sanitize(msgs), nil
}

// sanitize drops records with an unknown subject, a zero id or an id already
// seen, keeping the first. The cleaned list is persisted by the next write.
func (m *MessageStore) sanitize(msgs []models.ContactMessage) []models.ContactMessage {
	seen := make(map[int64]struct{}, len(msgs))
	out := msgs[:0]
	for _, msg := range msgs {
		_, dup := seen[msg.ID]
		var reason string
		switch {
		case msg.ID == 0:
			reason = "missing id"
		case dup:
			reason = "duplicate id"
		case !msg.Subject.Valid():
			reason = "unknown subject"
		}
		if reason != "" {
			m.logger.Warn("Dropping stored contact message", "message_id", msg.ID, "subject", msg.Subject, "reason", reason)
			continue
		}
		seen[msg.ID] = struct{}{}
		out = append(out, msg)
	}
	return out
}

func (m *MessageStore) save(ctx context.Context, msgs []models.ContactMessage) error {
	if msgs == nil {
		msgs = []models.ContactMessage{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to encode message list: %w", err)
	}
	if err := storage.Set(ctx, m.store, MessagesKey, data); err != nil {
		m.logger.Error("Failed to persist contact messages", "error", err)
		return err
	}
	return nil
}

func (m *MessageStore) nextID(msgs []models.ContactMessage) int64 {
	taken := make(map[int64]struct{}, len(msgs))
	for _, msg := range msgs {
		taken[msg.ID] = struct{}{}
	}
	for {
		id := m.ids.Next()
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}

func validateSubmission(name, email, subject, message string) (models.Subject, error) {
	switch {
	case name == "":
		return "", models.Invalid("name", "name is required")
	case email == "":
		return "", models.Invalid("email", "email is required")
	case subject == "":
		return "", models.Invalid("subject", "subject is required")
	case message == "":
		return "", models.Invalid("message", "message is required")
	case !strings.Contains(email, "@"):
		return "", models.Invalid("email", "please enter a valid email address")
	}

	subj, err := models.ParseSubject(subject)
	if err != nil {
		return "", err
	}

	if n := utf8.RuneCountInString(message); n < MinMessageLength {
		return "", models.Invalid("message", fmt.Sprintf("message must be at least %d characters long (got %d)", MinMessageLength, n))
	}
	return subj, nil
}
