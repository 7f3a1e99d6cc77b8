package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atinyakov/valentine/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultNamespace is the key the greeting collection lives under.
	DefaultNamespace = "valentine_messages"
	// DefaultMaxBytes mirrors the usual browser localStorage budget.
	DefaultMaxBytes = 5 << 20
)

// RecordStore persists the whole greeting collection as one JSON array
// under a single key of a Backend.
//
// Reads never fail: a missing or unreadable collection is an empty one.
// Writes do fail loudly, because losing a write silently is worse.
type RecordStore struct {
	backend  Backend
	key      string
	maxBytes int
	log      *zap.Logger
}

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithLogger sets the logger used to report degraded reads.
func WithLogger(l *zap.Logger) Option {
	return func(s *RecordStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxBytes caps the serialized collection size. Zero or less disables
// the cap.
func WithMaxBytes(n int) Option {
	return func(s *RecordStore) { s.maxBytes = n }
}

// NewRecordStore creates a store over backend. An empty namespace falls
// back to DefaultNamespace.
func NewRecordStore(backend Backend, namespace string, opts ...Option) *RecordStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	s := &RecordStore{
		backend:  backend,
		key:      namespace,
		maxBytes: DefaultMaxBytes,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the key the collection is stored under.
func (s *RecordStore) Namespace() string {
	return s.key
}

// ReadAll returns every stored greeting, or an empty slice when the
// namespace is absent or cannot be read or decoded.
func (s *RecordStore) ReadAll(ctx context.Context) []models.Greeting {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("failed to read greetings", zap.String("key", s.key), zap.Error(err))
		return []models.Greeting{}
	}
	if !ok {
		return []models.Greeting{}
	}

	var records []models.Greeting
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.log.Warn("stored greetings are corrupt, treating as empty", zap.String("key", s.key), zap.Error(err))
		return []models.Greeting{}
	}
	if records == nil {
		return []models.Greeting{}
	}
	return records
}

// WriteAll replaces the stored collection with records in one backend write.
func (s *RecordStore) WriteAll(ctx context.Context, records []models.Greeting) error {
	if records == nil {
		records = []models.Greeting{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode greetings: %w", err)
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes over a %d byte limit", ErrQuotaExceeded, len(data), s.maxBytes)
	}
	if err := s.backend.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("write greetings: %w", err)
	}
	return nil
}

// Clear removes the namespace. Clearing an empty store succeeds.
func (s *RecordStore) Clear(ctx context.Context) error {
	if err := s.backend.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("clear greetings: %w", err)
	}
	return nil
}
