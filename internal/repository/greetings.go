// Package repository provides identity-bearing CRUD for greeting cards on
// top of a storage.RecordStore.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/valentine/internal/models"
	"go.uber.org/zap"
)

// TimeLayout is the ISO-8601 form createdAt is written in.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// RecordStore is the persistence the repository needs.
type RecordStore interface {
	// ReadAll returns the full collection; it never fails.
	ReadAll(ctx context.Context) []models.Greeting
	// WriteAll replaces the full collection.
	WriteAll(ctx context.Context, records []models.Greeting) error
	// Clear removes the collection.
	Clear(ctx context.Context) error
}

// GreetingRepository implements create, read, list, delete and clear over a
// RecordStore. It owns id generation and timestamps.
//
// Each operation is a read-modify-write with no locking; concurrent writers
// can lose updates.
type GreetingRepository struct {
	store RecordStore
	newID IDGenerator
	now   func() time.Time
	log   *zap.Logger
}

// Option configures a GreetingRepository.
type Option func(*GreetingRepository)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(r *GreetingRepository) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *GreetingRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger for best-effort failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *GreetingRepository) {
		if l != nil {
			r.log = l
		}
	}
}

// NewGreetingRepository creates a repository over store.
func NewGreetingRepository(store RecordStore, opts ...Option) *GreetingRepository {
	r := &GreetingRepository{
		store: store,
		newID: NewUUID,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a new greeting built from fields plus a fresh id and the
// current time, and returns it.
//
//	ctx:    context for cancellation
//	fields: caller-supplied card content
//
// If the write fails the error is returned and no greeting is; the
// repository keeps nothing from the attempt.
func (r *GreetingRepository) Create(ctx context.Context, fields models.GreetingFields) (*models.Greeting, error) {
	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	g := models.Greeting{
		ID:        id,
		Sender:    fields.Sender,
		Receiver:  fields.Receiver,
		Message:   fields.Message,
		Image:     fields.Image,
		Theme:     fields.Theme,
		CreatedAt: r.now().UTC().Format(TimeLayout),
	}

	records := r.store.ReadAll(ctx)
	records = append(records, g)
	if err := r.store.WriteAll(ctx, records); err != nil {
		r.log.Error("failed to save greeting", zap.Error(err))
		return nil, fmt.Errorf("save greeting: %w", err)
	}
	return &g, nil
}

// GetByID returns the first greeting with the given id, or nil when there is
// none. Absence is not an error; an error means ctx was done.
func (r *GreetingRepository) GetByID(ctx context.Context, id string) (*models.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, g := range r.store.ReadAll(ctx) {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, nil
}

// List returns every stored greeting.
func (r *GreetingRepository) List(ctx context.Context) []models.Greeting {
	return r.store.ReadAll(ctx)
}

// DeleteByID removes every greeting with the given id and reports whether
// the store accepted the write. Deleting an unknown id succeeds.
func (r *GreetingRepository) DeleteByID(ctx context.Context, id string) bool {
	records := r.store.ReadAll(ctx)
	kept := records[:0]
	for _, g := range records {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if err := r.store.WriteAll(ctx, kept); err != nil {
		r.log.Error("failed to delete greeting", zap.String("id", id), zap.Error(err))
		return false
	}
	return true
}

// ClearAll removes every greeting and reports whether the store succeeded.
func (r *GreetingRepository) ClearAll(ctx context.Context) bool {
	if err := r.store.Clear(ctx); err != nil {
		r.log.Error("failed to clear greetings", zap.Error(err))
		return false
	}
	return true
}
