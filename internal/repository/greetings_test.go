package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/valentine/internal/models"
	"github.com/atinyakov/valentine/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRepo(t *testing.T, opts ...Option) (*GreetingRepository, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	store := storage.NewRecordStore(backend, storage.DefaultNamespace, storage.WithMaxBytes(0))
	return NewGreetingRepository(store, opts...), backend
}

func TestCreate_PurpleScenario(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	g, err := repo.Create(ctx, models.GreetingFields{Sender: "A", Receiver: "B", Message: "hi", Theme: "purple"})
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "purple", g.Theme)
	_, err = time.Parse(time.RFC3339Nano, g.CreatedAt)
	assert.NoError(t, err, "createdAt must be ISO-8601")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, g.CreatedAt)

	got, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "purple", got.Theme)
	assert.Equal(t, *g, *got)
}

func TestCreate_UsesClockAndGenerator(t *testing.T) {
	fixed := time.Date(2026, 2, 14, 9, 30, 0, 123_000_000, time.FixedZone("WIB", 7*3600))
	repo, _ := newRepo(t,
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() (string, error) { return "fixed-id", nil }),
	)

	g, err := repo.Create(context.Background(), models.GreetingFields{})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", g.ID)
	assert.Equal(t, "2026-02-14T02:30:00.123Z", g.CreatedAt)
}

func TestCreate_IDsAreUnique(t *testing.T) {
	for _, scheme := range []string{"uuid", "ulid"} {
		t.Run(scheme, func(t *testing.T) {
			gen := GeneratorFor(scheme)
			seen := make(map[string]struct{}, 10_000)
			for i := 0; i < 10_000; i++ {
				id, err := gen()
				require.NoError(t, err)
				require.NotEmpty(t, id)
				_, dup := seen[id]
				require.False(t, dup, "duplicate id %s after %d ids", id, i)
				seen[id] = struct{}{}
			}
		})
	}
}

func TestCreate_RepeatedCreatesAreDistinct(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		g, err := repo.Create(ctx, models.GreetingFields{Message: "m"})
		require.NoError(t, err)
		_, dup := seen[g.ID]
		require.False(t, dup)
		seen[g.ID] = struct{}{}
	}
	assert.Len(t, repo.List(ctx), 200)
}

func TestCreate_WriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	var lastID string
	repo, backend := newRepo(t,
		WithLogger(zap.New(core)),
		WithIDGenerator(func() (string, error) {
			id, err := NewUUID()
			lastID = id
			return id, err
		}),
	)
	ctx := context.Background()
	backend.FailWrites = true

	g, err := repo.Create(ctx, models.GreetingFields{Sender: "A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrWriteRejected))
	assert.Nil(t, g)
	assert.Equal(t, 1, logs.Len())

	backend.FailWrites = false
	got, err := repo.GetByID(ctx, lastID)
	require.NoError(t, err)
	assert.Nil(t, got, "failed create must not be retrievable")
	assert.Empty(t, repo.List(ctx))
}

func TestCreate_IDGeneratorFailure(t *testing.T) {
	repo, backend := newRepo(t, WithIDGenerator(func() (string, error) {
		return "", errors.New("entropy exhausted")
	}))

	g, err := repo.Create(context.Background(), models.GreetingFields{})
	require.Error(t, err)
	assert.Nil(t, g)
	_, ok, _ := backend.Get(context.Background(), storage.DefaultNamespace)
	assert.False(t, ok)
}

func TestGetByID_Absent(t *testing.T) {
	repo, _ := newRepo(t)
	got, err := repo.GetByID(context.Background(), "nonexistent")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByID_CancelledContext(t *testing.T) {
	repo, _ := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := repo.GetByID(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestDeleteByID(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	var created []*models.Greeting
	for _, s := range []string{"a", "b", "c"} {
		g, err := repo.Create(ctx, models.GreetingFields{Sender: s})
		require.NoError(t, err)
		created = append(created, g)
	}

	assert.True(t, repo.DeleteByID(ctx, created[1].ID))

	got, err := repo.GetByID(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, g := range []*models.Greeting{created[0], created[2]} {
		other, err := repo.GetByID(ctx, g.ID)
		require.NoError(t, err)
		require.NotNil(t, other)
		assert.Equal(t, *g, *other)
	}

	assert.True(t, repo.DeleteByID(ctx, "unknown"))
	assert.Len(t, repo.List(ctx), 2)
}

func TestDeleteByID_StoreFailure(t *testing.T) {
	repo, backend := newRepo(t)
	ctx := context.Background()
	g, err := repo.Create(ctx, models.GreetingFields{})
	require.NoError(t, err)

	backend.FailWrites = true
	assert.False(t, repo.DeleteByID(ctx, g.ID))

	backend.FailWrites = false
	still, _ := repo.GetByID(ctx, g.ID)
	assert.NotNil(t, still)
}

func TestClearAll(t *testing.T) {
	repo, backend := newRepo(t)
	ctx := context.Background()
	_, err := repo.Create(ctx, models.GreetingFields{})
	require.NoError(t, err)

	assert.True(t, repo.ClearAll(ctx))
	assert.Empty(t, repo.List(ctx))
	assert.True(t, repo.ClearAll(ctx), "second clear must succeed")

	backend.FailWrites = true
	assert.False(t, repo.ClearAll(ctx))
}

func TestGeneratorFor(t *testing.T) {
	id, err := GeneratorFor("ulid")()
	require.NoError(t, err)
	assert.Len(t, id, 26)

	id, err = GeneratorFor("")()
	require.NoError(t, err)
	assert.Len(t, id, 36)
}
