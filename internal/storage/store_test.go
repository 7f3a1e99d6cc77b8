package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinyakov/valentine/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sample(id string) models.Greeting {
	img := "data:image/png;base64,AAAA"
	return models.Greeting{
		ID:        id,
		Sender:    "A",
		Receiver:  "B",
		Message:   "hi",
		Image:     &img,
		Theme:     "purple",
		CreatedAt: "2026-02-14T10:00:00.000Z",
	}
}

func TestReadAll_NamespaceAbsent(t *testing.T) {
	s := NewRecordStore(NewMemoryBackend(), "")
	got := s.ReadAll(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if s.Namespace() != DefaultNamespace {
		t.Errorf("namespace = %q; want %q", s.Namespace(), DefaultNamespace)
	}
}

func TestReadAll_CorruptValue(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"object instead of array", `{"id":"x"}`},
		{"wrong field types", `[{"id":42}]`},
		{"null", "null"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewMemoryBackend()
			_ = b.Set(context.Background(), DefaultNamespace, tc.raw)
			s := NewRecordStore(b, DefaultNamespace)

			got := s.ReadAll(context.Background())
			if len(got) != 0 {
				t.Errorf("expected empty result for %q, got %+v", tc.raw, got)
			}
		})
	}
}

func TestReadAll_LogsCorruption(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	b := NewMemoryBackend()
	_ = b.Set(context.Background(), DefaultNamespace, "garbage")
	s := NewRecordStore(b, DefaultNamespace, WithLogger(zap.New(core)))

	s.ReadAll(context.Background())

	if logs.FilterMessageSnippet("corrupt").Len() != 1 {
		t.Errorf("expected one corruption warning, got %v", logs.All())
	}
}

func TestWriteAll_ThenReadAll(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(NewMemoryBackend(), DefaultNamespace)
	want := []models.Greeting{sample("1"), sample("2")}
	want[1].Image = nil

	if err := s.WriteAll(ctx, want); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	got := s.ReadAll(ctx)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[0].Image == nil || *got[0].Image != *want[0].Image {
		t.Errorf("image not preserved: %+v", got[0].Image)
	}
	if got[1].Image != nil {
		t.Errorf("expected nil image, got %q", *got[1].Image)
	}
}

func TestWriteAll_ReadAllRoundTripIsNoop(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	s := NewRecordStore(b, DefaultNamespace)
	if err := s.WriteAll(ctx, []models.Greeting{sample("1"), sample("2")}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	before, _, _ := b.Get(ctx, DefaultNamespace)

	if err := s.WriteAll(ctx, s.ReadAll(ctx)); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	after, _, _ := b.Get(ctx, DefaultNamespace)

	if before != after {
		t.Errorf("round trip changed contents:\nbefore %s\nafter  %s", before, after)
	}
}

func TestWriteAll_NilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	s := NewRecordStore(b, DefaultNamespace)
	if err := s.WriteAll(ctx, nil); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	raw, ok, _ := b.Get(ctx, DefaultNamespace)
	if !ok || raw != "[]" {
		t.Errorf("stored %q, ok=%v; want []", raw, ok)
	}
}

func TestWriteAll_BackendFailure(t *testing.T) {
	b := NewMemoryBackend()
	b.FailWrites = true
	s := NewRecordStore(b, DefaultNamespace)

	err := s.WriteAll(context.Background(), []models.Greeting{sample("1")})
	if !errors.Is(err, ErrWriteRejected) {
		t.Fatalf("expected ErrWriteRejected, got %v", err)
	}
}

func TestWriteAll_QuotaExceeded(t *testing.T) {
	b := NewMemoryBackend()
	s := NewRecordStore(b, DefaultNamespace, WithMaxBytes(64))

	err := s.WriteAll(context.Background(), []models.Greeting{sample("1"), sample("2")})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if _, ok, _ := b.Get(context.Background(), DefaultNamespace); ok {
		t.Error("nothing should have been written")
	}
}

func TestClear_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(NewMemoryBackend(), DefaultNamespace)
	_ = s.WriteAll(ctx, []models.Greeting{sample("1")})

	for i := 0; i < 2; i++ {
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear #%d failed: %v", i+1, err)
		}
	}
	if got := s.ReadAll(ctx); len(got) != 0 {
		t.Errorf("expected empty after clear, got %+v", got)
	}
}

func TestFileBackend_LoadMissing(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "nested"))
	v, ok, err := b.Get(context.Background(), "k")
	if err != nil || ok || v != "" {
		t.Fatalf("Get on missing key = (%q, %v, %v)", v, ok, err)
	}
}

func TestFileBackend_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b := NewFileBackend(dir)

	if err := b.Set(ctx, DefaultNamespace, `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	buf, err := os.ReadFile(filepath.Join(dir, DefaultNamespace+".json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(buf) != `[{"id":"1"}]` {
		t.Errorf("unexpected file contents: %s", buf)
	}

	v, ok, err := b.Get(ctx, DefaultNamespace)
	if err != nil || !ok || v != `[{"id":"1"}]` {
		t.Errorf("Get = (%q, %v, %v)", v, ok, err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileBackend_RemoveMissing(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	if err := b.Remove(context.Background(), "absent"); err != nil {
		t.Errorf("Remove of missing key failed: %v", err)
	}
}

func TestFileBackend_InvalidKey(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := b.Set(context.Background(), key, "x"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Set(%q) error = %v; want ErrInvalidKey", key, err)
		}
	}
}

func TestFileBackend_RecordStore(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(NewFileBackend(t.TempDir()), DefaultNamespace)

	if err := s.WriteAll(ctx, []models.Greeting{sample("x")}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	got := s.ReadAll(ctx)
	if len(got) != 1 || got[0].ID != "x" || got[0].Theme != "purple" {
		t.Errorf("unexpected records: %+v", got)
	}
}
