package clipboard

import (
	"context"
	"errors"
	"testing"
)

func TestMemory(t *testing.T) {
	var m Memory
	ctx := context.Background()

	if err := m.WriteText(ctx, "http://localhost:8080/valentine/abc"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, _ := m.ReadText(ctx)
	if got != "http://localhost:8080/valentine/abc" {
		t.Errorf("ReadText = %q", got)
	}
}

func TestMemory_Error(t *testing.T) {
	boom := errors.New("denied")
	m := &Memory{Err: boom}
	if err := m.WriteText(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want %v", err, boom)
	}
	if got, _ := m.ReadText(context.Background()); got != "" {
		t.Errorf("text changed on failed write: %q", got)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var m Memory
	if err := m.WriteText(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Memory err = %v", err)
	}
	if err := (System{}).WriteText(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("System err = %v", err)
	}
}
