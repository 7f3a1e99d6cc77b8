// Package clipboard provides the share-link clipboard targets.
package clipboard

import (
	"context"
	"errors"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when the host has no usable clipboard.
var ErrUnsupported = errors.New("clipboard is not available")

// System writes to the operating system clipboard.
type System struct{}

// WriteText copies text to the system clipboard.
func (System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// ReadText returns the system clipboard contents.
func (System) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", ErrUnsupported
	}
	return clipboard.ReadAll()
}

// Memory keeps the last written text. The zero value is ready to use.
type Memory struct {
	mu   sync.Mutex
	text string
	// Err, when set, is returned by every write.
	Err error
}

// WriteText stores text.
func (m *Memory) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.text = text
	return nil
}

// ReadText returns the last stored text.
func (m *Memory) ReadText(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}
