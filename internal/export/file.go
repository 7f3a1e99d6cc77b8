package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinyakov/valentine/internal/card"
	"go.uber.org/zap"
)

// FileExporter writes rendered cards into a directory.
type FileExporter struct {
	dir      string
	renderer *Renderer
	log      *zap.Logger
}

// NewFileExporter returns an exporter writing into dir. The directory is
// created on first export.
func NewFileExporter(dir string, log *zap.Logger) *FileExporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileExporter{dir: dir, renderer: NewRenderer(), log: log}
}

// Export renders v at scale into dir/name and returns the written path.
// Any directory part of name is ignored.
func (e *FileExporter) Export(ctx context.Context, v card.View, scale int, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid export name %q", name)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(e.dir, ".export-*.png")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := e.renderer.WritePNG(tmp, v, scale); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("render card: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	path := filepath.Join(e.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	e.log.Info("card exported", zap.String("id", v.ID), zap.String("path", path))
	return path, nil
}
