// File: internal/catalog/source/file/file.go
package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"replisync/internal/catalog/source/registry"
	"replisync/internal/config"
)

func init() {
	registry.RegisterSource("file", registry.SourceRegistration{
		Initializer: func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (registry.Source, error) {
			return &FileSource{logger: logger}, nil
		},
	})
}

// Reads catalogs from the local filesystem
type FileSource struct {
	logger *slog.Logger
}

var _ registry.Source = (*FileSource)(nil)

func (s *FileSource) Open(ctx context.Context, loc registry.Location) (io.ReadCloser, error) {
	f, err := os.Open(loc.Key)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}
	return f, nil
}

func (s *FileSource) Close() error {
	return nil
}
