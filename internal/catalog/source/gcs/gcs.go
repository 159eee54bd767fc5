// File: internal/catalog/source/gcs/gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"replisync/internal/catalog/source/registry"
	"replisync/internal/config"
)

func init() {
	registry.RegisterSource("gs", registry.SourceRegistration{
		Initializer: initialize,
	})
}

// Initializes the GCS client from the configuration. A custom endpoint (an emulator
// such as fake-gcs-server) is used without authentication.
func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (registry.Source, error) {
	return NewGCSSource(ctx, cfg.Catalog.Endpoint, logger)
}

type GCSSource struct {
	client *gcpstorage.Client
	logger *slog.Logger
}

var _ registry.Source = (*GCSSource)(nil)

func NewGCSSource(ctx context.Context, endpoint string, logger *slog.Logger) (*GCSSource, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}

	client, err := gcpstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}

	return &GCSSource{
		client: client,
		logger: logger,
	}, nil
}

func (g *GCSSource) Open(ctx context.Context, loc registry.Location) (io.ReadCloser, error) {
	g.logger.Debug("Reading catalog object from GCS", "bucket", loc.Bucket, "object", loc.Key)

	reader, err := g.client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcpstorage.ErrObjectNotExist) || errors.Is(err, gcpstorage.ErrBucketNotExist) {
			return nil, fmt.Errorf("catalog object gs://%s/%s does not exist", loc.Bucket, loc.Key)
		}
		return nil, fmt.Errorf("error reading catalog object: %w", err)
	}
	return reader, nil
}

func (g *GCSSource) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
