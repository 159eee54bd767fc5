// File: internal/catalog/source/factory/factory.go
package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"replisync/internal/catalog/source/registry"
	"replisync/internal/config"
)

type Factory struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Opens the catalog document at location using the source registered for its scheme.
// Closing the returned reader also releases the source client.
func (f *Factory) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	loc, err := registry.ParseLocation(location)
	if err != nil {
		return nil, err
	}

	registration, exists := registry.GetRegistration(loc.Scheme)
	if !exists {
		return nil, fmt.Errorf("unsupported catalog source: %s. Supported sources are: %v", loc.Scheme, registry.GetSupportedSchemes())
	}

	sourceLogger := f.logger.With("source", loc.Scheme)
	client, err := registration.Initializer(ctx, f.cfg, sourceLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog source %s: %w", loc.Scheme, err)
	}

	sourceLogger.Debug("Opening catalog", "location", loc.Raw)
	rc, err := client.Open(ctx, loc)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("error opening catalog %s: %w", loc.Raw, err)
	}

	return &sourceReader{ReadCloser: rc, source: client}, nil
}

type sourceReader struct {
	io.ReadCloser
	source registry.Source
}

func (r *sourceReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.source.Close(); err == nil {
		err = cerr
	}
	return err
}
