package factory

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "replisync/internal/catalog/source/file"
	"replisync/internal/config"
)

func TestOpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stores: []\n"), 0644))

	f := NewFactory(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rc, err := f.Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "stores: []\n", string(data))
}

func TestOpenErrors(t *testing.T) {
	f := NewFactory(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := f.Open(context.Background(), "ftp://host/stores.yaml")
	assert.ErrorContains(t, err, "unsupported catalog source")

	_, err = f.Open(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
