package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replisync/internal/errs"
	"replisync/internal/replica"
)

type fakeStatusReader struct {
	failIndex string
}

func (f *fakeStatusReader) Status(ctx context.Context, settings replica.IndexSettings) (replica.Status, error) {
	if settings.IndexName == f.failIndex {
		return replica.Status{}, errs.New(errs.KindExceededRetries, "unreachable")
	}
	return replica.Status{IndexName: settings.IndexName}, nil
}

func TestStatusKeepsStoreOrder(t *testing.T) {
	h := newHarness()
	svc := NewReplicaStatusService(h.stores, h.stores, &fakeStatusReader{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	results, err := svc.Status(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, id := range []int{1, 2, 3, 5} {
		assert.Equal(t, id, results[i].StoreID)
	}
	assert.Equal(t, "Default", results[0].StoreName)
	assert.Equal(t, "idx_1", results[0].IndexName)
	assert.True(t, results[0].InSync())
}

func TestStatusFailure(t *testing.T) {
	h := newHarness()
	svc := NewReplicaStatusService(h.stores, h.stores, &fakeStatusReader{failIndex: "idx_2"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Status(context.Background(), []int{1, 2})
	assert.True(t, errs.Is(err, errs.KindExceededRetries))
}
