// File: internal/service/status_service.go
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"replisync/internal/replica"
)

// Bounds concurrent settings reads so a large catalog does not trip the API rate limit
const statusConcurrency = 4

type ReplicaStatusReader interface {
	Status(ctx context.Context, settings replica.IndexSettings) (replica.Status, error)
}

type StoreStatus struct {
	StoreID   int
	StoreName string
	replica.Status
}

// ReplicaStatusService reports replica drift without changing anything
type ReplicaStatusService struct {
	stores   StoreManager
	settings IndexSettingsProvider
	reader   ReplicaStatusReader
	logger   *slog.Logger
}

func NewReplicaStatusService(stores StoreManager, settings IndexSettingsProvider, reader ReplicaStatusReader, logger *slog.Logger) *ReplicaStatusService {
	return &ReplicaStatusService{
		stores:   stores,
		settings: settings,
		reader:   reader,
		logger:   logger.With("service", "ReplicaStatusService"),
	}
}

// Status reads the replica state of the given stores, or of every store, concurrently.
// Results keep the order of the requested store IDs.
func (s *ReplicaStatusService) Status(ctx context.Context, storeIDs []int) ([]StoreStatus, error) {
	if len(storeIDs) == 0 {
		all, err := s.stores.StoreIDs(ctx)
		if err != nil {
			return nil, err
		}
		storeIDs = all
	}

	s.logger.Debug("Starting Status operation", "stores", storeIDs)

	results := make([]StoreStatus, len(storeIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)

	for i, id := range storeIDs {
		g.Go(func() error {
			name, err := s.stores.StoreName(gctx, id)
			if err != nil {
				return err
			}
			settings, err := s.settings.IndexSettings(gctx, id)
			if err != nil {
				return err
			}
			status, err := s.reader.Status(gctx, settings)
			if err != nil {
				s.logger.Error("Failed to read replica status", "store", id, "index", settings.IndexName, "error", err)
				return err
			}
			results[i] = StoreStatus{StoreID: id, StoreName: name, Status: status}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
