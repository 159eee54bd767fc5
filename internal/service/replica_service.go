// File: internal/service/replica_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"replisync/internal/area"
	"replisync/internal/console"
	"replisync/internal/errs"
	"replisync/internal/replica"
)

// Exit statuses returned by the replica commands
const (
	ExitSuccess = 0
	ExitFailure = 1
)

const (
	RebuildCommandName = "algolia:replicas:rebuild"

	corruptedConfigMessage = "You appear to have a corrupted replica configuration in Algolia for your Magento instance."
	corruptedConfigRemedy  = `Run the "` + RebuildCommandName + `" command to correct this.`
	limitExceededRemedy    = "Reduce the number of sorting attributes that have enabled virtual replicas and try again."
)

// StoreManager resolves configured stores
type StoreManager interface {
	StoreName(ctx context.Context, storeID int) (string, error)
	StoreIDs(ctx context.Context) ([]int, error)
}

// IndexSettingsProvider returns the index settings of a store
type IndexSettingsProvider interface {
	IndexSettings(ctx context.Context, storeID int) (replica.IndexSettings, error)
}

type ReplicaManager interface {
	SyncReplicas(ctx context.Context, storeID int, settings replica.IndexSettings) error
}

type ReplicaRebuilder interface {
	RebuildReplicas(ctx context.Context, storeID int, settings replica.IndexSettings) error
}

type AreaState interface {
	SetAreaCode(code area.Code) error
}

// Dependencies of the ReplicaSyncService. Rebuilder is only needed by Rebuild.
type Dependencies struct {
	Stores    StoreManager
	Settings  IndexSettingsProvider
	Replicas  ReplicaManager
	Rebuilder ReplicaRebuilder
	Area      AreaState
	Out       *console.Writer
	Logger    *slog.Logger
}

type ReplicaSyncService struct {
	stores    StoreManager
	settings  IndexSettingsProvider
	replicas  ReplicaManager
	rebuilder ReplicaRebuilder
	area      AreaState
	out       *console.Writer
	logger    *slog.Logger
}

func NewReplicaSyncService(deps Dependencies) *ReplicaSyncService {
	return &ReplicaSyncService{
		stores:    deps.Stores,
		settings:  deps.Settings,
		replicas:  deps.Replicas,
		rebuilder: deps.Rebuilder,
		area:      deps.Area,
		out:       deps.Out,
		logger:    deps.Logger.With("service", "ReplicaSyncService"),
	}
}

type operation struct {
	verb  string // "Syncing"
	noun  string // "syncing"
	apply func(ctx context.Context, storeID int, settings replica.IndexSettings) error
}

// Sync pushes the replica configuration of the given stores, or of every store when
// storeIDs is empty, to the search service. Corrupted configurations and exceeded replica
// limits are reported to the operator and yield ExitFailure; any other failure is returned.
func (s *ReplicaSyncService) Sync(ctx context.Context, storeIDs []int) (int, error) {
	return s.run(ctx, storeIDs, operation{verb: "Syncing", noun: "syncing", apply: s.replicas.SyncReplicas})
}

// Rebuild drops and recreates the managed replicas of the given stores, or of every store
func (s *ReplicaSyncService) Rebuild(ctx context.Context, storeIDs []int) (int, error) {
	if s.rebuilder == nil {
		return ExitFailure, fmt.Errorf("replica rebuild is not available")
	}
	return s.run(ctx, storeIDs, operation{verb: "Rebuilding", noun: "rebuilding", apply: s.rebuilder.RebuildReplicas})
}

func (s *ReplicaSyncService) run(ctx context.Context, storeIDs []int, op operation) (int, error) {
	// Store names are looked up once per invocation
	names := make(map[int]string)

	msg := Summary(op.verb, len(storeIDs))
	if len(storeIDs) > 0 {
		storeNames := make([]string, 0, len(storeIDs))
		for _, id := range storeIDs {
			name, err := s.storeName(ctx, names, id)
			if err != nil {
				return ExitFailure, err
			}
			storeNames = append(storeNames, name)
		}
		s.out.Info(msg + ": " + strings.Join(storeNames, ", "))
	} else {
		s.out.Info(msg)
	}

	if err := s.area.SetAreaCode(area.Admin); err != nil {
		return ExitFailure, fmt.Errorf("error setting area code: %w", err)
	}

	err := s.dispatch(ctx, names, storeIDs, op)
	if err == nil {
		return ExitSuccess, nil
	}

	switch errs.KindOf(err) {
	case errs.KindBadRequest, errs.KindCorruptedConfig:
		s.logger.Debug("Replica operation stopped on corrupted configuration", "error", err)
		s.out.Comment(corruptedConfigMessage)
		s.out.Comment(corruptedConfigRemedy)
		return ExitFailure, nil
	case errs.KindLimitExceeded:
		s.logger.Debug("Replica operation stopped on replica limit", "error", err)
		s.out.Error(errs.Message(err))
		s.out.Comment(limitExceededRemedy)
		return ExitFailure, nil
	default:
		return ExitFailure, err
	}
}

// Summary builds the opening line, e.g. "Syncing replicas for 2 stores" or "Syncing replicas for all stores"
func Summary(verb string, count int) string {
	scope := "all"
	if count > 0 {
		scope = fmt.Sprint(count)
	}
	plural := "s"
	if count == 1 {
		plural = ""
	}
	return fmt.Sprintf("%s replicas for %s store%s", verb, scope, plural)
}

func (s *ReplicaSyncService) storeName(ctx context.Context, names map[int]string, storeID int) (string, error) {
	if name, ok := names[storeID]; ok {
		return name, nil
	}

	name, err := s.stores.StoreName(ctx, storeID)
	if err != nil {
		return "", err
	}
	names[storeID] = name
	return name, nil
}

// Stores are processed one at a time; the first failure stops the batch
func (s *ReplicaSyncService) dispatch(ctx context.Context, names map[int]string, storeIDs []int, op operation) error {
	if len(storeIDs) == 0 {
		all, err := s.stores.StoreIDs(ctx)
		if err != nil {
			return err
		}
		storeIDs = all
	}

	for _, id := range storeIDs {
		if err := s.processStore(ctx, names, id, op); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReplicaSyncService) processStore(ctx context.Context, names map[int]string, storeID int, op operation) error {
	name, err := s.storeName(ctx, names, storeID)
	if err != nil {
		return err
	}
	s.out.Infof("%s %s...", op.verb, name)

	settings, err := s.settings.IndexSettings(ctx, storeID)
	if err != nil {
		return err
	}

	if err := op.apply(ctx, storeID, settings); err != nil {
		if errs.Is(err, errs.KindBadRequest) {
			s.out.Errorf(`Failed %s replicas for store "%s": %s`, op.noun, name, errs.Message(err))
		}
		return err
	}

	s.logger.Debug("Store processed", "store", storeID, "index", settings.IndexName, "operation", op.noun)
	return nil
}
