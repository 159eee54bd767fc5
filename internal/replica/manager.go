// File: internal/replica/manager.go
package replica

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"replisync/internal/algolia"
	"replisync/internal/errs"
)

// DefaultMaxVirtual is the per-primary cap on virtual replicas enforced by the search service
const DefaultMaxVirtual = 20

// Ranking applied to standard replicas after the replica's own sort criterion
var standardRanking = []string{"typo", "geo", "words", "filters", "proximity", "attribute", "exact", "custom"}

// IndexAPI is the part of the search client the manager needs
type IndexAPI interface {
	GetSettings(ctx context.Context, index string) (algolia.Settings, error)
	SetSettings(ctx context.Context, index string, update algolia.SettingsUpdate) (int64, error)
	DeleteIndex(ctx context.Context, index string) (int64, error)
	WaitTask(ctx context.Context, index string, taskID int64) error
}

// Replica is one entry of a primary index's replicas setting
type Replica struct {
	Name    string
	Virtual bool
}

// Setting renders the replica the way the primary's replicas setting lists it
func (r Replica) Setting() string {
	if r.Virtual {
		return "virtual(" + r.Name + ")"
	}
	return r.Name
}

// ParseReplica parses an entry of a replicas setting
func ParseReplica(entry string) Replica {
	if strings.HasPrefix(entry, "virtual(") && strings.HasSuffix(entry, ")") {
		return Replica{Name: entry[len("virtual(") : len(entry)-1], Virtual: true}
	}
	return Replica{Name: entry}
}

// DesiredReplicas returns the replicas the sorting attributes call for, in configuration order
func DesiredReplicas(settings IndexSettings) []Replica {
	out := make([]Replica, 0, len(settings.Sorting))
	for _, s := range settings.Sorting {
		out = append(out, Replica{Name: ReplicaName(settings.IndexName, s), Virtual: s.VirtualReplica})
	}
	return out
}

// Status compares what a primary index has with what its settings call for
type Status struct {
	IndexName string
	Current   []Replica
	Desired   []Replica
}

func (s Status) InSync() bool {
	return sameReplicas(s.Current, s.Desired)
}

// Manager keeps a primary index's replicas in line with the configured sorting attributes.
// Replicas whose names do not start with "<primary>_" belong to someone else and are left alone.
type Manager struct {
	api        IndexAPI
	maxVirtual int
	logger     *slog.Logger
}

func NewManager(api IndexAPI, maxVirtual int, logger *slog.Logger) *Manager {
	if maxVirtual <= 0 {
		maxVirtual = DefaultMaxVirtual
	}
	return &Manager{
		api:        api,
		maxVirtual: maxVirtual,
		logger:     logger.With("service", "ReplicaManager"),
	}
}

// SyncReplicas brings the replicas of the store's primary index in line with settings
func (m *Manager) SyncReplicas(ctx context.Context, storeID int, settings IndexSettings) error {
	log := m.logger.With("store", storeID, "index", settings.IndexName)
	log.Debug("Starting SyncReplicas operation", "sorting", len(settings.Sorting))

	if err := m.checkLimit(settings); err != nil {
		return err
	}

	current, err := m.currentReplicas(ctx, settings.IndexName)
	if err != nil {
		return err
	}
	if err := checkConsistency(settings.IndexName, current); err != nil {
		log.Error("Replica configuration is inconsistent", "error", err)
		return err
	}

	desired := DesiredReplicas(settings)
	managed, unmanaged := partition(settings.IndexName, current)

	// A replica cannot change type in place: detach and drop it first, then re-add it
	changed := typeChanges(managed, desired)
	if len(changed) > 0 {
		log.Info("Replica type changed, recreating", "replicas", names(changed))
		interim := append(append([]Replica{}, unmanaged...), without(managed, changed)...)
		if err := m.setReplicas(ctx, settings.IndexName, interim); err != nil {
			return err
		}
		if err := m.deleteIndices(ctx, changed); err != nil {
			return err
		}
		current = interim
	}

	next := append(append([]Replica{}, unmanaged...), desired...)
	if !sameReplicas(current, next) {
		log.Info("Updating replicas setting", "replicas", len(next))
		if err := m.setReplicas(ctx, settings.IndexName, next); err != nil {
			return err
		}
	}

	for _, r := range desired {
		if err := m.applyRanking(ctx, r, settings); err != nil {
			return err
		}
	}

	obsolete := without(managed, desired)
	if err := m.deleteIndices(ctx, obsolete); err != nil {
		return err
	}

	log.Debug("Replicas in sync", "desired", len(desired), "removed", len(obsolete))
	return nil
}

// RebuildReplicas detaches and deletes every managed replica of the primary index, then syncs
// from scratch. It is the way out of a corrupted replica configuration.
func (m *Manager) RebuildReplicas(ctx context.Context, storeID int, settings IndexSettings) error {
	log := m.logger.With("store", storeID, "index", settings.IndexName)
	log.Debug("Starting RebuildReplicas operation")

	if err := m.checkLimit(settings); err != nil {
		return err
	}

	current, err := m.currentReplicas(ctx, settings.IndexName)
	if err != nil {
		return err
	}

	managed, unmanaged := partition(settings.IndexName, current)
	if len(managed) > 0 {
		if err := m.setReplicas(ctx, settings.IndexName, unmanaged); err != nil {
			return err
		}
		if err := m.deleteIndices(ctx, dedupe(managed)); err != nil {
			return err
		}
		log.Info("Removed managed replicas", "count", len(managed))
	}

	return m.SyncReplicas(ctx, storeID, settings)
}

// Status reports the managed replicas of the primary index against the desired ones
func (m *Manager) Status(ctx context.Context, settings IndexSettings) (Status, error) {
	current, err := m.currentReplicas(ctx, settings.IndexName)
	if err != nil {
		return Status{}, err
	}
	managed, _ := partition(settings.IndexName, current)
	return Status{
		IndexName: settings.IndexName,
		Current:   managed,
		Desired:   DesiredReplicas(settings),
	}, nil
}

func (m *Manager) checkLimit(settings IndexSettings) error {
	if settings.IndexName == "" {
		return fmt.Errorf("index settings have no primary index name")
	}
	if n := settings.VirtualCount(); n > m.maxVirtual {
		return errs.New(errs.KindLimitExceeded,
			"Replica limit exceeded: %d virtual replicas requested for index %q (maximum %d)", n, settings.IndexName, m.maxVirtual)
	}
	return nil
}

func (m *Manager) currentReplicas(ctx context.Context, index string) ([]Replica, error) {
	settings, err := m.api.GetSettings(ctx, index)
	if algolia.IsNotFound(err) {
		m.logger.Debug("Primary index does not exist yet", "index", index)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading settings of index %s: %w", index, err)
	}

	out := make([]Replica, 0, len(settings.Replicas))
	for _, entry := range settings.Replicas {
		out = append(out, ParseReplica(entry))
	}
	return out, nil
}

func (m *Manager) setReplicas(ctx context.Context, index string, replicas []Replica) error {
	entries := make([]string, 0, len(replicas))
	for _, r := range replicas {
		entries = append(entries, r.Setting())
	}

	taskID, err := m.api.SetSettings(ctx, index, algolia.SettingsUpdate{"replicas": entries})
	if err != nil {
		return err
	}
	return m.api.WaitTask(ctx, index, taskID)
}

func (m *Manager) applyRanking(ctx context.Context, r Replica, settings IndexSettings) error {
	var criterion string
	for _, s := range settings.Sorting {
		if ReplicaName(settings.IndexName, s) == r.Name {
			criterion = SortCriterion(s)
			break
		}
	}

	update := algolia.SettingsUpdate{"customRanking": []string{criterion}}
	if !r.Virtual {
		update = algolia.SettingsUpdate{"ranking": append([]string{criterion}, standardRanking...)}
	}

	taskID, err := m.api.SetSettings(ctx, r.Name, update)
	if err != nil {
		return err
	}
	return m.api.WaitTask(ctx, r.Name, taskID)
}

func (m *Manager) deleteIndices(ctx context.Context, replicas []Replica) error {
	for _, r := range replicas {
		m.logger.Debug("Deleting replica index", "index", r.Name, "virtual", r.Virtual)
		taskID, err := m.api.DeleteIndex(ctx, r.Name)
		if err != nil {
			return fmt.Errorf("error deleting replica index %s: %w", r.Name, err)
		}
		if err := m.api.WaitTask(ctx, r.Name, taskID); err != nil {
			return err
		}
	}
	return nil
}

// A replica listed twice, in the same or in both forms, means the primary's settings were
// edited outside of this tool and can no longer be diffed safely
func checkConsistency(index string, current []Replica) error {
	seen := make(map[string]bool, len(current))
	for _, r := range current {
		if seen[r.Name] {
			return errs.New(errs.KindCorruptedConfig, "Replica %q is listed more than once on index %q", r.Name, index)
		}
		seen[r.Name] = true
	}
	return nil
}

func partition(index string, replicas []Replica) (managed, unmanaged []Replica) {
	prefix := index + "_"
	for _, r := range replicas {
		if strings.HasPrefix(r.Name, prefix) {
			managed = append(managed, r)
		} else {
			unmanaged = append(unmanaged, r)
		}
	}
	return managed, unmanaged
}

func typeChanges(current, desired []Replica) []Replica {
	want := make(map[string]bool, len(desired))
	for _, r := range desired {
		want[r.Name] = r.Virtual
	}

	var out []Replica
	for _, r := range current {
		if virtual, ok := want[r.Name]; ok && virtual != r.Virtual {
			out = append(out, r)
		}
	}
	return out
}

// without returns the replicas of list whose names are not in drop
func without(list, drop []Replica) []Replica {
	skip := make(map[string]bool, len(drop))
	for _, r := range drop {
		skip[r.Name] = true
	}

	var out []Replica
	for _, r := range list {
		if !skip[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

func dedupe(list []Replica) []Replica {
	seen := make(map[string]bool, len(list))
	var out []Replica
	for _, r := range list {
		if !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r)
		}
	}
	return out
}

func sameReplicas(a, b []Replica) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func names(list []Replica) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Name)
	}
	return out
}
