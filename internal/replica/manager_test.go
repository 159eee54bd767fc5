package replica

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replisync/internal/algolia"
	"replisync/internal/errs"
)

type call struct {
	Op     string
	Index  string
	Update algolia.SettingsUpdate
}

type fakeIndexAPI struct {
	settings map[string]algolia.Settings
	calls    []call
	setErr   error
	nextTask int64
}

func newFakeIndexAPI() *fakeIndexAPI {
	return &fakeIndexAPI{settings: make(map[string]algolia.Settings)}
}

func (f *fakeIndexAPI) GetSettings(ctx context.Context, index string) (algolia.Settings, error) {
	f.calls = append(f.calls, call{Op: "get", Index: index})
	s, ok := f.settings[index]
	if !ok {
		return algolia.Settings{}, &algolia.APIError{Status: 404, Message: "Index does not exist"}
	}
	return s, nil
}

func (f *fakeIndexAPI) SetSettings(ctx context.Context, index string, update algolia.SettingsUpdate) (int64, error) {
	f.calls = append(f.calls, call{Op: "set", Index: index, Update: update})
	if f.setErr != nil {
		return 0, f.setErr
	}
	s := f.settings[index]
	if replicas, ok := update["replicas"].([]string); ok {
		s.Replicas = replicas
	}
	f.settings[index] = s
	f.nextTask++
	return f.nextTask, nil
}

func (f *fakeIndexAPI) DeleteIndex(ctx context.Context, index string) (int64, error) {
	f.calls = append(f.calls, call{Op: "delete", Index: index})
	delete(f.settings, index)
	return 0, nil
}

func (f *fakeIndexAPI) WaitTask(ctx context.Context, index string, taskID int64) error {
	return nil
}

func (f *fakeIndexAPI) ops(op string) []call {
	var out []call
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func newTestManager(api IndexAPI, maxVirtual int) *Manager {
	return NewManager(api, maxVirtual, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var defaultSettings = IndexSettings{
	IndexName: "m2_default_products",
	Sorting: []SortingAttribute{
		{Attribute: "price", Sort: SortAsc, VirtualReplica: true},
		{Attribute: "created_at", Sort: SortDesc},
	},
}

func TestParseReplica(t *testing.T) {
	assert.Equal(t, Replica{Name: "idx_price_asc", Virtual: true}, ParseReplica("virtual(idx_price_asc)"))
	assert.Equal(t, Replica{Name: "idx_price_asc"}, ParseReplica("idx_price_asc"))
	assert.Equal(t, "virtual(idx_price_asc)", Replica{Name: "idx_price_asc", Virtual: true}.Setting())
}

func TestSyncReplicasFromScratch(t *testing.T) {
	api := newFakeIndexAPI()
	api.settings["m2_default_products"] = algolia.Settings{Replicas: []string{"other_index"}}
	m := newTestManager(api, 20)

	require.NoError(t, m.SyncReplicas(context.Background(), 1, defaultSettings))

	assert.Equal(t, []string{
		"other_index",
		"virtual(m2_default_products_price_asc)",
		"m2_default_products_created_at_desc",
	}, api.settings["m2_default_products"].Replicas)

	sets := api.ops("set")
	require.Len(t, sets, 3)
	assert.Equal(t, "m2_default_products_price_asc", sets[1].Index)
	assert.Equal(t, algolia.SettingsUpdate{"customRanking": []string{"asc(price)"}}, sets[1].Update)
	assert.Equal(t, "m2_default_products_created_at_desc", sets[2].Index)
	assert.Equal(t, []string{"desc(created_at)", "typo", "geo", "words", "filters", "proximity", "attribute", "exact", "custom"}, sets[2].Update["ranking"])
	assert.Empty(t, api.ops("delete"))
}

func TestSyncReplicasNoChangeSkipsPrimaryUpdate(t *testing.T) {
	api := newFakeIndexAPI()
	api.settings["m2_default_products"] = algolia.Settings{Replicas: []string{
		"virtual(m2_default_products_price_asc)",
		"m2_default_products_created_at_desc",
	}}
	m := newTestManager(api, 20)

	require.NoError(t, m.SyncReplicas(context.Background(), 1, defaultSettings))

	for _, c := range api.ops("set") {
		assert.NotEqual(t, "m2_default_products", c.Index)
	}
}

func TestSyncReplicasRemovesObsolete(t *testing.T) {
	api := newFakeIndexAPI()
	api.settings["m2_default_products"] = algolia.Settings{Replicas: []string{
		"m2_default_products_name_asc",
		"virtual(m2_default_products_price_asc)",
	}}
	m := newTestManager(api, 20)

	require.NoError(t, m.SyncReplicas(context.Background(), 1, defaultSettings))

	deletes := api.ops("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "m2_default_products_name_asc", deletes[0].Index)
}

func TestSyncReplicasRecreatesOnTypeChange(t *testing.T) {
	api := newFakeIndexAPI()
	api.settings["m2_default_products"] = algolia.Settings{Replicas: []string{
		"m2_default_products_price_asc",
	}}
	m := newTestManager(api, 20)

	require.NoError(t, m.SyncReplicas(context.Background(), 1, defaultSettings))

	deletes := api.ops("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "m2_default_products_price_asc", deletes[0].Index)

	sets := api.ops("set")
	assert.Equal(t, algolia.SettingsUpdate{"replicas": []string{}}, sets[0].Update)
	assert.Equal(t, []string{
		"virtual(m2_default_products_price_asc)",
		"m2_default_products_created_at_desc",
	}, api.settings["m2_default_products"].Replicas)
}

func TestSyncReplicasMissingPrimary(t *testing.T) {
	api := newFakeIndexAPI()
	m := newTestManager(api, 20)

	require.NoError(t, m.SyncReplicas(context.Background(), 1, defaultSettings))
	assert.Len(t, api.settings["m2_default_products"].Replicas, 2)
}

func TestSyncReplicasLimitExceeded(t *testing.T) {
	api := newFakeIndexAPI()
	m := newTestManager(api, 1)

	settings := IndexSettings{
		IndexName: "m2_default_products",
		Sorting: []SortingAttribute{
			{Attribute: "price", Sort: SortAsc, VirtualReplica: true},
			{Attribute: "price", Sort: SortDesc, VirtualReplica: true},
		},
	}

	err := m.SyncReplicas(context.Background(), 1, settings)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindLimitExceeded))
	assert.Contains(t, err.Error(), "2 virtual replicas")
	assert.Empty(t, api.calls, "limit is checked before touching the API")
}

func TestSyncReplicasCorruptedConfiguration(t *testing.T) {
	api := newFakeIndexAPI()
	api.settings["m2_default_products"] = algolia.Settings{Replicas: []string{
		"m2_default_products_price_asc",
		"virtual(m2_default_products_price_asc)",
	}}
	m := newTestManager(api, 20)

	err := m.SyncReplicas(context.Background(), 1, defaultSettings)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindCorruptedConfig))
	assert.Empty(t, api.ops("set"))
}

func TestSyncReplicasPassesBadRequestThrough(t *testing.T) {
	api := newFakeIndexAPI()
	api.setErr = errs.Wrap(&algolia.APIError{Status: 400, Message: "schema mismatch"}, errs.KindBadRequest)
	m := newTestManager(api, 20)

	err := m.SyncReplicas(context.Background(), 1, defaultSettings)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindBadRequest))
	assert.Equal(t, "schema mismatch", errs.Message(err))
}

func TestRebuildReplicasRecoversCorruption(t *testing.T) {
	api := newFakeIndexAPI()
	api.settings["m2_default_products"] = algolia.Settings{Replicas: []string{
		"external_replica",
		"m2_default_products_price_asc",
		"virtual(m2_default_products_price_asc)",
	}}
	m := newTestManager(api, 20)

	require.NoError(t, m.RebuildReplicas(context.Background(), 1, defaultSettings))

	deletes := api.ops("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "m2_default_products_price_asc", deletes[0].Index)
	assert.Equal(t, []string{
		"external_replica",
		"virtual(m2_default_products_price_asc)",
		"m2_default_products_created_at_desc",
	}, api.settings["m2_default_products"].Replicas)
}

func TestStatus(t *testing.T) {
	api := newFakeIndexAPI()
	api.settings["m2_default_products"] = algolia.Settings{Replicas: []string{
		"external_replica",
		"virtual(m2_default_products_price_asc)",
	}}
	m := newTestManager(api, 20)

	status, err := m.Status(context.Background(), defaultSettings)
	require.NoError(t, err)
	assert.Equal(t, []Replica{{Name: "m2_default_products_price_asc", Virtual: true}}, status.Current)
	assert.Len(t, status.Desired, 2)
	assert.False(t, status.InSync())

	require.NoError(t, m.SyncReplicas(context.Background(), 1, defaultSettings))
	status, err = m.Status(context.Background(), defaultSettings)
	require.NoError(t, err)
	assert.True(t, status.InSync())
}
