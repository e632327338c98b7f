// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/sdk"
	"opsbridge/platform/shared/logger"
)

func newStore(t *testing.T) *config.FileStore {
	t.Helper()
	return config.NewFileStore(filepath.Join(t.TempDir(), "plugins")).WithLogger(logger.Discard("config-store"))
}

func newRegistry(store config.Store, opts ...Option) *Registry {
	opts = append([]Option{WithLogger(logger.Discard("registry"))}, opts...)
	return New(store, opts...)
}

func inst(id string, active bool) base.Instance {
	return base.Instance{
		ID:       id,
		Name:     "Name " + id,
		BaseURL:  "https://" + id + ".local",
		Auth:     base.NoAuth{},
		IsActive: active,
		Tags:     []string{},
	}
}

func TestRegister_ReplacesExistingEntry(t *testing.T) {
	r := newRegistry(nil)

	first := sdk.NewMockPlugin("Jira", nil, inst("a", true))
	second := sdk.NewMockPlugin("jira", nil, inst("b", true))

	r.Register(first)
	r.Register(second)

	assert.Equal(t, 1, r.Count())
	got, err := r.Get("JIRA")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Len(t, r.List(), 1)
}

func TestRegister_NormalizesMissingInstances(t *testing.T) {
	r := newRegistry(nil)
	p := sdk.NewMockPlugin("empty", nil)

	assert.Equal(t, config.LoadAbsent, r.Register(p))
	assert.NotNil(t, p.Config().Instances)
	assert.Empty(t, r.AllInstances())
}

func TestRegister_MergesPersistedConfig(t *testing.T) {
	store := newStore(t)
	persisted := `{
  "instances": [
    {"id": "jira-disk", "name": "Disk", "baseUrl": "https://disk.local", "authType": "bearer",
     "authConfig": {"token": "t"}, "isActive": false, "tags": ["disk"]}
  ],
  "defaultRefreshInterval": 42
}`
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.Path("jira"), []byte(persisted), 0o600))

	p := sdk.NewMockPlugin("jira", nil, inst("compiled-1", true), inst("compiled-2", true))
	cfg := p.Config()
	cfg.RateLimiting = base.RateLimiting{RequestsPerMinute: 5, BurstSize: 1}
	p.SetConfig(cfg)

	r := newRegistry(store)
	assert.Equal(t, config.LoadLoaded, r.Register(p))

	got := p.Config()
	require.Len(t, got.Instances, 1, "persisted instances replace the compiled array")
	assert.Equal(t, "jira-disk", got.Instances[0].ID)
	assert.Equal(t, base.BearerAuth{Token: "t"}, got.Instances[0].Auth)
	assert.False(t, got.Instances[0].IsActive)
	assert.Equal(t, 42, got.DefaultRefreshInterval)
	assert.Equal(t, base.RateLimiting{RequestsPerMinute: 5, BurstSize: 1}, got.RateLimiting, "absent keys keep compiled values")
}

func TestRegister_PersistedWithoutInstancesKeepsCompiled(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.Path("jira"), []byte(`{"defaultRefreshInterval": 7}`), 0o600))

	p := sdk.NewMockPlugin("jira", nil, inst("compiled-1", true))
	newRegistry(store).Register(p)

	got := p.Config()
	assert.Equal(t, 7, got.DefaultRefreshInterval)
	require.Len(t, got.Instances, 1)
	assert.Equal(t, "compiled-1", got.Instances[0].ID)
}

func TestRegister_CorruptFileFallsBackAndIsCounted(t *testing.T) {
	tests := []struct {
		name    string
		plugin  string
		content string
	}{
		{"truncated json", "corrupt-truncated", `{"instances": [{"id": "x"`},
		{"unknown auth type", "corrupt-auth", `{"instances": [{"id": "x", "authType": "kerberos"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
			require.NoError(t, os.WriteFile(store.Path(tt.plugin), []byte(tt.content), 0o600))

			before := testutil.ToFloat64(configLoadFailures.WithLabelValues(tt.plugin))

			p := sdk.NewMockPlugin(tt.plugin, nil, inst("compiled-1", true))
			status := newRegistry(store).Register(p)

			assert.Equal(t, config.LoadCorrupt, status)
			require.Len(t, p.Config().Instances, 1)
			assert.Equal(t, "compiled-1", p.Config().Instances[0].ID)
			assert.Equal(t, before+1, testutil.ToFloat64(configLoadFailures.WithLabelValues(tt.plugin)))
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	r := newRegistry(nil)
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, base.ErrNotFound)
	assert.Contains(t, err.Error(), "nope")
}

func TestList_RegistrationOrder(t *testing.T) {
	r := newRegistry(nil)
	for _, name := range []string{"zabbix", "jira", "fortigate"} {
		r.Register(sdk.NewMockPlugin(name, nil))
	}
	r.Register(sdk.NewMockPlugin("jira", nil))

	var names []string
	for _, p := range r.List() {
		names = append(names, p.SystemName())
	}
	assert.Equal(t, []string{"zabbix", "jira", "fortigate"}, names)
}

func TestAllInstances_LengthIsSumOfInstances(t *testing.T) {
	counts := []int{0, 1, 3, 2}
	r := newRegistry(nil)

	total := 0
	for i, n := range counts {
		var instances []base.Instance
		for j := 0; j < n; j++ {
			instances = append(instances, inst(fmt.Sprintf("p%d-i%d", i, j), j%2 == 0))
		}
		r.Register(sdk.NewMockPlugin(fmt.Sprintf("plugin-%d", i), nil, instances...))
		total += n
	}

	all := r.AllInstances()
	assert.Len(t, all, total)
	assert.Equal(t, "plugin-1", all[0].PluginName)
	assert.Equal(t, "p1-i0", all[0].Instance.ID)
}

func TestUpdateConfig_RoundTrip(t *testing.T) {
	store := newStore(t)
	r := newRegistry(store)
	r.Register(sdk.NewMockPlugin("fortigate", nil, inst("old", true)))

	cfg := base.Config{
		Instances: []base.Instance{
			{
				ID:        "fortigate-lab-1",
				Name:      "Lab",
				BaseURL:   "https://fw.lab",
				Auth:      base.APIKeyAuth{Key: "k", Header: "X-Key"},
				IsActive:  true,
				Tags:      []string{"lab"},
				SSLConfig: &base.SSLConfig{AllowSelfSigned: base.Bool(true), Timeout: 2000},
			},
		},
		DefaultRefreshInterval: 90,
		RateLimiting:           base.RateLimiting{RequestsPerMinute: 10, BurstSize: 2},
	}

	require.NoError(t, r.UpdateConfig("FortiGate", cfg))

	p, err := r.Get("fortigate")
	require.NoError(t, err)
	assert.Equal(t, cfg, p.Config())

	raw, err := os.ReadFile(store.Path("fortigate"))
	require.NoError(t, err)
	var onDisk base.Config
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, cfg, onDisk)

	// a fresh registry sees the persisted config
	fresh := sdk.NewMockPlugin("fortigate", nil, inst("compiled", true))
	newRegistry(store).Register(fresh)
	assert.Equal(t, cfg, fresh.Config())
}

func TestUpdateConfig_StoresNormalizedConfig(t *testing.T) {
	store := newStore(t)
	r := newRegistry(store)
	p := sdk.NewMockPlugin("qradar", nil)
	r.Register(p)

	cfg := base.Config{Instances: []base.Instance{{ID: "q-1", Name: "SIEM", BaseURL: "https://siem.local", IsActive: true}}}
	require.NoError(t, r.UpdateConfig("qradar", cfg))

	want := cfg.Clone().Normalize()
	assert.Equal(t, base.NoAuth{}, want.Instances[0].Auth)
	assert.Equal(t, []string{}, want.Instances[0].Tags)
	assert.Equal(t, want, p.Config())
	assert.Equal(t, want, readDisk(t, store, "qradar"))
	assert.Nil(t, cfg.Instances[0].Tags, "caller value is not modified")
}

func TestUpdateConfig_UnknownPlugin(t *testing.T) {
	r := newRegistry(newStore(t))
	err := r.UpdateConfig("ghost", base.Config{})
	assert.ErrorIs(t, err, base.ErrNotFound)
}

func TestUpdateConfig_PersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "plugins")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o600))
	store := config.NewFileStore(blocker).WithLogger(logger.Discard("config-store"))

	r := newRegistry(store)
	p := sdk.NewMockPlugin("jira", nil)
	r.Register(p)

	cfg := base.Config{Instances: []base.Instance{inst("new", true)}}
	err := r.UpdateConfig("jira", cfg)

	var perr *base.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "jira", perr.Plugin)
	assert.Len(t, p.Config().Instances, 1, "memory is replaced before persisting")
}

// slowStore delays the first Save so a second writer overtakes it
type slowStore struct {
	config.Store
	calls atomic.Int32
}

func (s *slowStore) Save(name string, cfg base.Config) error {
	if s.calls.Add(1) == 1 {
		time.Sleep(100 * time.Millisecond)
	}
	return s.Store.Save(name, cfg)
}

func readDisk(t *testing.T, store *config.FileStore, name string) base.Config {
	t.Helper()
	raw, err := os.ReadFile(store.Path(name))
	require.NoError(t, err)
	var cfg base.Config
	require.NoError(t, json.Unmarshal(raw, &cfg), "config file must stay valid JSON")
	return cfg
}

func TestUpdateConfig_LaterWriterDeterminesMemoryAndDisk(t *testing.T) {
	files := newStore(t)
	r := newRegistry(&slowStore{Store: files})
	p := sdk.NewMockPlugin("zabbix", nil)
	r.Register(p)

	first := base.Config{Instances: []base.Instance{inst("a", true)}, DefaultRefreshInterval: 1}
	second := base.Config{Instances: []base.Instance{inst("b", true)}, DefaultRefreshInterval: 2}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.UpdateConfig("zabbix", first))
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, r.UpdateConfig("zabbix", second))
	wg.Wait()

	onDisk := readDisk(t, files, "zabbix")
	assert.Equal(t, p.Config().DefaultRefreshInterval, onDisk.DefaultRefreshInterval)
	assert.Equal(t, p.Config(), onDisk)
}

func TestUpdateConfig_ConcurrentWritersKeepFileValid(t *testing.T) {
	store := newStore(t)
	r := newRegistry(store)
	p := sdk.NewMockPlugin("elastic", nil)
	r.Register(p)

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for w := 1; w <= 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				instances := make([]base.Instance, 0, w*3)
				for i := 0; i < w*3; i++ {
					instances = append(instances, inst(fmt.Sprintf("w%d-%d", w, i), true))
				}
				assert.NoError(t, r.UpdateConfig("elastic", base.Config{Instances: instances, DefaultRefreshInterval: w}))
			}(w)
		}
		wg.Wait()

		assert.Equal(t, p.Config(), readDisk(t, store, "elastic"), "round %d", round)
	}
}

func TestMutate_StrictSerializesEdits(t *testing.T) {
	r := newRegistry(newStore(t), WithStrictMutation())
	r.Register(sdk.NewMockPlugin("jira", nil))

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.Mutate("jira", func(cfg base.Config) (base.Config, error) {
				cfg.Instances = append(cfg.Instances, inst(fmt.Sprintf("i-%d", i), true))
				return cfg, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := r.Get("jira")
	require.NoError(t, err)
	assert.Len(t, p.GetInstances(), writers)
}

func TestMutate_ErrorLeavesConfigUntouched(t *testing.T) {
	r := newRegistry(nil)
	p := sdk.NewMockPlugin("jira", nil, inst("a", true))
	r.Register(p)

	boom := errors.New("boom")
	err := r.Mutate("jira", func(cfg base.Config) (base.Config, error) {
		cfg.Instances = nil
		return cfg, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, p.Config().Instances, 1)

	err = r.Mutate("ghost", func(cfg base.Config) (base.Config, error) { return cfg, nil })
	assert.ErrorIs(t, err, base.ErrNotFound)
}
