// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/shared/logger"
)

var configLoadFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opsbridge_config_load_failures_total",
		Help: "Persisted plugin config files that were unusable at registration",
	},
	[]string{"plugin"},
)

func init() {
	prometheus.MustRegister(configLoadFailures)
}

// PluginInstance is one entry of the flattened instance listing
type PluginInstance struct {
	PluginName string        `json:"pluginName"`
	Instance   base.Instance `json:"instance"`
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger replaces the registry logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithStrictMutation makes Mutate hold the plugin lock across its read step.
// Without it concurrent read-modify-write edits are last-writer-wins.
func WithStrictMutation() Option {
	return func(r *Registry) { r.strict = true }
}

// Registry maps system names to plugins. Map access is synchronized and
// config replacement is serialized per plugin.
type Registry struct {
	plugins map[string]base.Plugin
	order   []string
	locks   map[string]*sync.Mutex
	store   config.Store
	strict  bool
	mu      sync.RWMutex
	logger  *logger.Logger
}

// New creates an empty registry persisting through store. A nil store keeps
// configuration in memory only.
func New(store config.Store, opts ...Option) *Registry {
	r := &Registry{
		plugins: make(map[string]base.Plugin),
		locks:   make(map[string]*sync.Mutex),
		store:   store,
		logger:  logger.New("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register loads any persisted config for the plugin, merges it over the
// compiled defaults and stores the plugin under its lower-cased name.
// Registering a name again replaces the previous plugin.
func (r *Registry) Register(p base.Plugin) config.LoadStatus {
	name := strings.ToLower(p.SystemName())
	cfg, status := r.loadConfig(name, p.Config().Normalize())
	p.SetConfig(cfg)

	r.mu.Lock()
	if _, exists := r.plugins[name]; !exists {
		r.order = append(r.order, name)
		r.locks[name] = &sync.Mutex{}
	}
	r.plugins[name] = p
	r.mu.Unlock()

	r.logger.Info("", "plugin registered", map[string]interface{}{
		"plugin":    name,
		"instances": len(cfg.Instances),
		"config":    status.String(),
	})
	return status
}

func (r *Registry) loadConfig(name string, compiled base.Config) (base.Config, config.LoadStatus) {
	if r.store == nil {
		return compiled, config.LoadAbsent
	}

	res := r.store.Load(name)
	switch res.Status {
	case config.LoadLoaded:
		merged, err := compiled.MergeFrom(res.Data)
		if err == nil {
			return merged, config.LoadLoaded
		}
		res.Err = err
	case config.LoadAbsent:
		return compiled, config.LoadAbsent
	}

	configLoadFailures.WithLabelValues(name).Inc()
	fields := map[string]interface{}{"plugin": name}
	if res.Err != nil {
		fields["error"] = res.Err.Error()
	}
	r.logger.Error("", "persisted plugin config is corrupt, using compiled defaults", fields)
	return compiled, config.LoadCorrupt
}

// Get returns the plugin registered under name, case-insensitively
func (r *Registry) Get(name string) (base.Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[strings.ToLower(name)]
	if !ok {
		return nil, base.NotFoundError("plugin", name)
	}
	return p, nil
}

// List returns every plugin in registration order
func (r *Registry) List() []base.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]base.Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// Count returns the number of registered plugins
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// AllInstances flattens the instances of every plugin, in registration order
func (r *Registry) AllInstances() []PluginInstance {
	var out []PluginInstance
	for _, p := range r.List() {
		for _, inst := range p.GetInstances() {
			out = append(out, PluginInstance{PluginName: p.SystemName(), Instance: inst})
		}
	}
	return out
}

// UpdateConfig replaces the plugin config in full and persists it. The
// in-memory config is replaced even when persisting fails. Replacements of
// the same plugin are serialized, so the last writer determines both memory
// and disk. The stored config is normalized: nil Auth becomes NoAuth and nil
// Instances or Tags become empty slices.
func (r *Registry) UpdateConfig(name string, cfg base.Config) error {
	p, lock, err := r.lookup(name)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	return r.replace(p, cfg)
}

// Mutate applies fn to the current config and stores the result through
// UpdateConfig semantics. In strict mode the read step also holds the plugin
// lock, so concurrent edits cannot lose each other.
func (r *Registry) Mutate(name string, fn func(cfg base.Config) (base.Config, error)) error {
	p, lock, err := r.lookup(name)
	if err != nil {
		return err
	}

	if r.strict {
		lock.Lock()
		defer lock.Unlock()
	}
	next, err := fn(p.Config())
	if err != nil {
		return err
	}
	if !r.strict {
		lock.Lock()
		defer lock.Unlock()
	}
	return r.replace(p, next)
}

func (r *Registry) lookup(name string) (base.Plugin, *sync.Mutex, error) {
	key := strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[key]
	if !ok {
		return nil, nil, base.NotFoundError("plugin", name)
	}
	return p, r.locks[key], nil
}

// replace must be called with the plugin lock held
func (r *Registry) replace(p base.Plugin, cfg base.Config) error {
	name := p.SystemName()
	p.SetConfig(cfg)

	if r.store == nil {
		return nil
	}
	if err := r.store.Save(name, p.Config()); err != nil {
		r.logger.Error("", "failed to persist plugin config", map[string]interface{}{
			"plugin": name,
			"error":  err.Error(),
		})
		return &base.PersistenceError{Plugin: name, Cause: err}
	}
	return nil
}
