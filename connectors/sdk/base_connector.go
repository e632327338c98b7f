// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"strings"
	"sync"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/transport"
	"opsbridge/platform/shared/logger"
)

// PluginInfo is the static description of a connector
type PluginInfo struct {
	SystemName     string
	DisplayName    string
	Category       string
	DefaultQueries []base.QueryDefinition
	// Config holds the compiled defaults (typically seeded from env vars)
	Config base.Config
}

// BasePlugin provides the contract plumbing shared by every connector:
// config ownership, instance lookup, the resolve/active check, and client
// construction. Embed it and implement ExecuteQuery.
type BasePlugin struct {
	systemName     string
	displayName    string
	category       string
	defaultQueries []base.QueryDefinition
	config         base.Config
	clientFactory  transport.ClientFactory
	logger         *logger.Logger
	mu             sync.RWMutex
}

// NewBasePlugin creates a BasePlugin from its static description
func NewBasePlugin(info PluginInfo) *BasePlugin {
	cfg := info.Config.Clone()
	if cfg.DefaultRefreshInterval == 0 {
		cfg.DefaultRefreshInterval = base.DefaultRefreshInterval
	}
	if cfg.RateLimiting == (base.RateLimiting{}) {
		cfg.RateLimiting = base.RateLimiting{RequestsPerMinute: 60, BurstSize: 10}
	}

	return &BasePlugin{
		systemName:     strings.ToLower(info.SystemName),
		displayName:    info.DisplayName,
		category:       info.Category,
		defaultQueries: append([]base.QueryDefinition(nil), info.DefaultQueries...),
		config:         cfg.Normalize(),
		clientFactory:  transport.NewClient,
		logger:         logger.New(info.SystemName),
	}
}

// SystemName returns the registry key
func (p *BasePlugin) SystemName() string { return p.systemName }

// DisplayName returns the human readable system name
func (p *BasePlugin) DisplayName() string { return p.displayName }

// Category returns the system category (ticketing, firewall, ...)
func (p *BasePlugin) Category() string { return p.category }

// DefaultQueries returns a copy of the compiled query catalog
func (p *BasePlugin) DefaultQueries() []base.QueryDefinition {
	return append([]base.QueryDefinition(nil), p.defaultQueries...)
}

// Config returns a deep copy of the current configuration
func (p *BasePlugin) Config() base.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Clone()
}

// SetConfig replaces the configuration wholesale
func (p *BasePlugin) SetConfig(cfg base.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = cfg.Clone().Normalize()
}

// GetInstances returns a copy of the configured instances
func (p *BasePlugin) GetInstances() []base.Instance {
	return p.Config().Instances
}

// GetInstance looks up an instance by id
func (p *BasePlugin) GetInstance(id string) (base.Instance, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if idx := p.config.FindInstance(id); idx >= 0 {
		return p.config.Instances[idx].Clone(), true
	}
	return base.Instance{}, false
}

// ResolveActive returns the instance or ErrNotFound, then ErrInactive if the
// instance is disabled. No network activity happens here.
func (p *BasePlugin) ResolveActive(instanceID string) (base.Instance, error) {
	inst, ok := p.GetInstance(instanceID)
	if !ok {
		return base.Instance{}, base.NotFoundError(p.systemName+" instance", instanceID)
	}
	if !inst.IsActive {
		return inst, base.InactiveError(p.systemName, instanceID)
	}
	return inst, nil
}

// SetClientFactory overrides how per-call HTTP clients are built
func (p *BasePlugin) SetClientFactory(f transport.ClientFactory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientFactory = f
}

func (p *BasePlugin) factory() transport.ClientFactory {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clientFactory
}

// SetLogger replaces the connector logger
func (p *BasePlugin) SetLogger(l *logger.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = l
}

// Logger returns the connector logger
func (p *BasePlugin) Logger() *logger.Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}
