// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package qradar provides the IBM QRadar SIEM connector.
// ExecuteQuery is a placeholder that returns an informational payload; a full
// implementation replaces only its body.
package qradar

import (
	"context"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/sdk"
)

// SystemName is the registry key of the QRadar connector
const SystemName = "qradar"

// DefaultQueries is the QRadar catalog
var DefaultQueries = []base.QueryDefinition{
	{ID: "system-about", Method: "GET", Path: "/api/system/about", Description: "QRadar version and build"},
	{ID: "open-offenses", Method: "GET", Path: "/api/siem/offenses?filter=status%3DOPEN", Description: "Open offenses"},
	{ID: "log-sources", Method: "GET", Path: "/api/config/event_sources/log_source_management/log_sources", Description: "Configured log sources"},
	{ID: "ariel-searches", Method: "GET", Path: "/api/ariel/searches", Description: "Recent Ariel searches"},
}

// Connector is the QRadar placeholder connector
type Connector struct {
	*sdk.BasePlugin
}

// New creates the QRadar connector with cfg as compiled defaults
func New(cfg base.Config) *Connector {
	return &Connector{
		BasePlugin: sdk.NewBasePlugin(sdk.PluginInfo{
			SystemName:     SystemName,
			DisplayName:    "IBM QRadar",
			Category:       "siem",
			DefaultQueries: DefaultQueries,
			Config:         cfg,
		}),
	}
}

// DefaultConfig seeds the Default instance from QRADAR_URL and QRADAR_TOKEN.
// QRadar expects its token in the SEC header.
func DefaultConfig() base.Config {
	cfg := config.EnvInstance{
		Plugin:   SystemName,
		URLVar:   "QRADAR_URL",
		AuthType: base.AuthAPIKey,
		KeyVar:   "QRADAR_TOKEN",
	}.Config()
	for i := range cfg.Instances {
		if key, ok := cfg.Instances[i].Auth.(base.APIKeyAuth); ok && key.Header == "" {
			key.Header = "SEC"
			cfg.Instances[i].Auth = key
		}
	}
	return cfg
}

// ExecuteQuery resolves the instance and returns a placeholder result
func (c *Connector) ExecuteQuery(_ context.Context, query, method, instanceID string, _ *base.QueryOptions) (*base.Result, error) {
	inst, err := c.ResolveActive(instanceID)
	if err != nil {
		return nil, err
	}
	return c.StubResult(inst, query, method), nil
}
