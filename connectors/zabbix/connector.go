// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package zabbix provides the Zabbix monitoring connector.
// ExecuteQuery is a placeholder; queries name JSON-RPC methods.
package zabbix

import (
	"context"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/sdk"
)

// SystemName is the registry key of the Zabbix connector
const SystemName = "zabbix"

// DefaultQueries is the Zabbix catalog
var DefaultQueries = []base.QueryDefinition{
	{ID: "api-version", Method: "POST", Path: "apiinfo.version", Description: "Zabbix API version"},
	{ID: "active-problems", Method: "POST", Path: "problem.get", Description: "Unresolved problems"},
	{ID: "hosts", Method: "POST", Path: "host.get", Description: "Monitored hosts"},
	{ID: "triggers", Method: "POST", Path: "trigger.get", Description: "Triggers in problem state"},
}

// Connector is the Zabbix placeholder connector
type Connector struct {
	*sdk.BasePlugin
}

// New creates the Zabbix connector with cfg as compiled defaults
func New(cfg base.Config) *Connector {
	return &Connector{
		BasePlugin: sdk.NewBasePlugin(sdk.PluginInfo{
			SystemName:     SystemName,
			DisplayName:    "Zabbix",
			Category:       "monitoring",
			DefaultQueries: DefaultQueries,
			Config:         cfg,
		}),
	}
}

// DefaultConfig seeds the Default instance from ZABBIX_URL and ZABBIX_TOKEN
func DefaultConfig() base.Config {
	return config.EnvInstance{
		Plugin:   SystemName,
		URLVar:   "ZABBIX_URL",
		AuthType: base.AuthBearer,
		TokenVar: "ZABBIX_TOKEN",
	}.Config()
}

// ExecuteQuery resolves the instance and returns a placeholder result
func (c *Connector) ExecuteQuery(_ context.Context, query, method, instanceID string, _ *base.QueryOptions) (*base.Result, error) {
	inst, err := c.ResolveActive(instanceID)
	if err != nil {
		return nil, err
	}
	return c.StubResult(inst, query, method), nil
}
