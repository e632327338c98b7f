// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package elastic provides the Elasticsearch search connector.
// ExecuteQuery is a placeholder that returns an informational payload.
package elastic

import (
	"context"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/sdk"
)

// SystemName is the registry key of the Elasticsearch connector
const SystemName = "elastic"

// DefaultQueries is the Elasticsearch catalog
var DefaultQueries = []base.QueryDefinition{
	{ID: "cluster-health", Method: "GET", Path: "/_cluster/health", Description: "Cluster health status"},
	{ID: "indices", Method: "GET", Path: "/_cat/indices?format=json", Description: "Index list with document counts"},
	{ID: "nodes", Method: "GET", Path: "/_cat/nodes?format=json", Description: "Node resource usage"},
	{ID: "security-alerts", Method: "POST", Path: "/.alerts-security.alerts-default/_search", Description: "Recent security alerts"},
}

// Connector is the Elasticsearch placeholder connector
type Connector struct {
	*sdk.BasePlugin
}

// New creates the Elasticsearch connector with cfg as compiled defaults
func New(cfg base.Config) *Connector {
	return &Connector{
		BasePlugin: sdk.NewBasePlugin(sdk.PluginInfo{
			SystemName:     SystemName,
			DisplayName:    "Elasticsearch",
			Category:       "search",
			DefaultQueries: DefaultQueries,
			Config:         cfg,
		}),
	}
}

// DefaultConfig seeds the Default instance from ELASTIC_URL,
// ELASTIC_USERNAME and ELASTIC_PASSWORD
func DefaultConfig() base.Config {
	return config.EnvInstance{
		Plugin:      SystemName,
		URLVar:      "ELASTIC_URL",
		AuthType:    base.AuthBasic,
		UsernameVar: "ELASTIC_USERNAME",
		PasswordVar: "ELASTIC_PASSWORD",
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
