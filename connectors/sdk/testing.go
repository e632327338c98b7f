// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"sync"
	"time"

	"opsbridge/platform/connectors/base"
)

// MockPlugin is a configurable Plugin for tests. It performs the same
// resolve/active checks as real connectors and only invokes the execute hook
// for active instances.
type MockPlugin struct {
	*BasePlugin

	onExecute func(ctx context.Context, inst base.Instance, query, method string, opts *base.QueryOptions) (*base.Result, error)
	calls     []ExecuteCall
	mu        sync.Mutex
}

// ExecuteCall records one ExecuteQuery invocation that reached the upstream
type ExecuteCall struct {
	InstanceID string
	Query      string
	Method     string
	Options    *base.QueryOptions
	Time       time.Time
}

// NewMockPlugin creates a mock with the given name, catalog and instances
func NewMockPlugin(name string, queries []base.QueryDefinition, instances ...base.Instance) *MockPlugin {
	return &MockPlugin{
		BasePlugin: NewBasePlugin(PluginInfo{
			SystemName:     name,
			DisplayName:    name,
			Category:       "test",
			DefaultQueries: queries,
			Config:         base.Config{Instances: instances},
		}),
	}
}

// SetOnExecute installs the upstream behavior
func (m *MockPlugin) SetOnExecute(fn func(ctx context.Context, inst base.Instance, query, method string, opts *base.QueryOptions) (*base.Result, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExecute = fn
}

// SetExecuteError makes every upstream call fail with err
func (m *MockPlugin) SetExecuteError(err error) {
	m.SetOnExecute(func(context.Context, base.Instance, string, string, *base.QueryOptions) (*base.Result, error) {
		return nil, err
	})
}

// ExecuteQuery implements base.Plugin
func (m *MockPlugin) ExecuteQuery(ctx context.Context, query, method, instanceID string, opts *base.QueryOptions) (*base.Result, error) {
	inst, err := m.ResolveActive(instanceID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, ExecuteCall{
		InstanceID: instanceID,
		Query:      query,
		Method:     method,
		Options:    opts,
		Time:       time.Now(),
	})
	fn := m.onExecute
	m.mu.Unlock()

	if fn == nil {
		return &base.Result{StatusCode: 200, Data: map[string]interface{}{"ok": true}}, nil
	}
	return fn(ctx, inst, query, method, opts)
}

// Calls returns the recorded upstream calls
func (m *MockPlugin) Calls() []ExecuteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecuteCall(nil), m.calls...)
}

// CallCount returns the number of upstream calls made
func (m *MockPlugin) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
