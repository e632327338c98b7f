// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultRefreshInterval is the compiled refresh interval (seconds) used when a
// connector does not declare one.
const DefaultRefreshInterval = 300

// Plugin is the contract every external-system connector implements.
// Exactly one Plugin value exists per system name in a registry.
type Plugin interface {
	// SystemName is the unique, case-insensitive registry key
	SystemName() string
	// DisplayName and Category describe the system type for catalogs
	DisplayName() string
	Category() string

	// Config returns a deep copy of the current plugin configuration
	Config() Config
	// SetConfig replaces the configuration wholesale
	SetConfig(cfg Config)

	// DefaultQueries is the compiled query catalog. The first entry is the
	// canonical health-check probe.
	DefaultQueries() []QueryDefinition

	// ExecuteQuery issues a single upstream call for the given instance.
	// It returns ErrNotFound for an unknown instance and ErrInactive for a
	// disabled one; neither case touches the network.
	ExecuteQuery(ctx context.Context, query, method, instanceID string, opts *QueryOptions) (*Result, error)

	GetInstances() []Instance
	GetInstance(id string) (Instance, bool)
}

// QueryValidator is implemented by plugins that offer advisory query linting.
// Findings never block execution.
type QueryValidator interface {
	ValidateQuery(inst Instance, query string) (warnings []string, suggestions []string)
}

// RateLimiting is the declared per-plugin request budget
type RateLimiting struct {
	RequestsPerMinute int `json:"requestsPerMinute"`
	BurstSize         int `json:"burstSize"`
}

// Config is the persisted per-plugin configuration
type Config struct {
	Instances              []Instance   `json:"instances"`
	DefaultRefreshInterval int          `json:"defaultRefreshInterval"`
	RateLimiting           RateLimiting `json:"rateLimiting"`
}

// Clone returns a deep copy of the configuration
func (c Config) Clone() Config {
	out := c
	if c.Instances != nil {
		out.Instances = make([]Instance, len(c.Instances))
		for i, inst := range c.Instances {
			out.Instances[i] = inst.Clone()
		}
	}
	return out
}

// Normalize guarantees Instances is non-nil so the serialized form always
// carries an instances array, and fills the zero values that the JSON form
// cannot distinguish (nil auth, nil tags).
func (c Config) Normalize() Config {
	if c.Instances == nil {
		c.Instances = []Instance{}
	}
	for i := range c.Instances {
		if c.Instances[i].Auth == nil {
			c.Instances[i].Auth = NoAuth{}
		}
		if c.Instances[i].Tags == nil {
			c.Instances[i].Tags = []string{}
		}
	}
	return c
}

// MergeFrom overlays a persisted JSON document on top of c. Top-level keys
// present in raw override c whole: a present "instances" array or
// "rateLimiting" object replaces the compiled value rather than merging into it.
func (c Config) MergeFrom(raw []byte) (Config, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return c, err
	}

	merged := c.Clone()
	if _, ok := keys["instances"]; ok {
		merged.Instances = nil
	}
	if _, ok := keys["rateLimiting"]; ok {
		merged.RateLimiting = RateLimiting{}
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return c, err
	}
	return merged.Normalize(), nil
}

// FindInstance returns the index of the instance with id, or -1
func (c Config) FindInstance(id string) int {
	for i := range c.Instances {
		if c.Instances[i].ID == id {
			return i
		}
	}
	return -1
}

// QueryDefinition is one entry of a connector's compiled query catalog
type QueryDefinition struct {
	ID          string `json:"id"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// QueryOptions carries optional per-call inputs
type QueryOptions struct {
	Body    interface{}       `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Result is the parsed upstream response of one ExecuteQuery call
type Result struct {
	StatusCode  int           `json:"statusCode"`
	ContentType string        `json:"contentType,omitempty"`
	Data        interface{}   `json:"data"`
	Duration    time.Duration `json:"-"`
}
