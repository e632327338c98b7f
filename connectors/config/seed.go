// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"opsbridge/platform/connectors/base"
)

// SeedFile declares extra compiled-default instances per plugin. It is
// applied before any persisted per-plugin JSON override.
type SeedFile struct {
	Version string                `yaml:"version"`
	Plugins map[string]SeedPlugin `yaml:"plugins"`
}

// SeedPlugin is the seed section of one plugin
type SeedPlugin struct {
	DefaultRefreshInterval int               `yaml:"defaultRefreshInterval,omitempty"`
	RateLimiting           *SeedRateLimiting `yaml:"rateLimiting,omitempty"`
	Instances              []SeedInstance    `yaml:"instances,omitempty"`
}

// SeedRateLimiting is the YAML form of base.RateLimiting
type SeedRateLimiting struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

// SeedInstance is the YAML form of base.Instance
type SeedInstance struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	BaseURL    string            `yaml:"baseUrl"`
	AuthType   string            `yaml:"authType,omitempty"`
	AuthConfig map[string]string `yaml:"authConfig,omitempty"`
	IsActive   *bool             `yaml:"isActive,omitempty"`
	Tags       []string          `yaml:"tags,omitempty"`
	SSLConfig  *SeedSSLConfig    `yaml:"sslConfig,omitempty"`
}

// SeedSSLConfig is the YAML form of base.SSLConfig
type SeedSSLConfig struct {
	RejectUnauthorized *bool `yaml:"rejectUnauthorized,omitempty"`
	AllowSelfSigned    *bool `yaml:"allowSelfSigned,omitempty"`
	Timeout            int   `yaml:"timeout,omitempty"`
}

// LoadSeedFile reads and parses a YAML seed file, expanding ${VAR} and
// ${VAR:-default} references first.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed file content
func ParseSeed(data []byte) (*SeedFile, error) {
	expanded := expandEnvVars(string(data))

	var seed SeedFile
	if err := yaml.Unmarshal([]byte(expanded), &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	normalized := make(map[string]SeedPlugin, len(seed.Plugins))
	for name, p := range seed.Plugins {
		for i, inst := range p.Instances {
			if inst.ID == "" || inst.Name == "" || inst.BaseURL == "" {
				return nil, fmt.Errorf("%w: seed instance %d of %s needs id, name and baseUrl", base.ErrInvalid, i, name)
			}
		}
		normalized[strings.ToLower(name)] = p
	}
	seed.Plugins = normalized

	return &seed, nil
}

// Apply overlays the seed section for plugin on cfg. Seeded instances replace
// compiled instances with the same id and are appended otherwise.
func (s *SeedFile) Apply(plugin string, cfg base.Config) (base.Config, error) {
	if s == nil {
		return cfg, nil
	}
	section, ok := s.Plugins[strings.ToLower(plugin)]
	if !ok {
		return cfg, nil
	}

	out := cfg.Clone()
	if section.DefaultRefreshInterval > 0 {
		out.DefaultRefreshInterval = section.DefaultRefreshInterval
	}
	if section.RateLimiting != nil {
		out.RateLimiting = base.RateLimiting{
			RequestsPerMinute: section.RateLimiting.RequestsPerMinute,
			BurstSize:         section.RateLimiting.BurstSize,
		}
	}

	for _, si := range section.Instances {
		inst, err := si.toInstance()
		if err != nil {
			return cfg, fmt.Errorf("seed instance %s of %s: %w", si.ID, plugin, err)
		}
		if idx := out.FindInstance(inst.ID); idx >= 0 {
			out.Instances[idx] = inst
		} else {
			out.Instances = append(out.Instances, inst)
		}
	}

	return out.Normalize(), nil
}

func (si SeedInstance) toInstance() (base.Instance, error) {
	var raw json.RawMessage
	if len(si.AuthConfig) > 0 {
		encoded, err := json.Marshal(si.AuthConfig)
		if err != nil {
			return base.Instance{}, err
		}
		raw = encoded
	}

	auth, err := base.DecodeAuth(base.AuthType(si.AuthType), raw)
	if err != nil {
		return base.Instance{}, err
	}

	inst := base.Instance{
		ID:       si.ID,
		Name:     si.Name,
		BaseURL:  strings.TrimRight(si.BaseURL, "/"),
		Auth:     auth,
		IsActive: si.IsActive == nil || *si.IsActive,
		Tags:     append([]string{}, si.Tags...),
	}
	if si.SSLConfig != nil {
		inst.SSLConfig = &base.SSLConfig{
			RejectUnauthorized: si.SSLConfig.RejectUnauthorized,
			AllowSelfSigned:    si.SSLConfig.AllowSelfSigned,
			Timeout:            si.SSLConfig.Timeout,
		}
	}
	return inst, nil
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Undefined variables without a default expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}
