// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"opsbridge/platform/connectors/config"
)

// Config holds process settings read from the environment
type Config struct {
	Port               string
	PluginConfigDir    string
	SeedFile           string
	DatabaseURL        string
	RedisURL           string
	EnforceRateLimits  bool
	StrictMutation     bool
	SweepConcurrency   int
	CORSAllowedOrigins []string
	BlockPrivateURLs   bool
	BlockedURLHosts    []string
}

// LoadConfig reads Config from environment variables, applying defaults
func LoadConfig() Config {
	return Config{
		Port:               config.GetEnv("PORT", "8085"),
		PluginConfigDir:    config.GetEnv("PLUGIN_CONFIG_DIR", "./config/plugins"),
		SeedFile:           config.GetEnv("PLUGIN_SEED_FILE", ""),
		DatabaseURL:        config.GetEnv("DATABASE_URL", ""),
		RedisURL:           config.GetEnv("REDIS_URL", ""),
		EnforceRateLimits:  config.GetEnvBool("RATE_LIMIT_ENFORCE", false),
		StrictMutation:     config.GetEnvBool("STRICT_CONFIG_MUTATION", false),
		SweepConcurrency:   config.GetEnvInt("HEALTH_SWEEP_CONCURRENCY", 1),
		CORSAllowedOrigins: config.GetEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		BlockPrivateURLs:   config.GetEnvBool("BLOCK_PRIVATE_BASE_URLS", false),
		BlockedURLHosts:    config.GetEnvList("BLOCKED_BASE_URL_HOSTS", nil),
	}
}
