// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package app is the composition root: it builds the registry, registers
// every connector explicitly, and wires the facade, storage, rate limiting
// and HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"opsbridge/platform/api"
	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/elastic"
	"opsbridge/platform/connectors/fortigate"
	rest "opsbridge/platform/connectors/http"
	"opsbridge/platform/connectors/jira"
	"opsbridge/platform/connectors/qradar"
	"opsbridge/platform/connectors/registry"
	"opsbridge/platform/connectors/servicenow"
	"opsbridge/platform/connectors/zabbix"
	"opsbridge/platform/integrations"
	"opsbridge/platform/ratelimit"
	"opsbridge/platform/shared/logger"
	"opsbridge/platform/storage"
)

// APIPrefix is where the plugin routes are mounted
const APIPrefix = "/api/plugins"

// Connector pairs a system name with its compiled defaults and constructor
type Connector struct {
	Name     string
	Defaults func() base.Config
	Build    func(base.Config) base.Plugin
}

// Connectors is the full connector set, in registration order
func Connectors() []Connector {
	return []Connector{
		{jira.SystemName, jira.DefaultConfig, func(c base.Config) base.Plugin { return jira.New(c) }},
		{fortigate.SystemName, fortigate.DefaultConfig, func(c base.Config) base.Plugin { return fortigate.New(c) }},
		{qradar.SystemName, qradar.DefaultConfig, func(c base.Config) base.Plugin { return qradar.New(c) }},
		{zabbix.SystemName, zabbix.DefaultConfig, func(c base.Config) base.Plugin { return zabbix.New(c) }},
		{elastic.SystemName, elastic.DefaultConfig, func(c base.Config) base.Plugin { return elastic.New(c) }},
		{servicenow.SystemName, servicenow.DefaultConfig, func(c base.Config) base.Plugin { return servicenow.New(c) }},
		{rest.SystemName, rest.DefaultConfig, func(c base.Config) base.Plugin { return rest.New(c) }},
	}
}

// App owns every long-lived component
type App struct {
	Config   Config
	Registry *registry.Registry
	Service  *integrations.Service
	Store    storage.Store

	limiter *ratelimit.RedisLimiter
	logger  *logger.Logger
}

// New builds the application. Optional backends (PostgreSQL, Redis) are only
// contacted when configured.
func New(ctx context.Context, cfg Config) (*App, error) {
	log := logger.New("app")

	seed, err := loadSeed(cfg.SeedFile)
	if err != nil {
		return nil, err
	}

	var regOpts []registry.Option
	if cfg.StrictMutation {
		regOpts = append(regOpts, registry.WithStrictMutation())
	}
	reg := registry.New(config.NewFileStore(cfg.PluginConfigDir), regOpts...)

	for _, c := range Connectors() {
		compiled, err := seed.Apply(c.Name, c.Defaults())
		if err != nil {
			return nil, err
		}
		status := reg.Register(c.Build(compiled))
		log.Info("", "plugin registered", map[string]interface{}{
			"plugin": c.Name,
			"config": status.String(),
		})
	}

	a := &App{Config: cfg, Registry: reg, logger: log}

	svcOpts := []integrations.Option{
		integrations.WithSweepConcurrency(cfg.SweepConcurrency),
		integrations.WithURLPolicy(base.URLPolicy{
			BlockPrivateIPs: cfg.BlockPrivateURLs,
			BlockedHosts:    cfg.BlockedURLHosts,
		}),
	}

	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgreSQLStorage(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.Store = pg
	} else {
		log.Warn("", "DATABASE_URL not set, saved queries and widgets are kept in memory", nil)
		a.Store = storage.NewMemoryStore()
	}
	svcOpts = append(svcOpts, integrations.WithStorage(a.Store))

	if cfg.EnforceRateLimits {
		if cfg.RedisURL != "" {
			rl, err := ratelimit.NewRedisLimiterFromURL(ctx, cfg.RedisURL)
			if err != nil {
				_ = a.Store.Close()
				return nil, err
			}
			a.limiter = rl
			svcOpts = append(svcOpts, integrations.WithLimiter(rl))
		} else {
			svcOpts = append(svcOpts, integrations.WithLimiter(ratelimit.NewMemoryLimiter()))
		}
	}

	a.Service = integrations.New(reg, svcOpts...)
	return a, nil
}

func loadSeed(path string) (*config.SeedFile, error) {
	if path == "" {
		return nil, nil
	}
	seed, err := config.LoadSeedFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin seed file: %w", err)
	}
	return seed, nil
}

// Handler returns the full HTTP handler: plugin routes, liveness, metrics
// and CORS
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	h := api.NewHandler(a.Service, logger.New("api"))
	sub := r.PathPrefix(APIPrefix).Subrouter()
	sub.Use(h.Logging)
	h.Register(sub)

	c := cors.New(cors.Options{
		AllowedOrigins:   a.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// Close releases storage and rate limiter connections
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.limiter != nil {
		errs = append(errs, a.limiter.Close())
	}
	return errors.Join(errs...)
}
