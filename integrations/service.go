// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package integrations is the query execution facade. Every entry point
// (ad-hoc, catalog, saved, widget) converges on one ExecuteQuery call against
// the resolved plugin instance.
package integrations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/registry"
	"opsbridge/platform/ratelimit"
	"opsbridge/platform/shared/logger"
	"opsbridge/platform/storage"
)

// Execution sources, used as metric labels
const (
	SourceAdHoc   = "adhoc"
	SourceDefault = "default"
	SourceSaved   = "saved"
	SourceWidget  = "widget"
	SourceProbe   = "probe"
)

// Option configures a Service
type Option func(*Service)

// WithStorage sets the saved query and widget backend
func WithStorage(s storage.Store) Option {
	return func(svc *Service) {
		svc.queries = s
		svc.widgets = s
	}
}

// WithLimiter enables rate limit enforcement
func WithLimiter(l ratelimit.Limiter) Option {
	return func(svc *Service) { svc.limiter = l }
}

// WithSweepConcurrency bounds the number of concurrent probes in a sweep.
// n <= 1 keeps the sweep sequential.
func WithSweepConcurrency(n int) Option {
	return func(svc *Service) { svc.sweepConcurrency = n }
}

// WithURLPolicy restricts the base URLs accepted on instance create and update
func WithURLPolicy(p base.URLPolicy) Option {
	return func(svc *Service) { svc.urlPolicy = p }
}

// WithLogger replaces the facade logger
func WithLogger(l *logger.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// Service implements the facade operations on top of a Registry
type Service struct {
	registry         *registry.Registry
	queries          storage.SavedQueryStore
	widgets          storage.WidgetStore
	limiter          ratelimit.Limiter
	sweepConcurrency int
	urlPolicy        base.URLPolicy
	logger           *logger.Logger
	now              func() time.Time
}

// New creates the facade. Without WithStorage, saved queries and widgets are
// kept in memory.
func New(reg *registry.Registry, opts ...Option) *Service {
	mem := storage.NewMemoryStore()
	s := &Service{
		registry:         reg,
		queries:          mem,
		widgets:          mem,
		sweepConcurrency: 1,
		logger:           logger.New("integrations"),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the underlying registry
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

func (s *Service) resolve(pluginName, instanceID string) (base.Plugin, base.Instance, error) {
	p, err := s.registry.Get(pluginName)
	if err != nil {
		return nil, base.Instance{}, err
	}
	inst, ok := p.GetInstance(instanceID)
	if !ok {
		return nil, base.Instance{}, base.NotFoundError(p.SystemName()+" instance", instanceID)
	}
	return p, inst, nil
}

type execution struct {
	plugin  string
	id      string
	query   string
	method  string
	opts    *base.QueryOptions
	source  string
	queryID string
}

// execute is the single path every entry point takes:
// resolve → active check → rate limit → one upstream call → envelope.
func (s *Service) execute(ctx context.Context, e execution) (*ExecutionResult, error) {
	p, inst, err := s.resolve(e.plugin, e.id)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(e.method)
	if method == "" {
		method = "GET"
	}

	result := &ExecutionResult{
		PluginName:   p.SystemName(),
		InstanceID:   inst.ID,
		InstanceName: inst.Name,
		Query:        e.query,
		Method:       method,
		RequestID:    uuid.New().String(),
		QueryID:      e.queryID,
		Timestamp:    s.now().UTC(),
	}

	if !inst.IsActive {
		return inactive(result), nil
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, p.SystemName(), p.Config().RateLimiting); err != nil {
			promQueryExecutions.WithLabelValues(p.SystemName(), e.source, "rate_limited").Inc()
			return nil, err
		}
	}

	start := time.Now()
	res, err := p.ExecuteQuery(ctx, e.query, method, inst.ID, e.opts)
	elapsed := time.Since(start)
	result.ExecutionTime = elapsed.Milliseconds()

	if errors.Is(err, base.ErrInactive) {
		return inactive(result), nil
	}

	promQueryDuration.WithLabelValues(p.SystemName(), e.source).Observe(float64(elapsed.Milliseconds()))

	if err != nil {
		promQueryExecutions.WithLabelValues(p.SystemName(), e.source, StatusError).Inc()
		s.logger.Warn(result.RequestID, "query execution failed", map[string]interface{}{
			"plugin":   p.SystemName(),
			"instance": inst.ID,
			"source":   e.source,
			"query":    base.SanitizeLogString(e.query),
			"error":    err.Error(),
		})
		return nil, err
	}

	promQueryExecutions.WithLabelValues(p.SystemName(), e.source, StatusSuccess).Inc()
	s.logger.InfoWithDuration(result.RequestID, "query executed", float64(elapsed.Milliseconds()), map[string]interface{}{
		"plugin":   p.SystemName(),
		"instance": inst.ID,
		"source":   e.source,
		"status":   res.StatusCode,
	})

	result.Success = true
	result.Status = StatusSuccess
	result.Data = res.Data
	return result, nil
}

func inactive(r *ExecutionResult) *ExecutionResult {
	r.Success = true
	r.Status = StatusInactive
	r.Message = "Instance is inactive"
	r.Data = nil
	return r
}
