// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"opsbridge/platform/connectors/base"
)

// TestConnection probes one instance with the plugin's first catalog query.
// Unknown plugins and instances are errors; every other outcome, inactive
// included, is reported in the result.
func (s *Service) TestConnection(ctx context.Context, pluginName, instanceID string) (*ConnectionResult, error) {
	p, inst, err := s.resolve(pluginName, instanceID)
	if err != nil {
		return nil, err
	}

	status, message, elapsed := s.probe(ctx, p, inst)
	return &ConnectionResult{
		Status:       status,
		Message:      message,
		ResponseTime: elapsed,
		PluginName:   p.SystemName(),
		InstanceID:   inst.ID,
		InstanceName: inst.Name,
		Timestamp:    s.now().UTC(),
	}, nil
}

// probe never returns an error; failures are classified into the message
func (s *Service) probe(ctx context.Context, p base.Plugin, inst base.Instance) (status, message string, responseTime int64) {
	defer func() {
		promHealthChecks.WithLabelValues(p.SystemName(), status).Inc()
	}()

	if !inst.IsActive {
		return StatusInactive, "Instance is inactive", 0
	}

	queries := p.DefaultQueries()
	if len(queries) == 0 {
		return StatusUnknown, "No health check query defined for this plugin", 0
	}
	probe := queries[0]

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, p.SystemName(), p.Config().RateLimiting); err != nil {
			return StatusError, ClassifyError(err), 0
		}
	}

	start := time.Now()
	_, err := p.ExecuteQuery(ctx, probe.Path, probe.Method, inst.ID, nil)
	responseTime = time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, base.ErrInactive):
		return StatusInactive, "Instance is inactive", 0
	case err != nil:
		s.logger.Warn("", "health probe failed", map[string]interface{}{
			"plugin":   p.SystemName(),
			"instance": inst.ID,
			"error":    err.Error(),
		})
		return StatusError, ClassifyError(err), responseTime
	default:
		return StatusHealthy, "Connection successful", responseTime
	}
}

// Sweep probes every registered instance. Inactive instances are skipped
// without a network call. Probes run one at a time unless the service was
// built WithSweepConcurrency(n > 1); results keep registry order either way.
func (s *Service) Sweep(ctx context.Context) *SweepReport {
	start := time.Now()
	targets := s.registry.AllInstances()
	results := make([]SweepResult, len(targets))

	run := func(i int) {
		t := targets[i]
		r := SweepResult{
			PluginName:   t.PluginName,
			InstanceID:   t.Instance.ID,
			InstanceName: t.Instance.Name,
		}
		p, err := s.registry.Get(t.PluginName)
		if err != nil {
			r.Status, r.Message = StatusUnknown, err.Error()
		} else {
			r.Status, r.Message, r.ResponseTime = s.probe(ctx, p, t.Instance)
		}
		results[i] = r
	}

	if s.sweepConcurrency <= 1 {
		for i := range targets {
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.sweepConcurrency)
		for i := range targets {
			i := i
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &SweepReport{
		Timestamp: s.now().UTC(),
		Duration:  time.Since(start).Milliseconds(),
		Results:   results,
	}
	for _, r := range results {
		report.Summary.Total++
		switch r.Status {
		case StatusHealthy:
			report.Summary.Healthy++
		case StatusError:
			report.Summary.Error++
		case StatusInactive:
			report.Summary.Inactive++
		default:
			report.Summary.Unknown++
		}
	}

	s.logger.Info("", "health sweep completed", map[string]interface{}{
		"total":       report.Summary.Total,
		"healthy":     report.Summary.Healthy,
		"error":       report.Summary.Error,
		"unknown":     report.Summary.Unknown,
		"inactive":    report.Summary.Inactive,
		"duration_ms": report.Duration,
		"concurrency": s.sweepConcurrency,
	})
	return report
}
