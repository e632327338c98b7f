// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import (
	"context"
	"fmt"
	"strings"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/storage"
)

// ExecuteAdHoc runs a caller-supplied query. With req.SaveAs set, a
// successful run on an active instance is stored as a saved query owned by
// userID.
func (s *Service) ExecuteAdHoc(ctx context.Context, pluginName, instanceID, userID string, req AdHocRequest) (*ExecutionResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", base.ErrInvalid)
	}

	var opts *base.QueryOptions
	if req.Body != nil || len(req.Headers) > 0 {
		opts = &base.QueryOptions{Body: req.Body, Headers: req.Headers}
	}

	result, err := s.execute(ctx, execution{
		plugin: pluginName,
		id:     instanceID,
		query:  req.Query,
		method: req.Method,
		opts:   opts,
		source: SourceAdHoc,
	})
	if err != nil {
		return nil, err
	}

	if req.SaveAs != "" && result.Status == StatusSuccess {
		saved := &storage.SavedQuery{
			UserID:      userID,
			Name:        req.SaveAs,
			Description: req.Description,
			PluginName:  result.PluginName,
			InstanceID:  result.InstanceID,
			Query:       req.Query,
			Method:      result.Method,
		}
		if err := s.queries.CreateSavedQuery(ctx, saved); err != nil {
			s.logger.Error(result.RequestID, "failed to save query", map[string]interface{}{
				"plugin":   result.PluginName,
				"instance": result.InstanceID,
				"error":    err.Error(),
			})
		} else {
			result.SavedQueryID = saved.ID
		}
	}

	return result, nil
}

// ExecuteDefault runs the catalog query queryID of the plugin
func (s *Service) ExecuteDefault(ctx context.Context, pluginName, instanceID, queryID string) (*ExecutionResult, error) {
	def, err := s.findDefaultQuery(pluginName, queryID)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, execution{
		plugin:  pluginName,
		id:      instanceID,
		query:   def.Path,
		method:  def.Method,
		source:  SourceDefault,
		queryID: def.ID,
	})
}

// ExecuteSaved replays a saved query owned by userID
func (s *Service) ExecuteSaved(ctx context.Context, savedQueryID, userID string) (*ExecutionResult, error) {
	q, err := s.queries.GetSavedQuery(ctx, savedQueryID)
	if err != nil {
		return nil, err
	}
	if q.UserID != userID {
		return nil, base.NotFoundError("saved query", savedQueryID)
	}

	result, err := s.execute(ctx, execution{
		plugin: q.PluginName,
		id:     q.InstanceID,
		query:  q.Query,
		method: q.Method,
		source: SourceSaved,
	})
	if err != nil {
		return nil, err
	}
	result.SavedQueryID = q.ID

	if result.Status == StatusSuccess {
		if err := s.queries.MarkSavedQueryExecuted(ctx, q.ID, result.Timestamp); err != nil {
			s.logger.Warn(result.RequestID, "failed to record saved query execution", map[string]interface{}{
				"saved_query": q.ID,
				"error":       err.Error(),
			})
		}
	}
	return result, nil
}

// ExecuteWidget replays a widget owned by userID, resolving its catalog
// query when it references one
func (s *Service) ExecuteWidget(ctx context.Context, widgetID, userID string) (*ExecutionResult, error) {
	w, err := s.widgets.GetWidget(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, base.NotFoundError("widget", widgetID)
	}

	e := execution{
		plugin: w.PluginName,
		id:     w.InstanceID,
		query:  w.Query,
		method: w.Method,
		source: SourceWidget,
	}
	if w.QueryID != "" {
		def, err := s.findDefaultQuery(w.PluginName, w.QueryID)
		if err != nil {
			return nil, err
		}
		e.query, e.method, e.queryID = def.Path, def.Method, def.ID
	}

	result, err := s.execute(ctx, e)
	if err != nil {
		return nil, err
	}
	result.WidgetID = w.ID
	return result, nil
}

// ValidateQuery returns advisory findings for query against the instance.
// Plugins without a validator produce no findings.
func (s *Service) ValidateQuery(pluginName, instanceID, query string) (*ValidationResult, error) {
	p, inst, err := s.resolve(pluginName, instanceID)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Valid: true, Warnings: []string{}, Suggestions: []string{}}

	if v, ok := p.(base.QueryValidator); ok {
		warnings, suggestions := v.ValidateQuery(inst, query)
		result.Warnings = append(result.Warnings, warnings...)
		result.Suggestions = append(result.Suggestions, suggestions...)
	} else if strings.TrimSpace(query) == "" {
		result.Warnings = append(result.Warnings, "Query is empty")
	}

	return result, nil
}

func (s *Service) findDefaultQuery(pluginName, queryID string) (base.QueryDefinition, error) {
	p, err := s.registry.Get(pluginName)
	if err != nil {
		return base.QueryDefinition{}, err
	}
	for _, q := range p.DefaultQueries() {
		if q.ID == queryID {
			return q, nil
		}
	}
	return base.QueryDefinition{}, base.NotFoundError(p.SystemName()+" default query", queryID)
}
