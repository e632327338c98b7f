// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/registry"
	"opsbridge/platform/storage"
)

// InstanceInput is the body of create and update requests. Nil fields keep
// their current value on update.
type InstanceInput struct {
	Name       *string         `json:"name"`
	BaseURL    *string         `json:"baseUrl"`
	AuthType   *base.AuthType  `json:"authType"`
	AuthConfig json.RawMessage `json:"authConfig"`
	IsActive   *bool           `json:"isActive"`
	Tags       []string        `json:"tags"`
	SSLConfig  *base.SSLConfig `json:"sslConfig"`
}

// ListPlugins summarizes every registered plugin
func (s *Service) ListPlugins() []PluginSummary {
	plugins := s.registry.List()
	out := make([]PluginSummary, 0, len(plugins))
	for _, p := range plugins {
		instances := p.GetInstances()
		active := 0
		for _, inst := range instances {
			if inst.IsActive {
				active++
			}
		}
		out = append(out, PluginSummary{
			Name:            p.SystemName(),
			DisplayName:     p.DisplayName(),
			Category:        p.Category(),
			InstanceCount:   len(instances),
			ActiveInstances: active,
			DefaultQueries:  p.DefaultQueries(),
		})
	}
	return out
}

// AvailablePlugins lists plugins with at least one active instance
func (s *Service) AvailablePlugins() []PluginSummary {
	var out []PluginSummary
	for _, p := range s.ListPlugins() {
		if p.ActiveInstances > 0 {
			out = append(out, p)
		}
	}
	if out == nil {
		out = []PluginSummary{}
	}
	return out
}

// Types lists the registered system types
func (s *Service) Types() []PluginType {
	plugins := s.registry.List()
	out := make([]PluginType, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, PluginType{
			SystemName:  p.SystemName(),
			DisplayName: p.DisplayName(),
			Category:    p.Category(),
			QueryCount:  len(p.DefaultQueries()),
		})
	}
	return out
}

// AllInstances is the flattened instance listing
func (s *Service) AllInstances() []registry.PluginInstance {
	out := s.registry.AllInstances()
	if out == nil {
		out = []registry.PluginInstance{}
	}
	return out
}

// PluginInstances lists the instances of one plugin
func (s *Service) PluginInstances(pluginName string) ([]base.Instance, error) {
	p, err := s.registry.Get(pluginName)
	if err != nil {
		return nil, err
	}
	return p.GetInstances(), nil
}

// DefaultQueries returns the catalog of one plugin
func (s *Service) DefaultQueries(pluginName string) ([]base.QueryDefinition, error) {
	p, err := s.registry.Get(pluginName)
	if err != nil {
		return nil, err
	}
	return p.DefaultQueries(), nil
}

// CreateInstance adds an instance. Name and baseUrl are required and the
// name must be unique within the plugin, ignoring case. The id is derived
// from the plugin, the name and the creation time and never changes.
func (s *Service) CreateInstance(pluginName string, in InstanceInput) (base.Instance, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return base.Instance{}, fmt.Errorf("%w: name is required", base.ErrInvalid)
	}
	if in.BaseURL == nil || strings.TrimSpace(*in.BaseURL) == "" {
		return base.Instance{}, fmt.Errorf("%w: baseUrl is required", base.ErrInvalid)
	}

	var created base.Instance
	err := s.registry.Mutate(pluginName, func(cfg base.Config) (base.Config, error) {
		name := strings.TrimSpace(*in.Name)
		for _, existing := range cfg.Instances {
			if strings.EqualFold(existing.Name, name) {
				return cfg, fmt.Errorf("%w: instance named '%s' already exists", base.ErrConflict, existing.Name)
			}
		}

		inst := base.Instance{
			ID:       s.instanceID(strings.ToLower(pluginName), name, cfg),
			IsActive: true,
			Auth:     base.NoAuth{},
			Tags:     []string{},
		}
		if err := applyInput(&inst, in, s.urlPolicy); err != nil {
			return cfg, err
		}

		cfg.Instances = append(cfg.Instances, inst)
		created = inst
		return cfg, nil
	})
	if err != nil {
		return base.Instance{}, err
	}

	s.logger.Info("", "instance created", map[string]interface{}{
		"plugin":   strings.ToLower(pluginName),
		"instance": created.ID,
	})
	return created, nil
}

// UpdateInstance patches the fields present in in. The id cannot change.
// Redacted secrets in authConfig keep the stored value.
func (s *Service) UpdateInstance(pluginName, instanceID string, in InstanceInput) (base.Instance, error) {
	var updated base.Instance
	err := s.registry.Mutate(pluginName, func(cfg base.Config) (base.Config, error) {
		idx := cfg.FindInstance(instanceID)
		if idx < 0 {
			return cfg, base.NotFoundError(strings.ToLower(pluginName)+" instance", instanceID)
		}
		if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
			return cfg, fmt.Errorf("%w: name cannot be empty", base.ErrInvalid)
		}

		inst := cfg.Instances[idx]
		if err := applyInput(&inst, in, s.urlPolicy); err != nil {
			return cfg, err
		}
		cfg.Instances[idx] = inst
		updated = inst
		return cfg, nil
	})
	if err != nil {
		return base.Instance{}, err
	}
	return updated, nil
}

// ToggleInstance flips isActive
func (s *Service) ToggleInstance(pluginName, instanceID string) (base.Instance, error) {
	var toggled base.Instance
	err := s.registry.Mutate(pluginName, func(cfg base.Config) (base.Config, error) {
		idx := cfg.FindInstance(instanceID)
		if idx < 0 {
			return cfg, base.NotFoundError(strings.ToLower(pluginName)+" instance", instanceID)
		}
		cfg.Instances[idx].IsActive = !cfg.Instances[idx].IsActive
		toggled = cfg.Instances[idx]
		return cfg, nil
	})
	if err != nil {
		return base.Instance{}, err
	}
	return toggled, nil
}

// DeleteInstance removes the instance and reports how many saved queries and
// widgets still reference it. Those records are left in place.
func (s *Service) DeleteInstance(ctx context.Context, pluginName, instanceID string) (*DeleteReport, error) {
	err := s.registry.Mutate(pluginName, func(cfg base.Config) (base.Config, error) {
		idx := cfg.FindInstance(instanceID)
		if idx < 0 {
			return cfg, base.NotFoundError(strings.ToLower(pluginName)+" instance", instanceID)
		}
		cfg.Instances = append(cfg.Instances[:idx], cfg.Instances[idx+1:]...)
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{PluginName: strings.ToLower(pluginName), InstanceID: instanceID}
	if n, err := s.queries.CountSavedQueriesByInstance(ctx, pluginName, instanceID); err == nil {
		report.SavedQueries = n
	} else {
		s.logger.Warn("", "failed to count saved queries for deleted instance", map[string]interface{}{"error": err.Error()})
	}
	if n, err := s.widgets.CountWidgetsByInstance(ctx, pluginName, instanceID); err == nil {
		report.Widgets = n
	} else {
		s.logger.Warn("", "failed to count widgets for deleted instance", map[string]interface{}{"error": err.Error()})
	}

	s.logger.Info("", "instance deleted", map[string]interface{}{
		"plugin":        report.PluginName,
		"instance":      instanceID,
		"saved_queries": report.SavedQueries,
		"widgets":       report.Widgets,
	})
	return report, nil
}

// ListSavedQueries returns the saved queries of userID
func (s *Service) ListSavedQueries(ctx context.Context, userID string) ([]storage.SavedQuery, error) {
	return s.queries.ListSavedQueries(ctx, userID)
}

// DeleteSavedQuery removes a saved query owned by userID
func (s *Service) DeleteSavedQuery(ctx context.Context, id, userID string) error {
	return s.queries.DeleteSavedQuery(ctx, id, userID)
}

// CreateWidget stores a widget after checking that its plugin, instance and
// catalog query exist
func (s *Service) CreateWidget(ctx context.Context, userID string, w storage.Widget) (*storage.Widget, error) {
	if strings.TrimSpace(w.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", base.ErrInvalid)
	}
	if w.QueryID == "" && strings.TrimSpace(w.Query) == "" {
		return nil, fmt.Errorf("%w: queryId or query is required", base.ErrInvalid)
	}

	if _, _, err := s.resolve(w.PluginName, w.InstanceID); err != nil {
		return nil, err
	}
	if w.QueryID != "" {
		if _, err := s.findDefaultQuery(w.PluginName, w.QueryID); err != nil {
			return nil, err
		}
	}

	w.ID = ""
	w.UserID = userID
	if err := s.widgets.CreateWidget(ctx, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWidgets returns the widgets of userID
func (s *Service) ListWidgets(ctx context.Context, userID string) ([]storage.Widget, error) {
	return s.widgets.ListWidgets(ctx, userID)
}

// DeleteWidget removes a widget owned by userID
func (s *Service) DeleteWidget(ctx context.Context, id, userID string) error {
	return s.widgets.DeleteWidget(ctx, id, userID)
}

func applyInput(inst *base.Instance, in InstanceInput, policy base.URLPolicy) error {
	if in.Name != nil {
		inst.Name = strings.TrimSpace(*in.Name)
	}
	if in.BaseURL != nil {
		baseURL := strings.TrimRight(strings.TrimSpace(*in.BaseURL), "/")
		if err := base.ValidateBaseURL(baseURL, policy); err != nil {
			return err
		}
		inst.BaseURL = baseURL
	}
	if in.IsActive != nil {
		inst.IsActive = *in.IsActive
	}
	if in.Tags != nil {
		inst.Tags = append([]string{}, in.Tags...)
	}
	if in.SSLConfig != nil {
		ssl := *in.SSLConfig
		inst.SSLConfig = &ssl
	}

	if in.AuthType != nil || len(in.AuthConfig) > 0 {
		authType := inst.AuthType()
		if in.AuthType != nil {
			authType = *in.AuthType
		}
		auth, err := base.DecodeAuth(authType, in.AuthConfig)
		if err != nil {
			return err
		}
		inst.Auth = keepRedactedSecrets(inst.Auth, auth)
	}
	return nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// instanceID builds <plugin>-<slug(name)>-<unix millis>, bumping the
// timestamp on the unlikely collision so ids are never reused
func (s *Service) instanceID(plugin, name string, cfg base.Config) string {
	slug := slugify(name)
	if slug == "" {
		slug = "instance"
	}
	ts := s.now().UnixMilli()
	for {
		id := fmt.Sprintf("%s-%s-%d", plugin, slug, ts)
		if cfg.FindInstance(id) < 0 {
			return id
		}
		ts++
	}
}
