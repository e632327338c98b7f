// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"opsbridge/platform/connectors/base"
)

// MemoryStore is the in-process backend used when no database is configured
type MemoryStore struct {
	queries map[string]SavedQuery
	widgets map[string]Widget
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queries: make(map[string]SavedQuery),
		widgets: make(map[string]Widget),
	}
}

// CreateSavedQuery stores a copy of q, assigning ID and CreatedAt when empty
func (m *MemoryStore) CreateSavedQuery(_ context.Context, q *SavedQuery) error {
	prepareSavedQuery(q)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.queries[q.ID]; exists {
		return base.ErrConflict
	}
	m.queries[q.ID] = *q
	return nil
}

// GetSavedQuery returns a copy of the saved query
func (m *MemoryStore) GetSavedQuery(_ context.Context, id string) (*SavedQuery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.queries[id]
	if !ok {
		return nil, base.NotFoundError("saved query", id)
	}
	return &q, nil
}

// ListSavedQueries returns the user's saved queries, newest first
func (m *MemoryStore) ListSavedQueries(_ context.Context, userID string) ([]SavedQuery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []SavedQuery{}
	for _, q := range m.queries {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteSavedQuery removes the query when userID owns it
func (m *MemoryStore) DeleteSavedQuery(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queries[id]
	if !ok || q.UserID != userID {
		return base.NotFoundError("saved query", id)
	}
	delete(m.queries, id)
	return nil
}

// MarkSavedQueryExecuted records the last replay time
func (m *MemoryStore) MarkSavedQueryExecuted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q, ok := m.queries[id]; ok {
		q.LastExecutedAt = &at
		m.queries[id] = q
	}
	return nil
}

// CountSavedQueriesByInstance counts saved queries bound to the instance
func (m *MemoryStore) CountSavedQueriesByInstance(_ context.Context, pluginName, instanceID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, q := range m.queries {
		if strings.EqualFold(q.PluginName, pluginName) && q.InstanceID == instanceID {
			n++
		}
	}
	return n, nil
}

// CreateWidget stores a copy of w, assigning ID and CreatedAt when empty
func (m *MemoryStore) CreateWidget(_ context.Context, w *Widget) error {
	prepareWidget(w)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.widgets[w.ID]; exists {
		return base.ErrConflict
	}
	m.widgets[w.ID] = *w
	return nil
}

// GetWidget returns a copy of the widget
func (m *MemoryStore) GetWidget(_ context.Context, id string) (*Widget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.widgets[id]
	if !ok {
		return nil, base.NotFoundError("widget", id)
	}
	return &w, nil
}

// ListWidgets returns the user's widgets, newest first
func (m *MemoryStore) ListWidgets(_ context.Context, userID string) ([]Widget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Widget{}
	for _, w := range m.widgets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteWidget removes the widget when userID owns it
func (m *MemoryStore) DeleteWidget(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.widgets[id]
	if !ok || w.UserID != userID {
		return base.NotFoundError("widget", id)
	}
	delete(m.widgets, id)
	return nil
}

// CountWidgetsByInstance counts widgets bound to the instance
func (m *MemoryStore) CountWidgetsByInstance(_ context.Context, pluginName, instanceID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, w := range m.widgets {
		if strings.EqualFold(w.PluginName, pluginName) && w.InstanceID == instanceID {
			n++
		}
	}
	return n, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }
