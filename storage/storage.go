// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package storage persists saved queries and custom widgets. Both reference
// an instance by plugin name and instance id; removing the instance does not
// cascade to them.
package storage

import (
	"context"
	"time"
)

// SavedQuery is a user-owned query bound to one instance
type SavedQuery struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	PluginName     string     `json:"pluginName"`
	InstanceID     string     `json:"instanceId"`
	Query          string     `json:"query"`
	Method         string     `json:"method"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastExecutedAt *time.Time `json:"lastExecutedAt,omitempty"`
}

// Widget is a dashboard card replaying either a catalog query (QueryID) or a
// literal query
type Widget struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Title           string    `json:"title"`
	PluginName      string    `json:"pluginName"`
	InstanceID      string    `json:"instanceId"`
	QueryID         string    `json:"queryId,omitempty"`
	Query           string    `json:"query,omitempty"`
	Method          string    `json:"method"`
	RefreshInterval int       `json:"refreshInterval"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SavedQueryStore is the saved query collaborator. Get and Delete return an
// error wrapping base.ErrNotFound for unknown (or foreign) ids.
type SavedQueryStore interface {
	CreateSavedQuery(ctx context.Context, q *SavedQuery) error
	GetSavedQuery(ctx context.Context, id string) (*SavedQuery, error)
	ListSavedQueries(ctx context.Context, userID string) ([]SavedQuery, error)
	DeleteSavedQuery(ctx context.Context, id, userID string) error
	MarkSavedQueryExecuted(ctx context.Context, id string, at time.Time) error
	CountSavedQueriesByInstance(ctx context.Context, pluginName, instanceID string) (int, error)
}

// WidgetStore is the custom widget collaborator
type WidgetStore interface {
	CreateWidget(ctx context.Context, w *Widget) error
	GetWidget(ctx context.Context, id string) (*Widget, error)
	ListWidgets(ctx context.Context, userID string) ([]Widget, error)
	DeleteWidget(ctx context.Context, id, userID string) error
	CountWidgetsByInstance(ctx context.Context, pluginName, instanceID string) (int, error)
}

// Store is implemented by every backend
type Store interface {
	SavedQueryStore
	WidgetStore
	Close() error
}
