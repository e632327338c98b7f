// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/shared/logger"
)

// PostgreSQLStorage keeps saved queries and widgets in PostgreSQL
type PostgreSQLStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewPostgreSQLStorage connects to dbURL, retrying while the database comes
// up, and creates the schema.
func NewPostgreSQLStorage(dbURL string) (*PostgreSQLStorage, error) {
	log := logger.New("storage")

	maxRetries := 5
	var db *sql.DB
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info("", "connected to database", map[string]interface{}{"attempt": attempt})
				break
			}
			_ = db.Close()
		}

		if attempt < maxRetries {
			backoff := time.Duration(attempt*2) * time.Second
			log.Warn("", "database connection failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"backoff": backoff.String(),
				"error":   err.Error(),
			})
			time.Sleep(backoff)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	s := NewPostgreSQLStorageWithDB(db)
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewPostgreSQLStorageWithDB wraps an open database without touching the schema
func NewPostgreSQLStorageWithDB(db *sql.DB) *PostgreSQLStorage {
	return &PostgreSQLStorage{db: db, logger: logger.New("storage")}
}

func (s *PostgreSQLStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS saved_queries (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		plugin_name VARCHAR(100) NOT NULL,
		instance_id VARCHAR(255) NOT NULL,
		query TEXT NOT NULL,
		method VARCHAR(10) NOT NULL DEFAULT 'GET',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		last_executed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_saved_queries_user ON saved_queries(user_id);
	CREATE INDEX IF NOT EXISTS idx_saved_queries_instance ON saved_queries(plugin_name, instance_id);

	CREATE TABLE IF NOT EXISTS custom_widgets (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL,
		plugin_name VARCHAR(100) NOT NULL,
		instance_id VARCHAR(255) NOT NULL,
		query_id VARCHAR(100) NOT NULL DEFAULT '',
		query TEXT NOT NULL DEFAULT '',
		method VARCHAR(10) NOT NULL DEFAULT 'GET',
		refresh_interval INTEGER NOT NULL DEFAULT 300,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_custom_widgets_user ON custom_widgets(user_id);
	CREATE INDEX IF NOT EXISTS idx_custom_widgets_instance ON custom_widgets(plugin_name, instance_id);
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Info("", "storage schema initialized", nil)
	return nil
}

// CreateSavedQuery inserts q, assigning ID and CreatedAt when empty
func (s *PostgreSQLStorage) CreateSavedQuery(ctx context.Context, q *SavedQuery) error {
	prepareSavedQuery(q)

	query := `
		INSERT INTO saved_queries (id, user_id, name, description, plugin_name, instance_id, query, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		q.ID, q.UserID, q.Name, q.Description, q.PluginName, q.InstanceID, q.Query, q.Method, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save query: %w", err)
	}
	return nil
}

const savedQueryColumns = `id, user_id, name, description, plugin_name, instance_id, query, method, created_at, last_executed_at`

// GetSavedQuery returns one saved query by id
func (s *PostgreSQLStorage) GetSavedQuery(ctx context.Context, id string) (*SavedQuery, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+savedQueryColumns+` FROM saved_queries WHERE id = $1`, id)

	q, err := scanSavedQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, base.NotFoundError("saved query", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved query: %w", err)
	}
	return q, nil
}

// ListSavedQueries returns the user's saved queries, newest first
func (s *PostgreSQLStorage) ListSavedQueries(ctx context.Context, userID string) ([]SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+savedQueryColumns+` FROM saved_queries WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []SavedQuery{}
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// DeleteSavedQuery removes the query when userID owns it
func (s *PostgreSQLStorage) DeleteSavedQuery(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved query: %w", err)
	}
	return requireRow(result, "saved query", id)
}

// MarkSavedQueryExecuted records the last replay time
func (s *PostgreSQLStorage) MarkSavedQueryExecuted(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE saved_queries SET last_executed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update saved query: %w", err)
	}
	return nil
}

// CountSavedQueriesByInstance counts saved queries bound to the instance
func (s *PostgreSQLStorage) CountSavedQueriesByInstance(ctx context.Context, pluginName, instanceID string) (int, error) {
	return s.count(ctx, "saved_queries", pluginName, instanceID)
}

// CreateWidget inserts w, assigning ID and CreatedAt when empty
func (s *PostgreSQLStorage) CreateWidget(ctx context.Context, w *Widget) error {
	prepareWidget(w)

	query := `
		INSERT INTO custom_widgets (id, user_id, title, plugin_name, instance_id, query_id, query, method, refresh_interval, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		w.ID, w.UserID, w.Title, w.PluginName, w.InstanceID, w.QueryID, w.Query, w.Method, w.RefreshInterval, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save widget: %w", err)
	}
	return nil
}

const widgetColumns = `id, user_id, title, plugin_name, instance_id, query_id, query, method, refresh_interval, created_at`

// GetWidget returns one widget by id
func (s *PostgreSQLStorage) GetWidget(ctx context.Context, id string) (*Widget, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+widgetColumns+` FROM custom_widgets WHERE id = $1`, id)

	w, err := scanWidget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, base.NotFoundError("widget", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get widget: %w", err)
	}
	return w, nil
}

// ListWidgets returns the user's widgets, newest first
func (s *PostgreSQLStorage) ListWidgets(ctx context.Context, userID string) ([]Widget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+widgetColumns+` FROM custom_widgets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list widgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Widget{}
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// DeleteWidget removes the widget when userID owns it
func (s *PostgreSQLStorage) DeleteWidget(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM custom_widgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete widget: %w", err)
	}
	return requireRow(result, "widget", id)
}

// CountWidgetsByInstance counts widgets bound to the instance
func (s *PostgreSQLStorage) CountWidgetsByInstance(ctx context.Context, pluginName, instanceID string) (int, error) {
	return s.count(ctx, "custom_widgets", pluginName, instanceID)
}

func (s *PostgreSQLStorage) count(ctx context.Context, table, pluginName, instanceID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM ` + table + ` WHERE plugin_name = $1 AND instance_id = $2`
	if err := s.db.QueryRowContext(ctx, query, strings.ToLower(pluginName), instanceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Close closes the database connection
func (s *PostgreSQLStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSavedQuery(row scanner) (*SavedQuery, error) {
	var q SavedQuery
	var lastExecuted sql.NullTime
	if err := row.Scan(&q.ID, &q.UserID, &q.Name, &q.Description, &q.PluginName, &q.InstanceID,
		&q.Query, &q.Method, &q.CreatedAt, &lastExecuted); err != nil {
		return nil, err
	}
	if lastExecuted.Valid {
		t := lastExecuted.Time
		q.LastExecutedAt = &t
	}
	return &q, nil
}

func scanWidget(row scanner) (*Widget, error) {
	var w Widget
	if err := row.Scan(&w.ID, &w.UserID, &w.Title, &w.PluginName, &w.InstanceID, &w.QueryID,
		&w.Query, &w.Method, &w.RefreshInterval, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func requireRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return base.NotFoundError(kind, id)
	}
	return nil
}

func prepareSavedQuery(q *SavedQuery) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	q.PluginName = strings.ToLower(q.PluginName)
	q.Method = normalizeMethod(q.Method)
}

func prepareWidget(w *Widget) {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	if w.RefreshInterval <= 0 {
		w.RefreshInterval = base.DefaultRefreshInterval
	}
	w.PluginName = strings.ToLower(w.PluginName)
	w.Method = normalizeMethod(w.Method)
}

func normalizeMethod(m string) string {
	if m == "" {
		return "GET"
	}
	return strings.ToUpper(m)
}
