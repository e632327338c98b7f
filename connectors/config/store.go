// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/shared/logger"
)

// LoadStatus distinguishes a plugin that was never configured from one whose
// file exists but cannot be used.
type LoadStatus int

const (
	LoadAbsent LoadStatus = iota
	LoadLoaded
	LoadCorrupt
)

func (s LoadStatus) String() string {
	switch s {
	case LoadLoaded:
		return "loaded"
	case LoadCorrupt:
		return "corrupt"
	default:
		return "absent"
	}
}

// LoadResult is the outcome of Store.Load. Data holds the raw JSON object
// when Status is LoadLoaded; Err explains a LoadCorrupt result.
type LoadResult struct {
	Status LoadStatus
	Data   []byte
	Err    error
}

// Store persists one configuration document per plugin
type Store interface {
	Load(name string) LoadResult
	Save(name string, cfg base.Config) error
}

// FileStore keeps each plugin's config in <dir>/<name>.json. Writes through
// one store never interleave.
type FileStore struct {
	dir    string
	logger *logger.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created lazily
// on the first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logger.New("config-store"),
	}
}

// WithLogger replaces the store logger
func (s *FileStore) WithLogger(l *logger.Logger) *FileStore {
	s.logger = l
	return s
}

// Dir returns the configuration directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file backing the named plugin
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, strings.ToLower(name)+".json")
}

// Load reads the plugin file. A missing file is LoadAbsent; an unreadable file
// or one that is not a JSON object is LoadCorrupt.
func (s *FileStore) Load(name string) LoadResult {
	path := s.Path(name)
	if err := base.ValidateSystemName(name); err != nil {
		return s.corrupt(name, path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadResult{Status: LoadAbsent}
		}
		return s.corrupt(name, path, fmt.Errorf("failed to read %s: %w", path, err))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return s.corrupt(name, path, fmt.Errorf("failed to parse %s: %w", path, err))
	}
	if obj == nil {
		return s.corrupt(name, path, fmt.Errorf("%s does not hold a JSON object", path))
	}

	return LoadResult{Status: LoadLoaded, Data: data}
}

func (s *FileStore) corrupt(name, path string, err error) LoadResult {
	s.logger.Error("", "plugin config file is unusable", map[string]interface{}{
		"plugin": name,
		"path":   path,
		"error":  err.Error(),
	})
	return LoadResult{Status: LoadCorrupt, Err: err}
}

// Save writes cfg as indented JSON, overwriting any previous file in place.
func (s *FileStore) Save(name string, cfg base.Config) error {
	if err := base.ValidateSystemName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(cfg.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config for %s: %w", name, err)
	}

	path := s.Path(name)
	s.mu.Lock()
	err = os.WriteFile(path, data, 0o600)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.logger.Debug("", "plugin config saved", map[string]interface{}{
		"plugin":    name,
		"path":      path,
		"instances": len(cfg.Instances),
	})
	return nil
}
