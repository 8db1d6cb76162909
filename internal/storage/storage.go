// Package storage keeps JSON documents as files in a data directory, one
// file per key.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

var cleanKeyRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SaveInfo represents metadata about a save file
type SaveInfo struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a directory of <key>.json files. It is safe for concurrent use.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dir, 0755)
}

func cleanKey(key string) string {
	return cleanKeyRe.ReplaceAllString(key, "")
}

func (s *Store) path(key string) (string, error) {
	clean := cleanKey(key)
	if clean == "" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, clean+".json"), nil
}

// Get retrieves a value by key, returns nil if not found
func (s *Store) Get(key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Set stores a value by key
func (s *Store) Set(key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	// Pretty-print for readability
	var parsed any
	if err := json.Unmarshal(value, &parsed); err == nil {
		if pretty, err := json.MarshalIndent(parsed, "", "  "); err == nil {
			value = pretty
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes a value by key
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns all save files, most recently updated first
func (s *Store) List() ([]SaveInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	saves := []SaveInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		saves = append(saves, SaveInfo{
			ID:        strings.TrimSuffix(entry.Name(), ".json"),
			UpdatedAt: info.ModTime(),
		})
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].UpdatedAt.After(saves[j].UpdatedAt)
	})
	return saves, nil
}

// SetJSON stores a Go value as JSON by key
func (s *Store) SetJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.Set(key, json.RawMessage(data))
}

// GetJSON retrieves a JSON value and unmarshals into target. It reports
// whether the key existed.
func (s *Store) GetJSON(key string, target any) (bool, error) {
	data, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return true, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}
