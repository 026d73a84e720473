package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mmchat/internal/logger"
)

// FileStore persists keys as a single JSON object file. Writes are atomic
// (temp file + rename) and synchronous: Set does not return until the
// rename has completed.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore opens or creates a file-backed store at path. A missing file
// yields an empty store. A corrupt file also yields an empty store with a
// logged warning rather than an error: persistence problems on read degrade,
// they never take the application down.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		logger.Warn("storage unreadable, starting empty", "path", path, "error", err)
		return s, nil
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		logger.Warn("storage corrupt, starting empty", "path", path, "error", err)
		s.values = make(map[string]string)
	}
	return s, nil
}

// Get returns the value for key, or ErrNotFound.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores the value and flushes the whole store to disk before returning.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, hadPrevious := s.values[key]
	s.values[key] = value
	if err := s.flushLocked(); err != nil {
		// Roll back the in-memory write so memory and disk stay consistent.
		if hadPrevious {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		return fmt.Errorf("failed to persist %q: %w", key, err)
	}
	return nil
}

// Delete removes the key and flushes. Deleting an absent key is a no-op.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.values[key]
	if !ok {
		return nil
	}
	delete(s.values, key)
	if err := s.flushLocked(); err != nil {
		s.values[key] = previous
		return fmt.Errorf("failed to persist delete of %q: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys in sorted order.
func (s *FileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
