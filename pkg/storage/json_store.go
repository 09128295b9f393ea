package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"parkfinder/pkg/utils"
)

// JSONFileStore implements Store as a single JSON object on disk.
// The whole file is rewritten on every Put. Not safe for use by more than one process.
type JSONFileStore struct {
	path    string
	entries map[string]json.RawMessage
	log     *logrus.Entry
}

// NewJSONFileStore loads the store at path. A missing, unreadable or corrupt
// file is logged and yields an empty store; it never fails.
func NewJSONFileStore(path string, logger *logrus.Entry) *JSONFileStore {
	s := &JSONFileStore{
		path: path,
		log:  logger.WithField("cache_file", path),
	}
	s.entries = s.load()
	return s
}

func (s *JSONFileStore) load() map[string]json.RawMessage {
	empty := make(map[string]json.RawMessage)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info("No cache file yet, starting with an empty cache.")
		} else {
			s.log.Warnf("Failed to read cache file, starting with an empty cache: %v", err)
		}
		return empty
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warnf("Cache file is corrupt, starting with an empty cache: %v", err)
		return empty
	}
	if entries == nil { // file contained JSON null
		return empty
	}
	s.log.Infof("Loaded %d cached entries.", len(entries))
	return entries
}

// Get implements the Store interface
func (s *JSONFileStore) Get(key string) (json.RawMessage, bool, error) {
	value, ok := s.entries[key]
	return value, ok, nil
}

// Put implements the Store interface
func (s *JSONFileStore) Put(key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("%w: payload for key '%s' is not valid", utils.ErrParsingJSON, key)
	}
	stored := make(json.RawMessage, len(value))
	copy(stored, value)

	previous, existed := s.entries[key]
	s.entries[key] = stored
	if err := s.save(); err != nil {
		// Keep memory consistent with disk
		if existed {
			s.entries[key] = previous
		} else {
			delete(s.entries, key)
		}
		return err
	}
	s.log.WithField("key", key).Debug("Cache entry persisted")
	return nil
}

// save rewrites the whole file via a temp file + rename.
func (s *JSONFileStore) save() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal cache: %w", utils.ErrParsingJSON, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: cannot create cache directory %s: %w", utils.ErrFilesystem, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: cannot create temp cache file: %w", utils.ErrFilesystem, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed writing cache file: %w", utils.ErrFilesystem, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync cache file: %w", utils.ErrFilesystem, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed closing cache file: %w", utils.ErrFilesystem, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: failed replacing cache file %s: %w", utils.ErrFilesystem, s.path, err)
	}
	return nil
}

// Keys implements the Store interface
func (s *JSONFileStore) Keys() ([]string, error) {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len implements the Store interface
func (s *JSONFileStore) Len() int {
	return len(s.entries)
}

// Close implements the Store interface. Every Put is already on disk.
func (s *JSONFileStore) Close() error {
	return nil
}
