package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/log"
	"parkfinder/pkg/utils"
)

const cacheDBDir = "cache_db" // Subdirectory suffix within stateDir for Badger DB files

// BadgerStore implements the Store interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64 // Cached key count for O(1) Len
}

// NewBadgerStore opens (or creates) the cache database for originHost under stateDir
func NewBadgerStore(stateDir, originHost string, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{log: logger}

	dbPath := filepath.Join(stateDir, utils.SanitizeFilename(originHost)+"_"+cacheDBDir)
	logger.Infof("Initializing resource cache database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))).
		WithNumVersionsToKeep(1).
		WithSyncWrites(true) // a committed Put must survive a crash

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing keys: %v", err)
	} else {
		store.keyCount.Store(int64(count))
		logger.Infof("Loaded %d cached entries.", count)
	}
	return store, nil
}

// countKeys performs a one-time full key scan (used only during initialization).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Get implements the Store interface
func (s *BadgerStore) Get(key string) (json.RawMessage, bool, error) {
	var value json.RawMessage
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get([]byte(key))
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		found = true
		value, errGet = item.ValueCopy(nil)
		return errGet
	})
	if err != nil {
		s.log.WithField("key", key).Errorf("DB View error in Get: %v", err)
		return nil, false, fmt.Errorf("%w: reading key '%s': %w", utils.ErrDatabase, key, err)
	}
	return value, found, nil
}

// Put implements the Store interface
func (s *BadgerStore) Put(key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("%w: payload for key '%s' is not valid", utils.ErrParsingJSON, key)
	}

	isNew := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, errGet := txn.Get([]byte(key))
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			isNew = true
		} else if errGet != nil {
			return errGet
		}
		return txn.SetEntry(badger.NewEntry([]byte(key), value))
	})
	if err != nil {
		s.log.WithField("key", key).Errorf("DB Update error in Put: %v", err)
		return fmt.Errorf("%w: writing key '%s': %w", utils.ErrDatabase, key, err)
	}
	if isNew {
		s.keyCount.Add(1)
	}
	s.log.WithField("key", key).Debug("Cache entry persisted")
	return nil
}

// Keys implements the Store interface. Badger iterates in key order.
func (s *BadgerStore) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing keys: %w", utils.ErrDatabase, err)
	}
	return keys, nil
}

// Len implements the Store interface
func (s *BadgerStore) Len() int {
	return int(s.keyCount.Load())
}

// RunGC runs BadgerDB's value log garbage collection periodically until ctx is done
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				continue
			}
			var err error
			for err == nil {
				err = s.db.RunValueLogGC(0.5)
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}
		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection: %v", ctx.Err())
			return
		}
	}
}

// Close implements the Store interface
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.log.Errorf("Error closing cache DB: %v", err)
		return fmt.Errorf("%w: closing cache DB: %w", utils.ErrDatabase, err)
	}
	s.log.Info("Cache DB closed.")
	return nil
}
