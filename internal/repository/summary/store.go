// Package summary stores per-grant summary documents in badger, keyed by grant folder.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/logger"
)

const keyPrefix = "summary:"

// Store is the summary document object store.
type Store struct {
	db *badger.DB
}

// Open opens the store at dir, creating the directory if needed.
// With inMemory set dir is ignored.
func Open(dir string, inMemory bool, log *zap.Logger) (*Store, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create summaries dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.Logger = logger.NewBadgerAdapter(log)
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open summaries: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the summary of one grant; a missing document is ErrGrantNotFound.
func (s *Store) Get(_ context.Context, id string) (*grant.Summary, error) {
	var out grant.Summary
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("summary %q: %w", id, domain.ErrGrantNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read summary %q: %w", id, err)
	}
	return &out, nil
}

// IDs lists the grant folders that have a summary, in key order.
func (s *Store) IDs(_ context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return ids, nil
}

// Put writes or replaces the summary of one grant.
func (s *Store) Put(_ context.Context, id string, sum *grant.Summary) error {
	if id == "" {
		return domain.NewValidationError("id", "must not be empty")
	}
	val, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encode summary %q: %w", id, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(id), val)
	}); err != nil {
		return fmt.Errorf("write summary %q: %w", id, err)
	}
	return nil
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}
