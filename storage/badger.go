package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStorage implements Storage on BadgerDB, for workloads whose state
// should survive a node restart.
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens (or creates) a BadgerDB instance in dataDir.
func NewBadgerStorage(dataDir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dataDir).
		WithLogger(nil).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &BadgerStorage{db: db}
	go s.runGC()
	return s, nil
}

// runGC runs the value-log garbage collector periodically.
func (s *BadgerStorage) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.db.RunValueLogGC(0.7)
	}
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

func (s *BadgerStorage) Set(ctx context.Context, key string, value []byte) error {
	_ = ctx
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *BadgerStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	var value []byte
	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			value = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (s *BadgerStorage) CompareAndSwap(ctx context.Context, key string, from, to []byte) error {
	_ = ctx
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrKeyNotFound
			}
			return err
		}
		var cur []byte
		if err := item.Value(func(val []byte) error {
			cur = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}
		if !bytes.Equal(cur, from) {
			return ErrCASMismatch
		}
		return txn.Set([]byte(key), to)
	})
}

func (s *BadgerStorage) Delete(ctx context.Context, keys ...string) (int, error) {
	_ = ctx
	cnt := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if _, err := txn.Get([]byte(k)); err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
			cnt++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cnt, nil
}

func (s *BadgerStorage) Keys(ctx context.Context) ([]string, error) {
	_ = ctx
	var res []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			res = append(res, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
