package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV stores values in an embedded Badger database.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadgerKV opens (or creates) a Badger database in dir.
// An empty dir opens an in-memory database.
func OpenBadgerKV(dir string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(_ context.Context, key string) (string, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("badger cache read: %w", err)
	}
	return string(value), true, nil
}

func (b *BadgerKV) Set(_ context.Context, key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		// No TTL: entries persist until overwritten.
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger cache write: %w", err)
	}
	return nil
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}
