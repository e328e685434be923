// Package bolt stores documents in a single bbolt file, one bucket per record kind.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/document"
)

// Backend is a bbolt-backed document backend
type Backend struct {
	db     *bbolt.DB
	logger zerolog.Logger
}

// Open opens or creates the database file at path and its buckets
func Open(path string, logger zerolog.Logger) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range document.Buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger = logger.With().Str("component", "bolt_store").Logger()
	logger.Info().Str("path", path).Msg("bolt store opened")
	return &Backend{db: db, logger: logger}, nil
}

// NewStore opens a document store at path
func NewStore(path string, logger zerolog.Logger) (*document.Store, error) {
	backend, err := Open(path, logger)
	if err != nil {
		return nil, err
	}
	return document.NewStore(backend), nil
}

// Verify interface compliance
var _ document.Backend = (*Backend)(nil)

func (b *Backend) View(ctx context.Context, fn func(document.BucketTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (b *Backend) Update(ctx context.Context, fn func(document.BucketTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (b *Backend) Close() error {
	b.logger.Info().Msg("closing bolt store")
	return b.db.Close()
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) bucket(name string) (*bbolt.Bucket, error) {
	bucket := t.tx.Bucket([]byte(name))
	if bucket != nil {
		return bucket, nil
	}
	if !t.tx.Writable() {
		return nil, nil
	}
	return t.tx.CreateBucketIfNotExists([]byte(name))
}

func (t *boltTx) Get(name, key string) ([]byte, error) {
	bucket, err := t.bucket(name)
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		return nil, repositories.ErrNotFound
	}
	value := bucket.Get([]byte(key))
	if value == nil {
		return nil, repositories.ErrNotFound
	}
	// bbolt memory is only valid for the transaction
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (t *boltTx) Put(name, key string, value []byte) error {
	bucket, err := t.bucket(name)
	if err != nil {
		return err
	}
	if bucket == nil {
		return bbolt.ErrTxNotWritable
	}
	return bucket.Put([]byte(key), value)
}

func (t *boltTx) Delete(name, key string) error {
	bucket, err := t.bucket(name)
	if err != nil {
		return err
	}
	if bucket == nil || bucket.Get([]byte(key)) == nil {
		return repositories.ErrNotFound
	}
	return bucket.Delete([]byte(key))
}

func (t *boltTx) ForEach(name string, fn func(key string, value []byte) error) error {
	bucket, err := t.bucket(name)
	if err != nil || bucket == nil {
		return err
	}
	return bucket.ForEach(func(k, v []byte) error {
		return fn(string(k), v)
	})
}
