package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/document"
)

// Backend provides in-memory bucket storage
type Backend struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewBackend creates a new empty in-memory backend
func NewBackend() *Backend {
	return &Backend{buckets: make(map[string]map[string][]byte)}
}

// NewStore creates a document store over a fresh in-memory backend
func NewStore() *document.Store {
	return document.NewStore(NewBackend())
}

// Verify interface compliance
var _ document.Backend = (*Backend)(nil)

func (b *Backend) View(ctx context.Context, fn func(document.BucketTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fn(&memTx{base: b.buckets})
}

// Update stages writes in an overlay and applies them only when fn succeeds
func (b *Backend) Update(ctx context.Context, fn func(document.BucketTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	tx := &memTx{base: b.buckets, writes: make(map[string]map[string][]byte), writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	for bucket, keys := range tx.writes {
		target, ok := b.buckets[bucket]
		if !ok {
			target = make(map[string][]byte)
			b.buckets[bucket] = target
		}
		for key, value := range keys {
			if value == nil {
				delete(target, key)
				continue
			}
			target[key] = value
		}
	}
	return nil
}

func (b *Backend) Close() error { return nil }

// memTx reads through staged writes; a nil staged value marks a delete
type memTx struct {
	base     map[string]map[string][]byte
	writes   map[string]map[string][]byte
	writable bool
}

func (t *memTx) lookup(bucket, key string) ([]byte, bool) {
	if staged, ok := t.writes[bucket]; ok {
		if value, ok := staged[key]; ok {
			return value, value != nil
		}
	}
	value, ok := t.base[bucket][key]
	return value, ok
}

func (t *memTx) Get(bucket, key string) ([]byte, error) {
	value, ok := t.lookup(bucket, key)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (t *memTx) stage(bucket, key string, value []byte) error {
	if !t.writable {
		return errReadOnly
	}
	staged, ok := t.writes[bucket]
	if !ok {
		staged = make(map[string][]byte)
		t.writes[bucket] = staged
	}
	staged[key] = value
	return nil
}

func (t *memTx) Put(bucket, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	return t.stage(bucket, key, stored)
}

func (t *memTx) Delete(bucket, key string) error {
	if _, ok := t.lookup(bucket, key); !ok {
		return repositories.ErrNotFound
	}
	return t.stage(bucket, key, nil)
}

func (t *memTx) ForEach(bucket string, fn func(key string, value []byte) error) error {
	keys := make(map[string]struct{})
	for key := range t.base[bucket] {
		keys[key] = struct{}{}
	}
	for key := range t.writes[bucket] {
		keys[key] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	for _, key := range sorted {
		value, ok := t.lookup(bucket, key)
		if !ok {
			continue
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}
