package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/samcharles93/yukari/internal/logger"
)

// ErrEmptyKey is returned by Remember when the key is blank.
var ErrEmptyKey = errors.New("memory key must not be empty")

// Book is the process-wide memory: a Store backed by a Storage. Every
// mutation is saved in full before it returns; if the save fails the
// in-memory change is undone. Book is safe for concurrent use.
type Book struct {
	mu      sync.Mutex
	store   *Store
	storage Storage
	log     logger.Logger
}

// Open loads the book from storage. Missing storage is created empty.
func Open(ctx context.Context, storage Storage) (*Book, error) {
	log := logger.FromContext(ctx).With(logger.ComponentKey, "mem")
	entries, err := storage.Load(ctx)
	switch {
	case err == nil:
		log.Info("loaded memories", "count", len(entries))
	case errors.Is(err, fs.ErrNotExist):
		log.Info("memory file not found, creating a new one")
		if err := storage.Save(ctx, nil); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return &Book{store: NewStore(entries...), storage: storage, log: log}, nil
}

// Remember inserts or overwrites key.
func (b *Book) Remember(ctx context.Context, key, description string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.store.clone()
	b.store.Put(key, description)
	if err := b.storage.Save(ctx, b.store.All()); err != nil {
		b.store = prev
		return err
	}
	b.log.Info("remembering key", "key", key, "description", description)
	return nil
}

// Forget deletes key. It returns ErrNotFound without touching storage when
// the key is absent.
func (b *Book) Forget(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.store.clone()
	if err := b.store.Delete(key); err != nil {
		return err
	}
	if err := b.storage.Save(ctx, b.store.All()); err != nil {
		b.store = prev
		return err
	}
	b.log.Info("forgetting key", "key", key)
	return nil
}

func (b *Book) Get(key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Get(key)
}

func (b *Book) All() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.All()
}

func (b *Book) Descriptions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Descriptions()
}

// Close releases the underlying storage.
func (b *Book) Close() error {
	if err := b.storage.Close(); err != nil {
		return fmt.Errorf("close memory storage: %w", err)
	}
	return nil
}
