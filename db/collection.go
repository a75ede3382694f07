package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"bizpilot/pkg/logger"
	"bizpilot/pkg/metrics"
)

// collection wraps a Store with the single-writer lock, metrics and the
// corrupt-file recovery shared by UsersDB and RequestsDB.
type collection[T any] struct {
	name  string
	store Store[T]
	log   *logger.Logger
	mu    sync.Mutex
}

func newCollection[T any](name string, store Store[T], log *logger.Logger) *collection[T] {
	if log == nil {
		log = logger.GetDefault()
	}
	return &collection[T]{
		name:  name,
		store: store,
		log:   log.WithField("store", name),
	}
}

// load must be called with mu held. A corrupt file is logged and counted,
// then treated as an empty collection.
func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	start := time.Now()
	items, err := c.store.Load(ctx)
	corrupt := errors.Is(err, ErrCorrupt)
	metrics.RecordStoreOperation(c.name, "load", time.Since(start).Seconds(), err == nil || corrupt)

	if corrupt {
		c.log.WithError(err).Warn("collection file unreadable, continuing with an empty collection")
		metrics.IncrementStoreLoadFailures(c.name)
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// save must be called with mu held
func (c *collection[T]) save(ctx context.Context, items []T) error {
	start := time.Now()
	err := c.store.Save(ctx, items)
	metrics.RecordStoreOperation(c.name, "save", time.Since(start).Seconds(), err == nil)
	if err != nil {
		c.log.WithError(err).Error("failed to persist collection")
	}
	return err
}

// snapshot returns a copy of the current collection
func (c *collection[T]) snapshot(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// check reports whether the backing store is readable. Unlike load it never
// quarantines a corrupt file or writes anything.
func (c *collection[T]) check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	err := c.store.Check(ctx)
	metrics.RecordStoreOperation(c.name, "check", time.Since(start).Seconds(), err == nil)
	return err
}
