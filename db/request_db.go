package db

import (
	"context"

	"bizpilot/pkg/logger"

	"github.com/google/uuid"
)

// RequestsDB is the request store. Records keep their insertion order, so a
// positional index is still meaningful, but every record also carries a
// stable ID.
type RequestsDB struct {
	c *collection[Request]
}

func NewRequestsDB(store Store[Request], log *logger.Logger) *RequestsDB {
	return &RequestsDB{c: newCollection("requests", store, log)}
}

// OpenRequestsDB opens the file-backed request store at path
func OpenRequestsDB(path string, log *logger.Logger) *RequestsDB {
	return NewRequestsDB(NewFileStore[Request](path), log)
}

// load must be called with the lock held. Records written without an id are
// given one and the collection is saved straight away so ids stay stable.
func (rdb *RequestsDB) load(ctx context.Context) ([]Request, error) {
	reqs, err := rdb.c.load(ctx)
	if err != nil {
		return nil, err
	}

	backfilled := 0
	for i := range reqs {
		if reqs[i].ID == "" {
			reqs[i].ID = uuid.NewString()
			backfilled++
		}
	}

	if backfilled > 0 {
		rdb.c.log.Info("assigned ids to %d legacy requests", backfilled)
		if err := rdb.c.save(ctx, reqs); err != nil {
			return nil, err
		}
	}

	return reqs, nil
}

// Append stores req at the end of the collection and returns it with its id set
func (rdb *RequestsDB) Append(ctx context.Context, req Request) (Request, error) {
	rdb.c.mu.Lock()
	defer rdb.c.mu.Unlock()

	reqs, err := rdb.load(ctx)
	if err != nil {
		return Request{}, err
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if err := rdb.c.save(ctx, append(reqs, req)); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (rdb *RequestsDB) All(ctx context.Context) ([]Request, error) {
	rdb.c.mu.Lock()
	defer rdb.c.mu.Unlock()

	return rdb.load(ctx)
}

// Check reports whether the request file can be read. Legacy records are
// not backfilled and a corrupt file stays in place.
func (rdb *RequestsDB) Check(ctx context.Context) error {
	return rdb.c.check(ctx)
}

// UpdateStatusAt sets the status of the record at position index
func (rdb *RequestsDB) UpdateStatusAt(ctx context.Context, index int, status string) (Request, error) {
	return rdb.update(ctx, status, func(reqs []Request) int {
		if index < 0 || index >= len(reqs) {
			return -1
		}
		return index
	})
}

// UpdateStatusByID sets the status of the record with the given id
func (rdb *RequestsDB) UpdateStatusByID(ctx context.Context, id string, status string) (Request, error) {
	return rdb.update(ctx, status, func(reqs []Request) int {
		for i := range reqs {
			if reqs[i].ID == id {
				return i
			}
		}
		return -1
	})
}

func (rdb *RequestsDB) update(ctx context.Context, status string, locate func([]Request) int) (Request, error) {
	rdb.c.mu.Lock()
	defer rdb.c.mu.Unlock()

	reqs, err := rdb.load(ctx)
	if err != nil {
		return Request{}, err
	}

	i := locate(reqs)
	if i < 0 {
		return Request{}, ErrRequestNotFound
	}

	reqs[i].Status = status
	if err := rdb.c.save(ctx, reqs); err != nil {
		return Request{}, err
	}

	return reqs[i], nil
}
