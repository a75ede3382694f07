package db

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRequests() []Request {
	return []Request{
		{ID: "r0", Email: "a@x.com", Request: "fix my invoice", Status: "pending", Date: "2024-05-01T09:30:00.000Z"},
		{ID: "r1", Email: "b@x.com", Request: "call me back", Status: "pending", Date: "2024-05-01T10:00:00.000Z"},
		{ID: "r2", Email: "a@x.com", Request: "cancel order", Status: "in-progress", Date: "2024-05-02T08:15:00.000Z"},
	}
}

func TestRequestsDB_AppendAssignsID(t *testing.T) {
	rdb := NewRequestsDB(NewMemoryStore[Request](), nil)
	ctx := context.Background()

	saved, err := rdb.Append(ctx, Request{Email: "a@x.com", Request: "hello", Status: "pending"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	reqs, err := rdb.All(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, saved.ID, reqs[0].ID)
	assert.Equal(t, "hello", reqs[0].Request)
}

func TestRequestsDB_UpdateStatusAt(t *testing.T) {
	rdb := NewRequestsDB(NewMemoryStore(seedRequests()...), nil)
	ctx := context.Background()

	updated, err := rdb.UpdateStatusAt(ctx, 1, "done")
	require.NoError(t, err)
	assert.Equal(t, "done", updated.Status)
	assert.Equal(t, "r1", updated.ID)

	want := seedRequests()
	want[1].Status = "done"

	got, err := rdb.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got, "only the status of the addressed record may change")
}

func TestRequestsDB_UpdateStatusAtOutOfRange(t *testing.T) {
	store := NewMemoryStore(seedRequests()...)
	rdb := NewRequestsDB(store, nil)
	ctx := context.Background()

	for _, idx := range []int{-1, 3, 100} {
		_, err := rdb.UpdateStatusAt(ctx, idx, "done")
		assert.ErrorIs(t, err, ErrRequestNotFound, "index %d", idx)
	}

	got, _ := rdb.All(ctx)
	assert.Equal(t, seedRequests(), got)
	assert.Equal(t, 0, store.Saves())
}

func TestRequestsDB_UpdateStatusByID(t *testing.T) {
	rdb := NewRequestsDB(NewMemoryStore(seedRequests()...), nil)
	ctx := context.Background()

	updated, err := rdb.UpdateStatusByID(ctx, "r2", "rejected")
	require.NoError(t, err)
	assert.Equal(t, "rejected", updated.Status)

	_, err = rdb.UpdateStatusByID(ctx, "missing", "done")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRequestsDB_BackfillsLegacyIDsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.json")
	legacy := `[
  {"email": "a@x.com", "request": "fix my invoice", "status": "pending", "date": "2024-05-01T09:30:00.000Z"}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0600))

	rdb := OpenRequestsDB(path, nil)
	ctx := context.Background()

	first, err := rdb.All(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NotEmpty(t, first[0].ID)

	second, err := rdb.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID, "backfilled ids must be persisted")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk []Request
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, first, onDisk)
}

func TestRequestsDB_UpdateKeepsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.json")
	onDisk := `[
  {"id": "r0", "email": "a@x.com", "request": "one", "status": "pending", "date": "2024-05-01T09:30:00.000Z", "priority": "high", "tags": ["vip"]},
  {"id": "r1", "email": "b@x.com", "request": "two", "status": "pending", "date": "2024-05-01T10:00:00.000Z"}
]`
	require.NoError(t, os.WriteFile(path, []byte(onDisk), 0600))

	rdb := OpenRequestsDB(path, nil)
	_, err := rdb.UpdateStatusAt(context.Background(), 1, "done")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 2)

	assert.Equal(t, map[string]any{
		"id":       "r0",
		"email":    "a@x.com",
		"request":  "one",
		"status":   "pending",
		"date":     "2024-05-01T09:30:00.000Z",
		"priority": "high",
		"tags":     []any{"vip"},
	}, records[0])
	assert.Equal(t, "done", records[1]["status"])
	assert.NotContains(t, records[1], "priority")
}

func TestRequest_JSONWithoutExtrasIsUnchanged(t *testing.T) {
	req := Request{ID: "r0", Email: "a@x.com", Request: "one", Status: "pending", Date: "2024-05-01T09:30:00.000Z"}

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"r0","email":"a@x.com","request":"one","status":"pending","date":"2024-05-01T09:30:00.000Z"}`, string(raw))

	var back Request
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, req, back)
	assert.Nil(t, back.Extra)
}

func TestRequestsDB_ConcurrentUpdatesAreNotLost(t *testing.T) {
	rdb := NewRequestsDB(NewMemoryStore[Request](), nil)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rdb.Append(ctx, Request{Email: "a@x.com", Request: "x", Status: "pending"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	reqs, err := rdb.All(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := rdb.UpdateStatusAt(ctx, i, "done")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	reqs, err = rdb.All(ctx)
	require.NoError(t, err)
	for i, r := range reqs {
		assert.Equal(t, "done", r.Status, "record %d", i)
	}
}
