package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_PersistThenLoadAllRoundTrips(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	task := &Task{TaskID: "task-1", TaskType: "probe", Priority: High, EnqueuedAt: time.Now()}
	require.NoError(t, store.Persist(ctx, task))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "task-1", loaded[0].TaskID)
	assert.Equal(t, "probe", loaded[0].TaskType)
}

func TestRedisStore_RemoveDropsOnlyMatchingTask(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	keep := &Task{TaskID: "keep", TaskType: "t", Priority: Normal, EnqueuedAt: time.Now()}
	drop := &Task{TaskID: "drop", TaskType: "t", Priority: Normal, EnqueuedAt: time.Now()}
	require.NoError(t, store.Persist(ctx, keep))
	require.NoError(t, store.Persist(ctx, drop))

	require.NoError(t, store.Remove(ctx, "drop"))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "keep", loaded[0].TaskID)
}

func TestRedisStore_RemoveUnknownTaskIsNoop(t *testing.T) {
	store, _ := newTestRedisStore(t)
	assert.NoError(t, store.Remove(context.Background(), "nonexistent"))
}

func TestQueue_RecoverRebuildsHeapFromStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Persist(ctx, &Task{TaskID: "recovered", TaskType: "t", Priority: Normal, EnqueuedAt: time.Now()}))

	q := New(store, time.Hour, nil)
	require.NoError(t, q.Recover(ctx))

	task := q.Dequeue()
	require.NotNil(t, task)
	assert.Equal(t, "recovered", task.TaskID)
}
