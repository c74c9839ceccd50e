package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/carereminder/internal/store"
	"github.com/nhle/carereminder/tests/testutil"
)

func exerciseKV(t *testing.T, kv store.KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	require.NoError(t, kv.Set(ctx, "k", "v2"))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, kv.Remove(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, kv.Remove(ctx, "k"), "removing twice")
}

func TestSQLiteKV(t *testing.T) {
	exerciseKV(t, testutil.NewTestKV(t))
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.db")
	ctx := context.Background()

	kv, err := store.NewSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "notifications", "[]"))
	require.NoError(t, kv.Close())

	kv, err = store.NewSQLiteKV(path)
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get(ctx, "notifications")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, store.NewMemoryKV())
}

func TestRedisKV(t *testing.T) {
	addr := os.Getenv("CAREREMINDER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CAREREMINDER_TEST_REDIS_ADDR not set")
	}

	kv, err := store.NewRedisKV(context.Background(), store.RedisOptions{
		Addr:   addr,
		Prefix: "carereminder-test:" + t.Name() + ":",
	})
	require.NoError(t, err)
	defer kv.Close()

	exerciseKV(t, kv)
}
