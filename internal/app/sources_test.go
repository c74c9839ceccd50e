package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/source"
	"github.com/nhle/carereminder/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *model.AppConfig {
	t.Helper()
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Reminders.Timezone = "UTC"
	return cfg
}

func TestOpenKV_Backends(t *testing.T) {
	ctx := context.Background()

	kv, closer, err := openKV(ctx, model.StorageConfig{Backend: model.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryKV{}, kv)
	assert.Nil(t, closer)

	path := filepath.Join(t.TempDir(), "nested", "reminders.db")
	kv, closer, err = openKV(ctx, model.StorageConfig{Backend: model.StorageSQLite, Path: path})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteKV{}, kv)
	require.NoError(t, closer.Close())

	_, _, err = openKV(ctx, model.StorageConfig{Backend: "etcd"})
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestBuildWith_RefreshesThroughStore(t *testing.T) {
	cfg := testConfig(t)
	date := time.Now().UTC().Add(time.Hour)
	src := source.SourceFunc(func(context.Context, int) ([]model.Appointment, error) {
		return []model.Appointment{{
			AppointmentID:   3,
			AppointmentCode: "APT-3",
			AppointmentDate: date,
			Status:          "confirmed",
		}}, nil
	})

	comps := BuildWith(cfg, store.NewMemoryKV(), nil, src, quietLogger())
	defer comps.Close()

	comps.Engine.Refresh(context.Background())

	snap := comps.Engine.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "appointment-3", snap.Notifications[0].ID)
	assert.Len(t, comps.Store.Load(context.Background()), 1)
}
