package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cartwise/pkg/adapters/file"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements CheckpointStore
var _ ports.CheckpointStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunCheckpointStoreContract(t, store)
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		err := store.Save(ctx, domain.NewCheckpoint(id, "x", domain.StageClassify))
		assert.Error(t, err, "id %q must be rejected", id)
	}
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	cp := domain.NewCheckpoint("clean", "x", domain.StageClassify)
	require.NoError(t, store.Save(ctx, cp))
	require.NoError(t, store.Save(ctx, cp))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "clean.json", entries[0].Name())
}

func TestFileStore_TTL(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	store.TTL = time.Hour
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewCheckpoint("stale", "x", domain.StageClassify)))
	require.NoError(t, store.Save(ctx, domain.NewCheckpoint("fresh", "y", domain.StageClassify)))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "stale.json"), old, old))

	_, err := store.Load(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}
