package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	threadID := "contract-test-session-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a checkpoint
		budget := 20.0
		cp := domain.NewCheckpoint(threadID, "milk and bread under $20", domain.StageClassify)
		cp.State.ItemList = []string{"milk", "bread"}
		cp.State.Budget = &budget
		cp.State.Categories["milk"] = "dairy"

		// 2. Save
		err := store.Save(ctx, cp)
		require.NoError(t, err, "Save should not return error")
		assert.Equal(t, int64(1), cp.Version, "Save should advance the version")

		// 3. Load
		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, cp.PendingStage, loaded.PendingStage)
		assert.Equal(t, cp.Version, loaded.Version)
		assert.Equal(t, []string{"milk", "bread"}, loaded.State.ItemList)
		require.NotNil(t, loaded.State.Budget)
		assert.Equal(t, 20.0, *loaded.State.Budget)
		assert.Equal(t, "dairy", loaded.State.Categories["milk"])

		// 4. Mutating the loaded copy must not leak into the store
		loaded.State.ItemList[0] = "mutated"
		again, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, "milk", again.State.ItemList[0])
	})

	t.Run("Compare And Swap", func(t *testing.T) {
		current, err := store.Load(ctx, threadID)
		require.NoError(t, err)

		stale := *current
		current.PendingStage = domain.StageCategorize
		require.NoError(t, store.Save(ctx, current))

		stale.PendingStage = domain.StageExpand
		err = store.Save(ctx, &stale)
		assert.ErrorIs(t, err, domain.ErrConflict, "stale version must be rejected")

		fresh := domain.NewCheckpoint(threadID, "again", domain.StageClassify)
		err = store.Save(ctx, fresh)
		assert.ErrorIs(t, err, domain.ErrConflict, "creating an existing session must be rejected")

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageCategorize, loaded.PendingStage)
	})

	t.Run("Concurrent Writers", func(t *testing.T) {
		base, err := store.Load(ctx, threadID)
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cp := *base
				if err := store.Save(ctx, &cp); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, successes, "exactly one writer may win a version")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+threadID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Delete
		err := store.Delete(ctx, threadID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, threadID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		// A deleted ID can be created again
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(threadID, "x", domain.StageClassify)))
		require.NoError(t, store.Delete(ctx, threadID))
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := threadID + "-1"
		id2 := threadID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(id1, "a", domain.StageClassify)))
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(id2, "b", domain.StageClassify)))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
