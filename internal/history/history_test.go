package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/build"
)

func result(id string, pages int) *build.Result {
	return &build.Result{
		BuildID:  id,
		Started:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Duration: 42 * time.Millisecond,
		Pages:    pages,
		Assets:   3,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, result("b-1", 5), nil))

	failed := result("b-2", 0)
	failed.FailedStage = "render_pages"
	require.NoError(t, store.Record(ctx, failed, fmt.Errorf("unknown template")))

	rows, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "b-2", rows[0].BuildID, "newest first")
	assert.False(t, rows[0].Success)
	assert.Equal(t, "render_pages", rows[0].FailedStage)
	assert.Contains(t, rows[0].Error, "unknown template")

	assert.Equal(t, "b-1", rows[1].BuildID)
	assert.True(t, rows[1].Success)
	assert.Equal(t, 5, rows[1].Pages)
	assert.Equal(t, 3, rows[1].Assets)
	assert.Equal(t, int64(42), rows[1].DurationMS)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), rows[1].Started)
}

func TestStore_RecentHonorsLimit(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, result(fmt.Sprintf("b-%d", i), i), nil))
	}

	rows, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b-4", rows[0].BuildID)
	assert.Equal(t, "b-3", rows[1].BuildID)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), result("b-persist", 1), nil))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	rows, err := reopened.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b-persist", rows[0].BuildID)
}
