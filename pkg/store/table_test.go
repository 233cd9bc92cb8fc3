package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Impersonality/daily-stock-analysis/pkg/models"
	"github.com/Impersonality/daily-stock-analysis/pkg/store"
)

// testLogger implements store.Logger for tests.
type testLogger struct{}

func (testLogger) Infof(format string, args ...interface{})  {}
func (testLogger) Warnf(format string, args ...interface{})  {}
func (testLogger) Errorf(format string, args ...interface{}) {}

const retention = 72 * time.Hour

func newTaskTable(t *testing.T, evictOnList bool) (*store.Table[models.TaskRecord], *store.FileStore[models.TaskRecord]) {
	t.Helper()
	fs := store.NewFileStore[models.TaskRecord](filepath.Join(t.TempDir(), "tasks.json"))
	table := store.NewTable(fs, store.TableConfig[models.TaskRecord]{
		IsValid: func(rec models.TaskRecord, now time.Time) bool {
			return store.WithinWindow(rec.StartTime, now, retention)
		},
		SortKey:     func(rec models.TaskRecord) string { return rec.StartTime },
		EvictOnList: evictOnList,
	}, testLogger{})
	return table, fs
}

func TestTable_PutGetDelete(t *testing.T) {
	table, fs := newTaskTable(t, true)
	rec := taskRecord("600519_x", "600519", time.Now())

	table.Put(rec.TaskID, rec)

	got, ok := table.Get(rec.TaskID)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	// Put saved inline.
	persisted, err := fs.Load()
	require.NoError(t, err)
	assert.Contains(t, persisted, rec.TaskID)

	assert.True(t, table.Delete(rec.TaskID))
	_, ok = table.Get(rec.TaskID)
	assert.False(t, ok)

	persisted, err = fs.Load()
	require.NoError(t, err)
	assert.NotContains(t, persisted, rec.TaskID)
}

func TestTable_DeleteUnknownKey(t *testing.T) {
	table, _ := newTaskTable(t, true)
	assert.False(t, table.Delete("nonexistent"))
}

func TestTable_UpdateMutatesAndPersists(t *testing.T) {
	table, fs := newTaskTable(t, true)
	rec := taskRecord("600519_x", "600519", time.Now())
	table.Put(rec.TaskID, rec)

	ok := table.Update(rec.TaskID, func(r *models.TaskRecord) {
		r.Status = models.CompletedTaskStatus
	})
	require.True(t, ok)

	got, ok := table.Get(rec.TaskID)
	require.True(t, ok)
	assert.Equal(t, models.CompletedTaskStatus, got.Status)

	persisted, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, models.CompletedTaskStatus, persisted[rec.TaskID].Status)
}

func TestTable_UpdateMissingKey(t *testing.T) {
	table, _ := newTaskTable(t, true)

	called := false
	ok := table.Update("nonexistent", func(r *models.TaskRecord) { called = true })

	assert.False(t, ok)
	assert.False(t, called, "mutate must not run for an absent key")
	_, exists := table.Get("nonexistent")
	assert.False(t, exists)
}

func TestTable_ListNewestFirstTruncated(t *testing.T) {
	table, _ := newTaskTable(t, true)
	now := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		table.Put(id, taskRecord(id, "600519", now.Add(time.Duration(i-3)*time.Hour)))
	}

	records := table.List(2)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].TaskID)
	assert.Equal(t, "mid", records[1].TaskID)
}

func TestTable_ListEvictsExpired(t *testing.T) {
	table, fs := newTaskTable(t, true)
	fresh := taskRecord("fresh", "600519", time.Now())
	stale := taskRecord("stale", "000001", time.Now().Add(-96*time.Hour))
	table.Put(fresh.TaskID, fresh)
	table.Put(stale.TaskID, stale)

	records := table.List(10)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh", records[0].TaskID)
	assert.Equal(t, 1, table.Len())

	// Eviction persists in the background without blocking the read.
	assert.Eventually(t, func() bool {
		persisted, err := fs.Load()
		if err != nil {
			return false
		}
		_, stalePresent := persisted["stale"]
		return !stalePresent
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTable_GetHasNoEvictionSideEffect(t *testing.T) {
	table, _ := newTaskTable(t, true)
	stale := taskRecord("stale", "000001", time.Now().Add(-96*time.Hour))
	table.Put(stale.TaskID, stale)

	_, ok := table.Get(stale.TaskID)
	assert.True(t, ok)
	assert.Equal(t, 1, table.Len())
}

func TestTable_NoEvictionOnListWhenDisabled(t *testing.T) {
	table, _ := newTaskTable(t, false)
	stale := taskRecord("stale", "000001", time.Now().Add(-96*time.Hour))
	table.Put(stale.TaskID, stale)

	records := table.List(10)
	assert.Len(t, records, 1)
}

func TestTable_LoadDropsExpiredAndResaves(t *testing.T) {
	table, fs := newTaskTable(t, true)
	require.NoError(t, fs.Save(map[string]models.TaskRecord{
		"fresh": taskRecord("fresh", "600519", time.Now()),
		"stale": taskRecord("stale", "000001", time.Now().Add(-96*time.Hour)),
	}))

	table.Load()

	_, ok := table.Get("fresh")
	assert.True(t, ok)
	_, ok = table.Get("stale")
	assert.False(t, ok)

	// The filtered set was written back immediately.
	persisted, err := fs.Load()
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
	assert.Contains(t, persisted, "fresh")
}

func TestTable_LoadDropsUnparsableTimestamps(t *testing.T) {
	table, fs := newTaskTable(t, true)
	bad := taskRecord("bad", "600519", time.Now())
	bad.StartTime = "yesterday-ish"
	require.NoError(t, fs.Save(map[string]models.TaskRecord{"bad": bad}))

	table.Load()
	assert.Equal(t, 0, table.Len())
}

func TestTable_LoadMissingFileStartsEmpty(t *testing.T) {
	table, _ := newTaskTable(t, true)
	table.Load()
	assert.Equal(t, 0, table.Len())
}
