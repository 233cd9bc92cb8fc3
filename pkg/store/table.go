package store

import (
	"sort"
	"sync"
	"time"
)

// Logger is the narrow logging interface the table needs. *logrus.Logger
// satisfies it.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// TableConfig describes how a table treats its records.
type TableConfig[R any] struct {
	// IsValid is the eviction policy: it decides whether a record is still
	// inside its retention window at the given instant.
	IsValid func(record R, now time.Time) bool

	// SortKey returns the record's primary timestamp as a string whose
	// lexicographic order matches chronological order; List sorts on it
	// descending.
	SortKey func(record R) string

	// EvictOnList applies the eviction policy on every List call. The task
	// table sets this; the review table evicts only at load time so cached
	// history stays visible for the lifetime of the process.
	EvictOnList bool
}

// Table is an in-memory keyed record collection guarded by a single lock and
// mirrored to a FileStore. Mutations save inline while holding the lock;
// eviction triggered by a read persists on a detached goroutine so readers
// are never blocked on file I/O. All storage failures are logged and
// non-fatal: memory stays authoritative until the next successful save.
type Table[R any] struct {
	mu      sync.Mutex
	records map[string]R
	file    *FileStore[R]
	cfg     TableConfig[R]
	logger  Logger
}

func NewTable[R any](file *FileStore[R], cfg TableConfig[R], logger Logger) *Table[R] {
	return &Table[R]{
		records: map[string]R{},
		file:    file,
		cfg:     cfg,
		logger:  logger,
	}
}

// Load replaces the in-memory state with the persisted collection, dropping
// expired records. If anything was dropped the filtered set is immediately
// re-saved so the file does not grow without bound. Read failures leave the
// table empty and operational.
func (t *Table[R]) Load() {
	records, err := t.file.Load()
	if err != nil {
		t.logger.Errorf("load %s: %v, starting empty", t.file.Path(), err)
		records = map[string]R{}
	}
	now := time.Now()
	dropped := 0
	for key, rec := range records {
		if !t.cfg.IsValid(rec, now) {
			delete(records, key)
			dropped++
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = records
	if dropped > 0 {
		t.logger.Infof("dropped %d expired records from %s", dropped, t.file.Path())
		t.saveLocked()
	}
}

// Get returns the record for key. It applies no eviction: reads on the hot
// polling path stay cheap.
func (t *Table[R]) Get(key string) (R, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[key]
	return rec, ok
}

// Put inserts or replaces the record for key and saves inline.
func (t *Table[R]) Put(key string, record R) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[key] = record
	t.saveLocked()
}

// Update applies mutate to the record for key and saves inline, all under the
// table lock. When the key is absent it reports false without calling mutate,
// so a late write-back cannot resurrect a deleted record.
func (t *Table[R]) Update(key string, mutate func(*R)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[key]
	if !ok {
		return false
	}
	mutate(&rec)
	t.records[key] = rec
	t.saveLocked()
	return true
}

// Delete removes the record for key, reporting whether it existed. Deleting
// an unknown key is not an error.
func (t *Table[R]) Delete(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[key]; !ok {
		return false
	}
	delete(t.records, key)
	t.saveLocked()
	return true
}

// List returns up to limit records ordered by primary timestamp descending.
// When EvictOnList is set, expired records are removed from memory first and
// their removal is persisted fire-and-forget; the returned slice is a
// consistent snapshot taken under the lock.
func (t *Table[R]) List(limit int) []R {
	t.mu.Lock()
	if t.cfg.EvictOnList {
		now := time.Now()
		expired := 0
		for key, rec := range t.records {
			if !t.cfg.IsValid(rec, now) {
				delete(t.records, key)
				expired++
			}
		}
		if expired > 0 {
			t.logger.Infof("evicted %d expired records from %s", expired, t.file.Path())
			go t.save()
		}
	}
	out := make([]R, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return t.cfg.SortKey(out[i]) > t.cfg.SortKey(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len reports the number of live records.
func (t *Table[R]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// save re-acquires the lock and mirrors the current state; used by the
// background eviction write so it serializes with inline saves.
func (t *Table[R]) save() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saveLocked()
}

func (t *Table[R]) saveLocked() {
	if err := t.file.Save(t.records); err != nil {
		t.logger.Errorf("save %s: %v", t.file.Path(), err)
	}
}
