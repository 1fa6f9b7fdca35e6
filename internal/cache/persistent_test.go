package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "econcli/internal/errors"
)

func newTestPersistent(t *testing.T) *Persistent {
	t.Helper()
	p, err := NewPersistent(t.TempDir(), 0, 0, nil)
	require.NoError(t, err)
	return p
}

func TestPersistentRoundTrip(t *testing.T) {
	p := newTestPersistent(t)
	key := testKey("cpi")
	want := testSeries("CPIAUCSL")
	fetched := time.Now().Truncate(time.Second)

	require.NoError(t, p.Put(key, want, fetched, time.Hour))

	got, gotFetched, gotTTL, err := p.Get(key, fetched.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "series must survive the disk round trip unchanged")
	assert.True(t, fetched.Equal(gotFetched))
	assert.Equal(t, time.Hour, gotTTL)
}

func TestPersistentMissingEntry(t *testing.T) {
	p := newTestPersistent(t)

	_, _, _, err := p.Get(testKey("cpi"), time.Now())
	assert.ErrorIs(t, err, apperrors.ErrMiss)
}

func TestPersistentStaleEntryMisses(t *testing.T) {
	p := newTestPersistent(t)
	key := testKey("cpi")
	fetched := time.Now().Add(-2 * time.Hour)

	require.NoError(t, p.Put(key, testSeries("s"), fetched, time.Hour))

	_, _, _, err := p.Get(key, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrMiss)
}

func TestPersistentCorruptEntrySelfHeals(t *testing.T) {
	p := newTestPersistent(t)
	key := testKey("cpi")
	path := p.path(key)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, _, err := p.Get(key, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrMiss, "corruption must surface as a miss, not a parse failure")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt entry must be deleted")

	// The healed key is writable again.
	require.NoError(t, p.Put(key, testSeries("s"), time.Now(), time.Hour))
	_, _, _, err = p.Get(key, time.Now())
	assert.NoError(t, err)
}

func TestPersistentWriteIsAtomic(t *testing.T) {
	p := newTestPersistent(t)
	key := testKey("cpi")

	require.NoError(t, p.Put(key, testSeries("s"), time.Now(), time.Hour))

	entries, err := os.ReadDir(p.dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files may remain after a commit")
	assert.Equal(t, key.String()+".json", entries[0].Name())
}

func TestPersistentDelete(t *testing.T) {
	p := newTestPersistent(t)
	key := testKey("cpi")

	require.NoError(t, p.Put(key, testSeries("s"), time.Now(), time.Hour))
	p.Delete(key)

	_, _, _, err := p.Get(key, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrMiss)
}

func TestSweepOnceRemovesExpired(t *testing.T) {
	p := newTestPersistent(t)
	now := time.Now()

	require.NoError(t, p.Put(testKey("fresh"), testSeries("s"), now, time.Hour))
	require.NoError(t, p.Put(testKey("stale"), testSeries("s"), now.Add(-2*time.Hour), time.Hour))

	p.sweepOnce(now)

	_, _, _, err := p.Get(testKey("fresh"), now)
	assert.NoError(t, err)
	_, statErr := os.Stat(p.path(testKey("stale")))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSweepOnceEnforcesByteBudget(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersistent(dir, 1, 0, nil) // budget smaller than any entry
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, p.Put(testKey("older"), testSeries("s"), now.Add(-time.Minute), time.Hour))
	require.NoError(t, p.Put(testKey("newer"), testSeries("s"), now, time.Hour))

	p.sweepOnce(now)

	// Oldest entries go first; the newest may stay once the budget holds.
	_, statErr := os.Stat(p.path(testKey("older")))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSweepOnceDropsCorruptFiles(t *testing.T) {
	p := newTestPersistent(t)
	bad := filepath.Join(p.dir, "junk.json")
	require.NoError(t, os.WriteFile(bad, []byte("???"), 0o644))

	p.sweepOnce(time.Now())

	_, statErr := os.Stat(bad)
	assert.True(t, os.IsNotExist(statErr))
}
