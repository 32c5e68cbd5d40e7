package tests

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kennel/pkg/kenneldb"
)

// TestCommitReopenDeleteScenario walks the canonical session flow: insert a
// few keys, commit, reopen the file, read back, delete, commit again, and
// check the survivors.
func TestCommitReopenDeleteScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.kennel")

	db, err := kenneldb.Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte("a"), []byte("1")))
	require.NoError(t, db.Set([]byte("b"), []byte("2")))
	require.NoError(t, db.Set([]byte("c"), []byte("3")))
	require.NoError(t, db.Commit())
	require.NoError(t, db.Close())

	db, err = kenneldb.Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)

	require.NoError(t, db.Delete([]byte("a")))
	require.NoError(t, db.Commit())

	has, err := db.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)

	got, err = db.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

// TestFreshFileGetFails checks that a never-written file reports missing keys
// rather than returning garbage.
func TestFreshFileGetFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.kennel")

	db, err := kenneldb.Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("x"))
	assert.ErrorIs(t, err, kenneldb.ErrKeyNotFound)
}

// TestLargeWorkloadSurvivesReopen commits a few hundred keys across several
// sessions with interleaved deletes.
func TestLargeWorkloadSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workload.kennel")
	const n = 300

	err := kenneldb.With(path, func(db *kenneldb.DB) error {
		for i := 0; i < n; i++ {
			key := []byte(fmt.Sprintf("key-%04d", i))
			if err := db.Set(key, []byte(fmt.Sprintf("value-%04d", i))); err != nil {
				return err
			}
		}
		return db.Commit()
	})
	require.NoError(t, err)

	err = kenneldb.With(path, func(db *kenneldb.DB) error {
		for i := 0; i < n; i += 3 {
			if err := db.Delete([]byte(fmt.Sprintf("key-%04d", i))); err != nil {
				return err
			}
		}
		return db.Commit()
	})
	require.NoError(t, err)

	db, err := kenneldb.Open(path)
	require.NoError(t, err)
	defer db.Close()

	count, err := db.Len()
	require.NoError(t, err)
	assert.Equal(t, n-n/3, count)

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		has, err := db.Has(key)
		require.NoError(t, err)
		if i%3 == 0 {
			assert.False(t, has, "key %s was deleted", key)
		} else {
			require.True(t, has, "key %s must survive", key)
			got, err := db.Get(key)
			require.NoError(t, err)
			assert.Equal(t, []byte(fmt.Sprintf("value-%04d", i)), got)
		}
	}
}

// TestSecondSessionSeesCommitsAfterUnlock runs a reader session alongside a
// writer session against the same file.
func TestSecondSessionSeesCommitsAfterUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two-sessions.kennel")

	writer, err := kenneldb.Open(path)
	require.NoError(t, err)
	reader, err := kenneldb.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	require.NoError(t, writer.Set([]byte("shared"), []byte("payload")))

	_, err = reader.Get([]byte("shared"))
	assert.ErrorIs(t, err, kenneldb.ErrKeyNotFound, "uncommitted data stays private")

	require.NoError(t, writer.Commit())
	require.NoError(t, writer.Close())

	got, err := reader.Get([]byte("shared"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}
