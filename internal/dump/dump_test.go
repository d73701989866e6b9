package dump

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-split/skill-split/internal/parse"
	"github.com/skill-split/skill-split/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := store.New(db)

	for _, fixture := range []struct {
		path    string
		content string
	}{
		{"SKILL.md", "# Hello\nworld\n"},
		{"NOTES.md", "# Plan\nstep one\n## Detail\nmore\n"},
	} {
		content := []byte(fixture.content)
		doc, err := parse.Parse(fixture.path, content)
		require.NoError(t, err)
		sum := sha256.Sum256(content)
		doc.File.ContentHash = hex.EncodeToString(sum[:])
		_, err = s.StoreFile(doc, content)
		require.NoError(t, err)
	}
	return s
}

func TestDefaultFilenameIsTimestamped(t *testing.T) {
	name := DefaultFilename(time.Date(2026, 7, 30, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, "skillsplit-20260730-153000.dump.gz", name)
}

func TestBackupProducesManifestWithAllFiles(t *testing.T) {
	s := seedStore(t)
	dumpPath := filepath.Join(t.TempDir(), DefaultFilename(time.Now()))

	manifest, err := Backup(s, dumpPath)
	require.NoError(t, err)
	assert.Len(t, manifest.Files, 2)

	info, err := os.Stat(dumpPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRestoreIntoFreshStoreReportsSuccess(t *testing.T) {
	src := seedStore(t)
	dumpPath := filepath.Join(t.TempDir(), "x.dump.gz")
	_, err := Backup(src, dumpPath)
	require.NoError(t, err)

	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "restored.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	dst := store.New(db)

	report, err := Restore(dst, dumpPath)
	require.NoError(t, err)
	assert.True(t, report.IntegrityOK)
	assert.Empty(t, report.IntegrityErrors)
	assert.Equal(t, 2, report.FilesRestored)
	assert.Greater(t, report.SectionsRestored, 0)

	_, secs, err := dst.GetFile("NOTES.md")
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "Plan", secs[0].Title)
	require.Len(t, secs[0].Children, 1)
	assert.Equal(t, "Detail", secs[0].Children[0].Title)
}

func TestRestoreIsSearchableAfterFTSRebuild(t *testing.T) {
	src := seedStore(t)
	dumpPath := filepath.Join(t.TempDir(), "x.dump.gz")
	_, err := Backup(src, dumpPath)
	require.NoError(t, err)

	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "restored.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	dst := store.New(db)

	_, err = Restore(dst, dumpPath)
	require.NoError(t, err)

	hits, err := dst.SearchSectionsRanked("world", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "SKILL.md", hits[0].FilePath)
}
