package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-split/skill-split/internal/config"
)

// testContext builds a Context backed by a temp-dir store, bypassing
// the PersistentPreRunE bootstrap so commands can be exercised
// directly without a real config file or logger.Init call.
func testContext(t *testing.T) *Context {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.Nop()
	cfg := &config.Config{Store: config.StoreConfig{Path: filepath.Join(dir, "index.db")}}
	return NewContext(cfg, "", &log)
}

// run executes cmd with ctx stashed as PersistentPreRunE would, and
// returns combined stdout/stderr.
func run(t *testing.T, ctx *Context, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	cmd.SetContext(context.WithValue(context.Background(), contextKey{}, ctx))
	err := cmd.Execute()
	return buf.String(), err
}

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "SKILL.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\nbody text here\n\n## Sub\nmore\n"), 0o644))
	return path
}

func TestParseCommandPrintsTree(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)

	out, err := run(t, testContext(t), newParseCmd(), []string{path})
	require.NoError(t, err)
	assert.Contains(t, out, "format=markdown_headings")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "Sub")
}

func TestValidateCommandRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)

	out, err := run(t, testContext(t), newValidateCmd(), []string{path})
	require.NoError(t, err)
	assert.Contains(t, out, "round-trip verified")
}

func TestStoreThenListThenSearch(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	ctx := testContext(t)

	out, err := run(t, ctx, newStoreCmd(), []string{path})
	require.NoError(t, err)
	assert.Contains(t, out, "stored")

	out, err = run(t, ctx, newListCmd(), []string{path})
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "Sub")

	out, err = run(t, ctx, newSearchCmd(), []string{"body"})
	require.NoError(t, err)
	assert.Contains(t, out, path)
}

func TestIngestCommandWalksDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NOTES.md"), []byte("# Notes\nhello\n"), 0o644))
	ctx := testContext(t)

	out, err := run(t, ctx, newIngestCmd(), []string{dir})
	require.NoError(t, err)
	assert.Contains(t, out, "ingested 2 of 2 files")
}

func TestVerifyCommandReportsOKWithExitCodeZero(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	ctx := testContext(t)

	_, err := run(t, ctx, newStoreCmd(), []string{path})
	require.NoError(t, err)

	out, err := run(t, ctx, newVerifyCmd(), []string{path})
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
	assert.Equal(t, 0, ExitCode(err))
}

func TestComposeWritesNewFileFromSections(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	ctx := testContext(t)

	_, err := run(t, ctx, newStoreCmd(), []string{path})
	require.NoError(t, err)

	s, err := ctx.Store()
	require.NoError(t, err)
	_, secs, err := s.GetFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, secs)

	out := filepath.Join(dir, "composed.md")
	_, err = run(t, ctx, newComposeCmd(), []string{
		"--sections", secs[0].ID,
		"--output", out,
		"--title", "Composed",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Composed")
}

func TestBackupThenRestoreRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	ctx := testContext(t)

	_, err := run(t, ctx, newStoreCmd(), []string{path})
	require.NoError(t, err)

	dumpPath := filepath.Join(dir, "backup.dump.gz")
	out, err := run(t, ctx, newBackupCmd(), []string{"--filename", dumpPath})
	require.NoError(t, err)
	assert.Contains(t, out, "1 files")

	freshDir := t.TempDir()
	freshCfg := &config.Config{Store: config.StoreConfig{Path: filepath.Join(freshDir, "index.db")}}
	log := zerolog.Nop()
	freshCtx := NewContext(freshCfg, "", &log)

	out, err = run(t, freshCtx, newRestoreCmd(), []string{dumpPath})
	require.NoError(t, err)
	assert.Contains(t, out, "restored 1 files")
	assert.Contains(t, out, "integrity_ok=true")
}

func TestExitCodeMapsTaxonomyKinds(t *testing.T) {
	ctx := testContext(t)

	_, err := run(t, ctx, newGetSectionCmd(), []string{"does-not-exist"})
	require.Error(t, err)
	assert.Equal(t, 13, ExitCode(err)) // diag.KindNotFound
}

func TestStatusListsActiveCheckouts(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	ctx := testContext(t)

	_, err := run(t, ctx, newStoreCmd(), []string{path})
	require.NoError(t, err)

	s, err := ctx.Store()
	require.NoError(t, err)
	file, _, err := s.GetFile(path)
	require.NoError(t, err)

	target := filepath.Join(dir, "deployed.md")
	_, err = run(t, ctx, newCheckoutCmd(), []string{file.ID, target})
	require.NoError(t, err)

	out, err := run(t, ctx, newStatusCmd(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	_, err = run(t, ctx, newCheckinCmd(), []string{target})
	require.NoError(t, err)

	out, err = run(t, ctx, newStatusCmd(), nil)
	require.NoError(t, err)
	assert.NotContains(t, out, target)
}
