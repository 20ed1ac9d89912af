package tools_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/clearjav/torrentmeta/pkg/core/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeTool(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755)
	require.NoError(t, err)
	return path
}

func TestLocatePrefersLocalDirOverPath(t *testing.T) {
	dir := t.TempDir()
	local := writeFakeTool(t, dir, "ffmpeg")

	loc := &tools.Locator{LocalDir: dir}
	path, ok := loc.Locate("ffmpeg")
	assert.True(t, ok)
	assert.Equal(t, local, path)
}

func TestLocateFallsBackToSystemPath(t *testing.T) {
	// "sh" exists on every non-Windows system PATH; the local dir is empty.
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell being on PATH")
	}
	loc := &tools.Locator{LocalDir: t.TempDir()}
	path, ok := loc.Locate("sh")
	assert.True(t, ok)
	assert.NotEmpty(t, path)
}

func TestLocateNotFound(t *testing.T) {
	loc := &tools.Locator{LocalDir: t.TempDir()}
	path, ok := loc.Locate("definitely-not-a-real-tool-4242")
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestLocateIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "mtn"), 0o755))

	loc := &tools.Locator{LocalDir: dir}
	_, ok := loc.Locate("mtn")
	assert.False(t, ok, "a directory named like the tool must not count as found")
}

func TestLocateAllReportsMissing(t *testing.T) {
	dir := t.TempDir()
	writeFakeTool(t, dir, "ffmpeg")
	writeFakeTool(t, dir, "ffprobe")

	// Strip PATH so only the local dir is searched.
	t.Setenv("PATH", dir)

	loc := &tools.Locator{LocalDir: dir}
	statuses, paths := loc.LocateAll()
	require.Len(t, statuses, len(tools.RequiredTools()))

	assert.Contains(t, paths, "ffmpeg")
	assert.Contains(t, paths, "ffprobe")

	missing := tools.Missing(statuses)
	require.NotEmpty(t, missing)
	for _, s := range missing {
		assert.False(t, s.Found)
		assert.NotEmpty(t, s.DownloadURL, "missing tool %s should carry a download URL", s.Name)
	}
}
