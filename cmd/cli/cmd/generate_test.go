package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clearjav/torrentmeta/pkg/core/pipeline"
	"github.com/clearjav/torrentmeta/pkg/core/tools"
	"github.com/clearjav/torrentmeta/pkg/processor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPipeline satisfies processor.ArtifactPipeline without touching any
// external tool.
type stubPipeline struct {
	paths []string
}

func (s *stubPipeline) Process(ctx context.Context, videoPath string) (pipeline.Outputs, error) {
	s.paths = append(s.paths, videoPath)
	return pipeline.OutputsFor(videoPath), nil
}

// withGenerateStubs swaps the dependency injection functions for the test's
// lifetime and returns the captured pipeline.
func withGenerateStubs(t *testing.T) *stubPipeline {
	t.Helper()
	stub := &stubPipeline{}

	origLocator := NewLocatorFunc
	origPipeline := NewPipelineFunc
	origSave := SaveConfigFunc

	dir := toolDir(t, tools.RequiredTools()...)
	NewLocatorFunc = func() *tools.Locator { return &tools.Locator{LocalDir: dir} }
	NewPipelineFunc = func(toolPaths map[string]string, announceURL string, screenshots bool, logger *logrus.Logger) processor.ArtifactPipeline {
		assert.Len(t, toolPaths, len(tools.RequiredTools()))
		return stub
	}
	SaveConfigFunc = func() error { return nil }

	t.Cleanup(func() {
		NewLocatorFunc = origLocator
		NewPipelineFunc = origPipeline
		SaveConfigFunc = origSave
		viper.Set(CfgKeyAnnounceURL, nil)
		viper.Set(CfgKeyUploadEnabled, nil)
	})
	return stub
}

func TestGenerateRequiresAnnounceURL(t *testing.T) {
	withGenerateStubs(t)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("video"), 0o644))

	_, err := execute(t, "generate", video, "--announce", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "announce URL is required")
}

func TestGenerateSingleFile(t *testing.T) {
	stub := withGenerateStubs(t)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("video"), 0o644))

	out, err := execute(t, "generate", video, "--announce", "https://tracker.example/announce/abc")
	require.NoError(t, err)
	assert.Equal(t, []string{video}, stub.paths)
	assert.Contains(t, out, "processed 1, failed 0")
}

func TestGenerateEmptyFolderIsNotAnError(t *testing.T) {
	stub := withGenerateStubs(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	_, err := execute(t, "generate", dir, "--announce", "https://tracker.example/announce/abc")
	require.NoError(t, err, "an empty folder is reported, not failed")
	assert.Empty(t, stub.paths)
}

func TestGenerateUploadRequiresTrackerCredentials(t *testing.T) {
	withGenerateStubs(t)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("video"), 0o644))
	viper.Set(CfgKeyTrackerBaseURL, "")
	viper.Set(CfgKeyAPIToken, "")

	_, err := execute(t, "generate", video,
		"--announce", "https://tracker.example/announce/abc", "--upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracker.base_url")
}
