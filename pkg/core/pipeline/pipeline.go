// Package pipeline drives the four external-tool steps that turn one video
// file into a release-ready artifact bundle: technical-info text, contact
// sheet, screenshots, and torrent metafile. Every step is idempotent: an
// existing output skips the tool invocation entirely.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/clearjav/torrentmeta/pkg/core/tools"
	log "github.com/sirupsen/logrus"
)

const (
	// longVideoSeconds is the strict threshold above which the contact
	// sheet switches to long-media parameters (4 hours).
	longVideoSeconds = 14400

	screenshotCount   = 15
	screenshotQuality = 2
)

// Outputs are the four artifact paths for one video's base name.
type Outputs struct {
	InfoText      string
	ContactSheet  string
	ScreenshotDir string
	Torrent       string
}

// OutputsFor computes the artifact paths next to the video file. The
// contact sheet carries the "_s" suffix mtn appends to its output name;
// reproducing it exactly is what makes the existence check see a prior run.
func OutputsFor(videoPath string) Outputs {
	dir := filepath.Dir(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return Outputs{
		InfoText:      filepath.Join(dir, base+".txt"),
		ContactSheet:  filepath.Join(dir, base+"_s.jpg"),
		ScreenshotDir: filepath.Join(dir, base),
		Torrent:       filepath.Join(dir, base+".torrent"),
	}
}

// Timestamps returns count evenly spaced capture points strictly inside
// (0, duration): duration·i/(count+1) for i=1..count.
func Timestamps(duration float64, count int) []float64 {
	ts := make([]float64, 0, count)
	interval := duration / float64(count+1)
	for i := 1; i <= count; i++ {
		ts = append(ts, interval*float64(i))
	}
	return ts
}

// Pipeline runs the tool steps for one video at a time. Tool paths come
// from the locator at run start and are read-only for the run's lifetime.
type Pipeline struct {
	Tools       map[string]string
	AnnounceURL string
	Screenshots bool
	Runner      Runner
	Logger      *log.Logger

	// OnStep, when set, is called after each completed (or skipped) step
	// with the 1-based step number and the total step count.
	OnStep func(completed, total int)
}

// New creates a Pipeline with the default exec-based runner.
func New(toolPaths map[string]string, announceURL string, screenshots bool, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Pipeline{
		Tools:       toolPaths,
		AnnounceURL: announceURL,
		Screenshots: screenshots,
		Runner:      ExecRunner{},
		Logger:      logger,
	}
}

// SetOnStep installs (or clears, with nil) the per-step callback.
func (p *Pipeline) SetOnStep(fn func(completed, total int)) {
	p.OnStep = fn
}

func (p *Pipeline) tool(name string) (string, error) {
	if path, ok := p.Tools[name]; ok && path != "" {
		return path, nil
	}
	return "", fmt.Errorf("required tool %q is not available", name)
}

// Duration probes the video's duration in seconds via ffprobe. Failure is
// degraded to 0 with a warning: callers fall back to default parameters.
func (p *Pipeline) Duration(ctx context.Context, videoPath string) float64 {
	ffprobe, err := p.tool(tools.FFprobe)
	if err != nil {
		p.Logger.Warnf("could not determine video duration: %v", err)
		return 0
	}
	stdout, _, err := p.Runner.Run(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath)
	if err != nil {
		p.Logger.Warnf("could not determine video duration for %s: %v", filepath.Base(videoPath), err)
		return 0
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	if err != nil {
		p.Logger.Warnf("unparseable duration %q for %s", strings.TrimSpace(stdout), filepath.Base(videoPath))
		return 0
	}
	return duration
}

// Process runs the four steps in order. A step failure aborts the
// remaining steps for this item and is returned to the caller; outputs
// created so far are left in place.
func (p *Pipeline) Process(ctx context.Context, videoPath string) (Outputs, error) {
	out := OutputsFor(videoPath)
	displayName := filepath.Base(videoPath)

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"mediainfo", func(ctx context.Context) error { return p.generateMediaInfo(ctx, videoPath, out.InfoText, displayName) }},
		{"contact sheet", func(ctx context.Context) error { return p.generateContactSheet(ctx, videoPath, out.ContactSheet) }},
		{"screenshots", func(ctx context.Context) error { return p.generateScreenshots(ctx, videoPath, out.ScreenshotDir) }},
		{"torrent", func(ctx context.Context) error { return p.createTorrent(ctx, videoPath, out.Torrent) }},
	}

	for i, step := range steps {
		if err := step.run(ctx); err != nil {
			return out, fmt.Errorf("%s step failed for %s: %w", step.name, displayName, err)
		}
		if p.OnStep != nil {
			p.OnStep(i+1, len(steps))
		}
	}
	return out, nil
}

// generateMediaInfo writes the technical-info text artifact. The tool
// reports whatever path it was handed as "Complete name"; that line is
// rewritten to the display filename before persisting.
func (p *Pipeline) generateMediaInfo(ctx context.Context, videoPath, outputPath, displayName string) error {
	if fileExists(outputPath) {
		p.Logger.Infof("  - MediaInfo file already exists. Skipping.")
		return nil
	}
	p.Logger.Infof("  - Generating MediaInfo file...")

	mediainfo, err := p.tool(tools.MediaInfo)
	if err != nil {
		return err
	}
	stdout, _, err := p.Runner.Run(ctx, mediainfo, videoPath)
	if err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "Complete name") {
			lines[i] = fmt.Sprintf("Complete name                            : %s", displayName)
		}
	}
	return os.WriteFile(outputPath, []byte(strings.Join(lines, "\n")), 0o644)
}

// generateContactSheet invokes mtn. Long videos (> 4 h, strict) get a
// 300-second interval, 1024 px width, 3 columns so the sheet stays
// manageable; everything else uses mtn's defaults. -P drops the output
// next to the input file.
func (p *Pipeline) generateContactSheet(ctx context.Context, videoPath, outputPath string) error {
	if fileExists(outputPath) {
		p.Logger.Infof("  - Contact sheet already exists. Skipping.")
		return nil
	}
	p.Logger.Infof("  - Generating contact sheet...")

	mtn, err := p.tool(tools.Mtn)
	if err != nil {
		return err
	}

	args := []string{"-P", videoPath}
	if duration := p.Duration(ctx, videoPath); duration > longVideoSeconds {
		p.Logger.Infof("    - Long video detected (>4 hours). Using custom contact sheet settings.")
		args = []string{"-s", "300", "-w", "1024", "-c", "3", "-P", videoPath}
	}
	_, _, err = p.Runner.Run(ctx, mtn, args...)
	return err
}

// generateScreenshots extracts screenshotCount frames at evenly spaced
// interior timestamps. Disabled entirely by the Screenshots flag; an
// existing directory means a prior run and skips the step; an unknown
// duration aborts only this step with a warning.
func (p *Pipeline) generateScreenshots(ctx context.Context, videoPath, outputDir string) error {
	if !p.Screenshots {
		return nil
	}
	if dirExists(outputDir) {
		p.Logger.Infof("  - Screenshot folder already exists. Skipping.")
		return nil
	}
	p.Logger.Infof("  - Generating screenshots...")

	duration := p.Duration(ctx, videoPath)
	if duration == 0 {
		p.Logger.Warnf("    - Skipping screenshots: video duration unknown.")
		return nil
	}

	ffmpeg, err := p.tool(tools.FFmpeg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	for i, timestamp := range Timestamps(duration, screenshotCount) {
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%d.jpg", i+1))
		_, _, err := p.Runner.Run(ctx, ffmpeg,
			"-ss", strconv.FormatFloat(timestamp, 'f', -1, 64),
			"-i", videoPath,
			"-vf", "scale=-1:1080",
			"-vframes", "1",
			"-q:v", strconv.Itoa(screenshotQuality),
			"-y", outputPath)
		if err != nil {
			return err
		}
	}
	return nil
}

// createTorrent builds the private metafile with the announce URL.
func (p *Pipeline) createTorrent(ctx context.Context, videoPath, outputPath string) error {
	if fileExists(outputPath) {
		p.Logger.Infof("  - .torrent file already exists. Skipping.")
		return nil
	}
	p.Logger.Infof("  - Creating .torrent file...")

	intermodal, err := p.tool(tools.IntermodalCommand())
	if err != nil {
		return err
	}
	_, _, err = p.Runner.Run(ctx, intermodal,
		"torrent", "create",
		"--input", videoPath,
		"--announce", p.AnnounceURL,
		"--output", outputPath,
		"--private")
	return err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
