// Package processor orchestrates a metadata-generation run over a single
// video file or every video in one directory. It ties identifier
// resolution, duplicate checking, title composition, the tool pipeline and
// the optional tracker upload together; each collaborator stays behind an
// interface so embeddings can wire only what they need.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clearjav/torrentmeta/pkg/core/identify"
	"github.com/clearjav/torrentmeta/pkg/core/lookup"
	"github.com/clearjav/torrentmeta/pkg/core/mediainfo"
	"github.com/clearjav/torrentmeta/pkg/core/pipeline"
	"github.com/clearjav/torrentmeta/pkg/core/title"
	"github.com/clearjav/torrentmeta/pkg/core/tracker"
	log "github.com/sirupsen/logrus"
)

// ErrNoVideos is returned by a bulk run whose directory contains no file
// with a recognized video extension. Callers report it differently from a
// processing failure.
var ErrNoVideos = errors.New("no video files found in the selected folder")

// Known video extensions for bulk enumeration.
var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
}

// descriptionURLFormat links the release back to its catalog page.
const descriptionURLFormat = "https://www.javdatabase.com/movies/%s/"

// VideoItem identifies one input file for the run.
type VideoItem struct {
	Path     string
	BaseName string
}

// NewVideoItem builds a VideoItem from a file path.
func NewVideoItem(path string) VideoItem {
	base := filepath.Base(path)
	return VideoItem{
		Path:     path,
		BaseName: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// ManualInputCancelled reports that an item needed operator-supplied
// identity fields and none were provided.
type ManualInputCancelled struct {
	File string
}

func (e *ManualInputCancelled) Error() string {
	return fmt.Sprintf("manual identity input cancelled for %s", e.File)
}

// ManualInput carries operator-supplied identity fields for an item whose
// lookup succeeded with missing fields.
type ManualInput struct {
	CatalogID   string
	ReleaseDate string
}

// ManualInputFunc supplies missing identity fields for an item. Returning
// an error cancels the item. A nil ManualInputFunc on the Processor means
// the embedding is headless and such items fail.
type ManualInputFunc func(item VideoItem, identity lookup.ResolvedIdentity) (ManualInput, error)

// ProgressFunc receives overall run completion in [0, 1].
type ProgressFunc func(fraction float64)

// IdentityResolver resolves a raw content identifier against the catalog
// lookup service.
type IdentityResolver interface {
	Resolve(ctx context.Context, rawID string) lookup.ResolvedIdentity
}

// DuplicateChecker searches the tracker for releases matching a catalog id.
type DuplicateChecker interface {
	FindDuplicates(ctx context.Context, catalogID string) []tracker.TorrentRecord
}

// Uploader submits a finished bundle to the tracker.
type Uploader interface {
	Upload(ctx context.Context, sub tracker.Submission) error
}

// ArtifactPipeline runs the external-tool steps for one video.
type ArtifactPipeline interface {
	Process(ctx context.Context, videoPath string) (pipeline.Outputs, error)
}

// stepObserver is implemented by pipelines that expose per-step callbacks;
// single-file runs use it for fractional progress.
type stepObserver interface {
	SetOnStep(fn func(completed, total int))
}

// Options are the run-level flags mirroring the persisted settings.
type Options struct {
	Upload       bool
	Anonymous    bool
	Personal     bool
	Internal     bool
	CustomTag    string
	Rename       bool
	SkipModQueue bool
}

// ItemResult records the outcome of one processed video.
type ItemResult struct {
	Item       VideoItem
	Identity   lookup.ResolvedIdentity
	Title      string
	Duplicates []tracker.TorrentRecord
	Outputs    pipeline.Outputs

	Uploaded  bool
	UploadErr error // upload failure is reported separately; artifacts are kept
	Err       error // fatal per-item failure
}

// BatchResult aggregates the per-item outcomes of a run.
type BatchResult struct {
	Processed int
	Failed    int
	Items     []ItemResult
}

// Summary renders the batch outcome in the canonical "processed N, failed M"
// form used by logs and the CLI.
func (b *BatchResult) Summary() string {
	return fmt.Sprintf("processed %d, failed %d", b.Processed, b.Failed)
}

// Processor runs the per-item sequence. Pipeline and Options are required;
// the remaining collaborators are optional and skip their step when nil.
type Processor struct {
	Pipeline    ArtifactPipeline
	Resolver    IdentityResolver
	Duplicates  DuplicateChecker
	Uploader    Uploader
	Options     Options
	Progress    ProgressFunc
	ManualInput ManualInputFunc

	logger *log.Logger
}

// New creates a Processor around a pipeline and run options.
func New(pipe ArtifactPipeline, opts Options, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Processor{
		Pipeline: pipe,
		Options:  opts,
		logger:   logger,
	}
}

// ProcessPath dispatches on the input path: a directory starts a bulk run,
// a file a single run. In single mode a per-item failure aborts the run
// and is returned; in bulk mode failures are counted and the run continues.
func (p *Processor) ProcessPath(ctx context.Context, path string) (*BatchResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access input path: %w", err)
	}
	if info.IsDir() {
		return p.processBulk(ctx, path)
	}
	return p.processSingle(ctx, path)
}

func (p *Processor) processSingle(ctx context.Context, path string) (*BatchResult, error) {
	item := NewVideoItem(path)
	p.logger.Infof("Starting processing for: %s", filepath.Base(path))

	// Fractional milestones track the pipeline's four steps.
	if so, ok := p.Pipeline.(stepObserver); ok && p.Progress != nil {
		so.SetOnStep(func(completed, total int) {
			p.reportProgress(float64(completed) / float64(total))
		})
		defer so.SetOnStep(nil)
	}

	result := p.processOne(ctx, item)
	batch := &BatchResult{Items: []ItemResult{result}}
	if result.Err != nil {
		batch.Failed = 1
		return batch, fmt.Errorf("processing %s: %w", filepath.Base(result.Item.Path), result.Err)
	}
	batch.Processed = 1
	p.logger.Infof("Processing finished successfully.")
	return batch, nil
}

func (p *Processor) processBulk(ctx context.Context, dir string) (*BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, ErrNoVideos
	}

	p.logger.Infof("Found %d video files. Starting bulk processing...", len(files))
	batch := &BatchResult{}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		name := filepath.Base(file)
		p.logger.Infof("[%d/%d] Processing: %s", i+1, len(files), name)

		result := p.processOne(ctx, NewVideoItem(file))
		batch.Items = append(batch.Items, result)
		if result.Err != nil {
			batch.Failed++
			p.logger.Warnf("--> SKIPPED: %s due to an error: %v", name, result.Err)
		} else {
			batch.Processed++
			p.logger.Infof("--> SUCCESS: %s", name)
		}
		p.reportProgress(float64(i+1) / float64(len(files)))
	}
	p.logger.Infof("Bulk processing finished: %s", batch.Summary())
	return batch, nil
}

// processOne runs the full per-item sequence: identity resolution (when
// upload or rename needs it), rename, duplicate check, tool pipeline, then
// the optional upload. An identity that does not exist on the lookup
// service aborts the item before any title or upload work.
func (p *Processor) processOne(ctx context.Context, item VideoItem) ItemResult {
	result := ItemResult{Item: item}

	if p.Options.Upload || p.Options.Rename {
		identity, err := p.resolveIdentity(ctx, item)
		if err != nil {
			result.Err = err
			return result
		}
		result.Identity = identity

		if p.Options.Rename {
			renamed, err := p.maybeRename(item, identity.CatalogID)
			if err != nil {
				result.Err = err
				return result
			}
			item = renamed
			result.Item = renamed
		}

		if p.Duplicates != nil && identity.CatalogID != "" {
			dups := p.Duplicates.FindDuplicates(ctx, identity.CatalogID)
			result.Duplicates = dups
			if len(dups) > 0 {
				p.logger.Warnf("Found %d possible duplicate release(s) for %s on the tracker.", len(dups), identity.CatalogID)
			}
		}
	}

	outputs, err := p.Pipeline.Process(ctx, item.Path)
	result.Outputs = outputs
	if err != nil {
		result.Err = err
		return result
	}

	if p.Options.Upload {
		p.uploadItem(ctx, &result)
	}
	return result
}

// resolveIdentity derives the raw id, resolves it and, for a partial
// result, consults the manual-input policy. The returned identity always
// has Exists=true.
func (p *Processor) resolveIdentity(ctx context.Context, item VideoItem) (lookup.ResolvedIdentity, error) {
	if p.Resolver == nil {
		return lookup.ResolvedIdentity{}, errors.New("identifier resolution required but no resolver configured")
	}
	rawID, ok := identify.DeriveRawID(filepath.Base(item.Path))
	if !ok {
		return lookup.ResolvedIdentity{}, fmt.Errorf("could not derive a content identifier from %q", filepath.Base(item.Path))
	}

	identity := p.Resolver.Resolve(ctx, rawID)
	if !identity.Exists {
		return identity, fmt.Errorf("identifier %s not found on the lookup service after all variants", rawID)
	}
	if !identity.Partial() {
		return identity, nil
	}

	if p.ManualInput == nil {
		return identity, &ManualInputCancelled{File: filepath.Base(item.Path)}
	}
	input, err := p.ManualInput(item, identity)
	if err != nil {
		return identity, &ManualInputCancelled{File: filepath.Base(item.Path)}
	}
	filled := lookup.ResolvedIdentity{
		RawID:       identity.RawID,
		CatalogID:   strings.TrimSpace(input.CatalogID),
		ReleaseDate: strings.TrimSpace(input.ReleaseDate),
		Exists:      true,
	}
	if filled.CatalogID == "" || filled.ReleaseDate == "" {
		return filled, &ManualInputCancelled{File: filepath.Base(item.Path)}
	}
	return filled, nil
}

// maybeRename renames the file to "<catalog id><ext>" when the catalog id
// differs from the current base name, and returns the item to use for all
// later steps.
func (p *Processor) maybeRename(item VideoItem, catalogID string) (VideoItem, error) {
	if catalogID == "" || catalogID == item.BaseName {
		return item, nil
	}
	newPath := filepath.Join(filepath.Dir(item.Path), catalogID+filepath.Ext(item.Path))
	if err := os.Rename(item.Path, newPath); err != nil {
		return item, fmt.Errorf("failed to rename %s to %s: %w", filepath.Base(item.Path), filepath.Base(newPath), err)
	}
	p.logger.Infof("Renamed %s to %s", filepath.Base(item.Path), filepath.Base(newPath))
	return NewVideoItem(newPath), nil
}

// uploadItem composes the release title from the generated info text and
// submits the bundle. Upload failure is recorded on the result, never
// propagated: the generated artifacts stand on their own.
func (p *Processor) uploadItem(ctx context.Context, result *ItemResult) {
	if p.Uploader == nil {
		result.UploadErr = errors.New("upload requested but no uploader configured")
		return
	}

	infoText, err := os.ReadFile(result.Outputs.InfoText)
	if err != nil {
		result.UploadErr = fmt.Errorf("cannot read technical info artifact: %w", err)
		p.logger.Warnf("Upload skipped for %s: %v", result.Item.BaseName, result.UploadErr)
		return
	}
	profile := mediainfo.Parse(string(infoText))

	identity := result.Identity
	result.Title = title.Compose(identity.CatalogID, identity.ReleaseDate,
		string(profile.Resolution), profile.VideoCodec, profile.AudioCodec,
		title.Flags{
			Internal:  p.Options.Internal,
			Personal:  p.Options.Personal,
			CustomTag: p.Options.CustomTag,
		})

	sub := tracker.Submission{
		TorrentPath:     result.Outputs.Torrent,
		ThumbSheetPath:  result.Outputs.ContactSheet,
		JavID:           identity.RawID,
		DVDID:           identity.CatalogID,
		Name:            result.Title,
		DescriptionURL:  fmt.Sprintf(descriptionURLFormat, strings.ToLower(identity.CatalogID)),
		MediaInfoText:   string(infoText),
		ResolutionID:    mediainfo.ResolutionID(profile.Resolution),
		Anonymous:       p.Options.Anonymous,
		PersonalRelease: p.Options.Personal,
		SkipModQueue:    p.Options.SkipModQueue,
		Internal:        p.Options.Internal,
	}
	if err := p.Uploader.Upload(ctx, sub); err != nil {
		result.UploadErr = err
		p.logger.Warnf("Upload failed for %s: %v (generated files are kept).", result.Title, err)
		return
	}
	result.Uploaded = true
	p.logger.Infof("Uploaded %s to the tracker.", result.Title)
}

func (p *Processor) reportProgress(fraction float64) {
	if p.Progress != nil {
		p.Progress(fraction)
	}
}
