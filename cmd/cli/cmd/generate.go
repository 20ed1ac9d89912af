package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/clearjav/torrentmeta/pkg/core/lookup"
	"github.com/clearjav/torrentmeta/pkg/core/pipeline"
	"github.com/clearjav/torrentmeta/pkg/core/tools"
	"github.com/clearjav/torrentmeta/pkg/core/tracker"
	"github.com/clearjav/torrentmeta/pkg/processor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// --- Dependency Injection Functions for Testing ---

var NewPipelineFunc = func(toolPaths map[string]string, announceURL string, screenshots bool, logger *logrus.Logger) processor.ArtifactPipeline {
	return pipeline.New(toolPaths, announceURL, screenshots, logger)
}

var NewResolverFunc = func(baseURL string, logger *logrus.Logger) processor.IdentityResolver {
	return lookup.NewResolver(lookup.NewClient(baseURL), logger)
}

var NewTrackerClientFunc = func(baseURL, apiToken string) *tracker.Client {
	return tracker.NewClient(baseURL, apiToken)
}

var SaveConfigFunc = saveConfig

// --- End Dependency Injection ---

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Generate the release metadata bundle for a video file or folder",
	Long: `Runs the metadata pipeline for a single video file, or for every video
in a folder (non-recursive). Each video gets a MediaInfo text dump, a
contact sheet, optional screenshots and a private .torrent metafile,
skipping any artifact that already exists.

With --upload the catalog identifier is resolved first, the tracker is
checked for duplicate releases, a release title is composed from the
MediaInfo dump and the finished bundle is submitted to the tracker API.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerateCmd,
}

func init() {
	RootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.String("announce", "", "Tracker announce URL (required)")
	flags.Bool("screenshots", true, "Extract screenshots in addition to the contact sheet")
	flags.Bool("upload", false, "Upload the finished bundle to the tracker")
	flags.Bool("anonymous", false, "Upload as an anonymous release")
	flags.Bool("personal", false, "Mark the upload as a personal release")
	flags.Bool("internal", false, "Mark the upload as an internal release (privileged accounts)")
	flags.String("tag", "", "Custom release group tag for personal releases")
	flags.Bool("rename", false, "Rename files to their resolved catalog id before processing")

	viper.BindPFlag(CfgKeyAnnounceURL, flags.Lookup("announce"))
	viper.BindPFlag(CfgKeyScreenshots, flags.Lookup("screenshots"))
	viper.BindPFlag(CfgKeyUploadEnabled, flags.Lookup("upload"))
	viper.BindPFlag(CfgKeyAnonymous, flags.Lookup("anonymous"))
	viper.BindPFlag(CfgKeyPersonal, flags.Lookup("personal"))
	viper.BindPFlag(CfgKeyInternal, flags.Lookup("internal"))
	viper.BindPFlag(CfgKeyCustomTag, flags.Lookup("tag"))
	viper.BindPFlag(CfgKeyRenameEnabled, flags.Lookup("rename"))
}

// runGenerateCmd wires the collaborators from configuration and hands off
// to runGenerate.
func runGenerateCmd(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	announceURL := viper.GetString(CfgKeyAnnounceURL)
	if announceURL == "" {
		return errors.New("announce URL is required (set --announce or tracker.announce_url)")
	}

	opts := processor.Options{
		Upload:    viper.GetBool(CfgKeyUploadEnabled),
		Anonymous: viper.GetBool(CfgKeyAnonymous),
		Personal:  viper.GetBool(CfgKeyPersonal),
		Internal:  viper.GetBool(CfgKeyInternal),
		CustomTag: viper.GetString(CfgKeyCustomTag),
		Rename:    viper.GetBool(CfgKeyRenameEnabled),
	}

	statuses, toolPaths := NewLocatorFunc().LocateAll()
	if missing := tools.Missing(statuses); len(missing) > 0 {
		for _, s := range missing {
			logger.Errorf("Required tool %q not found. Download: %s", s.Name, s.DownloadURL)
		}
		return fmt.Errorf("%d required tool(s) missing; run %q for details", len(missing), "torrentmeta check")
	}

	pipe := NewPipelineFunc(toolPaths, announceURL, viper.GetBool(CfgKeyScreenshots), logger)
	proc := processor.New(pipe, opts, logger)

	if opts.Upload || opts.Rename {
		proc.Resolver = NewResolverFunc(viper.GetString(CfgKeyLookupBaseURL), logger)
		proc.ManualInput = promptManualInput(cmd)
	}
	if opts.Upload {
		trackerBase := viper.GetString(CfgKeyTrackerBaseURL)
		apiToken := viper.GetString(CfgKeyAPIToken)
		if trackerBase == "" || apiToken == "" {
			return errors.New("upload requires tracker.base_url and tracker.api_token")
		}
		client := NewTrackerClientFunc(trackerBase, apiToken)
		proc.Duplicates = client
		proc.Uploader = client
	}
	proc.Progress = func(fraction float64) {
		logger.Infof("Progress: %d%%", int(fraction*100))
	}

	// Settings are persisted before the run starts, like on normal exit.
	if err := SaveConfigFunc(); err != nil {
		logger.Warnf("Could not save configuration: %v", err)
	}

	return runGenerate(cmd, args[0], proc, logger)
}

// runGenerate executes the run and renders its outcome.
func runGenerate(cmd *cobra.Command, path string, proc *processor.Processor, logger *logrus.Logger) error {
	batch, err := proc.ProcessPath(cmd.Context(), path)
	if err != nil {
		if errors.Is(err, processor.ErrNoVideos) {
			logger.Warnf("No video files found in the selected folder.")
			return nil
		}
		return err
	}

	cmd.Printf("Done: %s\n", batch.Summary())
	for _, item := range batch.Items {
		if len(item.Duplicates) > 0 {
			cmd.Printf("  %s: %d possible duplicate(s) already on the tracker\n", item.Item.BaseName, len(item.Duplicates))
		}
		if item.UploadErr != nil {
			cmd.Printf("  %s: upload failed: %v\n", item.Item.BaseName, item.UploadErr)
		} else if item.Uploaded {
			cmd.Printf("  %s: uploaded as %q\n", item.Item.BaseName, item.Title)
		}
	}
	return nil
}

// promptManualInput asks the operator for the identity fields the lookup
// service could not provide. Empty input cancels the item.
func promptManualInput(cmd *cobra.Command) processor.ManualInputFunc {
	return func(item processor.VideoItem, identity lookup.ResolvedIdentity) (processor.ManualInput, error) {
		cmd.Printf("Lookup for %s (raw id %s) is missing fields.\n", item.BaseName, identity.RawID)
		reader := bufio.NewReader(cmd.InOrStdin())

		catalogID := identity.CatalogID
		if catalogID == "" {
			cmd.Print("Enter catalog id (empty to skip): ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return processor.ManualInput{}, err
			}
			catalogID = strings.TrimSpace(line)
			if catalogID == "" {
				return processor.ManualInput{}, errors.New("no catalog id provided")
			}
		}

		releaseDate := identity.ReleaseDate
		if releaseDate == "" {
			cmd.Print("Enter release date (YYYY-MM-DD, empty to skip): ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return processor.ManualInput{}, err
			}
			releaseDate = strings.TrimSpace(line)
			if releaseDate == "" {
				return processor.ManualInput{}, errors.New("no release date provided")
			}
		}

		return processor.ManualInput{CatalogID: catalogID, ReleaseDate: releaseDate}, nil
	}
}
