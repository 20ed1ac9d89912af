package cmd

import (
	"fmt"

	"github.com/clearjav/torrentmeta/pkg/core/tools"
	"github.com/spf13/cobra"
)

// NewLocatorFunc allows tests to substitute the tool locator.
var NewLocatorFunc = func() *tools.Locator {
	return tools.NewLocator()
}

// checkCmd reports the availability of every required external tool.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that all required external tools can be found",
	Long: `Checks for the external tools the generate command depends on (ffmpeg,
ffprobe, mtn, mediainfo and the torrent metafile creator). Tools placed
next to the torrentmeta executable take precedence over the system PATH.`,
	RunE: runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	statuses, _ := NewLocatorFunc().LocateAll()

	for _, s := range statuses {
		if s.Found {
			cmd.Printf("  OK       %-12s %s\n", s.Name, s.Path)
		} else {
			cmd.Printf("  MISSING  %-12s download: %s\n", s.Name, s.DownloadURL)
		}
	}

	if missing := tools.Missing(statuses); len(missing) > 0 {
		return fmt.Errorf("%d required tool(s) missing", len(missing))
	}
	cmd.Println("All required tools are available.")
	return nil
}
