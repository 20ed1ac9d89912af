package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys, mirrored by command flags.
const (
	CfgKeyAnnounceURL    = "tracker.announce_url"
	CfgKeyTrackerBaseURL = "tracker.base_url"
	CfgKeyAPIToken       = "tracker.api_token"
	CfgKeyLookupBaseURL  = "lookup.base_url"
	CfgKeyScreenshots    = "generate.screenshots"
	CfgKeyUploadEnabled  = "upload.enabled"
	CfgKeyAnonymous      = "upload.anonymous"
	CfgKeyPersonal       = "upload.personal"
	CfgKeyInternal       = "upload.internal"
	CfgKeyCustomTag      = "upload.custom_tag"
	CfgKeyRenameEnabled  = "rename.enabled"
)

var (
	// Used for flags.
	cfgFile string

	// RootCmd represents the base command when called without any subcommands.
	// Exported for use in tests.
	RootCmd = &cobra.Command{
		Use:   "torrentmeta",
		Short: "Generate release metadata bundles for video files and upload them to a tracker.",
		Long: `torrentmeta prepares everything a private-tracker release needs from a
video file: a MediaInfo text dump, a contact sheet, screenshots and a
.torrent metafile. It can also resolve the catalog identifier, check the
tracker for duplicate releases, compose the release title and upload the
finished bundle through the tracker API.`,
	}
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.torrentmeta/config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".torrentmeta"))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetDefault(CfgKeyScreenshots, true)
	viper.SetDefault(CfgKeyLookupBaseURL, "https://api.javdatabase.com")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TORRENTMETA")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config yet; flags and environment still apply.
		} else if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

// saveConfig persists the current viper settings to the standard location,
// so the next run starts from the same announce URL and flags.
func saveConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not determine home directory: %w", err)
		}
		dir := filepath.Join(home, ".torrentmeta")
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("could not create config directory %s: %w", dir, err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	return viper.WriteConfigAs(path)
}
