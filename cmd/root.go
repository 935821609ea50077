package cmd

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fulcrumhq/skillsync/cmd/list"
	"github.com/fulcrumhq/skillsync/cmd/picker"
	"github.com/fulcrumhq/skillsync/cmd/pull"
	"github.com/fulcrumhq/skillsync/cmd/sync"
	"github.com/fulcrumhq/skillsync/cmd/util"
	"github.com/fulcrumhq/skillsync/cmd/version"
	"github.com/fulcrumhq/skillsync/pkg/config"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "SKILLSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	var configPath, target string
	rootCmd := &cobra.Command{
		Use:          "skillsync",
		Short:        "Keep the local skill library in sync with the skills repository",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors:    true,
		PersistentPreRun: loadDotenv,
		Run: func(_ *cobra.Command, _ []string) {
			if err := picker.Run(configPath, target); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath,
		"Path to the project config file.")
	rootCmd.Flags().StringVar(&target, "target", "",
		"Sync into this directory instead of the configured skills directory.")

	rootCmd.AddCommand(
		list.New(),
		pull.New(),
		sync.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func loadDotenv(_ *cobra.Command, _ []string) {
	// A .env in the working directory can supply GITHUB_TOKEN. A missing
	// file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Debug("Failed to load .env")
	}
}
