package version

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fulcrumhq/skillsync/cmd/util"
	"github.com/fulcrumhq/skillsync/pkg/update"
	"github.com/fulcrumhq/skillsync/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of skillsync.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(check); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&check, "check", false,
		"Also check whether a newer release is available.")
	return cmd
}

func run(check bool) error {
	fmt.Printf("local version: %s\n", version.Version)
	if !check {
		return nil
	}

	if version.Version == version.EmptyValue {
		fmt.Println("This is a development build. Skipping the release check.")
		return nil
	}

	release, newer, err := update.CheckLatest(version.Version)
	if err != nil {
		// The check is best effort. The local version was already printed.
		log.WithError(err).Warn("Failed to check for a newer release")
		return nil
	}

	if newer {
		fmt.Printf("A newer release is available: %s\n%s\n",
			release.Version, release.URL)
	} else {
		fmt.Println("You're on the latest release.")
	}
	return nil
}
