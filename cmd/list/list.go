package list

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/fulcrumhq/skillsync/cmd/util"
	"github.com/fulcrumhq/skillsync/pkg/config"
	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/manifest"
	"github.com/fulcrumhq/skillsync/pkg/sync"
)

// stdout is mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `list` command.
func New() *cobra.Command {
	var configPath, target string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show each skill and whether its local copy is up to date",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(configPath, target); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath,
		"Path to the project config file.")
	cmd.Flags().StringVar(&target, "target", "",
		"Check this directory instead of the configured skills directory.")
	return cmd
}

func run(configPath, target string) error {
	project, err := config.ParseProject(configPath)
	if err != nil {
		return errors.WithContext(err, "parse config")
	}

	project, err = project.WithTarget(target)
	if err != nil {
		return err
	}

	client := util.NewRemoteClient(project)
	store := manifest.NewStore(project.ManifestPath())

	pp := util.NewProgressPrinter(os.Stdout, "Fetching skills..")
	go pp.Run()
	statuses, _, err := sync.FetchStatuses(client, store)
	pp.Stop()
	if err != nil {
		return err
	}

	printTable(stdout, statuses)
	return nil
}

func printTable(out io.Writer, statuses []sync.Status) {
	w := tabwriter.NewWriter(out, 0, 10, 5, ' ', 0)
	fmt.Fprintln(w, "SKILL\tSTATUS\tLOCAL\tREMOTE")

	var numNew, numUpdated, numUnchanged int
	for _, status := range statuses {
		local := status.LocalRevision
		if local == "" {
			local = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", status.Skill.Name,
			statusString(status.State), local, status.RemoteRevision)

		switch status.State {
		case sync.StateNew:
			numNew++
		case sync.StateUpdated:
			numUpdated++
		default:
			numUnchanged++
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d new, %d updated, %d unchanged\n",
		numNew, numUpdated, numUnchanged)
}

func statusString(state sync.State) string {
	switch state {
	case sync.StateNew:
		return goterm.Color("New", goterm.GREEN)
	case sync.StateUpdated:
		return goterm.Color("Updated", goterm.YELLOW)
	default:
		return "Unchanged"
	}
}
