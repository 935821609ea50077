package sync

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fulcrumhq/skillsync/cmd/util"
	"github.com/fulcrumhq/skillsync/pkg/config"
	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/manifest"
	"github.com/fulcrumhq/skillsync/pkg/sync"
)

// stdout is mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `sync` command.
func New() *cobra.Command {
	var configPath, target string
	var all bool
	cmd := &cobra.Command{
		Use:   "sync [skills...]",
		Short: "Download skills that are new or out of date",
		Run: func(_ *cobra.Command, args []string) {
			if err := run(configPath, target, args, all); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&all, "all", false,
		"Sync every skill, including ones that are already up to date.")
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath,
		"Path to the project config file.")
	cmd.Flags().StringVar(&target, "target", "",
		"Sync into this directory instead of the configured skills directory.")
	return cmd
}

func run(configPath, target string, names []string, all bool) error {
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
	statuses, revision, err := sync.FetchStatuses(client, store)
	pp.Stop()
	if err != nil {
		return err
	}

	selected := selectSkills(statuses, names, all)
	if len(selected) == 0 {
		if len(names) > 0 {
			return errors.NewFriendlyError(
				"None of the requested skills exist in the remote.\n" +
					"Run `skillsync list` to see what's available.")
		}
		fmt.Fprintln(stdout, "Everything is up to date.")
		return nil
	}

	worker := sync.NewWorker(log.StandardLogger(), client, store,
		project.SkillsDir)
	events := make(chan sync.Event, 16)
	go func() {
		defer util.HandlePanic()
		worker.Run(selected, statuses, revision, events)
	}()

	printEvents(stdout, events)
	return nil
}

// selectSkills decides which skills to sync. Naming skills selects exactly
// those, even up-to-date ones. `--all` selects everything. By default, the
// skills that are new or out of date are selected.
func selectSkills(statuses []sync.Status, names []string,
	all bool) map[string]bool {

	selected := map[string]bool{}
	switch {
	case len(names) > 0:
		known := map[string]bool{}
		for _, status := range statuses {
			known[status.Skill.Name] = true
		}
		for _, name := range names {
			if !known[name] {
				log.WithField("skill", name).Warn(
					"No such skill in the remote. Skipping.")
				continue
			}
			selected[name] = true
		}
	case all:
		for _, status := range statuses {
			selected[status.Skill.Name] = true
		}
	default:
		for _, status := range statuses {
			if status.State != sync.StateUnchanged {
				selected[status.Skill.Name] = true
			}
		}
	}
	return selected
}

func printEvents(out io.Writer, events <-chan sync.Event) {
	for event := range events {
		switch event.Kind {
		case sync.EventStarted:
			fmt.Fprintf(out, "Syncing %s... (%d/%d)\n",
				event.Skill, event.Index, event.Total)
		case sync.EventSynced:
			fmt.Fprintf(out, "  done (%d files)\n", event.Files)
		case sync.EventFailed:
			fmt.Fprintf(out, "  error: %s\n", event.Err)
		case sync.EventDone:
			fmt.Fprintf(out, "Done! Synced %d skill(s).\n", event.Count)
		}
	}
}
