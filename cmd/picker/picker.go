package picker

import (
	"os"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/sirupsen/logrus"

	"github.com/fulcrumhq/skillsync/cmd/util"
	"github.com/fulcrumhq/skillsync/pkg/config"
	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/manifest"
	"github.com/fulcrumhq/skillsync/pkg/remote"
	skillsync "github.com/fulcrumhq/skillsync/pkg/sync"
)

// Run starts the interactive picker that runs when skillsync is invoked
// with no subcommand. It lists the remote's skills, lets the user select a
// batch, and syncs the batch without leaving the UI.
func Run(configPath, target string) error {
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
	statuses, revision, err := skillsync.FetchStatuses(client, store)
	pp.Stop()
	if err != nil {
		return err
	}

	return newPicker(project, client, store, statuses, revision).run()
}

// picker holds the state shared between the UI widgets and sync batches.
type picker struct {
	project config.Project
	client  remote.Client
	store   *manifest.Store

	// revision is the branch head the session is pinned to. Reclassifying
	// skills after a batch uses the same head, so a push that lands
	// mid-session doesn't flip freshly synced skills back to Updated.
	revision string

	// skills is the remote's skill list, fetched once at startup.
	skills []remote.Skill

	table *skillsWidget

	logger    *logrus.Logger
	loggerOut chanWriter
}

func newPicker(project config.Project, client remote.Client,
	store *manifest.Store, statuses []skillsync.Status, revision string) *picker {

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.Kitchen,
	})

	// Give the logger a generous buffer. If the channel fills up, writing a
	// log message blocks until the UI drains it, which would stall a sync
	// batch mid-run.
	loggerOut := chanWriter(make(chan []byte, 256))
	logger.SetOutput(loggerOut)

	var skills []remote.Skill
	for _, status := range statuses {
		skills = append(skills, status.Skill)
	}

	return &picker{
		project:   project,
		client:    client,
		store:     store,
		revision:  revision,
		skills:    skills,
		table:     &skillsWidget{statuses: statuses, selected: map[string]bool{}},
		logger:    logger,
		loggerOut: loggerOut,
	}
}

// startBatch syncs the selected skills. It's a no-op if a batch is already
// running or nothing is selected.
func (p *picker) startBatch(g *gocui.Gui, _ *gocui.View) error {
	p.table.lock.Lock()
	defer p.table.lock.Unlock()

	if p.table.syncing {
		return nil
	}

	// The worker reads the selection from its own goroutine, so hand it a
	// copy that later keystrokes can't mutate.
	selected := map[string]bool{}
	for name := range p.table.selected {
		selected[name] = true
	}

	if len(selected) == 0 {
		p.logger.Info("Nothing is selected. Press space, a, or n first.")
		return nil
	}

	p.table.syncing = true
	statuses := p.table.statuses

	worker := skillsync.NewWorker(p.logger, p.client, p.store, p.project.SkillsDir)
	events := make(chan skillsync.Event, 16)
	go func() {
		defer util.HandlePanic()
		worker.Run(selected, statuses, p.revision, events)
	}()
	go func() {
		defer util.HandlePanic()
		p.drainEvents(g, events)
	}()

	return nil
}

// drainEvents narrates a running batch into the status view, and refreshes
// the table once the batch finishes.
func (p *picker) drainEvents(g *gocui.Gui, events chan skillsync.Event) {
	var succeeded []string
	for event := range events {
		switch event.Kind {
		case skillsync.EventStarted:
			p.logger.WithField("skill", event.Skill).Infof(
				"Syncing (%d/%d)", event.Index, event.Total)
		case skillsync.EventSynced:
			p.logger.WithField("skill", event.Skill).Infof(
				"Synced %d file(s)", event.Files)
			succeeded = append(succeeded, event.Skill)
		case skillsync.EventFailed:
			// The worker already logged the failure.
		case skillsync.EventDone:
			p.finishBatch(g, succeeded)
		}
	}
}

// finishBatch reclassifies the skills against the updated manifest and
// unchecks the ones that synced. Failed skills stay selected so that
// pressing s again retries them.
func (p *picker) finishBatch(g *gocui.Gui, succeeded []string) {
	statuses, err := p.refreshStatuses()
	if err != nil {
		p.logger.WithError(err).Error("Failed to refresh skill statuses")
	}

	p.table.lock.Lock()
	if statuses != nil {
		p.table.statuses = statuses
	}
	for _, name := range succeeded {
		delete(p.table.selected, name)
	}
	p.table.syncing = false
	p.table.lock.Unlock()

	p.logger.Infof("Done! Synced %d skill(s).", len(succeeded))
	g.Update(p.table.Layout)
}

func (p *picker) refreshStatuses() ([]skillsync.Status, error) {
	m, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	return skillsync.Resolve(p.skills, m.Skills, p.revision), nil
}

// chanWriter provides an io.Writer interface for writing to a channel.
type chanWriter chan []byte

func (w chanWriter) Write(p []byte) (int, error) {
	cpy := make([]byte, len(p))
	copy(cpy, p)
	w <- cpy
	return len(p), nil
}
