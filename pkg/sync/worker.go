package sync

import (
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/remote"
)

// fs is swapped for an afero.NewMemMapFs() in tests.
var fs = afero.NewOsFs()

// EventKind labels the progress events emitted by a Worker.
type EventKind int

const (
	// EventStarted is emitted just before a skill's download begins.
	EventStarted EventKind = iota

	// EventSynced is emitted after a skill was downloaded and recorded in
	// the manifest.
	EventSynced

	// EventFailed is emitted when syncing a skill failed. The batch
	// continues with the remaining skills.
	EventFailed

	// EventDone is emitted exactly once, after the last skill.
	EventDone
)

// Event reports the progress of a running batch.
type Event struct {
	Kind  EventKind
	Skill string

	// Index and Total position the skill within the batch, starting at 1.
	Index int
	Total int

	// Files is the number of files written. Set on EventSynced.
	Files int

	// Count is the number of skills that synced. Set on EventDone.
	Count int

	// Err is the failure. Set on EventFailed.
	Err error
}

// Recorder persists the result of a successful sync. It's implemented by
// manifest.Store.
type Recorder interface {
	RecordSync(name, revision string, files []string, now time.Time) error
}

// Worker downloads skills into the skills directory and records them in the
// manifest. It's driven from a goroutine, with the caller consuming the
// event channel in the foreground.
type Worker struct {
	remote    remote.Client
	store     Recorder
	skillsDir string
	clock     clockwork.Clock

	log *logrus.Logger
}

// NewWorker creates a Worker that writes under `skillsDir`.
func NewWorker(log *logrus.Logger, client remote.Client, store Recorder,
	skillsDir string) *Worker {

	return &Worker{
		remote:    client,
		store:     store,
		skillsDir: skillsDir,
		clock:     clockwork.NewRealClock(),
		log:       log,
	}
}

// Run syncs the selected skills one at a time, in the order they appear in
// `statuses`. Failures are reported as events rather than aborting the
// batch. The event channel is closed once the final EventDone is sent, and
// the names of the skills that synced are returned.
func (w *Worker) Run(selected map[string]bool, statuses []Status,
	revision string, events chan<- Event) []string {

	defer close(events)

	var batch []Status
	for _, status := range statuses {
		if selected[status.Skill.Name] {
			batch = append(batch, status)
		}
	}

	var succeeded []string
	for i, status := range batch {
		name := status.Skill.Name
		events <- Event{
			Kind:  EventStarted,
			Skill: name,
			Index: i + 1,
			Total: len(batch),
		}

		numFiles, err := w.syncOne(name, revision)
		if err != nil {
			w.log.WithError(err).WithField("skill", name).Error("Sync failed")
			events <- Event{
				Kind:  EventFailed,
				Skill: name,
				Index: i + 1,
				Total: len(batch),
				Err:   err,
			}
			continue
		}

		events <- Event{
			Kind:  EventSynced,
			Skill: name,
			Index: i + 1,
			Total: len(batch),
			Files: numFiles,
		}
		succeeded = append(succeeded, name)
	}

	events <- Event{Kind: EventDone, Count: len(succeeded)}
	return succeeded
}

// syncOne replaces the local copy of one skill. The old directory is removed
// first so that files deleted upstream don't survive the sync.
func (w *Worker) syncOne(name, revision string) (int, error) {
	targetDir := filepath.Join(w.skillsDir, name)

	exists, err := afero.DirExists(fs, targetDir)
	if err != nil {
		return 0, errors.WithContext(err, "check local copy")
	}
	if exists {
		if err := fs.RemoveAll(targetDir); err != nil {
			return 0, errors.WithContext(err, "remove local copy")
		}
	}

	files, err := w.remote.DownloadSkill(name, targetDir)
	if err != nil {
		return 0, errors.WithContext(err, "download")
	}

	if err := w.store.RecordSync(name, revision, files, w.clock.Now()); err != nil {
		return 0, errors.WithContext(err, "record sync")
	}
	return len(files), nil
}
