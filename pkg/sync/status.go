package sync

import (
	"github.com/fulcrumhq/skillsync/pkg/manifest"
	"github.com/fulcrumhq/skillsync/pkg/remote"
)

// State classifies a skill relative to the remote branch head.
type State int

const (
	// StateNew means the skill has never been synced.
	StateNew State = iota

	// StateUpdated means the skill was synced from an older commit.
	StateUpdated

	// StateUnchanged means the local copy matches the branch head.
	StateUnchanged
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Status is the sync state of a single skill.
type Status struct {
	Skill remote.Skill
	State State

	// LocalRevision is the abbreviated commit the skill was last synced
	// from. It's empty when no commit has been recorded.
	LocalRevision string

	// RemoteRevision is the abbreviated branch head.
	RemoteRevision string
}

// Resolve classifies each skill against the branch head `revision`.
// The returned statuses are in the same order as `skills`.
func Resolve(skills []remote.Skill, synced map[string]manifest.Entry,
	revision string) []Status {

	remoteRevision := revisionPrefix(revision)

	var statuses []Status
	for _, skill := range skills {
		status := Status{Skill: skill, RemoteRevision: remoteRevision}

		entry, ok := synced[skill.Name]
		if !ok {
			status.State = StateNew
		} else {
			status.LocalRevision = revisionPrefix(entry.CommitSHA)
			if status.LocalRevision == remoteRevision {
				status.State = StateUnchanged
			} else {
				status.State = StateUpdated
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// revisionPrefix abbreviates a commit SHA to the seven characters the
// remote's UI displays.
func revisionPrefix(revision string) string {
	if len(revision) < 7 {
		return revision
	}
	return revision[:7]
}

// FetchStatuses lists the remote's skills and classifies each one against
// the branch head and the sync manifest. The full branch head revision is
// returned alongside the statuses so that syncs get recorded against it.
func FetchStatuses(client remote.Client, store *manifest.Store) (
	[]Status, string, error) {

	revision, err := client.LatestCommit()
	if err != nil {
		return nil, "", err
	}

	skills, err := client.ListSkills()
	if err != nil {
		return nil, "", err
	}

	m, err := store.Load()
	if err != nil {
		return nil, "", err
	}

	return Resolve(skills, m.Skills, revision), revision, nil
}
