package sync

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/remote"
	"github.com/fulcrumhq/skillsync/pkg/sync"
)

func TestSelectSkills(t *testing.T) {
	statuses := []sync.Status{
		{Skill: remote.Skill{Name: "docx"}, State: sync.StateNew},
		{Skill: remote.Skill{Name: "pdf"}, State: sync.StateUpdated},
		{Skill: remote.Skill{Name: "xlsx"}, State: sync.StateUnchanged},
	}

	// By default, only skills that are new or out of date get synced.
	assert.Equal(t, map[string]bool{"docx": true, "pdf": true},
		selectSkills(statuses, nil, false))

	// --all selects everything.
	assert.Equal(t, map[string]bool{"docx": true, "pdf": true, "xlsx": true},
		selectSkills(statuses, nil, true))

	// Naming skills selects exactly those, even up-to-date ones. Unknown
	// names are skipped.
	assert.Equal(t, map[string]bool{"xlsx": true},
		selectSkills(statuses, []string{"xlsx", "nope"}, false))
}

func TestPrintEvents(t *testing.T) {
	events := make(chan sync.Event, 8)
	events <- sync.Event{Kind: sync.EventStarted, Skill: "docx",
		Index: 1, Total: 2}
	events <- sync.Event{Kind: sync.EventSynced, Skill: "docx",
		Index: 1, Total: 2, Files: 4}
	events <- sync.Event{Kind: sync.EventStarted, Skill: "pdf",
		Index: 2, Total: 2}
	events <- sync.Event{Kind: sync.EventFailed, Skill: "pdf",
		Index: 2, Total: 2, Err: errors.New("download: remote unreachable")}
	events <- sync.Event{Kind: sync.EventDone, Count: 1}
	close(events)

	var out bytes.Buffer
	printEvents(&out, events)

	exp := "Syncing docx... (1/2)\n" +
		"  done (4 files)\n" +
		"Syncing pdf... (2/2)\n" +
		"  error: download: remote unreachable\n" +
		"Done! Synced 1 skill(s).\n"
	assert.Equal(t, exp, out.String())
}
