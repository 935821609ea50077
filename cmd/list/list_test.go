package list

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fulcrumhq/skillsync/pkg/remote"
	"github.com/fulcrumhq/skillsync/pkg/sync"
)

func TestPrintTable(t *testing.T) {
	statuses := []sync.Status{
		{Skill: remote.Skill{Name: "docx"}, State: sync.StateNew,
			RemoteRevision: "abcdef1"},
		{Skill: remote.Skill{Name: "pdf"}, State: sync.StateUpdated,
			LocalRevision: "9876543", RemoteRevision: "abcdef1"},
		{Skill: remote.Skill{Name: "xlsx"}, State: sync.StateUnchanged,
			LocalRevision: "1111111", RemoteRevision: "abcdef1"},
	}

	var out bytes.Buffer
	printTable(&out, statuses)

	exp := "SKILL     STATUS               LOCAL       REMOTE\n" +
		"docx      \x1b[32mNew\x1b[0m         -           abcdef1\n" +
		"pdf       \x1b[33mUpdated\x1b[0m     9876543     abcdef1\n" +
		"xlsx      Unchanged            1111111     abcdef1\n" +
		"\n1 new, 1 updated, 1 unchanged\n"
	assert.Equal(t, exp, out.String())
}

func TestPrintTableEmpty(t *testing.T) {
	var out bytes.Buffer
	printTable(&out, nil)

	exp := "SKILL     STATUS     LOCAL     REMOTE\n" +
		"\n0 new, 0 updated, 0 unchanged\n"
	assert.Equal(t, exp, out.String())
}
