package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/fulcrumhq/skillsync/pkg/config"
	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/remote"
)

// HandleFatalError prints `err` and exits. Errors that implement
// errors.FriendlyError are printed without the "Error:" prefix since
// they're written to be read by users.
func HandleFatalError(err error) {
	if friendly, ok := errors.RootCause(err).(errors.FriendlyError); ok {
		fmt.Fprintln(os.Stderr, friendly.FriendlyMessage())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

// NewRemoteClient creates a client for the repository named by the project
// config. The GITHUB_TOKEN environment variable supplies the API credential,
// if set.
func NewRemoteClient(project config.Project) remote.Client {
	return remote.New(remote.Config{
		Owner:    project.Owner,
		Repo:     project.Repo,
		Branch:   project.Branch,
		RootPath: project.RemotePath,
		Token:    os.Getenv(remote.TokenEnv),
	})
}

// HandlePanic logs panics before exiting. It should be deferred at the top
// of main and of every long-lived goroutine.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	log.WithField("panic", r).Error(string(debug.Stack()))
	os.Exit(1)
}
