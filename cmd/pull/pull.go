package pull

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fulcrumhq/skillsync/cmd/util"
	"github.com/fulcrumhq/skillsync/pkg/config"
	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/remote"
)

// fs is swapped for an afero.NewMemMapFs() in tests.
var fs = afero.NewOsFs()

// New creates a new `pull` command.
func New() *cobra.Command {
	var configPath, to string
	cmd := &cobra.Command{
		Use:   "pull <remote-path>",
		Short: "Download one directory from the skills repository",
		Long: "Download an arbitrary directory from the skills repository, " +
			"outside of the usual sync flow. The local copy is replaced " +
			"wholesale, and the sync manifest is left alone.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(configPath, args[0], to); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath,
		"Path to the project config file.")
	cmd.Flags().StringVar(&to, "to", "",
		"Directory to download into. Defaults to the basename of the remote path.")
	return cmd
}

func run(configPath, remotePath, to string) error {
	project, err := config.ParseProject(configPath)
	if err != nil {
		return errors.WithContext(err, "parse config")
	}

	client := util.NewRemoteClient(project)

	targetDir := to
	if targetDir == "" {
		targetDir = path.Base(remotePath)
	}

	pp := util.NewProgressPrinter(os.Stdout,
		fmt.Sprintf("Pulling %s..", remotePath))
	go pp.Run()
	files, err := pull(client, remotePath, targetDir)
	pp.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Pulled %d file(s) into %s.\n", len(files), targetDir)
	return nil
}

// pull replaces targetDir with the contents of the remote directory. The old
// copy is removed first so that files deleted upstream don't linger.
func pull(client remote.Client, remotePath, targetDir string) ([]string, error) {
	exists, err := afero.DirExists(fs, targetDir)
	if err != nil {
		return nil, errors.WithContext(err, "check local copy")
	}
	if exists {
		if err := fs.RemoveAll(targetDir); err != nil {
			return nil, errors.WithContext(err, "remove local copy")
		}
	}

	files, err := client.DownloadTree(remotePath, targetDir)
	if err != nil {
		return nil, errors.WithContext(err, fmt.Sprintf("pull %q", remotePath))
	}
	return files, nil
}
