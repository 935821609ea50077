package pull

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/remote"
)

// fakeClient writes a canned tree into the target directory.
type fakeClient struct {
	trees map[string][]string
}

func (f fakeClient) LatestCommit() (string, error)       { return "", nil }
func (f fakeClient) ListSkills() ([]remote.Skill, error) { return nil, nil }

func (f fakeClient) DownloadSkill(name, targetDir string) ([]string, error) {
	return nil, nil
}

func (f fakeClient) DownloadTree(remotePath, targetDir string) ([]string, error) {
	files, ok := f.trees[remotePath]
	if !ok {
		return nil, errors.New("no such path")
	}

	for _, file := range files {
		target := filepath.Join(targetDir, file)
		if err := afero.WriteFile(fs, target, []byte(file), 0644); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func TestPullReplacesLocalCopy(t *testing.T) {
	fs = afero.NewMemMapFs()

	stale := "commands/stale.md"
	assert.NoError(t, afero.WriteFile(fs, stale, []byte("old"), 0644))

	client := fakeClient{trees: map[string][]string{
		"template/commands": {"review.md", "release.md"},
	}}

	files, err := pull(client, "template/commands", "commands")
	assert.NoError(t, err)
	assert.Equal(t, []string{"review.md", "release.md"}, files)

	// The pull replaces the directory wholesale.
	exists, err := afero.Exists(fs, stale)
	assert.NoError(t, err)
	assert.False(t, exists)

	got, err := afero.ReadFile(fs, "commands/review.md")
	assert.NoError(t, err)
	assert.Equal(t, []byte("review.md"), got)
}

func TestPullBadRemotePath(t *testing.T) {
	fs = afero.NewMemMapFs()

	_, err := pull(fakeClient{}, "template/nope", "nope")
	assert.Error(t, err)
	assert.EqualError(t, errors.RootCause(err), "no such path")
}
