package config

import (
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/fulcrumhq/skillsync/pkg/errors"
	"github.com/fulcrumhq/skillsync/pkg/manifest"
)

const (
	// DefaultPath is the default path to the project config, relative to the
	// working directory.
	DefaultPath = ".skillsync.yaml"

	// InitialProjectConfigVersion is the first version of the project config.
	// Config files that do not specify a version default to this version.
	InitialProjectConfigVersion = "v1alpha1"

	// SupportedProjectConfigVersion is the version of the project config
	// supported by the current binary.
	SupportedProjectConfigVersion = "v1alpha1"
)

// Defaults for projects that don't carry a config file. They point at the
// shared skills repository, with the local copy laid out the way the project
// template scaffolds it.
const (
	DefaultOwner      = "anthropics"
	DefaultRepo       = "skills"
	DefaultBranch     = "main"
	DefaultRemotePath = "skills"
	DefaultSkillsDir  = "template/skills"
)

// Project describes where skills come from and where they land locally.
type Project struct {
	Version string `json:"version,omitempty"`

	// Owner and Repo name the repository that skills are pulled from.
	Owner string `json:"owner"`
	Repo  string `json:"repo"`

	// Branch is the branch whose head pins the session revision.
	Branch string `json:"branch"`

	// RemotePath is the directory within the repository that contains one
	// subdirectory per skill.
	RemotePath string `json:"remotePath"`

	// SkillsDir is the local directory the skills are synced into. Relative
	// paths are evaluated relative to the config file.
	SkillsDir string `json:"skillsDir"`
}

func (p Project) getVersion() string {
	return p.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseProject parses the project config at the given path. A missing file
// isn't an error -- the defaults describe a stock project checkout.
func ParseProject(path string) (Project, error) {
	config := defaultProject()
	if err := parseConfig(path, &config, SupportedProjectConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return defaultProject(), nil
		}
		return Project{}, errors.WithContext(err, "parse")
	}

	var err error
	config.SkillsDir, err = homedirExpand(config.SkillsDir)
	if err != nil {
		return Project{}, errors.WithContext(err, "expand skills path")
	}

	// Evaluate relative paths relative to the config path.
	if config.SkillsDir != "" && !filepath.IsAbs(config.SkillsDir) {
		config.SkillsDir = filepath.Join(filepath.Dir(path), config.SkillsDir)
	}
	return config, nil
}

// WithTarget overrides the skills directory, e.g. from a --target flag. A
// leading tilde is expanded.
func (p Project) WithTarget(target string) (Project, error) {
	if target == "" {
		return p, nil
	}

	expanded, err := homedirExpand(target)
	if err != nil {
		return Project{}, errors.WithContext(err, "expand target path")
	}
	p.SkillsDir = expanded
	return p, nil
}

// ManifestPath returns the path of the sync manifest: a hidden file in the
// parent of the skills directory, so that wiping the skills tree doesn't
// wipe the sync history.
func (p Project) ManifestPath() string {
	return filepath.Join(filepath.Dir(p.SkillsDir), manifest.Filename)
}

func defaultProject() Project {
	return Project{
		Version:    InitialProjectConfigVersion,
		Owner:      DefaultOwner,
		Repo:       DefaultRepo,
		Branch:     DefaultBranch,
		RemotePath: DefaultRemotePath,
		SkillsDir:  DefaultSkillsDir,
	}
}
