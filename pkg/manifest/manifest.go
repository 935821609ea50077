// Package manifest tracks which skills have been synced, at which revision,
// and which files each sync produced. The manifest is the only state the
// sync engine keeps between sessions.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/fulcrumhq/skillsync/pkg/errors"
)

// Filename is the manifest's name on disk. It lives in the parent of the
// skills directory so that wiping the skills tree keeps the sync history.
const Filename = ".skill-manifest.json"

// skillsKey is the one top-level key this tool owns. Anything else in the
// document belongs to other tools and is carried through untouched.
const skillsKey = "skills"

// fs is swapped for an afero.NewMemMapFs() in tests.
var fs = afero.NewOsFs()

// Entry records one successful skill sync.
type Entry struct {
	// CommitSHA is the full revision the skill was downloaded at.
	CommitSHA string `json:"commit_sha"`

	// SyncedAt is when the sync completed, in UTC.
	SyncedAt time.Time `json:"synced_at"`

	// Files lists the base names of the files the download produced.
	Files []string `json:"files"`
}

// Manifest is the parsed manifest document.
type Manifest struct {
	// Skills maps skill name to its last successful sync.
	Skills map[string]Entry

	// extra holds top-level keys we don't understand, so that saving the
	// manifest never strips them.
	extra map[string]json.RawMessage
}

// CorruptError is returned when the manifest exists but can't be parsed.
// A corrupt manifest is never silently reset.
type CorruptError struct {
	Path string
	Err  error
}

func (err CorruptError) Error() string {
	return fmt.Sprintf("manifest %q is not valid JSON: %s", err.Path, err.Err)
}

func (err CorruptError) FriendlyMessage() string {
	return fmt.Sprintf("The sync manifest at %q could not be parsed:\n%s\n\n"+
		"If the file wasn't edited on purpose, delete it to start from a "+
		"clean slate. Every skill will then show as new.", err.Path, err.Err)
}

// Store reads and writes the manifest at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the manifest at path. The file doesn't have
// to exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the manifest on disk.
func (s *Store) Path() string {
	return s.path
}

// Load parses the manifest. A missing file yields an empty manifest rather
// than an error -- a fresh checkout simply hasn't synced anything yet.
func (s *Store) Load() (Manifest, error) {
	raw, err := afero.ReadFile(fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyManifest(), nil
		}
		return Manifest{}, errors.WithContext(err, "read manifest")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Manifest{}, CorruptError{Path: s.path, Err: err}
	}

	manifest := emptyManifest()
	for key, value := range doc {
		if key != skillsKey {
			manifest.extra[key] = value
			continue
		}
		if err := json.Unmarshal(value, &manifest.Skills); err != nil {
			return Manifest{}, CorruptError{Path: s.path, Err: err}
		}
		if manifest.Skills == nil {
			// "skills": null
			manifest.Skills = map[string]Entry{}
		}
	}
	return manifest, nil
}

// Save writes the manifest back to disk, preserving top-level keys written
// by other tools. Key order is deterministic, so saving an unchanged
// manifest produces an identical file.
func (s *Store) Save(manifest Manifest) error {
	skills := manifest.Skills
	if skills == nil {
		skills = map[string]Entry{}
	}

	skillsRaw, err := json.Marshal(skills)
	if err != nil {
		return errors.WithContext(err, "marshal skills")
	}

	doc := map[string]json.RawMessage{skillsKey: skillsRaw}
	for key, value := range manifest.extra {
		doc[key] = value
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WithContext(err, "marshal manifest")
	}

	if err := afero.WriteFile(fs, s.path, raw, 0644); err != nil {
		return errors.WithContext(err, "write manifest")
	}
	return nil
}

// RecordSync replaces the entry for a skill after a successful transfer.
// It's a read-modify-write of the whole document, so records written by
// earlier skills in the batch survive even if the process dies later.
func (s *Store) RecordSync(name, revision string, files []string, now time.Time) error {
	manifest, err := s.Load()
	if err != nil {
		return err
	}

	manifest.Skills[name] = Entry{
		CommitSHA: revision,
		SyncedAt:  now.UTC(),
		Files:     files,
	}
	return s.Save(manifest)
}

func emptyManifest() Manifest {
	return Manifest{
		Skills: map[string]Entry{},
		extra:  map[string]json.RawMessage{},
	}
}
