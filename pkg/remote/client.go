// Package remote reads the skills repository through the GitHub content
// API. The client is read-only, and it pins the first branch head it
// resolves so that one session works against one revision.
package remote

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/fulcrumhq/skillsync/pkg/errors"
)

const (
	// DefaultBaseURL is the GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"

	// TokenEnv is the environment variable holding the API credential.
	// Unauthenticated sessions work, just with a much smaller quota.
	TokenEnv = "GITHUB_TOKEN"

	// requestTimeout bounds every API request. Batches can't be cancelled
	// mid-flight, so this is what keeps a wedged transfer from hanging the
	// session forever.
	requestTimeout = 30 * time.Second

	acceptHeader = "application/vnd.github.v3+json"
)

// Content entry types returned by the API.
const (
	typeFile = "file"
	typeDir  = "dir"
)

// fs is swapped for an afero.NewMemMapFs() in tests.
var fs = afero.NewOsFs()

// Skill is one entry of the remote catalog: an immediate subdirectory of
// the configured root path.
type Skill struct {
	Name string
}

// Config identifies the repository a client reads from.
type Config struct {
	Owner  string
	Repo   string
	Branch string

	// RootPath is the directory within the repository that holds one
	// subdirectory per skill.
	RootPath string

	// Token is the optional API credential.
	Token string

	// BaseURL overrides the API endpoint. It defaults to DefaultBaseURL,
	// and tests point it at a local server.
	BaseURL string
}

// Client reads the skills repository.
type Client interface {
	// LatestCommit resolves the head of the configured branch. The first
	// successful resolution is cached for the lifetime of the client, so
	// later calls return the same revision without network traffic. Build
	// a new client to pick up commits pushed mid-session.
	LatestCommit() (string, error)

	// ListSkills returns the catalog, sorted by name. Files sitting next
	// to the skill directories are not skills and are skipped.
	ListSkills() ([]Skill, error)

	// DownloadSkill mirrors the named skill into targetDir and returns the
	// base names of the files it wrote, in download order.
	DownloadSkill(name, targetDir string) ([]string, error)

	// DownloadTree is DownloadSkill for an arbitrary repository path.
	DownloadTree(remotePath, targetDir string) ([]string, error)
}

type client struct {
	config Config
	http   *http.Client

	// latestCommit caches the branch head after the first resolution.
	latestCommit string
}

// New creates a client for the given repository.
func New(config Config) Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &client{
		config: config,
		http:   &http.Client{Timeout: requestTimeout},
	}
}

// contentItem is one entry of a directory listing, or the file object a
// listing entry's url points at.
type contentItem struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

func (c *client) LatestCommit() (string, error) {
	if c.latestCommit != "" {
		log.WithField("sha", c.latestCommit).Debug("Using cached branch head")
		return c.latestCommit, nil
	}

	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s",
		c.config.BaseURL, c.config.Owner, c.config.Repo, c.config.Branch)

	var commit struct {
		SHA string `json:"sha"`
	}
	if err := c.getJSON(url, &commit); err != nil {
		return "", errors.WithContext(err, "resolve branch head")
	}
	if commit.SHA == "" {
		return "", errors.WithContext(
			errors.MissingFieldError{Field: "sha"}, "resolve branch head")
	}

	log.WithField("sha", commit.SHA).Debug("Resolved branch head")
	c.latestCommit = commit.SHA
	return c.latestCommit, nil
}

func (c *client) ListSkills() ([]Skill, error) {
	var items []contentItem
	if err := c.getJSON(c.contentsURL(c.config.RootPath), &items); err != nil {
		return nil, errors.WithContext(err, "list skills")
	}

	var skills []Skill
	for _, item := range items {
		if item.Type != typeDir {
			continue
		}
		skills = append(skills, Skill{Name: item.Name})
	}

	sort.Slice(skills, func(i, j int) bool {
		return skills[i].Name < skills[j].Name
	})
	return skills, nil
}

func (c *client) DownloadSkill(name, targetDir string) ([]string, error) {
	return c.DownloadTree(path.Join(c.config.RootPath, name), targetDir)
}

func (c *client) DownloadTree(remotePath, targetDir string) ([]string, error) {
	var files []string
	if err := c.downloadDir(remotePath, targetDir, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// downloadDir mirrors one directory level: files first, then a descent into
// each subdirectory. The local directory is created before anything is
// written into it, so empty remote directories materialize as well.
func (c *client) downloadDir(remotePath, targetDir string, files *[]string) error {
	var items []contentItem
	if err := c.getJSON(c.contentsURL(remotePath), &items); err != nil {
		return errors.WithContext(err, fmt.Sprintf("list %q", remotePath))
	}

	if err := fs.MkdirAll(targetDir, 0755); err != nil {
		return errors.WithContext(err, "create directory")
	}

	for _, item := range items {
		if item.Type != typeFile {
			continue
		}
		if err := c.downloadFile(item, targetDir); err != nil {
			return errors.WithContext(err, fmt.Sprintf("download %q", item.Path))
		}
		*files = append(*files, item.Name)
	}

	for _, item := range items {
		if item.Type != typeDir {
			continue
		}
		subdir := filepath.Join(targetDir, item.Name)
		if err := c.downloadDir(item.Path, subdir, files); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) downloadFile(item contentItem, targetDir string) error {
	encoded := item.Content
	if encoded == "" {
		// Listings omit the content of larger files. Fetch the file object
		// itself, which always carries it.
		var file contentItem
		if err := c.getJSON(item.URL, &file); err != nil {
			return errors.WithContext(err, "fetch content")
		}
		encoded = file.Content
	}

	data, err := decodeContent(encoded)
	if err != nil {
		return errors.WithContext(err, "decode content")
	}

	target := filepath.Join(targetDir, item.Name)
	if err := afero.WriteFile(fs, target, data, 0644); err != nil {
		return errors.WithContext(err, "write file")
	}
	return nil
}

// decodeContent decodes the API's base64 payloads. The API wraps them with
// newlines at 60 columns, which the stdlib decoder rejects.
func decodeContent(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(
		strings.ReplaceAll(encoded, "\n", ""))
}

func (c *client) contentsURL(remotePath string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.config.BaseURL, c.config.Owner, c.config.Repo, remotePath)
}

func (c *client) getJSON(url string, out interface{}) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return errors.WithContext(err, "build request")
	}
	req.Header.Set("Accept", acceptHeader)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WithContext(err, "decode response")
	}
	return nil
}
