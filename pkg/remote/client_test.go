package remote

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/fulcrumhq/skillsync/pkg/errors"
)

func testConfig(baseURL string) Config {
	return Config{
		Owner:    "acme",
		Repo:     "skills",
		Branch:   "main",
		RootPath: "skills",
		BaseURL:  baseURL,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestLatestCommitCached(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/acme/skills/commits/main", r.URL.Path)
			assert.Equal(t, acceptHeader, r.Header.Get("Accept"))
			hits++
			fmt.Fprint(w, `{"sha": "abcdef1234567890"}`)
		}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	sha, err := client.LatestCommit()
	assert.NoError(t, err)
	assert.Equal(t, "abcdef1234567890", sha)

	// The head is pinned for the life of the client. No second request.
	sha, err = client.LatestCommit()
	assert.NoError(t, err)
	assert.Equal(t, "abcdef1234567890", sha)
	assert.Equal(t, 1, hits)
}

func TestLatestCommitMissingSHA(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL)).LatestCommit()
	assert.Equal(t, errors.MissingFieldError{Field: "sha"}, errors.RootCause(err))
}

func TestListSkills(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/acme/skills/contents/skills", r.URL.Path)
			assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
			writeJSON(t, w, []contentItem{
				{Name: "pdf", Path: "skills/pdf", Type: typeDir},
				{Name: "README.md", Path: "skills/README.md", Type: typeFile},
				{Name: "docx", Path: "skills/docx", Type: typeDir},
			})
		}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Token = "sekrit"
	skills, err := New(config).ListSkills()
	assert.NoError(t, err)

	// Sorted by name, and the stray file is not a skill.
	assert.Equal(t, []Skill{{Name: "docx"}, {Name: "pdf"}}, skills)
}

func TestListSkillsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
	defer srv.Close()

	skills, err := New(testConfig(srv.URL)).ListSkills()
	assert.NoError(t, err)
	assert.Empty(t, skills)
}

func TestDownloadSkill(t *testing.T) {
	fs = afero.NewMemMapFs()

	skillDoc := []byte("# PDF skill\n")
	script := []byte("print(\"fill\")\n")
	reference := []byte("reference payload")

	// The API wraps inline base64 at 60 columns. Reproduce the wrapping to
	// prove the decoder strips it.
	wrapped := base64.StdEncoding.EncodeToString(skillDoc)
	wrapped = wrapped[:8] + "\n" + wrapped[8:] + "\n"

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/repos/acme/skills/contents/skills/pdf",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, []contentItem{
				{Name: "scripts", Path: "skills/pdf/scripts", Type: typeDir},
				{Name: "SKILL.md", Path: "skills/pdf/SKILL.md", Type: typeFile,
					Content: wrapped},
				{Name: "reference.bin", Path: "skills/pdf/reference.bin",
					Type: typeFile, URL: srv.URL + "/blobs/reference.bin"},
			})
		})
	mux.HandleFunc("/repos/acme/skills/contents/skills/pdf/scripts",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, []contentItem{
				{Name: "fill.py", Path: "skills/pdf/scripts/fill.py",
					Type: typeFile,
					Content: base64.StdEncoding.EncodeToString(script)},
				{Name: "empty", Path: "skills/pdf/scripts/empty", Type: typeDir},
			})
		})
	mux.HandleFunc("/repos/acme/skills/contents/skills/pdf/scripts/empty",
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[]`)
		})
	mux.HandleFunc("/blobs/reference.bin",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, contentItem{
				Name: "reference.bin", Type: typeFile,
				Content: base64.StdEncoding.EncodeToString(reference),
			})
		})

	files, err := New(testConfig(srv.URL)).DownloadSkill("pdf", "local/pdf")
	assert.NoError(t, err)

	// Files at each level land before the descent into subdirectories.
	assert.Equal(t, []string{"SKILL.md", "reference.bin", "fill.py"}, files)

	got, err := afero.ReadFile(fs, "local/pdf/SKILL.md")
	assert.NoError(t, err)
	assert.Equal(t, skillDoc, got)

	got, err = afero.ReadFile(fs, "local/pdf/scripts/fill.py")
	assert.NoError(t, err)
	assert.Equal(t, script, got)

	got, err = afero.ReadFile(fs, "local/pdf/reference.bin")
	assert.NoError(t, err)
	assert.Equal(t, reference, got)

	// Empty remote directories still materialize locally.
	isDir, err := afero.DirExists(fs, "local/pdf/scripts/empty")
	assert.NoError(t, err)
	assert.True(t, isDir)
}

func TestDownloadSkillAborts(t *testing.T) {
	fs = afero.NewMemMapFs()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/repos/acme/skills/contents/skills/pdf",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, []contentItem{
				{Name: "SKILL.md", Path: "skills/pdf/SKILL.md", Type: typeFile,
					Content: base64.StdEncoding.EncodeToString([]byte("doc"))},
				{Name: "gone.bin", Path: "skills/pdf/gone.bin", Type: typeFile,
					URL: srv.URL + "/blobs/gone.bin"},
			})
		})
	mux.HandleFunc("/blobs/gone.bin",
		func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		})

	files, err := New(testConfig(srv.URL)).DownloadSkill("pdf", "local/pdf")
	assert.Error(t, err)
	assert.Nil(t, files)
	assert.IsType(t, StatusError{}, errors.RootCause(err))

	// The walk aborts, leaving the partial tree for the caller to handle.
	exists, err := afero.Exists(fs, "local/pdf/SKILL.md")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestAuthErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))

		_, err := New(testConfig(srv.URL)).ListSkills()
		assert.Equal(t, AuthError{StatusCode: status}, errors.RootCause(err))
		srv.Close()
	}
}

func TestRateLimited(t *testing.T) {
	reset := time.Unix(1752489000, 0)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1752489000")
			w.WriteHeader(http.StatusForbidden)
		}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL)).LatestCommit()
	rateErr, ok := errors.RootCause(err).(RateLimitError)
	assert.True(t, ok)
	assert.Equal(t, reset.Unix(), rateErr.ResetAt.Unix())

	// The message tells the user how to get a bigger quota.
	assert.Contains(t, rateErr.FriendlyMessage(), TokenEnv)
	assert.Contains(t, rateErr.FriendlyMessage(), "5,000")
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL)).ListSkills()
	statusErr, ok := errors.RootCause(err).(StatusError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.URL, "/repos/acme/skills/contents/skills")
}

func TestUnavailable(t *testing.T) {
	// Nothing listens on port 1.
	_, err := New(testConfig("http://127.0.0.1:1")).LatestCommit()
	assert.IsType(t, UnavailableError{}, errors.RootCause(err))
}
