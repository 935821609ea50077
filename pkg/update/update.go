// Package update checks for newer releases of the CLI.
package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/fulcrumhq/skillsync/pkg/errors"
)

// endpoint is swapped for a test server in tests.
var endpoint = "https://api.github.com/repos/fulcrumhq/skillsync/releases/latest"

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Release describes the newest published release of the CLI.
type Release struct {
	Version *goversion.Version
	URL     string
}

// CheckLatest fetches the newest release and reports whether it's newer
// than `current`.
func CheckLatest(current string) (Release, bool, error) {
	currentVersion, err := goversion.NewVersion(current)
	if err != nil {
		return Release{}, false, errors.WithContext(err, "parse current version")
	}

	resp, err := httpClient.Get(endpoint)
	if err != nil {
		return Release{}, false, errors.WithContext(err, "fetch latest release")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Release{}, false, fmt.Errorf("server responded with %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Release{}, false, errors.WithContext(err, "decode release")
	}

	latest, err := goversion.NewVersion(release.TagName)
	if err != nil {
		return Release{}, false, errors.WithContext(err, "parse release version")
	}

	newer := currentVersion.LessThan(latest)
	return Release{Version: latest, URL: release.HTMLURL}, newer, nil
}
