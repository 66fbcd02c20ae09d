// Package gitmeta derives source links from the project's git
// metadata, so rendered documentation can point back at the hosted
// file. Reads .git directly; shelling out to git would drag the host
// environment into an otherwise hermetic parse.
package gitmeta

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/halcyon-dev/angraph/graph"
)

// Repo is the detected repository metadata.
type Repo struct {
	// RemoteURL is the raw origin URL from .git/config.
	RemoteURL string

	// WebURL is the browsable https form of the origin.
	WebURL string

	// Branch is the checked-out branch from .git/HEAD, or "main" for a
	// detached head.
	Branch string
}

// Detect reads repository metadata for the project at root. Returns
// nil without error when root is not a git checkout.
func Detect(root string) (*Repo, error) {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return nil, nil
	}

	remote, err := originURL(filepath.Join(gitDir, "config"))
	if err != nil {
		return nil, err
	}
	if remote == "" {
		return nil, nil
	}

	return &Repo{
		RemoteURL: remote,
		WebURL:    webURL(remote),
		Branch:    currentBranch(gitDir),
	}, nil
}

// FileURL links one file line on the hosting site. Empty when the
// remote form was not recognized.
func (r *Repo) FileURL(rel string, line int) string {
	if r == nil || r.WebURL == "" {
		return ""
	}
	url := fmt.Sprintf("%s/blob/%s/%s", r.WebURL, r.Branch, rel)
	if line > 0 {
		url += fmt.Sprintf("#L%d", line)
	}
	return url
}

// Annotate stamps every entity location with its source link.
func (r *Repo) Annotate(g *graph.KnowledgeGraph) {
	if r == nil {
		return
	}
	for _, e := range g.Entities() {
		e.Location.SourceURL = r.FileURL(e.Location.FilePath, e.Location.Line)
	}
}

// originURL scans .git/config for the origin remote's url line.
func originURL(configPath string) (string, error) {
	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read git config: %w", err)
	}
	defer f.Close()

	inOrigin := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inOrigin = line == `[remote "origin"]`
			continue
		}
		if !inOrigin {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "url"); ok {
			return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "=")), nil
		}
	}
	return "", scanner.Err()
}

// webURL converts ssh and git remote forms to https.
//
//	git@github.com:org/repo.git -> https://github.com/org/repo
//	https://github.com/org/repo.git -> https://github.com/org/repo
func webURL(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")

	if rest, ok := strings.CutPrefix(remote, "git@"); ok {
		host, path, found := strings.Cut(rest, ":")
		if !found {
			return ""
		}
		return "https://" + host + "/" + path
	}
	if strings.HasPrefix(remote, "ssh://git@") {
		return "https://" + strings.TrimPrefix(remote, "ssh://git@")
	}
	if strings.HasPrefix(remote, "http://") || strings.HasPrefix(remote, "https://") {
		return remote
	}
	return ""
}

// currentBranch reads the symbolic ref from .git/HEAD.
func currentBranch(gitDir string) string {
	data, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "main"
	}
	head := strings.TrimSpace(string(data))
	if branch, ok := strings.CutPrefix(head, "ref: refs/heads/"); ok {
		return branch
	}
	return "main"
}
