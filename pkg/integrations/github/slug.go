package github

import (
	"net/url"
	"strings"

	"github.com/philfreshman/diffpack/pkg/integrations"
)

// RepoSlug identifies a GitHub repository as owner/repo.
type RepoSlug struct {
	Owner string
	Repo  string
}

// String returns the canonical "owner/repo" form.
func (s RepoSlug) String() string { return s.Owner + "/" + s.Repo }

// ParseRepoSlug parses a GitHub repository identifier from a bare
// "owner/repo" string or a GitHub-hosted URL. The scheme is optional and
// trailing slashes and .git suffixes are tolerated. Returns ok=false for
// anything that does not resolve to exactly two non-empty path segments
// under a GitHub host (or the bare-slug form).
func ParseRepoSlug(input string) (RepoSlug, bool) {
	s := integrations.NormalizeRepoURL(input)
	if s == "" {
		return RepoSlug{}, false
	}
	s = strings.TrimSuffix(s, "/")

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || !isGitHubHost(u.Host) {
			return RepoSlug{}, false
		}
		return slugFromPath(u.Path)
	}

	// Missing scheme: either host-qualified or a bare slug.
	if host, rest, ok := strings.Cut(s, "/"); ok && isGitHubHost(host) {
		return slugFromPath(rest)
	}

	// Bare "owner/repo". GitHub owner names never contain dots, which is
	// what separates a slug from a host-qualified path on another forge.
	owner, _, _ := strings.Cut(s, "/")
	if strings.Contains(owner, ".") {
		return RepoSlug{}, false
	}
	return slugFromPath(s)
}

// ToRepoSlug extracts "owner/repo" from a GitHub-hosted URL.
// Returns ok=false if the URL is empty or not GitHub-hosted.
func ToRepoSlug(rawURL string) (string, bool) {
	s := integrations.NormalizeRepoURL(rawURL)
	if s == "" {
		return "", false
	}
	s = strings.TrimSuffix(s, "/")

	rest := ""
	switch {
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil || !isGitHubHost(u.Host) {
			return "", false
		}
		rest = u.Path
	default:
		host, path, ok := strings.Cut(s, "/")
		if !ok || !isGitHubHost(host) {
			return "", false
		}
		rest = path
	}

	slug, ok := slugFromPath(rest)
	if !ok {
		return "", false
	}
	return slug.String(), true
}

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "www.github.com"
}

func slugFromPath(path string) (RepoSlug, bool) {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoSlug{}, false
	}
	repo := strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return RepoSlug{}, false
	}
	return RepoSlug{Owner: parts[0], Repo: repo}, true
}
