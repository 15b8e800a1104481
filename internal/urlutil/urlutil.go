// Package urlutil provides repository name and URL parsing utilities.
package urlutil

import (
	"fmt"
	"strings"
)

// SplitRepo splits an "owner/name" repository into its parts.
func SplitRepo(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", fullName)
	}
	return owner, repo, nil
}

// RepoFromAPIURL extracts "owner/name" from a repository API URL.
// It returns an empty string when the URL has no repository in it.
func RepoFromAPIURL(apiURL string) string {
	// URL format: https://api.github.com/repos/owner/repo
	// or, on Enterprise: https://ghe.example.com/api/v3/repos/owner/repo
	_, rest, ok := strings.Cut(apiURL, "/repos/")
	if !ok {
		return ""
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}
