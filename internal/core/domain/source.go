package domain

import (
	"strings"

	"github.com/pkg/errors"
)

const httpsScheme = "https://"

// ErrUnsupportedScheme is returned for repository references that are not
// https URLs or scheme-less host/path references.
var ErrUnsupportedScheme = errors.New("unsupported repository scheme, only https is supported")

// SourceLocator is a fetchable build context for the daemon: a repository URL
// carrying the caller's credential, plus an optional ref and subdirectory.
type SourceLocator struct {
	// Repository is https://<credential>@<host>/<path>.git
	Repository string
	// Branch is the ref to check out, without the leading '#'.
	Branch string
	// Directory is the build context inside the repository, without the leading ':'.
	Directory string
}

// String renders the locator in the daemon's remote context syntax:
// <repository>[#<branch>][:<directory>]. A directory always carries a branch
// marker, which is a bare '#' when no branch was requested.
func (s SourceLocator) String() string {
	var b strings.Builder
	b.WriteString(s.Repository)
	if s.Branch != "" || s.Directory != "" {
		b.WriteString("#")
		b.WriteString(s.Branch)
	}
	if s.Directory != "" {
		b.WriteString(":")
		b.WriteString(s.Directory)
	}
	return b.String()
}

// NormalizeSource builds the locator for repo with credential embedded as the
// URL userinfo. repo may be an https URL or a bare host/path; it gains a
// .git suffix when missing.
func NormalizeSource(credential, repo, branch, directory string) (SourceLocator, error) {
	if !strings.HasSuffix(repo, ".git") {
		repo += ".git"
	}

	hostPath, err := stripScheme(repo)
	if err != nil {
		return SourceLocator{}, errors.Wrapf(err, "git_repo %q", repo)
	}

	return SourceLocator{
		Repository: httpsScheme + credential + "@" + hostPath,
		Branch:     strings.TrimPrefix(branch, "#"),
		Directory:  directory,
	}, nil
}

// stripScheme returns the host and path of repo with any https scheme and
// existing userinfo removed.
func stripScheme(repo string) (string, error) {
	hostPath := repo
	switch {
	case strings.HasPrefix(repo, httpsScheme):
		hostPath = repo[len(httpsScheme):]
	case strings.Contains(repo, "://"), strings.HasPrefix(repo, "git@"):
		return "", ErrUnsupportedScheme
	}

	host := hostPath
	if i := strings.Index(hostPath, "/"); i >= 0 {
		host = hostPath[:i]
	}
	if at := strings.LastIndex(host, "@"); at >= 0 {
		hostPath = hostPath[at+1:]
	}
	if hostPath == "" || strings.HasPrefix(hostPath, "/") {
		return "", errors.New("missing repository host")
	}
	return hostPath, nil
}
