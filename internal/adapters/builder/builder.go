package builder

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/docker/docker/pkg/archive"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/melih/aesir/internal/core/domain"
	"github.com/melih/aesir/internal/logging"
)

// ContextBuilder builds an image from a tar build context.
type ContextBuilder interface {
	BuildContext(ctx context.Context, buildContext io.Reader, imageRef string) error
}

// ImagePusher pushes a built image.
type ImagePusher interface {
	Push(ctx context.Context, imageRef string, auth *domain.RegistryAuth) error
}

// Engine is the daemon side of a clone build.
type Engine interface {
	ContextBuilder
	ImagePusher
}

// Adapter implements ports.BuildDaemon by cloning the source locally with
// go-git and sending the checked out directory to the daemon as the build
// context.
type Adapter struct {
	engine Engine
	tmpDir string
}

// NewBuilderAdapter creates a clone builder that hands build contexts to
// engine. Clones are made under the system temp dir.
func NewBuilderAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Build clones src and builds its directory as imageRef.
func (a *Adapter) Build(ctx context.Context, src domain.SourceLocator, imageRef string) error {
	tmpDir, err := os.MkdirTemp(a.tmpDir, "aesir-build-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	if err := clone(ctx, tmpDir, src); err != nil {
		return err
	}
	return a.buildDir(ctx, tmpDir, src.Directory, imageRef)
}

// Push delegates to the engine.
func (a *Adapter) Push(ctx context.Context, imageRef string, auth *domain.RegistryAuth) error {
	return a.engine.Push(ctx, imageRef, auth)
}

func (a *Adapter) buildDir(ctx context.Context, root, directory, imageRef string) error {
	contextDir, err := securejoin.SecureJoin(root, directory)
	if err != nil {
		return errors.Wrapf(err, "invalid git_directory %q", directory)
	}
	if info, err := os.Stat(contextDir); err != nil || !info.IsDir() {
		return errors.Errorf("git_directory %q not found in repository", directory)
	}

	tar, err := archive.TarWithOptions(contextDir, &archive.TarOptions{
		ExcludePatterns: []string{".git"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create build context")
	}
	defer tar.Close()

	logrus.WithField("image", imageRef).Debug("Building image from cloned source")
	return a.engine.BuildContext(ctx, tar, imageRef)
}

func clone(ctx context.Context, dir string, src domain.SourceLocator) error {
	repoURL, auth, err := splitCredentials(src.Repository)
	if err != nil {
		return err
	}

	log := logrus.WithField("repo", logging.RedactURL(src.Repository))
	log.Debugf("Cloning into %s", dir)

	out := log.WriterLevel(logrus.DebugLevel)
	defer out.Close()

	opts := &git.CloneOptions{
		URL:      repoURL,
		Progress: out,
		Depth:    1,
	}
	if auth != nil {
		opts.Auth = auth
	}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		opts.SingleBranch = true
	}

	_, err = git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil && src.Branch != "" && refNotFound(err) {
		log.Debugf("Branch %s not found, trying as tag", src.Branch)
		if rmErr := resetDir(dir); rmErr != nil {
			return rmErr
		}
		opts.ReferenceName = plumbing.NewTagReferenceName(src.Branch)
		_, err = git.PlainCloneContext(ctx, dir, false, opts)
	}
	if err != nil {
		return errors.Wrap(err, "failed to clone repo")
	}
	return nil
}

// refNotFound reports whether a clone failed because the requested ref does
// not exist on the remote.
func refNotFound(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	if errors.As(err, &noMatch) || errors.Is(err, plumbing.ErrReferenceNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "reference not found") ||
		strings.Contains(err.Error(), "couldn't find remote ref")
}

// splitCredentials moves the userinfo of rawURL into go-git basic auth.
func splitCredentials(rawURL string) (string, *githttp.BasicAuth, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, errors.Wrap(err, "invalid repository url")
	}
	if u.User == nil {
		return rawURL, nil, nil
	}

	auth := &githttp.BasicAuth{Username: u.User.Username()}
	if password, ok := u.User.Password(); ok {
		auth.Password = password
	} else {
		// A bare token is sent as the password with a placeholder user.
		auth.Password = auth.Username
		auth.Username = "x-access-token"
	}
	u.User = nil
	return u.String(), auth, nil
}

func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "failed to reset clone dir")
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return errors.Wrap(err, "failed to reset clone dir")
		}
	}
	return nil
}
