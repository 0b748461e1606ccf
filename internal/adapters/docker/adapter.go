package docker

import (
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/melih/aesir/internal/core/domain"
)

// AutoAPIVersion negotiates the API version with the daemon.
const AutoAPIVersion = "auto"

// engine is the subset of the Docker SDK client used by Adapter.
type engine interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImagePush(ctx context.Context, image string, options types.ImagePushOptions) (io.ReadCloser, error)
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	Ping(ctx context.Context) (types.Ping, error)
}

// Adapter implements ports.BuildDaemon using the Docker SDK. Builds use the
// daemon's remote git context, so the daemon fetches the source itself.
type Adapter struct {
	cli engine
}

// NewAdapter creates a Docker adapter from the environment (DOCKER_HOST and
// friends). apiVersion pins the API version unless it is empty or "auto".
func NewAdapter(apiVersion string) (*Adapter, error) {
	opts := []client.Opt{client.FromEnv}
	if apiVersion == "" || apiVersion == AutoAPIVersion {
		opts = append(opts, client.WithAPIVersionNegotiation())
	} else {
		opts = append(opts, client.WithVersion(apiVersion))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}
	return &Adapter{cli: cli}, nil
}

// Ping checks the daemon is reachable and returns its API version.
func (a *Adapter) Ping(ctx context.Context) (string, error) {
	ping, err := a.cli.Ping(ctx)
	if err != nil {
		return "", err
	}
	return ping.APIVersion, nil
}

// Build has the daemon fetch src and build it as imageRef.
func (a *Adapter) Build(ctx context.Context, src domain.SourceLocator, imageRef string) error {
	return a.build(ctx, nil, types.ImageBuildOptions{
		RemoteContext: src.String(),
		Tags:          []string{imageRef},
		Remove:        true,
	})
}

// BuildContext builds imageRef from a tar stream holding the build context.
func (a *Adapter) BuildContext(ctx context.Context, buildContext io.Reader, imageRef string) error {
	return a.build(ctx, buildContext, types.ImageBuildOptions{
		Tags:       []string{imageRef},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
}

func (a *Adapter) build(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) error {
	resp, err := a.cli.ImageBuild(ctx, buildContext, options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return drain(resp.Body, logrus.WithField("image", options.Tags[0]))
}

// Push pushes imageRef. When auth is set it first logs in to the registry
// named by the first path segment of the image.
func (a *Adapter) Push(ctx context.Context, imageRef string, auth *domain.RegistryAuth) error {
	authConfig := registry.AuthConfig{}
	if auth != nil {
		authConfig.Username = auth.Username
		authConfig.Password = auth.Password
		authConfig.ServerAddress = registryHost(imageRef)

		logrus.WithField("registry", authConfig.ServerAddress).Debug("Logging in to registry")
		ok, err := a.cli.RegistryLogin(ctx, authConfig)
		if err != nil {
			return err
		}
		if ok.IdentityToken != "" {
			authConfig.Password = ""
			authConfig.IdentityToken = ok.IdentityToken
		}
	}

	encoded, err := registry.EncodeAuthConfig(authConfig)
	if err != nil {
		return errors.Wrap(err, "failed to encode registry auth")
	}

	body, err := a.cli.ImagePush(ctx, imageRef, types.ImagePushOptions{RegistryAuth: encoded})
	if err != nil {
		return err
	}
	defer body.Close()

	return drain(body, logrus.WithField("image", imageRef))
}

// registryHost returns the first path segment of an image reference, or ""
// (the daemon's default registry) when the image has a single segment.
func registryHost(imageRef string) string {
	i := strings.Index(imageRef, "/")
	if i < 0 {
		return ""
	}
	return imageRef[:i]
}

// drain reads a daemon JSON progress stream to its end, logging progress at
// debug level. An error message in the stream is returned as the error.
func drain(stream io.Reader, log *logrus.Entry) error {
	out := log.WriterLevel(logrus.DebugLevel)
	defer out.Close()

	return jsonmessage.DisplayJSONMessagesStream(stream, out, 0, false, nil)
}
