package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/melih/aesir/internal/adapters/builder"
	"github.com/melih/aesir/internal/adapters/docker"
	"github.com/melih/aesir/internal/adapters/github"
	"github.com/melih/aesir/internal/adapters/http"
	"github.com/melih/aesir/internal/config"
	"github.com/melih/aesir/internal/core/ports"
	"github.com/melih/aesir/internal/core/services"
	"github.com/melih/aesir/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "aesir",
		Short:         "Build container images from git repositories over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				logrus.Error(err)
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("allowed-org", "", "GitHub organization callers must belong to (env ALLOWED_ORG)")
	flags.String("docker-api-version", docker.AutoAPIVersion, "Docker API version, or auto to negotiate (env DOCKER_API_VERSION)")
	flags.String("listen-addr", ":8000", "Address to listen on (env LISTEN_ADDR)")
	flags.String("github-api-url", github.DefaultAPIURL, "GitHub API endpoint (env GITHUB_API_URL)")
	flags.String("build-mode", config.ModeRemote, "remote or clone (env BUILD_MODE)")
	flags.String("log-level", "debug", "Log level (env LOG_LEVEL)")
	flags.String("log-format", "text", "text or json (env LOG_FORMAT)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Error(err)
		return err
	}

	// 1. Initialize Adapters (Infrastructure)
	dockerAdapter, err := docker.NewAdapter(cfg.DockerAPIVersion)
	if err != nil {
		logrus.Errorf("Failed to initialize Docker adapter: %v", err)
		return err
	}
	if version, err := dockerAdapter.Ping(ctx); err != nil {
		logrus.Warnf("Docker daemon not reachable: %v", err)
	} else {
		logrus.Debugf("Docker daemon API version %s", version)
	}

	var daemon ports.BuildDaemon = dockerAdapter
	if cfg.BuildMode == config.ModeClone {
		daemon = builder.NewBuilderAdapter(dockerAdapter)
	}

	if cfg.AllowedOrg == "" {
		logrus.Warn("ALLOWED_ORG is not set, any valid GitHub credential can trigger builds")
	}

	// 2. Initialize core services with the immutable configuration
	authorizer := services.NewAuthorizer(github.NewClient(cfg.GithubAPIURL, nil), cfg.AllowedOrg)
	buildService := services.NewBuildService(daemon)

	// 3. Setup Framework (Fiber) and routes
	app := http.NewApp(authorizer, buildService)

	logrus.WithField("mode", cfg.BuildMode).Infof("Starting Aesir API on %s", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		logrus.Errorf("Server failed to start: %v", err)
		return err
	}
	return nil
}
