// Package config loads the service configuration from flags and the
// environment.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Build modes.
const (
	// ModeRemote lets the daemon fetch the git source itself.
	ModeRemote = "remote"
	// ModeClone clones the source locally and uploads it as the build context.
	ModeClone = "clone"
)

// Configuration keys. Each is also read from the upper-cased environment
// variable, e.g. allowed_org from ALLOWED_ORG.
const (
	KeyAllowedOrg       = "allowed_org"
	KeyDockerAPIVersion = "docker_api_version"
	KeyListenAddr       = "listen_addr"
	KeyGithubAPIURL     = "github_api_url"
	KeyBuildMode        = "build_mode"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
)

// Config is read once at startup and never modified.
type Config struct {
	AllowedOrg       string `mapstructure:"allowed_org"`
	DockerAPIVersion string `mapstructure:"docker_api_version"`
	ListenAddr       string `mapstructure:"listen_addr"`
	GithubAPIURL     string `mapstructure:"github_api_url"`
	BuildMode        string `mapstructure:"build_mode"`
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAllowedOrg, "")
	v.SetDefault(KeyDockerAPIVersion, "auto")
	v.SetDefault(KeyListenAddr, ":8000")
	v.SetDefault(KeyGithubAPIURL, "https://api.github.com")
	v.SetDefault(KeyBuildMode, ModeRemote)
	v.SetDefault(KeyLogLevel, "debug")
	v.SetDefault(KeyLogFormat, "text")
}

// BindFlags binds each flag in flags whose name, with dashes replaced by
// underscores, is a configuration key.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return errors.Wrap(err, "binding flags")
}

// Load reads the configuration from v, with environment variables taking
// precedence over defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.BuildMode {
	case ModeRemote, ModeClone:
	default:
		return errors.Errorf("invalid build mode %q, must be %q or %q", c.BuildMode, ModeRemote, ModeClone)
	}
	if c.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	return nil
}
