// Package logging configures the process-wide logrus logger and scrubs
// credentials from values before they are logged.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Setup applies level and format ("text" or "json") to the standard logger.
func Setup(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	logrus.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return errors.Errorf("invalid log format %q", format)
	}
	return nil
}

// RedactURL replaces the userinfo of rawURL with "***". Everything up to the
// last '@' before any query or fragment is treated as userinfo, so
// credentials holding '/' or ':' are covered too. Fragments such as the
// #branch:dir suffix of a source locator are kept.
func RedactURL(rawURL string) string {
	i := strings.Index(rawURL, "://")
	if i < 0 {
		return rawURL
	}
	rest := rawURL[i+len("://"):]

	end := strings.IndexAny(rest, "?#")
	if end < 0 {
		end = len(rest)
	}
	at := strings.LastIndex(rest[:end], "@")
	if at < 0 {
		return rawURL
	}
	return rawURL[:i] + "://***@" + rest[at+1:]
}
