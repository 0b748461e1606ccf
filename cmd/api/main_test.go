package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()

	for name, want := range map[string]string{
		"allowed-org":        "",
		"docker-api-version": "auto",
		"listen-addr":        ":8000",
		"github-api-url":     "https://api.github.com",
		"build-mode":         "remote",
		"log-level":          "debug",
		"log-format":         "text",
	} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue, name)
	}
}

func TestRootCmdRejectsBadConfig(t *testing.T) {
	t.Setenv("BUILD_MODE", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--build-mode", "kaniko"})
	assert.Error(t, cmd.Execute())
}
