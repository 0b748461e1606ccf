package services_test

import (
	"context"
	"errors"

	"github.com/melih/aesir/internal/core/domain"
)

type fakeLookup struct {
	orgs  []string
	err   error
	calls int
}

func (f *fakeLookup) UserOrganizations(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.orgs, f.err
}

type buildCall struct {
	src      domain.SourceLocator
	imageRef string
}

type pushCall struct {
	imageRef string
	auth     *domain.RegistryAuth
}

type fakeDaemon struct {
	buildErr error
	pushErr  error
	builds   []buildCall
	pushes   []pushCall
}

func (f *fakeDaemon) Build(_ context.Context, src domain.SourceLocator, imageRef string) error {
	f.builds = append(f.builds, buildCall{src: src, imageRef: imageRef})
	return f.buildErr
}

func (f *fakeDaemon) Push(_ context.Context, imageRef string, auth *domain.RegistryAuth) error {
	f.pushes = append(f.pushes, pushCall{imageRef: imageRef, auth: auth})
	return f.pushErr
}

var errDiskFull = errors.New("disk full")
