package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/melih/aesir/internal/core/domain"
	"github.com/melih/aesir/internal/core/ports"
	"github.com/melih/aesir/internal/logging"
)

// BuildService turns an authorized build request into an image, and pushes
// it when asked to.
type BuildService struct {
	daemon ports.BuildDaemon
}

// NewBuildService creates a BuildService backed by daemon.
func NewBuildService(daemon ports.BuildDaemon) *BuildService {
	return &BuildService{daemon: daemon}
}

// Build decodes body, builds the requested image from source using
// credential as the git credential, and pushes it if push is set. The
// returned error is always a *domain.Error.
func (s *BuildService) Build(ctx context.Context, credential string, body []byte, push bool) (domain.BuildRequest, error) {
	var req *domain.BuildRequest
	if err := json.Unmarshal(body, &req); err != nil || req == nil {
		logrus.Error("No POST body")
		return domain.BuildRequest{}, domain.NewError(domain.RequestMalformed,
			"Missing parameters",
			"Missing build request body or bad request")
	}

	if req.GitRepo == "" || req.DockerImage == "" {
		logrus.Error(`Missing "git_repo" or "docker_image"`)
		return *req, domain.NewError(domain.RequestIncomplete,
			"Missing parameter",
			fmt.Sprintf("Missing git_repo(%s) or docker_image(%s)", req.GitRepo, req.DockerImage))
	}

	src, err := domain.NormalizeSource(credential, req.GitRepo, req.GitBranch, req.GitDirectory)
	if err != nil {
		logrus.Errorf("Invalid git_repo: %v", err)
		return *req, domain.NewError(domain.RequestInvalid, "Invalid parameter", err.Error())
	}

	imageRef := req.ImageRef()
	log := logrus.WithField("image", imageRef)

	log.WithField("source", logging.RedactURL(src.String())).Debug("Building image")
	if err := s.daemon.Build(ctx, src, imageRef); err != nil {
		log.Errorf("Build failed: %v", err)
		return *req, domain.NewError(domain.BuildFailed, "Docker Build failed", err.Error())
	}

	if push {
		log.Debug("Push the image to repo")
		if err := s.daemon.Push(ctx, imageRef, req.RegistryAuth()); err != nil {
			log.Errorf("Push failed: %v", err)
			return *req, domain.NewError(domain.PushFailed, "Docker Push failed", err.Error())
		}
	}

	log.Info("Build successful")
	return *req, nil
}
