package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/melih/aesir/internal/core/domain"
)

// BuildService runs a build for an authorized caller.
type BuildService interface {
	Build(ctx context.Context, credential string, body []byte, push bool) (domain.BuildRequest, error)
}

// BuildHandler serves POST /build.
type BuildHandler struct {
	service BuildService
}

func NewBuildHandler(service BuildService) *BuildHandler {
	return &BuildHandler{service: service}
}

// Build runs the build described by the request body. The "push" query flag,
// with any value, pushes the image once it is built.
func (h *BuildHandler) Build(c *fiber.Ctx) error {
	credential, _ := c.Locals(credentialKey).(string)
	push := c.Context().QueryArgs().Has("push")

	req, err := h.service.Build(c.UserContext(), credential, c.Body(), push)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"title":       "Build Successful",
		"description": fmt.Sprintf("Successfully build and pushed %s image and it's ready to be deployed", req.DockerImage),
	})
}

// Health reports liveness.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

var statusByKind = map[domain.ErrorKind]int{
	domain.AuthInvalid:       fiber.StatusUnauthorized,
	domain.AuthForbidden:     fiber.StatusForbidden,
	domain.RequestMalformed:  fiber.StatusBadRequest,
	domain.RequestIncomplete: fiber.StatusBadRequest,
	domain.RequestInvalid:    fiber.StatusBadRequest,
	domain.BuildFailed:       fiber.StatusInternalServerError,
	domain.PushFailed:        fiber.StatusInternalServerError,
}

// writeError renders err as {"title", "description"} with the status of its kind.
func writeError(c *fiber.Ctx, err error) error {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		logrus.Errorf("Unexpected error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"title":       "Internal Server Error",
			"description": err.Error(),
		})
	}

	status, ok := statusByKind[derr.Kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(fiber.Map{
		"title":       derr.Title,
		"description": derr.Description,
	})
}
