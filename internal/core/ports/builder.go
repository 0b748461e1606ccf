package ports

import (
	"context"

	"github.com/melih/aesir/internal/core/domain"
)

// BuildDaemon defines the image operations delegated to a container engine.
// A returned error's message is the engine's diagnostic and is reported to
// the caller unchanged.
type BuildDaemon interface {
	// Build builds src and tags the result as imageRef.
	Build(ctx context.Context, src domain.SourceLocator, imageRef string) error
	// Push pushes imageRef, logging in to its registry first when auth is set.
	Push(ctx context.Context, imageRef string, auth *domain.RegistryAuth) error
}
