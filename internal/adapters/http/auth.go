package http

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const credentialKey = "credential"

// Authorizer decides whether a credential may trigger builds.
type Authorizer interface {
	Authorize(ctx context.Context, credential string) error
}

// RequireOrgMember rejects requests whose Authorization credential is not
// accepted by auth, and stores the credential for the next handler.
func RequireOrgMember(auth Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		credential := ParseCredential(c.Get(fiber.HeaderAuthorization))
		if err := auth.Authorize(c.UserContext(), credential); err != nil {
			return writeError(c, err)
		}
		c.Locals(credentialKey, credential)
		return c.Next()
	}
}

// ParseCredential extracts the credential from an Authorization header
// value. Basic values are decoded to user:password, Bearer and token values
// yield the token, and anything else is taken as the credential itself.
func ParseCredential(header string) string {
	header = strings.TrimSpace(header)
	scheme, value, found := strings.Cut(header, " ")
	if !found {
		return header
	}

	switch strings.ToLower(scheme) {
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
		if err != nil {
			return ""
		}
		return string(decoded)
	case "bearer", "token":
		return strings.TrimSpace(value)
	default:
		return header
	}
}
